package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrChainedToolCall marks a tool call returned on the follow-up pass
// after a tool result.
var ErrChainedToolCall = errors.New("chained tool call")

// Envelope is the model's structured reply: either an answer or a single
// tool call.
type Envelope struct {
	Answer string
	Call   *ToolCall
}

// ToolCall names a tool and carries its raw JSON parameters.
type ToolCall struct {
	Name       string
	Parameters json.RawMessage
}

// IsCall reports whether the envelope asks for a tool.
func (e Envelope) IsCall() bool { return e.Call != nil }

// ParseEnvelope decodes {"response": {"answer": ...}} or
// {"response": {"name": ..., "parameters": {...}}}. A surrounding markdown
// code fence is tolerated.
func ParseEnvelope(content string) (Envelope, error) {
	body := unfence(content)
	if body == "" {
		return Envelope{}, errors.New("empty model output")
	}

	var outer struct {
		Response map[string]json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal([]byte(body), &outer); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if outer.Response == nil {
		return Envelope{}, errors.New("envelope has no response")
	}

	rawName, hasName := outer.Response["name"]
	rawAnswer, hasAnswer := outer.Response["answer"]
	switch {
	case hasName && hasAnswer:
		return Envelope{}, errors.New("envelope has both answer and tool call")
	case hasName:
		var name string
		if err := json.Unmarshal(rawName, &name); err != nil || name == "" {
			return Envelope{}, errors.New("envelope tool name must be a non-empty string")
		}
		params := outer.Response["parameters"]
		if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
			params = json.RawMessage("{}")
		}
		return Envelope{Call: &ToolCall{Name: name, Parameters: params}}, nil
	case hasAnswer:
		var answer string
		if err := json.Unmarshal(rawAnswer, &answer); err != nil {
			return Envelope{}, errors.New("envelope answer must be a string")
		}
		return Envelope{Answer: answer}, nil
	default:
		return Envelope{}, errors.New("envelope has neither answer nor tool call")
	}
}

func unfence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// AnswerSchema is the envelope schema allowing only a plain answer.
func AnswerSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"answer": map[string]any{"type": "string"},
				},
				"required":             []string{"answer"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"response"},
		"additionalProperties": false,
	}
}
