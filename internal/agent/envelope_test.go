package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		answer  string
		tool    string
		params  string
		wantErr bool
	}{
		{name: "answer", in: `{"response":{"answer":"Hej!"}}`, answer: "Hej!"},
		{name: "fenced", in: "```json\n{\"response\":{\"answer\":\"Hej\"}}\n```", answer: "Hej"},
		{name: "call", in: `{"response":{"name":"set_timer","parameters":{"duration_seconds":300}}}`, tool: "set_timer", params: `{"duration_seconds":300}`},
		{name: "call without parameters", in: `{"response":{"name":"meow"}}`, tool: "meow", params: `{}`},
		{name: "null parameters", in: `{"response":{"name":"meow","parameters":null}}`, tool: "meow", params: `{}`},
		{name: "empty", in: "  ", wantErr: true},
		{name: "plain text", in: "Klokken er otte.", wantErr: true},
		{name: "no response", in: `{"answer":"Hej"}`, wantErr: true},
		{name: "both", in: `{"response":{"answer":"Hej","name":"meow"}}`, wantErr: true},
		{name: "neither", in: `{"response":{}}`, wantErr: true},
		{name: "numeric answer", in: `{"response":{"answer":5}}`, wantErr: true},
		{name: "empty name", in: `{"response":{"name":"","parameters":{}}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.tool == "" {
				assert.False(t, env.IsCall())
				assert.Equal(t, tt.answer, env.Answer)
				return
			}
			require.True(t, env.IsCall())
			assert.Equal(t, tt.tool, env.Call.Name)
			assert.JSONEq(t, tt.params, string(env.Call.Parameters))
		})
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	out := BuildSystemPrompt(PromptConfig{
		AgentName:   "Robert",
		Now:         now,
		Tools:       "- set_timer: Start en timer.\n",
		ExtraPrompt: "Tal altid pænt.",
	})

	assert.True(t, strings.HasPrefix(out, "Du hedder Robert og er en dansk stemmerobot."))
	assert.Contains(t, strings.ToLower(out), "onsdag den 1. maj 2024, klokken 08:30")
	assert.Contains(t, out, "- set_timer: Start en timer.")
	assert.Contains(t, out, `"parameters"`)
	assert.True(t, strings.HasSuffix(out, "Tal altid pænt.\n"))
}

func TestBuildSystemPromptMinimal(t *testing.T) {
	out := BuildSystemPrompt(PromptConfig{Now: time.Now()})
	assert.Contains(t, out, "Du hedder Robert")
	assert.NotContains(t, out, "værktøjer")
	assert.Contains(t, out, `{"response": {"answer": "<dit svar>"}}`)
}
