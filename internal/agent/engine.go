// Package agent runs the dialogue: it keeps the conversation, asks the
// model for a structured reply and dispatches tool calls.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/hooks"
	"github.com/soyeahso/voicebot/internal/llm"
	"github.com/soyeahso/voicebot/internal/logging"
	"github.com/soyeahso/voicebot/internal/tools"
)

// ToolResultInstruction follows a tool result in the conversation.
const ToolResultInstruction = "Besvar brugerens seneste besked ud fra ovenstående information. " +
	"Nævn ikke værktøjet, og hold svaret kort."

// Config controls the engine.
type Config struct {
	Name            string
	Model           string
	MaxTokens       int
	Temperature     *float64
	MinPromptLength int
	FollowUp        time.Duration
	Fixes           []config.TextFix
	ExtraPrompt     string
}

// ConfigFrom extracts the engine settings from the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Name:            cfg.Agent.Name,
		Model:           cfg.LLM.Model,
		MaxTokens:       cfg.LLM.MaxTokens,
		Temperature:     cfg.LLM.Temperature,
		MinPromptLength: cfg.Agent.MinPromptLength,
		FollowUp:        config.Seconds(cfg.Detector.FollowUpMaxSeconds),
		Fixes:           cfg.Agent.ManualFixes,
		ExtraPrompt:     cfg.Agent.ExtraPrompt,
	}
}

// Engine produces replies. It is not safe for concurrent use; the bot
// loop is its only caller.
type Engine struct {
	cfg    Config
	client llm.Client
	tools  *tools.Registry
	hooks  *hooks.Manager
	log    *logging.Logger
	now    func() time.Time

	conv  *Conversation
	state tools.State
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to render the system prompt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHooks emits conversation events to m.
func WithHooks(m *hooks.Manager) Option {
	return func(e *Engine) { e.hooks = m }
}

// NewEngine creates an engine. registry may be empty but not nil.
func NewEngine(cfg Config, client llm.Client, registry *tools.Registry, log *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		client: client,
		tools:  registry,
		log:    log.Sub("agent"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Conversation returns the current session, or nil before the first turn.
func (e *Engine) Conversation() *Conversation { return e.conv }

// State returns the shared tool state.
func (e *Engine) State() tools.State { return e.state.Clone() }

// GenerateResponse answers prompt. It reports false when there is nothing
// to say: the prompt was too short, the model output was unusable, or a
// tool already spoke for itself. Model transport errors and tool handler
// errors are returned.
func (e *Engine) GenerateResponse(ctx context.Context, prompt string, lastReply, current time.Time) (string, bool, error) {
	prompt = strings.TrimSpace(prompt)
	if len([]rune(prompt)) <= e.cfg.MinPromptLength {
		e.log.Debug().Str("prompt", prompt).Msg("prompt too short, ignoring")
		return "", false, nil
	}

	if e.conv == nil || current.Sub(lastReply) > e.cfg.FollowUp {
		e.startSession(ctx)
	}

	e.conv.Append(llm.Message{Role: llm.RoleUser, Content: prompt})
	e.emit(ctx, hooks.Payload{Event: hooks.EventUserTurn, Text: prompt})

	env, ok, err := e.ask(ctx, e.tools.EnvelopeSchema())
	if err != nil || !ok {
		return "", false, err
	}

	answer := env.Answer
	if env.IsCall() {
		answer, ok, err = e.runTool(ctx, env.Call)
		if err != nil || !ok {
			return "", false, err
		}
	}

	answer = strings.TrimSpace(config.ApplyFixes(answer, e.cfg.Fixes))
	if answer == "" {
		return "", false, nil
	}

	e.conv.Append(llm.Message{Role: llm.RoleAssistant, Content: answer})
	e.emit(ctx, hooks.Payload{Event: hooks.EventAssistantTurn, Text: answer})
	e.log.Info().Str("response", answer).Msg("generated response")
	return answer, true, nil
}

func (e *Engine) startSession(ctx context.Context) {
	now := e.now()
	prompt := BuildSystemPrompt(PromptConfig{
		AgentName:   e.cfg.Name,
		Now:         now,
		Tools:       e.tools.Describe(),
		ExtraPrompt: e.cfg.ExtraPrompt,
	})
	e.conv = NewConversation(prompt, now)
	e.log.Info().Str("session", e.conv.ID).Msg("new session")
	e.emit(ctx, hooks.Payload{Event: hooks.EventSessionStart, At: now})
}

// runTool dispatches a call, then asks the model to phrase the result.
func (e *Engine) runTool(ctx context.Context, call *ToolCall) (string, bool, error) {
	log := e.log.With("tool", call.Name)

	res, next, err := e.tools.Call(ctx, e.state, call.Name, call.Parameters)
	if errors.Is(err, tools.ErrUnknownTool) || errors.Is(err, tools.ErrInvalidParameters) {
		log.Warn().Err(err).RawJSON("parameters", call.Parameters).Msg("rejected tool call")
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	e.state = next
	log.Info().Str("result", res.Message).Msg("tool finished")

	if res.Message == "" {
		return "", false, nil
	}

	e.conv.Append(llm.Message{
		Role:    llm.RoleTool,
		Name:    call.Name,
		Content: res.Message,
	})
	e.emit(ctx, hooks.Payload{Event: hooks.EventToolCall, Name: call.Name, Text: res.Message})
	e.conv.Append(llm.Message{Role: llm.RoleSystem, Content: ToolResultInstruction})

	env, ok, err := e.ask(ctx, AnswerSchema())
	if err != nil || !ok {
		return "", false, err
	}
	if env.IsCall() {
		log.Warn().Err(ErrChainedToolCall).Str("next", env.Call.Name).Msg("ignoring reply")
		return "", false, nil
	}
	return env.Answer, true, nil
}

// ask calls the model and parses its envelope. Unparseable output is
// reported as !ok without an error.
func (e *Engine) ask(ctx context.Context, schema map[string]any) (Envelope, bool, error) {
	resp, err := e.client.Complete(ctx, llm.CompletionRequest{
		Model:       e.cfg.Model,
		Messages:    e.conv.Messages(),
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		ResponseFormat: &llm.ResponseFormat{
			Name:   "voicebot_response",
			Schema: schema,
			Strict: true,
		},
	})
	if err != nil {
		return Envelope{}, false, fmt.Errorf("generating response: %w", err)
	}

	env, err := ParseEnvelope(resp.Content)
	if err != nil {
		e.log.Warn().Err(err).Str("content", resp.Content).Msg("unusable model output")
		return Envelope{}, false, nil
	}
	return env, true, nil
}

func (e *Engine) emit(ctx context.Context, p hooks.Payload) {
	if e.hooks == nil {
		return
	}
	p.SessionID = e.conv.ID
	if p.At.IsZero() {
		p.At = e.now()
	}
	e.hooks.Emit(ctx, p)
}
