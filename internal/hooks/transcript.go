package hooks

import (
	"context"
	"time"

	"github.com/soyeahso/voicebot/internal/store"
)

// TranscriptStore persists conversation turns.
type TranscriptStore interface {
	StartSession(id string, at time.Time) error
	AppendTurn(t store.Turn) error
}

// RecordTranscript subscribes s to the conversation events so every
// session and turn is written to the transcript log.
func RecordTranscript(m *Manager, s TranscriptStore) {
	const name = "transcript"
	m.On(EventSessionStart, name, func(_ context.Context, p Payload) error {
		return s.StartSession(p.SessionID, p.At)
	})
	turn := func(role string) Handler {
		return func(_ context.Context, p Payload) error {
			return s.AppendTurn(store.Turn{
				SessionID: p.SessionID,
				Role:      role,
				Name:      p.Name,
				Content:   p.Text,
				At:        p.At,
			})
		}
	}
	m.On(EventUserTurn, name, turn("user"))
	m.On(EventToolCall, name, turn("tool"))
	m.On(EventAssistantTurn, name, turn("assistant"))
}
