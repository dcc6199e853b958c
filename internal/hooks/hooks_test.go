package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/voicebot/internal/logging"
	"github.com/soyeahso/voicebot/internal/store"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventUserTurn, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), Payload{Event: EventUserTurn, SessionID: "s1", Text: "Hej"})
	assert.Equal(t, EventUserTurn, got.Event)
	assert.Equal(t, "Hej", got.Text)
	assert.False(t, got.At.IsZero())
}

func TestManager_Emit_Order(t *testing.T) {
	m := testManager()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		m.On(EventTimerFired, name, func(_ context.Context, _ Payload) error {
			order = append(order, name)
			return nil
		})
	}

	m.Emit(context.Background(), Payload{Event: EventTimerFired})
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestManager_Emit_ErrorDoesNotStop(t *testing.T) {
	m := testManager()

	var secondCalled bool
	m.On(EventToolCall, "failing", func(_ context.Context, _ Payload) error {
		return errors.New("boom")
	})
	m.On(EventToolCall, "second", func(_ context.Context, _ Payload) error {
		secondCalled = true
		return nil
	})

	m.Emit(context.Background(), Payload{Event: EventToolCall})
	assert.True(t, secondCalled)
}

func TestManager_Off(t *testing.T) {
	m := testManager()
	noop := func(_ context.Context, _ Payload) error { return nil }

	m.On(EventSessionStart, "a", noop)
	m.On(EventSessionStart, "b", noop)
	m.On(EventUserTurn, "a", noop)
	assert.Equal(t, 2, m.Count(EventSessionStart))
	assert.Equal(t, []Event{EventSessionStart, EventUserTurn}, m.Events())

	m.Off(EventSessionStart, "a")
	assert.Equal(t, 1, m.Count(EventSessionStart))

	m.Off(EventUserTurn, "a")
	assert.Equal(t, []Event{EventSessionStart}, m.Events())
}

func TestNilManagerIgnoresEmit(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.Emit(context.Background(), Payload{Event: EventUserTurn})
	})
}

func TestRecordTranscript(t *testing.T) {
	db, err := store.Open(":memory:", logging.Nop())
	require.NoError(t, err)
	defer db.Close()

	m := testManager()
	RecordTranscript(m, db)

	ctx := context.Background()
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	m.Emit(ctx, Payload{Event: EventSessionStart, SessionID: "s1", At: at})
	m.Emit(ctx, Payload{Event: EventUserTurn, SessionID: "s1", Text: "Sæt en timer", At: at})
	m.Emit(ctx, Payload{Event: EventToolCall, SessionID: "s1", Name: "set_timer", Text: "Startet timer", At: at})
	m.Emit(ctx, Payload{Event: EventAssistantTurn, SessionID: "s1", Text: "Timeren er sat.", At: at})

	turns, err := db.Turns("s1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "tool", turns[1].Role)
	assert.Equal(t, "set_timer", turns[1].Name)
	assert.Equal(t, "assistant", turns[2].Role)
	assert.Equal(t, "Timeren er sat.", turns[2].Content)
}
