// Package hooks dispatches conversation lifecycle events to subscribers.
package hooks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soyeahso/voicebot/internal/logging"
)

// Event names a point in the bot's lifecycle.
type Event string

const (
	EventSessionStart  Event = "session_start"
	EventUserTurn      Event = "user_turn"
	EventToolCall      Event = "tool_call"
	EventAssistantTurn Event = "assistant_turn"
	EventTimerFired    Event = "timer_fired"
)

// AllEvents lists every event the bot emits.
var AllEvents = []Event{
	EventSessionStart,
	EventUserTurn,
	EventToolCall,
	EventAssistantTurn,
	EventTimerFired,
}

// Payload describes one event. Fields that do not apply are empty.
type Payload struct {
	Event     Event
	SessionID string
	// Name is the tool name for tool calls.
	Name string
	Text string
	At   time.Time
	Data map[string]any
}

// Handler handles an event. Errors are logged and do not stop dispatch.
type Handler func(ctx context.Context, p Payload) error

// Manager holds handler registrations. The zero value is not usable; a
// nil *Manager ignores every call.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Event][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[Event][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a named handler for event.
func (m *Manager) On(event Event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", string(event)).Str("handler", name).Msg("hook registered")
}

// Off removes every handler called name from event.
func (m *Manager) Off(event Event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.handlers[event][:0:0]
	for _, h := range m.handlers[event] {
		if h.name != name {
			kept = append(kept, h)
		}
	}
	m.handlers[event] = kept
}

// Emit calls the handlers of p.Event in registration order. A zero At is
// set to the current time.
func (m *Manager) Emit(ctx context.Context, p Payload) {
	if m == nil {
		return
	}
	m.mu.RLock()
	handlers := append([]namedHandler(nil), m.handlers[p.Event]...)
	m.mu.RUnlock()

	if p.At.IsZero() {
		p.At = time.Now()
	}
	for _, h := range handlers {
		if err := h.handler(ctx, p); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", string(p.Event)).
				Str("handler", h.name).
				Msg("hook handler error")
		}
	}
}

// Count returns the number of handlers for event.
func (m *Manager) Count(event Event) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the events with at least one handler, sorted.
func (m *Manager) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []Event
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}
