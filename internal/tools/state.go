package tools

import (
	"slices"
	"time"

	"github.com/soyeahso/voicebot/internal/timer"
)

// StateKey names a field of State that a tool may write.
type StateKey string

// KeyRunningTimers is the list of timers started by the timer tools.
const KeyRunningTimers StateKey = "running_timers"

// State is the shared tool state owned by the dialogue engine. Handlers
// receive a copy and describe changes through an Update.
type State struct {
	Timers []*timer.Timer
}

// Clone returns a copy whose slices can be modified freely.
func (s State) Clone() State {
	return State{Timers: slices.Clone(s.Timers)}
}

// Merge returns s with every key written by u replaced.
func (s State) Merge(u Update) State {
	out := s.Clone()
	if u.timersSet {
		out.Timers = slices.Clone(u.timers)
	}
	return out
}

// ActiveTimers returns the timers that have not fired yet.
func (s State) ActiveTimers() []*timer.Timer {
	out := make([]*timer.Timer, 0, len(s.Timers))
	for _, t := range s.Timers {
		if !t.Fired() {
			out = append(out, t)
		}
	}
	return out
}

// Update is a key-wise state fragment returned by a handler. The zero
// value writes nothing.
type Update struct {
	timers    []*timer.Timer
	timersSet bool
}

// SetTimers writes KeyRunningTimers.
func (u Update) SetTimers(ts []*timer.Timer) Update {
	u.timers = slices.Clone(ts)
	u.timersSet = true
	return u
}

// Keys returns the keys written by u.
func (u Update) Keys() []StateKey {
	var keys []StateKey
	if u.timersSet {
		keys = append(keys, KeyRunningTimers)
	}
	return keys
}

// Empty reports whether u writes nothing.
func (u Update) Empty() bool { return len(u.Keys()) == 0 }

// Clock returns the current time; tools take one so tests can pin it.
type Clock func() time.Time
