package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/voicebot/internal/timer"
)

// Starter starts countdowns.
type Starter interface {
	Start(d time.Duration) *timer.Timer
}

type setTimerParams struct {
	DurationSeconds int `json:"duration_seconds"`
}

type stopTimerParams struct {
	Duration *string `json:"duration"`
}

// TimerTools returns set_timer, stop_timer and list_timers. Timers that
// already fired are dropped from the state whenever set_timer or
// stop_timer write it.
func TimerTools(sched Starter, now Clock) []Spec {
	if now == nil {
		now = time.Now
	}
	return []Spec{
		{
			Name:        "set_timer",
			Description: "Start en timer med den givne varighed i sekunder.",
			Parameters: objectSchema(map[string]any{
				"duration_seconds": map[string]any{"type": "integer", "minimum": 1},
			}),
			Writes: []StateKey{KeyRunningTimers},
			Handler: Typed(func(_ context.Context, st State, p setTimerParams) (Result, error) {
				d := time.Duration(p.DurationSeconds) * time.Second
				t := sched.Start(d)
				return Result{
					Message: fmt.Sprintf("Startet timer med varighed %s.", timer.Danish(t.Duration)),
					Update:  Update{}.SetTimers(append(st.ActiveTimers(), t)),
				}, nil
			}),
		},
		{
			Name: "stop_timer",
			Description: "Stop en kørende timer. Angiv varigheden som H:MM:SS, " +
				"eller null for at stoppe den korteste timer.",
			Parameters: objectSchema(map[string]any{
				"duration": map[string]any{"type": []any{"string", "null"}},
			}),
			Writes:  []StateKey{KeyRunningTimers},
			Handler: Typed(stopTimer),
		},
		{
			Name:        "list_timers",
			Description: "List de kørende timere og hvor lang tid der er tilbage.",
			Parameters:  objectSchema(map[string]any{}),
			Handler: Typed(func(_ context.Context, st State, _ NoParams) (Result, error) {
				return Result{Message: listTimers(st.ActiveTimers(), now())}, nil
			}),
		},
	}
}

func stopTimer(_ context.Context, st State, p stopTimerParams) (Result, error) {
	active := st.ActiveTimers()
	if len(active) == 0 {
		return Result{Message: "Ingen kørende timere.", Update: Update{}.SetTimers(nil)}, nil
	}

	idx := -1
	if p.Duration == nil {
		idx = 0
		for i, t := range active {
			if t.Duration < active[idx].Duration {
				idx = i
			}
		}
	} else {
		for i, t := range active {
			if timer.SameDuration(t.Duration, *p.Duration) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Result{
				Message: fmt.Sprintf("Ingen timer med varighed %s.", *p.Duration),
				Update:  Update{}.SetTimers(active),
			}, nil
		}
	}

	stopped := active[idx]
	stopped.Stop()
	rest := append(active[:idx:idx], active[idx+1:]...)
	return Result{
		Message: fmt.Sprintf("Timer med varighed %s stoppet.", timer.Danish(stopped.Duration)),
		Update:  Update{}.SetTimers(rest),
	}, nil
}

func listTimers(active []*timer.Timer, now time.Time) string {
	if len(active) == 0 {
		return "Ingen kørende timere."
	}
	infos := make([]string, len(active))
	for i, t := range active {
		infos[i] = fmt.Sprintf("timer med varighed %s (%s tilbage)",
			timer.Danish(t.Duration), timer.Danish(t.Remaining(now)))
	}
	noun := "timere"
	if len(active) == 1 {
		noun = "timer"
	}
	return fmt.Sprintf("Der kører %d %s: %s", len(active), noun, strings.Join(infos, ", "))
}
