// Package timer runs cancellable countdowns that announce themselves when
// they expire.
package timer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/voicebot/internal/logging"
)

// Announcement is spoken when a timer expires.
const Announcement = "Beep beep. Beep beep. Tiden er gået!"

// ErrAlreadyStarted is returned when a timer is started twice.
var ErrAlreadyStarted = errors.New("timer: already started")

// Announcer is called from the countdown goroutine when a timer expires.
// The context is cancelled if the timer is stopped mid-announcement.
type Announcer interface {
	Announce(ctx context.Context, t *Timer) error
}

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(ctx context.Context, t *Timer) error

// Announce calls f.
func (f AnnouncerFunc) Announce(ctx context.Context, t *Timer) error { return f(ctx, t) }

// Timer is a single countdown.
type Timer struct {
	ID       string
	Duration time.Duration

	mu     sync.Mutex
	start  time.Time
	cancel context.CancelFunc
	done   chan struct{}
	fired  atomic.Bool
}

// New returns an unstarted timer for d.
func New(d time.Duration) *Timer {
	return &Timer{
		ID:       uuid.NewString(),
		Duration: d,
		done:     make(chan struct{}),
	}
}

// StartedAt returns the start time, or the zero time if not started.
func (t *Timer) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start
}

// Remaining returns the whole seconds left at now. Unstarted and expired
// timers report zero.
func (t *Timer) Remaining(now time.Time) time.Duration {
	start := t.StartedAt()
	if start.IsZero() {
		return 0
	}
	left := start.Add(t.Duration).Sub(now).Truncate(time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// Fired reports whether the countdown reached zero.
func (t *Timer) Fired() bool { return t.fired.Load() }

// Done is closed when the countdown task exits, either after the
// announcement or after Stop.
func (t *Timer) Done() <-chan struct{} { return t.done }

// Stop cancels the countdown and any announcement in progress. It is safe
// to call more than once and on an unstarted timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Scheduler starts timers and owns their goroutines.
type Scheduler struct {
	announcer Announcer
	log       *logging.Logger
	now       func() time.Time
	onFire    func(*Timer)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used for start times.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// OnFire registers a callback invoked when a timer expires, before the
// announcement.
func OnFire(fn func(*Timer)) Option {
	return func(s *Scheduler) { s.onFire = fn }
}

// NewScheduler creates a Scheduler. announcer may be nil.
func NewScheduler(announcer Announcer, log *logging.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		announcer: announcer,
		log:       log.Sub("timer"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start creates and starts a timer for d.
func (s *Scheduler) Start(d time.Duration) *Timer {
	t := New(d)
	_ = s.Run(t)
	return t
}

// Run starts the countdown for t.
func (s *Scheduler) Run(t *Timer) error {
	t.mu.Lock()
	if !t.start.IsZero() {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t.start = s.now()
	t.cancel = cancel
	t.mu.Unlock()

	s.log.Info().Str("id", t.ID).Dur("duration", t.Duration).Msg("timer started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(t.done)
		defer cancel()
		s.countdown(ctx, t)
	}()
	return nil
}

func (s *Scheduler) countdown(ctx context.Context, t *Timer) {
	clock := time.NewTimer(t.Duration)
	defer clock.Stop()

	select {
	case <-ctx.Done():
		s.log.Debug().Str("id", t.ID).Msg("timer stopped")
		return
	case <-clock.C:
	}

	t.fired.Store(true)
	s.log.Info().Str("id", t.ID).Dur("duration", t.Duration).Msg("timer finished, announcing")
	if s.onFire != nil {
		s.onFire(t)
	}
	if s.announcer == nil {
		return
	}
	if err := s.announcer.Announce(ctx, t); err != nil && ctx.Err() == nil {
		s.log.Warn().Err(err).Str("id", t.ID).Msg("timer announcement failed")
	}
}

// Close stops every timer and waits for their goroutines.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

// Speaker renders text as speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpokenAnnouncer plays an optional chime, then speaks Announcement.
type SpokenAnnouncer struct {
	Chime   func(ctx context.Context) error
	Speaker Speaker
}

// Announce implements Announcer.
func (a SpokenAnnouncer) Announce(ctx context.Context, _ *Timer) error {
	if a.Chime != nil {
		if err := a.Chime(ctx); err != nil {
			return err
		}
	}
	if a.Speaker == nil {
		return nil
	}
	return a.Speaker.Speak(ctx, Announcement)
}
