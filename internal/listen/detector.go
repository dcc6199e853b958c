// Package listen decides when a user utterance starts and ends.
package listen

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/logging"
	"github.com/soyeahso/voicebot/internal/wakeword"
)

// Trigger names what started a recording.
type Trigger string

const (
	TriggerWakeWord Trigger = "wake_word"
	TriggerFollowUp Trigger = "follow_up"
)

// Utterance is one captured span of speech.
type Utterance struct {
	Samples []float32 // normalized to [-1, 1]
	Raw     []int16
	Start   time.Time
	Frames  int
	Trigger Trigger
}

// Duration returns the utterance length at sampleRate.
func (u *Utterance) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(u.Raw)) * time.Second / time.Duration(sampleRate)
}

// Config holds the detector thresholds.
type Config struct {
	Chunk             time.Duration
	WakeWordThreshold float64
	MinAudioThreshold int
	MaxSilence        time.Duration
	MaxUtterance      time.Duration
	FollowUp          time.Duration
}

// ConfigFrom extracts detector settings from the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Chunk:             cfg.Audio.Chunk(),
		WakeWordThreshold: cfg.Detector.WakeWordThreshold,
		MinAudioThreshold: cfg.Detector.MinAudioThreshold,
		MaxSilence:        config.Seconds(cfg.Detector.MaxSilenceSeconds),
		MaxUtterance:      config.Seconds(cfg.Detector.MaxAudioSeconds),
		FollowUp:          config.Seconds(cfg.Detector.FollowUpMaxSeconds),
	}
}

// silenceBudget is the number of quiet frames that ends a wait or a
// recording.
func (c Config) silenceBudget() int {
	if c.Chunk <= 0 {
		return 1
	}
	return max(1, int(c.MaxSilence/c.Chunk))
}

// Detector runs the IDLE/RECORDING state machine over an audio source.
type Detector struct {
	cfg    Config
	scorer wakeword.Scorer
	now    func() time.Time
	log    *logging.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the clock used for trigger and follow-up timing.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// New creates a Detector.
func New(cfg Config, scorer wakeword.Scorer, log *logging.Logger, opts ...Option) *Detector {
	d := &Detector{cfg: cfg, scorer: scorer, now: time.Now, log: log.Sub("listen")}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Threshold returns the loudness threshold in use.
func (d *Detector) Threshold() int { return d.cfg.MinAudioThreshold }

// SetThreshold replaces the loudness threshold, e.g. after calibration.
func (d *Detector) SetThreshold(peak int) { d.cfg.MinAudioThreshold = peak }

type state int

const (
	stateIdle state = iota
	stateRecording
)

type capture struct {
	state   state
	frames  []audio.Frame
	silent  int
	start   time.Time
	trigger Trigger
}

// Listen reads frames until an utterance is complete and returns it. A nil
// utterance with a nil error means the silence budget ran out before
// anything triggered. Source errors are returned unchanged in meaning and
// end the call.
func (d *Detector) Listen(ctx context.Context, src audio.Source, lastReply time.Time) (*Utterance, error) {
	d.log.Info().Msg("listening for wake word")

	var c capture
	for {
		f, err := src.ReadFrame(ctx)
		if err != nil {
			return nil, fmt.Errorf("listen: reading frame: %w", err)
		}
		if d.step(&c, f, d.now(), lastReply) {
			break
		}
	}

	if c.state == stateIdle {
		d.log.Debug().Msg("no trigger before silence timeout")
		return nil, nil
	}

	raw := audio.Concat(c.frames)
	return &Utterance{
		Samples: audio.Normalize(raw),
		Raw:     raw,
		Start:   c.start,
		Frames:  len(c.frames),
		Trigger: c.trigger,
	}, nil
}

// step advances the state machine by one frame and reports whether the
// capture is finished.
func (d *Detector) step(c *capture, f audio.Frame, now, lastReply time.Time) bool {
	loud := audio.Peak(f) >= d.cfg.MinAudioThreshold

	switch c.state {
	case stateIdle:
		if loud && now.Sub(lastReply) < d.cfg.FollowUp {
			d.begin(c, f, now, TriggerFollowUp)
			return false
		}
		if p := d.scorer.Score(f); p >= d.cfg.WakeWordThreshold {
			d.begin(c, f, now, TriggerWakeWord)
			return false
		}

	case stateRecording:
		c.frames = append(c.frames, f)
		if time.Duration(len(c.frames))*d.cfg.Chunk >= d.cfg.MaxUtterance {
			d.log.Info().Int("frames", len(c.frames)).Msg("max utterance length reached")
			return true
		}
	}

	if loud {
		c.silent = 0
	} else {
		c.silent++
	}
	return c.silent >= d.cfg.silenceBudget()
}

func (d *Detector) begin(c *capture, f audio.Frame, now time.Time, trigger Trigger) {
	d.log.Info().Str("trigger", string(trigger)).Msg("recording started")
	d.scorer.Reset()
	c.state = stateRecording
	c.start = now
	c.trigger = trigger
	c.silent = 0
	c.frames = append(c.frames[:0], f)
}
