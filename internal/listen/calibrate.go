package listen

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/logging"
)

// Calibration methods.
const (
	MethodMidpoint   = "midpoint"
	MethodPercentile = "percentile"
)

// CalibrationText is read aloud during the loud phase.
const CalibrationText = "A chatbot is a software application or web interface that is designed " +
	"to mimic human conversation through text or voice interactions."

// Calibration is the outcome of one calibration run.
type Calibration struct {
	Quiet     int // median peak of the quiet phase
	Loud      int // median peak of the read-aloud phase
	Threshold int
}

// Calibrator derives the loudness threshold from a quiet phase followed by
// a read-aloud phase.
type Calibrator struct {
	Chunk      time.Duration
	Phase      time.Duration
	Method     string
	Percentile float64

	// Prompt receives user instructions. Defaults to logging them.
	Prompt func(msg string)
	// Sleep paces the countdowns. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	Log *logging.Logger
}

// Run performs both phases against src. It has no side effects beyond
// reading frames, so it can be rerun at any time.
func (c *Calibrator) Run(ctx context.Context, src audio.Source) (Calibration, error) {
	if c.Chunk <= 0 {
		return Calibration{}, fmt.Errorf("calibrate: chunk duration must be positive")
	}
	n := int(c.Phase / c.Chunk)
	if n < 1 {
		return Calibration{}, fmt.Errorf("calibrate: phase %s shorter than one chunk", c.Phase)
	}

	c.prompt("Calibrating audio threshold...")
	if err := c.countdown(ctx, "Please be quiet in", "Quiet!"); err != nil {
		return Calibration{}, err
	}
	quiet, err := peaks(ctx, src, n)
	if err != nil {
		return Calibration{}, err
	}

	c.prompt("Here is some text:\n'" + CalibrationText + "'")
	if err := c.countdown(ctx, "Please read the text aloud in", "Read!"); err != nil {
		return Calibration{}, err
	}
	loud, err := peaks(ctx, src, n)
	if err != nil {
		return Calibration{}, err
	}

	res := Calibration{Quiet: median(quiet), Loud: median(loud)}
	switch c.Method {
	case MethodPercentile:
		res.Threshold = percentile(loud, c.Percentile)
	case MethodMidpoint, "":
		res.Threshold = (res.Quiet + res.Loud) / 2
	default:
		return Calibration{}, fmt.Errorf("calibrate: unknown method %q", c.Method)
	}

	if c.Log != nil {
		c.Log.Info().
			Int("quiet", res.Quiet).
			Int("loud", res.Loud).
			Int("threshold", res.Threshold).
			Str("method", c.Method).
			Msg("calibrated audio threshold")
	}
	return res, nil
}

func (c *Calibrator) prompt(msg string) {
	switch {
	case c.Prompt != nil:
		c.Prompt(msg)
	case c.Log != nil:
		c.Log.Info().Msg(msg)
	}
}

func (c *Calibrator) countdown(ctx context.Context, lead, start string) error {
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	if err := sleep(ctx, 3*time.Second); err != nil {
		return err
	}
	c.prompt(lead + " 3...")
	for _, s := range []string{"2...", "1...", start} {
		if err := sleep(ctx, time.Second); err != nil {
			return err
		}
		c.prompt(s)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func peaks(ctx context.Context, src audio.Source, n int) ([]int, error) {
	out := make([]int, 0, n)
	for range n {
		f, err := src.ReadFrame(ctx)
		if err != nil {
			return nil, fmt.Errorf("calibrate: reading frame: %w", err)
		}
		out = append(out, audio.Peak(f))
	}
	return out, nil
}

func median(vals []int) int {
	s := slices.Clone(vals)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// percentile interpolates linearly between closest ranks.
func percentile(vals []int, p float64) int {
	s := slices.Clone(vals)
	slices.Sort(s)
	pos := p / 100 * float64(len(s)-1)
	lo := int(pos)
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := pos - float64(lo)
	return int(float64(s[lo]) + frac*float64(s[lo+1]-s[lo]))
}
