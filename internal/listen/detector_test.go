package listen

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/logging"
)

const chunk = 100 * time.Millisecond

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// scriptedScorer returns probs[i] on the i-th Score call and 0 afterwards.
type scriptedScorer struct {
	probs  []float64
	calls  int
	resets int
}

func (s *scriptedScorer) Score(audio.Frame) float64 {
	s.calls++
	if s.calls <= len(s.probs) {
		return s.probs[s.calls-1]
	}
	return 0
}

func (s *scriptedScorer) Reset() { s.resets++ }

// frames is a Source over a fixed list of frames.
type frames struct {
	list []audio.Frame
	pos  int
	err  error
}

func (f *frames) ReadFrame(context.Context) (audio.Frame, error) {
	if f.pos >= len(f.list) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}
	fr := f.list[f.pos]
	f.pos++
	return fr, nil
}

func frame(peak int16) audio.Frame { return audio.Frame{0, peak, 1} }

func quiet(n int) []audio.Frame {
	out := make([]audio.Frame, n)
	for i := range out {
		out[i] = frame(10)
	}
	return out
}

// tick advances by one chunk on every call.
func tick() func() time.Time {
	i := -1
	return func() time.Time {
		i++
		return epoch.Add(time.Duration(i) * chunk)
	}
}

func testConfig() Config {
	return Config{
		Chunk:             chunk,
		WakeWordThreshold: 0.5,
		MinAudioThreshold: 1000,
		MaxSilence:        300 * time.Millisecond,
		MaxUtterance:      time.Second,
		FollowUp:          5 * time.Second,
	}
}

func longAgo() time.Time { return epoch.Add(-time.Hour) }

func TestListenDiscardsAfterSilence(t *testing.T) {
	sc := &scriptedScorer{}
	src := &frames{list: quiet(10)}
	d := New(testConfig(), sc, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, longAgo())
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 3, src.pos, "budget is floor(maxSilence/chunk) frames")
	assert.Equal(t, 3, sc.calls)
	assert.Zero(t, sc.resets)
}

func TestListenLoudIdleFrameResetsBudget(t *testing.T) {
	sc := &scriptedScorer{}
	list := append(quiet(2), frame(5000))
	list = append(list, quiet(5)...)
	src := &frames{list: list}
	d := New(testConfig(), sc, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, longAgo())
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 6, src.pos)
}

func TestListenWakeWordThenSilence(t *testing.T) {
	sc := &scriptedScorer{probs: []float64{0.1, 0.2, 0.9}}
	list := []audio.Frame{frame(10), frame(20), frame(30), frame(4000), frame(5000), frame(11), frame(12), frame(13), frame(14)}
	src := &frames{list: list}
	d := New(testConfig(), sc, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, longAgo())
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, TriggerWakeWord, u.Trigger)
	assert.Equal(t, epoch.Add(2*chunk), u.Start, "start is the time of the triggering frame")
	assert.Equal(t, 6, u.Frames, "trigger frame through the last silent frame")
	assert.Equal(t, audio.Concat(list[2:8]), u.Raw)
	assert.Equal(t, 8, src.pos)
	assert.Equal(t, 1, sc.resets)
	assert.Equal(t, 3, sc.calls, "no scoring while recording")
	assert.Len(t, u.Samples, len(u.Raw))
	assert.InDelta(t, 4000.0/32767.0, u.Samples[4], 1e-6)
}

func TestListenFollowUpBypassesWakeWord(t *testing.T) {
	sc := &scriptedScorer{}
	list := append([]audio.Frame{frame(10), frame(2000)}, quiet(3)...)
	src := &frames{list: list}
	d := New(testConfig(), sc, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, epoch.Add(-2*time.Second))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, TriggerFollowUp, u.Trigger)
	assert.Equal(t, epoch.Add(chunk), u.Start)
	assert.Equal(t, 4, u.Frames)
	assert.Equal(t, 1, sc.calls, "the loud follow-up frame is not scored")
	assert.Equal(t, 1, sc.resets)
}

func TestListenFollowUpWindowExpired(t *testing.T) {
	sc := &scriptedScorer{}
	list := append([]audio.Frame{frame(2000)}, quiet(5)...)
	src := &frames{list: list}
	d := New(testConfig(), sc, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, epoch.Add(-5*time.Second))
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 4, sc.calls)
}

func TestListenMaxUtterance(t *testing.T) {
	sc := &scriptedScorer{probs: []float64{1}}
	list := make([]audio.Frame, 30)
	for i := range list {
		list[i] = frame(3000)
	}
	src := &frames{list: list}
	d := New(testConfig(), sc, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, longAgo())
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 10, u.Frames)
	assert.Equal(t, time.Duration(30)*time.Second/16000, u.Duration(16000))
}

func TestListenSourceErrorIsReturned(t *testing.T) {
	boom := errors.New("device unplugged")
	src := &frames{list: quiet(1), err: boom}
	d := New(testConfig(), &scriptedScorer{}, logging.Nop(), WithClock(tick()))

	u, err := d.Listen(context.Background(), src, longAgo())
	assert.Nil(t, u)
	assert.ErrorIs(t, err, boom)
}

func TestSilenceBudget(t *testing.T) {
	c := Config{Chunk: 80 * time.Millisecond, MaxSilence: 2 * time.Second}
	assert.Equal(t, 25, c.silenceBudget())
	c.MaxSilence = 10 * time.Millisecond
	assert.Equal(t, 1, c.silenceBudget())
	c.Chunk = 0
	assert.Equal(t, 1, c.silenceBudget())
}

func TestSetThreshold(t *testing.T) {
	d := New(testConfig(), &scriptedScorer{}, logging.Nop())
	d.SetThreshold(42)
	assert.Equal(t, 42, d.Threshold())
}
