package wakeword

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/logging"
)

type fakeRecognizer struct {
	text  string
	err   error
	calls int
	last  int
}

func (f *fakeRecognizer) Transcribe(_ context.Context, samples []float32) (string, error) {
	f.calls++
	f.last = len(samples)
	return f.text, f.err
}

func loud(n int) audio.Frame {
	f := make(audio.Frame, n)
	for i := range f {
		f[i] = 5000
	}
	return f
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(words("hey jarvis"), words("Hey, Jarvis!")))
	assert.Equal(t, 1.0, Similarity(words("hey jarvis"), words("okay so hey jarvis what time")))
	assert.InDelta(t, 0.9, Similarity(words("hey jarvis"), words("hey jervis")), 0.001)
	assert.Less(t, Similarity(words("hey jarvis"), words("good morning")), 0.5)
	assert.Equal(t, 0.0, Similarity(words("hey jarvis"), nil))
	assert.Equal(t, 0.0, Similarity(nil, words("hey")))
}

func TestSpotterStride(t *testing.T) {
	rec := &fakeRecognizer{text: "hey jarvis"}
	s := NewSpotter(rec, Options{Phrase: "Hey Jarvis", WindowFrames: 3, StrideFrames: 2}, logging.Nop())

	assert.Equal(t, 0.0, s.Score(loud(4)))
	assert.Equal(t, 0, rec.calls)
	assert.Equal(t, 1.0, s.Score(loud(4)))
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 8, rec.last)

	s.Score(loud(4))
	s.Score(loud(4))
	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, 12, rec.last, "window is capped")
}

func TestSpotterResetClearsWindow(t *testing.T) {
	rec := &fakeRecognizer{text: "hey jarvis"}
	s := NewSpotter(rec, Options{Phrase: "hey jarvis", WindowFrames: 5, StrideFrames: 2}, logging.Nop())

	s.Score(loud(4))
	s.Reset()
	assert.Equal(t, 0.0, s.Score(loud(4)))
	s.Score(loud(4))
	assert.Equal(t, 8, rec.last)
}

func TestSpotterSkipsQuietWindows(t *testing.T) {
	rec := &fakeRecognizer{text: "hey jarvis"}
	s := NewSpotter(rec, Options{Phrase: "hey jarvis", WindowFrames: 2, StrideFrames: 1, MinPeak: 1000}, logging.Nop())

	assert.Equal(t, 0.0, s.Score(make(audio.Frame, 4)))
	assert.Equal(t, 0, rec.calls)
}

func TestSpotterRecognitionError(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("model busy")}
	s := NewSpotter(rec, Options{Phrase: "hey jarvis"}, logging.Nop())
	assert.Equal(t, 0.0, s.Score(loud(4)))
	assert.Equal(t, 1, rec.calls)
}
