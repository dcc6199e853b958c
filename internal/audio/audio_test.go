package audio

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeak(t *testing.T) {
	assert.Equal(t, 0, Peak(nil))
	assert.Equal(t, 300, Peak(Frame{-5000, 12, 300, -1}))
	assert.Equal(t, -3, Peak(Frame{-10, -3, -7}))
}

func TestConcat(t *testing.T) {
	got := Concat([]Frame{{1, 2}, {}, {3}})
	assert.Equal(t, []int16{1, 2, 3}, got)
}

func TestNormalize(t *testing.T) {
	got := Normalize([]int16{0, 32767, -32767, -32768})
	assert.Equal(t, []float32{0, 1, -1, -1}, got)
}

func TestDenormalize(t *testing.T) {
	got := Denormalize([]float32{0, 1, -1, 2, -2, 0.5})
	assert.Equal(t, []int16{0, 32767, -32767, 32767, -32767, 16384}, got)
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []int16{1, 2}, Downmix([]int16{1, 2}, 1))
	assert.Equal(t, []int16{15, -10}, Downmix([]int16{10, 20, -10, -10}, 2))
}

func TestResample(t *testing.T) {
	in := []int16{0, 100, 200, 300}
	assert.Equal(t, in, Resample(in, 16000, 16000))

	up := Resample(in, 8000, 16000)
	require.Len(t, up, 8)
	assert.Equal(t, []int16{0, 50, 100, 150, 200, 250, 300, 300}, up)

	down := Resample([]int16{0, 10, 20, 30, 40, 50}, 48000, 16000)
	assert.Equal(t, []int16{0, 30}, down)
}

func TestFrameReader(t *testing.T) {
	r := NewFrameReader([]int16{1, 2, 3, 4, 5}, 2)
	ctx := context.Background()

	f, err := r.ReadFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, Frame{1, 2}, f)

	f, err = r.ReadFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, Frame{3, 4}, f)

	f, err = r.ReadFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, Frame{5, 0}, f)

	_, err = r.ReadFrame(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFrameReader([]int16{1}, 1).ReadFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utt.wav")
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}
	require.NoError(t, SaveWAV(path, samples, 16000))

	got, err := LoadWAV(path, 16000)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestLoadWAVMissing(t *testing.T) {
	_, err := LoadWAV(filepath.Join(t.TempDir(), "nope.wav"), 16000)
	assert.Error(t, err)
}
