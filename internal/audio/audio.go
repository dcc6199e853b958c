// Package audio defines the frame contract between the microphone and the
// rest of the voice bot, plus small PCM helpers.
package audio

import (
	"context"
	"io"
	"math"
)

// Frame is one chunk of mono 16-bit PCM samples.
type Frame []int16

// Source produces fixed-length frames. ReadFrame blocks until a frame is
// available; io.EOF means the source is exhausted.
type Source interface {
	ReadFrame(ctx context.Context) (Frame, error)
}

// Player plays mono 16-bit PCM and blocks until playback finishes.
type Player interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}

// Peak returns the largest sample value in f, or 0 for an empty frame.
func Peak(f Frame) int {
	if len(f) == 0 {
		return 0
	}
	peak := int(f[0])
	for _, s := range f[1:] {
		if int(s) > peak {
			peak = int(s)
		}
	}
	return peak
}

// Concat joins frames into one sample slice.
func Concat(frames []Frame) []int16 {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}

// Normalize converts int16 samples to float32 in [-1, 1].
func Normalize(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		v := float32(s) / math.MaxInt16
		if v < -1 {
			v = -1
		}
		out[i] = v
	}
	return out
}

// Denormalize converts float32 samples in [-1, 1] back to int16, clipping
// out-of-range values.
func Denormalize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int16(math.Round(float64(s) * math.MaxInt16))
	}
	return out
}

// Downmix averages interleaved channels into mono.
func Downmix(in []int16, channels int) []int16 {
	if channels <= 1 {
		return in
	}
	n := len(in) / channels
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(in[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// Resample converts samples between rates with linear interpolation.
func Resample(in []int16, inRate, outRate int) []int16 {
	if inRate == outRate || len(in) == 0 || inRate <= 0 || outRate <= 0 {
		return in
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]int16, n)
	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		a := src - float64(i0)
		out[i] = int16(math.Round(float64(in[i0])*(1-a) + float64(in[i0+1])*a))
	}
	return out
}

// FrameReader serves a fixed sample buffer as a Source, one frame at a
// time. The last partial frame is zero-padded.
type FrameReader struct {
	samples  []int16
	frameLen int
	pos      int
}

// NewFrameReader returns a Source over samples with frames of frameLen.
func NewFrameReader(samples []int16, frameLen int) *FrameReader {
	return &FrameReader{samples: samples, frameLen: frameLen}
}

// ReadFrame returns the next frame or io.EOF.
func (r *FrameReader) ReadFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.samples) || r.frameLen <= 0 {
		return nil, io.EOF
	}
	f := make(Frame, r.frameLen)
	r.pos += copy(f, r.samples[r.pos:])
	return f, nil
}
