// Package device binds the audio contracts to PortAudio.
package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/soyeahso/voicebot/internal/audio"
)

// Init initializes PortAudio and returns the matching terminate func.
func Init() (func(), error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	return func() { _ = portaudio.Terminate() }, nil
}

// Microphone reads fixed-length mono int16 frames from the default input.
type Microphone struct {
	stream *portaudio.Stream
	buf    []int16
}

// OpenMicrophone opens and starts the default input stream.
func OpenMicrophone(sampleRate, frameLength int) (*Microphone, error) {
	buf := make([]int16, frameLength)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("starting input stream: %w", err)
	}
	return &Microphone{stream: stream, buf: buf}, nil
}

// ReadFrame blocks for the next frame. Input overflows are tolerated.
func (m *Microphone) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, fmt.Errorf("reading input stream: %w", err)
	}
	f := make(audio.Frame, len(m.buf))
	copy(f, m.buf)
	return f, nil
}

// Close stops and closes the stream.
func (m *Microphone) Close() error {
	if err := m.stream.Stop(); err != nil {
		m.stream.Close()
		return err
	}
	return m.stream.Close()
}

// Speaker plays mono int16 PCM on the default output. Calls are serialized.
type Speaker struct {
	mu        sync.Mutex
	frameSize int
}

// NewSpeaker returns a Speaker that writes blocks of frameSize samples.
func NewSpeaker(frameSize int) *Speaker {
	if frameSize <= 0 {
		frameSize = 1024
	}
	return &Speaker{frameSize: frameSize}
}

// Play writes samples to a fresh output stream and returns once the last
// block is queued or ctx is done.
func (s *Speaker) Play(ctx context.Context, samples []int16, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int16, s.frameSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(out), out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, samples[off:])
		clear(out[n:])
		if err := stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			return fmt.Errorf("writing output stream: %w", err)
		}
	}
	return nil
}

var (
	_ audio.Source = (*Microphone)(nil)
	_ audio.Player = (*Speaker)(nil)
)
