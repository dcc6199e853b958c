// Package sound plays sound effects through the system mixer.
package sound

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/soyeahso/voicebot/internal/logging"
)

// DeviceRate is the sample rate the speaker is opened at. Streams at
// other rates are resampled.
const DeviceRate beep.SampleRate = 44100

// Player plays files, raw samples and chimes. Playback is serialized.
type Player struct {
	log *logging.Logger

	mu      sync.Mutex
	once    sync.Once
	initErr error
}

// New creates a Player. The audio device is opened on first use.
func New(log *logging.Logger) *Player {
	return &Player{log: log.Sub("sound")}
}

func (p *Player) init() error {
	p.once.Do(func() {
		p.initErr = speaker.Init(DeviceRate, DeviceRate.N(time.Second/10))
		if p.initErr != nil {
			p.log.Error().Err(p.initErr).Msg("opening speaker")
		}
	})
	return p.initErr
}

// PlayFile decodes an mp3 or wav file and plays it.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	p.log.Debug().Str("path", path).Msg("playing file")
	return p.Stream(ctx, streamer, format.SampleRate)
}

// Play plays mono 16-bit samples.
func (p *Player) Play(ctx context.Context, samples []int16, sampleRate int) error {
	return p.Stream(ctx, Samples(samples), beep.SampleRate(sampleRate))
}

// Chime plays a short two-tone signal.
func (p *Player) Chime(ctx context.Context) error {
	return p.Stream(ctx, ChimeStreamer(DeviceRate), DeviceRate)
}

// Stream plays s at rate and blocks until it ends or ctx is done.
func (p *Player) Stream(ctx context.Context, s beep.Streamer, rate beep.SampleRate) error {
	if err := p.init(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if rate != DeviceRate {
		s = beep.Resample(4, rate, DeviceRate, s)
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// Samples streams mono 16-bit samples on both channels.
func Samples(samples []int16) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < len(samples) {
			v := float64(samples[pos]) / 32768
			buf[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})
}

// Tone is a sine wave at freq Hz for d, with a short linear fade at both
// ends.
func Tone(rate beep.SampleRate, freq float64, d time.Duration, volume float64) beep.Streamer {
	total := rate.N(d)
	fade := min(rate.N(5*time.Millisecond), total/2)
	pos := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < total {
			gain := volume
			if fade > 0 {
				if pos < fade {
					gain *= float64(pos) / float64(fade)
				} else if total-pos < fade {
					gain *= float64(total-pos) / float64(fade)
				}
			}
			v := gain * math.Sin(2*math.Pi*freq*float64(pos)/float64(rate))
			buf[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})
}

// ChimeStreamer returns the two-tone chime played between news items and
// before timer announcements.
func ChimeStreamer(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		Tone(rate, 880, 120*time.Millisecond, 0.4),
		beep.Silence(rate.N(40*time.Millisecond)),
		Tone(rate, 1320, 180*time.Millisecond, 0.4),
	)
}
