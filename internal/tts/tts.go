// Package tts renders Danish speech with Google Translate's speech
// endpoint and plays it back.
package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hajimehoshi/go-mp3"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/logging"
)

// MaxChunk is the longest text the endpoint accepts per request.
const MaxChunk = 100

// Speaker renders text as speech and blocks until it has been played.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Synthesizer fetches mp3 speech and plays it. Concurrent Speak calls
// never overlap on the speaker.
type Synthesizer struct {
	http     *http.Client
	endpoint string
	language string
	player   audio.Player
	decode   func(io.Reader) ([]int16, int, error)
	log      *logging.Logger

	mu sync.Mutex
}

// New creates a Synthesizer. player may be nil for Synthesize-only use.
func New(cfg config.TTSConfig, client *http.Client, player audio.Player, log *logging.Logger) *Synthesizer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://translate.google.%s/translate_tts", cfg.TLD)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Synthesizer{
		http:     client,
		endpoint: endpoint,
		language: cfg.Language,
		player:   player,
		decode:   DecodeMP3,
		log:      log.Sub("tts"),
	}
}

// Speak synthesizes text and plays it. Empty text is a no-op.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	samples, rate, err := s.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if s.player == nil {
		return fmt.Errorf("tts: no audio player configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Info().Str("text", text).Msg("speaking")
	return s.player.Play(ctx, samples, rate)
}

// Synthesize returns mono 16-bit samples of text and their sample rate.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]int16, int, error) {
	chunks := Split(text, MaxChunk)
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("tts: nothing to say")
	}

	var (
		out  []int16
		rate int
	)
	for i, chunk := range chunks {
		data, err := s.fetch(ctx, chunk, i, len(chunks))
		if err != nil {
			return nil, 0, err
		}
		pcm, r, err := s.decode(bytes.NewReader(data))
		if err != nil {
			return nil, 0, fmt.Errorf("tts: decoding chunk %d: %w", i, err)
		}
		if rate == 0 {
			rate = r
		} else if r != rate {
			pcm = audio.Resample(pcm, r, rate)
		}
		out = append(out, pcm...)
	}
	s.log.Debug().Int("chunks", len(chunks)).Int("samples", len(out)).Msg("synthesized")
	return out, rate, nil
}

func (s *Synthesizer) fetch(ctx context.Context, text string, idx, total int) ([]byte, error) {
	q := url.Values{
		"ie":      {"UTF-8"},
		"client":  {"tw-ob"},
		"tl":      {s.language},
		"q":       {text},
		"idx":     {fmt.Sprint(idx)},
		"total":   {fmt.Sprint(total)},
		"textlen": {fmt.Sprint(len([]rune(text)))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// DecodeMP3 decodes an mp3 stream to mono 16-bit samples.
func DecodeMP3(r io.Reader) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}
	stereo := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(stereo)*2]), binary.LittleEndian, stereo); err != nil {
		return nil, 0, err
	}
	return audio.Downmix(stereo, 2), dec.SampleRate(), nil
}
