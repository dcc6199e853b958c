package tts

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/logging"
)

func TestSplit(t *testing.T) {
	assert.Nil(t, Split("   ", 100))
	assert.Equal(t, []string{"Hej med dig. Hvordan går det?"}, Split("Hej med dig. Hvordan går det?", 100))
	assert.Equal(t, []string{"Hej med dig.", "Hvordan går det?"}, Split("Hej med dig. Hvordan går det?", 20))
	assert.Equal(t, []string{"Klokken er 12.30 nu."}, Split("Klokken er 12.30 nu.", 100))

	long := strings.Repeat("ord ", 60)
	for _, c := range Split(long, 100) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
	assert.Equal(t, strings.Fields(long), strings.Fields(strings.Join(Split(long, 100), " ")))

	assert.Equal(t, []string{"abcde", "fgh"}, Split("abcdefgh", 5))
}

// pcmDecoder treats the body as little-endian int16 samples at 24 kHz.
func pcmDecoder(r io.Reader) ([]int16, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return out, 24000, nil
}

type fakePlayer struct {
	mu      sync.Mutex
	active  int
	overlap bool
	played  [][]int16
}

func (p *fakePlayer) Play(_ context.Context, samples []int16, rate int) error {
	p.mu.Lock()
	p.active++
	if p.active > 1 {
		p.overlap = true
	}
	p.played = append(p.played, samples)
	p.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	return nil
}

func ttsServer(t *testing.T, queries *[]string, mu *sync.Mutex) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "da", q.Get("tl"))
		mu.Lock()
		*queries = append(*queries, q.Get("q"))
		mu.Unlock()
		w.Write([]byte{1, 0, 2, 0})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSynthesize(t *testing.T) {
	var (
		queries []string
		mu      sync.Mutex
	)
	srv := ttsServer(t, &queries, &mu)

	s := New(config.TTSConfig{Language: "da", Endpoint: srv.URL}, srv.Client(), nil, logging.Nop())
	s.decode = pcmDecoder

	text := strings.Repeat("Det er en dejlig dag i dag. ", 6)
	samples, rate, err := s.Synthesize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, 24000, rate)
	assert.Len(t, samples, 2*len(queries))
	assert.Greater(t, len(queries), 1)
	assert.Equal(t, []int16{1, 2}, samples[:2])
}

func TestSpeakSerializesPlayback(t *testing.T) {
	var (
		queries []string
		mu      sync.Mutex
	)
	srv := ttsServer(t, &queries, &mu)
	player := &fakePlayer{}
	s := New(config.TTSConfig{Language: "da", Endpoint: srv.URL}, srv.Client(), player, logging.Nop())
	s.decode = pcmDecoder

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Speak(context.Background(), "Beep beep."))
		}()
	}
	wg.Wait()

	assert.Len(t, player.played, 4)
	assert.False(t, player.overlap)

	require.NoError(t, s.Speak(context.Background(), "  "))
	assert.Len(t, player.played, 4)
}

func TestSynthesizeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := New(config.TTSConfig{Language: "da", Endpoint: srv.URL}, srv.Client(), nil, logging.Nop())
	_, _, err := s.Synthesize(context.Background(), "Hej.")
	assert.ErrorContains(t, err, "status 429")
	require.Error(t, s.Speak(context.Background(), "Hej."))
}

func TestDefaultEndpoint(t *testing.T) {
	s := New(config.TTSConfig{Language: "da", TLD: "dk"}, nil, nil, logging.Nop())
	assert.Equal(t, "https://translate.google.dk/translate_tts", s.endpoint)
}
