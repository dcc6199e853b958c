package tools

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/voicebot/internal/logging"
	"github.com/soyeahso/voicebot/internal/timer"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) CacheGet(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) CachePut(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = value
	return nil
}

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

type recordingSound struct {
	mu     sync.Mutex
	played []string
	chimes int
}

func (s *recordingSound) PlayFile(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, path)
	return nil
}

func (s *recordingSound) Chime(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chimes++
	return nil
}

func testScheduler(t *testing.T, now time.Time) *timer.Scheduler {
	t.Helper()
	s := timer.NewScheduler(nil, logging.Nop(), timer.WithClock(func() time.Time { return now }))
	t.Cleanup(s.Close)
	return s
}
