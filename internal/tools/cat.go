package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/soyeahso/voicebot/internal/logging"
)

const catFallback = "Kunne desværre ikke miaue rigtigt, men her kommer et forsøg: Miaauu!"

// Cat plays a meow, downloading it once.
type Cat struct {
	HTTP      *http.Client
	URL       string
	CachePath string
	Sound     Sound
	Log       *logging.Logger
}

// Spec returns the meow tool.
func (c *Cat) Spec() Spec {
	return Spec{
		Name:        "meow",
		Description: "Afspil en kattelyd.",
		Parameters:  objectSchema(map[string]any{}),
		Handler: Typed(func(ctx context.Context, _ State, _ NoParams) (Result, error) {
			if err := c.ensureSound(ctx); err != nil {
				logOrNop(c.Log).Warn().Err(err).Msg("downloading cat sound")
				return Result{Message: catFallback}, nil
			}
			if err := c.Sound.PlayFile(ctx, c.CachePath); err != nil {
				return Result{}, fmt.Errorf("playing cat sound: %w", err)
			}
			return Result{}, nil
		}),
	}
}

func (c *Cat) ensureSound(ctx context.Context) error {
	if _, err := os.Stat(c.CachePath); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o755); err != nil {
		return err
	}
	tmp := c.CachePath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, c.CachePath)
}
