package tools

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/logging"
)

// Cache stores response bodies for a limited time.
type Cache interface {
	CacheGet(key string) ([]byte, bool, error)
	CachePut(key string, value []byte, ttl time.Duration) error
}

// Speaker renders text as speech and blocks until it has been played.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Sound plays sound effects.
type Sound interface {
	PlayFile(ctx context.Context, path string) error
	Chime(ctx context.Context) error
}

// Deps are the collaborators of the built-in tools.
type Deps struct {
	HTTP      *http.Client
	Cache     Cache
	Speaker   Speaker
	Sound     Sound
	Scheduler Starter
	Config    config.ToolsConfig
	CacheDir  string
	Now       Clock
	Log       *logging.Logger
}

// Builtin returns every tool the bot knows, in the order of
// config.DefaultTools.
func Builtin(d Deps) []Spec {
	if d.HTTP == nil {
		d.HTTP = http.DefaultClient
	}
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	log := d.Log.Sub("tools")

	specs := TimerTools(d.Scheduler, d.Now)
	specs = append(specs,
		(&Weather{
			HTTP:     d.HTTP,
			Cache:    d.Cache,
			Username: d.Config.GeonamesUsername,
			TTL:      time.Duration(d.Config.WeatherCacheMinutes) * time.Minute,
			Log:      log,
		}).Spec(),
		(&News{
			HTTP:       d.HTTP,
			FeedURL:    d.Config.NewsFeedURL,
			Categories: d.Config.NewsCategories,
			Items:      d.Config.NewsItems,
			Speaker:    d.Speaker,
			Sound:      d.Sound,
			Log:        log,
		}).Spec(),
		(&Cat{
			HTTP:      d.HTTP,
			URL:       d.Config.CatSoundURL,
			CachePath: filepath.Join(d.CacheDir, "cat", "cat-sound.mp3"),
			Sound:     d.Sound,
			Log:       log,
		}).Spec(),
		(&WebSearch{
			HTTP:       d.HTTP,
			MaxResults: d.Config.SearchMaxResults,
			Log:        log,
		}).Spec(),
	)
	return specs
}

func logOrNop(l *logging.Logger) *logging.Logger {
	if l == nil {
		return logging.Nop()
	}
	return l
}
