package tools

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/soyeahso/voicebot/internal/logging"
)

const (
	newsIntro     = "Her er seneste nyt."
	newsOutro     = "Det var alt for denne gang."
	newsEmpty     = "Der er ingen nyheder lige nu."
	newsItemPause = 500 * time.Millisecond
)

// NewsItem is a headline from a feed.
type NewsItem struct {
	Title       string
	Description string
	Published   time.Time
}

// News reads the latest headlines aloud.
type News struct {
	HTTP       *http.Client
	FeedURL    string
	Categories []string
	Items      int
	Speaker    Speaker
	Sound      Sound
	Pause      time.Duration
	Log        *logging.Logger
}

// Spec returns the get_news tool.
func (n *News) Spec() Spec {
	return Spec{
		Name:        "get_news",
		Description: "Læs de seneste nyhedsoverskrifter op.",
		Parameters:  objectSchema(map[string]any{}),
		Handler: Typed(func(ctx context.Context, _ State, _ NoParams) (Result, error) {
			items := n.Latest(ctx)
			if len(items) == 0 {
				return Result{Message: newsEmpty}, nil
			}
			if err := n.read(ctx, items); err != nil {
				return Result{}, err
			}
			return Result{}, nil
		}),
	}
}

// Latest fetches every category and returns the newest items, without
// repeated titles. Categories that fail to load are skipped.
func (n *News) Latest(ctx context.Context) []NewsItem {
	parser := gofeed.NewParser()
	parser.Client = n.HTTP

	var all []NewsItem
	for _, category := range n.Categories {
		url := fmt.Sprintf(n.FeedURL, category)
		feed, err := parser.ParseURLWithContext(url, ctx)
		if err != nil {
			logOrNop(n.Log).Warn().Err(err).Str("category", category).Msg("fetching news feed")
			continue
		}
		for _, it := range feed.Items {
			if it.PublishedParsed == nil {
				continue
			}
			all = append(all, NewsItem{
				Title:       strings.TrimSpace(it.Title),
				Description: strings.TrimSpace(it.Description),
				Published:   *it.PublishedParsed,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Published.After(all[j].Published) })

	limit := n.Items
	if limit <= 0 {
		limit = 5
	}
	seen := make(map[string]bool)
	var top []NewsItem
	for _, it := range all {
		if seen[it.Title] {
			continue
		}
		seen[it.Title] = true
		top = append(top, it)
		if len(top) >= limit {
			break
		}
	}
	return top
}

func (n *News) read(ctx context.Context, items []NewsItem) error {
	logOrNop(n.Log).Info().Int("items", len(items)).Msg("reading out the latest news")
	if err := n.Speaker.Speak(ctx, newsIntro); err != nil {
		return err
	}
	pause := n.Pause
	if pause == 0 {
		pause = newsItemPause
	}
	for _, it := range items {
		if n.Sound != nil {
			if err := n.Sound.Chime(ctx); err != nil {
				logOrNop(n.Log).Debug().Err(err).Msg("news chime failed")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		logOrNop(n.Log).Debug().Str("title", it.Title).Msg("reading news item")
		if err := n.Speaker.Speak(ctx, it.Title+". "+it.Description); err != nil {
			return err
		}
	}
	return n.Speaker.Speak(ctx, newsOutro)
}

