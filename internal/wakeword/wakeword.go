// Package wakeword scores audio frames for the presence of a wake phrase.
package wakeword

import (
	"context"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/logging"
)

// Scorer returns the probability that the wake phrase was just spoken.
// Reset clears any internal buffering so the next detection starts fresh.
type Scorer interface {
	Score(f audio.Frame) float64
	Reset()
}

// Recognizer turns normalized samples into text.
type Recognizer interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Options tune the Spotter.
type Options struct {
	Phrase       string
	WindowFrames int // frames kept in the rolling window
	StrideFrames int // recognize every StrideFrames frames
	MinPeak      int // windows quieter than this are scored 0 without recognition
}

// Spotter is a Scorer that runs speech recognition over a rolling window
// and compares the text to the wake phrase.
type Spotter struct {
	rec    Recognizer
	opts   Options
	phrase []string
	log    *logging.Logger

	window []audio.Frame
	since  int
}

// NewSpotter creates a Spotter.
func NewSpotter(rec Recognizer, opts Options, log *logging.Logger) *Spotter {
	if opts.WindowFrames < 1 {
		opts.WindowFrames = 1
	}
	if opts.StrideFrames < 1 {
		opts.StrideFrames = 1
	}
	return &Spotter{
		rec:    rec,
		opts:   opts,
		phrase: words(opts.Phrase),
		log:    log.Sub("wakeword"),
	}
}

// Score appends f to the window and, on stride boundaries, recognizes the
// window. Frames between strides score 0.
func (s *Spotter) Score(f audio.Frame) float64 {
	s.window = append(s.window, f)
	if over := len(s.window) - s.opts.WindowFrames; over > 0 {
		s.window = s.window[over:]
	}
	s.since++
	if s.since < s.opts.StrideFrames {
		return 0
	}
	s.since = 0

	loud := false
	for _, w := range s.window {
		if audio.Peak(w) >= s.opts.MinPeak {
			loud = true
			break
		}
	}
	if !loud {
		return 0
	}

	text, err := s.rec.Transcribe(context.Background(), audio.Normalize(audio.Concat(s.window)))
	if err != nil {
		s.log.Warn().Err(err).Msg("wake word recognition failed")
		return 0
	}
	score := Similarity(s.phrase, words(text))
	if score > 0 {
		s.log.Debug().Str("heard", text).Float64("score", score).Msg("wake word scored")
	}
	return score
}

// Reset clears the window.
func (s *Spotter) Reset() {
	s.window = s.window[:0]
	s.since = 0
}

// Similarity returns the best normalized edit-distance similarity between
// phrase and any run of the same number of words in heard.
func Similarity(phrase, heard []string) float64 {
	if len(phrase) == 0 || len(heard) == 0 {
		return 0
	}
	target := strings.Join(phrase, " ")
	n := min(len(phrase), len(heard))

	best := 0.0
	for i := 0; i+n <= len(heard); i++ {
		cand := strings.Join(heard[i:i+n], " ")
		dist := levenshtein.ComputeDistance(target, cand)
		longest := max(len([]rune(target)), len([]rune(cand)))
		if sim := 1 - float64(dist)/float64(longest); sim > best {
			best = sim
		}
	}
	return best
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
