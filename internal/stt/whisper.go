// Package stt turns captured speech into text with whisper.cpp.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/logging"
)

// Transcriber converts normalized 16 kHz mono samples to text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Model is a loaded whisper model. Contexts created from it are serialized.
type Model struct {
	mu    sync.Mutex
	model whisper.Model
}

// LoadModel loads a ggml whisper model from path.
func LoadModel(path string) (*Model, error) {
	if path == "" {
		return nil, errors.New("stt: empty model path")
	}
	m, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("stt: load model %s: %w", path, err)
	}
	return &Model{model: m}, nil
}

// Close releases the model.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == nil {
		return nil
	}
	err := m.model.Close()
	m.model = nil
	return err
}

// Options configure a Whisper transcriber.
type Options struct {
	Language string // "auto" detects
	Threads  int    // <=0 uses NumCPU
	Prompt   string // initial prompt, biases vocabulary
}

// Whisper transcribes with a shared Model.
type Whisper struct {
	model *Model
	opts  Options
	log   *logging.Logger
}

// NewWhisper returns a transcriber over model.
func NewWhisper(model *Model, opts Options, log *logging.Logger) *Whisper {
	if opts.Language == "" {
		opts.Language = "auto"
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	return &Whisper{model: model, opts: opts, log: log.Sub("stt")}
}

// Transcribe runs whisper over samples and joins the segment texts.
func (w *Whisper) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	w.model.mu.Lock()
	defer w.model.mu.Unlock()
	if w.model.model == nil {
		return "", errors.New("stt: model closed")
	}

	wctx, err := w.model.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("stt: new context: %w", err)
	}
	if err := wctx.SetLanguage(w.opts.Language); err != nil {
		return "", fmt.Errorf("stt: set language %q: %w", w.opts.Language, err)
	}
	wctx.SetThreads(uint(w.opts.Threads))
	if w.opts.Prompt != "" {
		wctx.SetInitialPrompt(w.opts.Prompt)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("stt: process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("stt: next segment: %w", err)
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Fixed wraps a Transcriber and applies literal fixes to its output.
type Fixed struct {
	Transcriber
	Fixes []config.TextFix
	Log   *logging.Logger
}

// Transcribe implements Transcriber.
func (f Fixed) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if f.Log != nil {
		f.Log.Info().Int("samples", len(samples)).Msg("transcribing speech")
	}
	text, err := f.Transcriber.Transcribe(ctx, samples)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(config.ApplyFixes(text, f.Fixes))
	if f.Log != nil {
		f.Log.Info().Str("text", text).Msg("heard")
	}
	return text, nil
}
