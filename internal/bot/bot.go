// Package bot runs the listen, transcribe, respond and speak loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/listen"
	"github.com/soyeahso/voicebot/internal/logging"
)

// Listener captures the next utterance. A nil utterance means nothing
// was said.
type Listener interface {
	Listen(ctx context.Context, src audio.Source, lastReply time.Time) (*listen.Utterance, error)
}

// Transcriber converts normalized samples to text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Responder produces the reply to a transcribed prompt.
type Responder interface {
	GenerateResponse(ctx context.Context, prompt string, lastReply, current time.Time) (string, bool, error)
}

// Speaker speaks text and blocks until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Config controls optional behaviour of the loop.
type Config struct {
	SampleRate int
	// PlayBack plays each utterance back before transcribing it.
	PlayBack bool
	// SaveDir, when set, receives every utterance as a WAV file.
	SaveDir string
}

// Bot wires the collaborators of the main loop.
type Bot struct {
	Config      Config
	Source      audio.Source
	Listener    Listener
	Transcriber Transcriber
	Responder   Responder
	Speaker     Speaker
	// Player is used for PlayBack and may be nil otherwise.
	Player audio.Player
	Log    *logging.Logger
	Now    func() time.Time
}

// neverReplied is the last reply time before the first reply, far enough
// back that the first prompt always starts a session.
var neverReplied = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Run loops until ctx is cancelled or the audio source fails. A failing
// turn is logged and the loop continues.
func (b *Bot) Run(ctx context.Context) error {
	log := b.log()
	lastReply := neverReplied
	log.Info().Msg("listening")

	for {
		if ctx.Err() != nil {
			return nil
		}
		utt, err := b.Listener.Listen(ctx, b.Source, lastReply)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bot: %w", err)
		}
		if utt == nil {
			continue
		}
		lastReply = b.Turn(ctx, utt, lastReply)
	}
}

// Turn handles one utterance and returns the updated last reply time.
func (b *Bot) Turn(ctx context.Context, utt *listen.Utterance, lastReply time.Time) time.Time {
	log := b.log().With("trigger", string(utt.Trigger))
	log.Info().
		Int("frames", utt.Frames).
		Dur("duration", utt.Duration(b.Config.SampleRate)).
		Msg("utterance captured")

	if b.Config.SaveDir != "" {
		name := filepath.Join(b.Config.SaveDir, "utterance-"+utt.Start.Format("20060102-150405.000")+".wav")
		if err := audio.SaveWAV(name, utt.Raw, b.Config.SampleRate); err != nil {
			log.Warn().Err(err).Msg("saving utterance")
		}
	}
	if b.Config.PlayBack && b.Player != nil {
		if err := b.Player.Play(ctx, utt.Raw, b.Config.SampleRate); err != nil {
			log.Warn().Err(err).Msg("playing back utterance")
		}
	}

	text, err := b.Transcriber.Transcribe(ctx, utt.Samples)
	if err != nil {
		log.Error().Err(err).Msg("transcription failed")
		return lastReply
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Debug().Msg("empty transcript")
		return lastReply
	}
	log.Info().Str("text", text).Msg("transcribed")

	reply, ok, err := b.Responder.GenerateResponse(ctx, text, lastReply, utt.Start)
	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		return lastReply
	}
	if !ok {
		return lastReply
	}

	if err := b.Speaker.Speak(ctx, reply); err != nil {
		log.Error().Err(err).Msg("speaking reply")
		return lastReply
	}
	return b.now()
}

func (b *Bot) log() *logging.Logger {
	if b.Log == nil {
		return logging.Nop()
	}
	return b.Log
}

func (b *Bot) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
