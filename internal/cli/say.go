package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/voicebot/internal/audio"
)

func newSayCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "say <text>",
		Short: "Speak text with the configured voice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if out != "" {
				samples, rate, err := a.voice(nil).Synthesize(ctx, text)
				if err != nil {
					return err
				}
				if err := audio.SaveWAV(out, samples, rate); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d samples at %d Hz)\n", out, len(samples), rate)
				return nil
			}

			player, err := a.speaker()
			if err != nil {
				return err
			}
			return a.voice(player).Speak(ctx, text)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write a WAV file instead of playing")

	return cmd
}

func newTranscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			samples, err := audio.LoadWAV(args[0], cfg.Audio.SampleRate)
			if err != nil {
				return err
			}

			a := &app{cfg: cfg}
			defer a.close()
			transcriber, _, err := a.transcriber()
			if err != nil {
				return err
			}

			text, err := transcriber.Transcribe(cmd.Context(), audio.Normalize(samples))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
