package cli

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/voicebot/internal/sound"
	"github.com/soyeahso/voicebot/internal/tools"
)

func newAskCmd() *cobra.Command {
	var speak bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask the bot a question in text",
		Long: "Send one prompt through the dialogue engine and print the answer. Without arguments, " +
			"prompts are read line by line from stdin and share one conversation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			var (
				voice tools.Speaker = textVoice{w: out}
				snd   tools.Sound   = textSound{w: out}
			)
			if speak {
				player, err := a.speaker()
				if err != nil {
					return err
				}
				voice = a.voice(player)
				snd = sound.New(log)
			}

			engine, err := a.engine(voice, snd)
			if err != nil {
				return err
			}

			turn := func(prompt string, lastReply time.Time) (time.Time, error) {
				reply, ok, err := engine.GenerateResponse(ctx, prompt, lastReply, time.Now())
				if err != nil || !ok {
					return lastReply, err
				}
				if err := voice.Speak(ctx, reply); err != nil {
					return lastReply, err
				}
				return time.Now(), nil
			}

			if len(args) > 0 {
				_, err := turn(strings.Join(args, " "), time.Time{})
				return err
			}

			var lastReply time.Time
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				prompt := strings.TrimSpace(scanner.Text())
				if prompt == "" {
					continue
				}
				if lastReply, err = turn(prompt, lastReply); err != nil {
					log.Error().Err(err).Msg("turn failed")
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&speak, "speak", false, "speak answers and play sounds instead of printing them")

	return cmd
}
