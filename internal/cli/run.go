package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/bot"
	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/listen"
	"github.com/soyeahso/voicebot/internal/sound"
)

func newRunCmd() *cobra.Command {
	var (
		calibrate bool
		input     string
		playBack  bool
		saveDir   string
		detector  = newDetectorFlags()
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the voice bot",
		Long: "Listen on the default microphone for the wake word and answer spoken questions. " +
			"With --input a WAV file is used as the microphone and the bot exits at its end.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			detector.apply(&cfg)
			if issues := config.Validate(&cfg); len(issues) > 0 {
				return fmt.Errorf("invalid flag value: %s", issues[0])
			}
			if cmd.Flags().Changed("play-back") {
				cfg.Audio.PlayBackAudio = playBack
			}
			if saveDir != "" {
				cfg.Audio.SaveUtterances = saveDir
			}
			if cfg.Audio.SaveUtterances != "" {
				if err := os.MkdirAll(cfg.Audio.SaveUtterances, 0o700); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			var src audio.Source
			if input != "" {
				samples, err := audio.LoadWAV(input, cfg.Audio.SampleRate)
				if err != nil {
					return err
				}
				src = audio.NewFrameReader(samples, cfg.Audio.FrameLength())
			} else {
				mic, err := a.microphone()
				if err != nil {
					return err
				}
				src = mic
			}

			if calibrate {
				cal, err := runCalibration(ctx, cmd.OutOrStdout(), cfg, src)
				if err != nil {
					return err
				}
				a.cfg.Detector.MinAudioThreshold = cal.Threshold
				cfg = a.cfg
			}

			out, err := a.speaker()
			if err != nil {
				return err
			}
			voice := a.voice(out)
			engine, err := a.engine(voice, sound.New(log))
			if err != nil {
				return err
			}
			transcriber, model, err := a.transcriber()
			if err != nil {
				return err
			}
			spotter, err := a.spotter(model)
			if err != nil {
				return err
			}

			b := &bot.Bot{
				Config: bot.Config{
					SampleRate: cfg.Audio.SampleRate,
					PlayBack:   cfg.Audio.PlayBackAudio,
					SaveDir:    cfg.Audio.SaveUtterances,
				},
				Source:      src,
				Listener:    listen.New(listen.ConfigFrom(cfg), spotter, log),
				Transcriber: transcriber,
				Responder:   engine,
				Speaker:     voice,
				Player:      out,
				Log:         log.Sub("bot"),
			}
			err = b.Run(ctx)
			if errors.Is(err, io.EOF) {
				log.Info().Str("input", input).Msg("end of input")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&calibrate, "calibrate", false, "calibrate the loudness threshold before listening")
	cmd.Flags().StringVar(&input, "input", "", "read audio from a WAV file instead of the microphone")
	cmd.Flags().BoolVar(&playBack, "play-back", false, "play each utterance back before transcribing it")
	cmd.Flags().StringVar(&saveDir, "save-utterances", "", "directory to save each utterance as WAV")
	cmd.Flags().AddFlagSet(detector.fs)

	return cmd
}

func newCalibrateCmd() *cobra.Command {
	var (
		save   bool
		method string
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the microphone and suggest a loudness threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			if method != "" {
				cfg.Detector.Calibration.Method = method
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := &app{cfg: cfg}
			defer a.close()
			mic, err := a.microphone()
			if err != nil {
				return err
			}

			cal, err := runCalibration(ctx, cmd.OutOrStdout(), cfg, mic)
			if err != nil {
				return err
			}
			if !save {
				return nil
			}

			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}
			config.SetValueAtPath(raw, []string{"detector", "minAudioThreshold"}, cal.Threshold)
			if err := config.SaveRaw(paths.Config, raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved detector.minAudioThreshold = %d\n", cal.Threshold)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the threshold to the config file")
	cmd.Flags().StringVar(&method, "method", "", "threshold method (midpoint, percentile)")

	return cmd
}

func runCalibration(ctx context.Context, w io.Writer, cfg config.Config, src audio.Source) (listen.Calibration, error) {
	c := &listen.Calibrator{
		Chunk:      cfg.Audio.Chunk(),
		Phase:      config.Seconds(cfg.Detector.Calibration.PhaseSeconds),
		Method:     cfg.Detector.Calibration.Method,
		Percentile: cfg.Detector.Calibration.Percentile,
		Prompt:     func(msg string) { fmt.Fprintln(w, msg) },
		Log:        log.Sub("calibrate"),
	}
	cal, err := c.Run(ctx, src)
	if err != nil {
		return cal, err
	}
	fmt.Fprintf(w, "Quiet peak %d, loud peak %d, threshold %d\n", cal.Quiet, cal.Loud, cal.Threshold)
	return cal, nil
}
