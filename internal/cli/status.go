package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show voicebot status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "voicebot %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(w, "Config:  %s\n", paths.Config)
			fmt.Fprintf(w, "Data:    %s\n", paths.Data)
			fmt.Fprintf(w, "Models:  %s\n", paths.Models)
			fmt.Fprintln(w)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(w, "Config:  not found (using defaults)")
			}
			cfg, err := loadConfig(false)
			if err != nil {
				fmt.Fprintf(w, "Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(w, "Audio:   %d Hz, %gs frames\n", cfg.Audio.SampleRate, cfg.Audio.ChunkSeconds)
			fmt.Fprintf(w, "Wake:    %q threshold=%g loudness=%d\n",
				cfg.WakeWord.Phrase, cfg.Detector.WakeWordThreshold, cfg.Detector.MinAudioThreshold)
			model := cfg.Transcriber.ModelPath
			if model == "" {
				model = "(not configured)"
			}
			fmt.Fprintf(w, "Whisper: %s language=%s\n", model, cfg.Transcriber.Language)

			llmLine := fmt.Sprintf("%s model=%s", cfg.LLM.Provider, cfg.LLM.Model)
			if len(cfg.LLM.Fallbacks) > 0 {
				llmLine += " fallbacks=" + strings.Join(cfg.LLM.Fallbacks, ",")
			}
			fmt.Fprintf(w, "LLM:     %s\n", llmLine)
			fmt.Fprintf(w, "Agent:   %s, tools: %s\n", cfg.Agent.Name, strings.Join(cfg.Agent.Tools, ", "))
			if cfg.Network.Proxy != "" {
				fmt.Fprintf(w, "Proxy:   %s\n", cfg.Network.Proxy)
			}

			if cfg.Store.Disabled {
				fmt.Fprintln(w, "Store:   disabled")
			} else {
				fmt.Fprintf(w, "Store:   %s\n", paths.DatabasePath(cfg.Store))
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(w, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
