package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/voicebot/internal/store"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recorded conversations",
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	return cmd
}

func openStore() (*store.DB, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Disabled {
		return nil, fmt.Errorf("the transcript store is disabled (store.disabled)")
	}
	return store.Open(paths.DatabasePath(cfg.Store), log)
}

func newSessionsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := db.RecentSessions(limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversations recorded yet.")
				return nil
			}
			for _, s := range sessions {
				turns, err := db.Turns(s.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s  turns=%d\n",
					s.ID, s.StartedAt.Local().Format(time.DateTime), len(turns))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of sessions to show")
	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the turns of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			turns, err := db.Turns(args[0])
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				return fmt.Errorf("session not found: %s", args[0])
			}
			printTurns(cmd.OutOrStdout(), turns)
			return nil
		},
	}
}

func printTurns(w io.Writer, turns []store.Turn) {
	for _, t := range turns {
		who := t.Role
		if t.Name != "" {
			who += "/" + t.Name
		}
		fmt.Fprintf(w, "[%s] %-16s %s\n", t.At.Local().Format(time.TimeOnly), who, t.Content)
	}
}
