package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/chatall/pkg/db"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		limit       int
		chatContext string
		stats       bool
	)
	command := &cobra.Command{
		Use:   "history",
		Short: "Show recently relayed chat lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.History.Path); err != nil {
				return fmt.Errorf("no history at %s: %w", cfg.History.Path, err)
			}
			conn, err := db.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			if stats {
				rows, err := db.StatsBySpeaker(cmd.Context(), conn)
				if err != nil {
					return err
				}
				for _, s := range rows {
					fmt.Fprintf(out, "%s\t%d messages\t%d annotated\n", s.Speaker, s.Messages, s.Annotated)
				}
				return nil
			}

			messages, err := db.RecentMessages(cmd.Context(), conn, chatContext, limit)
			if err != nil {
				return err
			}
			// Oldest first, like a chat log.
			for i := len(messages) - 1; i >= 0; i-- {
				m := messages[i]
				line := fmt.Sprintf("%s [%s] %s: %s", m.SentAt.Local().Format(time.DateTime), m.Context, m.Speaker, m.RawText)
				if m.Annotation != "" {
					line += " (" + m.Annotation + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	flags := command.Flags()
	flags.IntVar(&limit, "limit", 20, "Number of lines to show")
	flags.StringVar(&chatContext, "context", "", "Only show lines from this server")
	flags.BoolVar(&stats, "stats", false, "Show per-speaker counts instead of lines")
	return command
}
