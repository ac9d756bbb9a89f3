package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/japaniel/chatall/pkg/admin"
	"github.com/japaniel/chatall/pkg/jmdict"
	"github.com/japaniel/chatall/pkg/kana"
)

// consoleSpeaker is the speaker name used for commands run from the shell.
const consoleSpeaker = "console"

func newDictCommand(opts *rootOptions) *cobra.Command {
	dictCommand := &cobra.Command{
		Use:   "dict",
		Short: "Edit the user dictionary",
	}

	// run executes a chat-style dictionary command and prints its reply.
	run := func(cmd *cobra.Command, learn bool, args []string) error {
		cfg, logger, err := opts.load(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, logger, kana.Script(cfg.Phonetic.Script), learn)
		if err != nil {
			return err
		}
		return printLines(cmd.OutOrStdout(), admin.NewCommand(a.admin).Execute(consoleSpeaker, args))
	}

	dictCommand.AddCommand(
		&cobra.Command{
			Use:   "add <romaji> <japanese...>",
			Short: "Add or replace an entry",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, false, append([]string{"add"}, args...))
			},
		},
		&cobra.Command{
			Use:   "remove <romaji>",
			Short: "Remove an entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, false, []string{"remove", args[0]})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, false, []string{"list"})
			},
		},
		&cobra.Command{
			Use:   "learn <japanese...>",
			Short: "Add an entry keyed by the romaji reading of a Japanese word",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, true, append([]string{"learn"}, args...))
			},
		},
		newDictImportCommand(opts),
	)
	return dictCommand
}

func newDictImportCommand(opts *rootOptions) *cobra.Command {
	var (
		path       string
		minKeyLen  int
		commonOnly bool
		overwrite  bool
		download   bool
		dryRun     bool
	)
	command := &cobra.Command{
		Use:   "import",
		Short: "Import dictionary entries from a jmdict-simplified file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.JMdict.Path
			}
			if download {
				if err := jmdict.NewDownloader(logger).EnsureDictionary(cmd.Context(), path); err != nil {
					return fmt.Errorf("failed to download JMdict: %w", err)
				}
			}

			words, err := jmdict.LoadFile(path)
			if err != nil {
				return fmt.Errorf("failed to load JMdict from %s: %w", path, err)
			}
			candidates := jmdict.Candidates(words, jmdict.CandidateOptions{
				MinKeyLength: minKeyLen,
				CommonOnly:   commonOnly,
			})

			if dryRun {
				out := cmd.OutOrStdout()
				meanings := jmdict.Meanings(words)
				for _, c := range candidates {
					line := c.Key + " -> " + c.Value
					if m := meanings[c.Value]; m != "" {
						line += " (" + m + ")"
					}
					if _, err := fmt.Fprintln(out, line); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintf(out, "Would import up to %d candidates from %s.\n", len(candidates), path)
				return err
			}

			a, err := newApp(cfg, logger, kana.Script(cfg.Phonetic.Script), false)
			if err != nil {
				return err
			}
			n, err := a.admin.Import(candidates, overwrite)
			if err != nil {
				return fmt.Errorf("imported %d entries but the dictionary was not saved: %w", n, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d candidates from %s.\n", n, len(candidates), path)
			return err
		},
	}
	flags := command.Flags()
	flags.StringVar(&path, "jmdict", "", "jmdict-simplified JSON file (default from config)")
	flags.IntVar(&minKeyLen, "min-key-length", 3, "Skip readings shorter than this many letters")
	flags.BoolVar(&commonOnly, "common-only", true, "Only use kanji and readings marked common")
	flags.BoolVar(&overwrite, "overwrite", false, "Replace existing entries")
	flags.BoolVar(&download, "download", false, "Download the latest JMdict release if the file is missing")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the candidates with their meanings without changing the dictionary")
	return command
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
