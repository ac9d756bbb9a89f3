package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConvertCommand(opts *rootOptions) *cobra.Command {
	var script Script
	command := &cobra.Command{
		Use:   "convert <text...>",
		Short: "Show how a chat line would be annotated",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger, script.resolve(cfg.Phonetic.Script), false)
			if err != nil {
				return err
			}

			res := a.pipeline.Convert(strings.Join(args, " "))
			out := res.Display
			if res.Annotated() {
				out += " (" + res.Annotation + ")"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	command.Flags().Var(&script, "script", fmt.Sprintf("Phonetic script. Possible values are %v", allScripts))
	return command
}
