package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/japaniel/chatall/pkg/chatall"
	"github.com/japaniel/chatall/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCommand := &cobra.Command{
		Use:           "chatall",
		Short:         "Relay chat lines and annotate romaji with Japanese",
		Version:       chatall.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCommand.AddCommand(
		newServeCommand(opts),
		newConvertCommand(opts),
		newDictCommand(opts),
		newHistoryCommand(opts),
	)
	return rootCommand
}

// load reads the configuration and builds the logger, which writes to the
// command's stderr.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	loader, err := config.NewConfigLoader(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Log.NewLogger(cmd.ErrOrStderr()), nil
}
