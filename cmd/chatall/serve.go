package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/japaniel/chatall/pkg/admin"
	"github.com/japaniel/chatall/pkg/chatall"
	"github.com/japaniel/chatall/pkg/db"
	"github.com/japaniel/chatall/pkg/dictionary"
	"github.com/japaniel/chatall/pkg/relay"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var script Script
	command := &cobra.Command{
		Use:   "serve",
		Short: "Relay chat lines read from stdin",
		Long: `Relay chat lines read from stdin, one per line, as
context<TAB>speaker<TAB>text. Annotated lines are written to stdout.
Texts starting with /dict are dictionary commands; their replies go to stdout only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(cfg, logger, script.resolve(cfg.Phonetic.Script), true)
			if err != nil {
				return err
			}
			return serve(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	command.Flags().Var(&script, "script", fmt.Sprintf("Phonetic script. Possible values are %v", allScripts))
	return command
}

// console writes broadcast lines and command replies to one writer.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, text)
	return err
}

func serve(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	cfg, logger := a.cfg, a.logger
	term := &console{w: out}

	hubOpts := []relay.Option{
		relay.WithLogger(logger),
		relay.WithFormatter(relay.NewFormatter(cfg.Relay.Color)),
		relay.WithWorkers(cfg.Relay.Workers, cfg.Relay.Queue),
		relay.WithCommands(admin.NewCommand(a.admin)),
		relay.WithOperator(term),
	}
	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
		conn, err := db.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer conn.Close()
		hw := relay.NewHistoryWriter(conn, cfg.History.BatchSize, cfg.History.FlushInterval)
		hw.OnError = func(err error) { logger.Warn("failed to write history", "error", err) }
		hubOpts = append(hubOpts, relay.WithHistory(hw))
	}

	hub := relay.NewHub(a.pipeline, hubOpts...)
	hub.Join("console", term)
	hub.Start(ctx)

	if cfg.Dictionary.Watch {
		watchCtx, stopWatch := context.WithCancel(ctx)
		defer stopWatch()
		if err := os.MkdirAll(filepath.Dir(cfg.Dictionary.Path), 0o755); err != nil {
			logger.Warn("failed to create dictionary directory", "error", err)
		}
		go func() {
			err := a.store.Watch(watchCtx, dictionary.DefaultDebounce, func(err error) {
				if err != nil {
					logger.Warn("failed to reload dictionary", "error", err)
					return
				}
				logger.Info("dictionary reloaded", "entries", a.store.Len())
			})
			if err != nil {
				logger.Warn("dictionary watcher stopped", "error", err)
			}
		}()
	}

	lines, readErr := readLines(ctx, in)
	var publishErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case raw, ok := <-lines:
			if !ok {
				break loop
			}
			line, ok := parseLine(raw)
			if !ok {
				logger.Warn("skipping malformed line", "line", raw)
				continue
			}
			if err := hub.Publish(ctx, line); err != nil {
				if !errors.Is(err, context.Canceled) {
					publishErr = err
				}
				break loop
			}
		}
	}
	closeErr := hub.Close()

	var scanErr error
	select {
	case scanErr = <-readErr:
	default:
	}
	return errors.Join(publishErr, scanErr, closeErr)
}

// readLines scans in on its own goroutine so a blocked read does not hold up
// shutdown. The error channel is filled before lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errCh <- nil
				return
			}
		}
		errCh <- scanner.Err()
	}()
	return lines, errCh
}

// parseLine splits context<TAB>speaker<TAB>text. The context may be empty.
func parseLine(raw string) (chatall.Line, bool) {
	raw = strings.TrimRight(raw, "\r")
	parts := strings.SplitN(raw, "\t", 3)
	if len(parts) != 3 {
		return chatall.Line{}, false
	}
	return chatall.Line{Context: parts[0], Speaker: parts[1], Text: parts[2]}, true
}
