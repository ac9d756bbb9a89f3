// Package relay fans chat lines from every connected server out to every
// recipient, annotating romaji lines on the way.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/japaniel/chatall/pkg/chatall"
	"github.com/japaniel/chatall/pkg/db"
)

// CommandPrefix starts a dictionary command instead of a chat line.
const CommandPrefix = "/dict"

// Converter turns a raw line into its display form. *chatall.Pipeline
// implements it.
type Converter interface {
	Convert(line string) chatall.Result
}

// CommandRunner executes a dictionary command. *admin.Command implements it.
type CommandRunner interface {
	Execute(speaker string, args []string) []string
}

// Recipient receives broadcast lines.
type Recipient interface {
	Send(text string) error
}

// RecipientFunc adapts a function to Recipient.
type RecipientFunc func(text string) error

func (f RecipientFunc) Send(text string) error { return f(text) }

// Broadcast describes one delivered chat line.
type Broadcast struct {
	Line       chatall.Line
	Result     chatall.Result
	Text       string // formatted text sent to recipients
	Recipients int
	SentAt     time.Time
}

// Hub owns the set of recipients and routes incoming lines.
type Hub struct {
	conv      Converter
	commands  CommandRunner
	formatter *Formatter
	history   *HistoryWriter
	operator  Recipient
	logger    *slog.Logger
	workers   int
	queue     int
	// OnBroadcast, if set, is called after every delivered line.
	OnBroadcast func(Broadcast)

	mu         sync.RWMutex
	recipients map[string]Recipient

	pool *WorkerPool
}

// Option configures a Hub.
type Option func(*Hub)

// WithCommands routes "/dict" lines to r.
func WithCommands(r CommandRunner) Option { return func(h *Hub) { h.commands = r } }

// WithFormatter replaces the default colored formatter.
func WithFormatter(f *Formatter) Option { return func(h *Hub) { h.formatter = f } }

// WithHistory records every broadcast line.
func WithHistory(w *HistoryWriter) Option { return func(h *Hub) { h.history = w } }

// WithOperator sends command replies to r when the speaker has no recipient
// of their own, as for lines typed on the relay console.
func WithOperator(r Recipient) Option { return func(h *Hub) { h.operator = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithWorkers sets the worker count and queue size of the conversion pool.
func WithWorkers(workers, queue int) Option {
	return func(h *Hub) { h.workers, h.queue = workers, queue }
}

// NewHub returns a hub converting lines with conv.
func NewHub(conv Converter, opts ...Option) *Hub {
	h := &Hub{
		conv:       conv,
		formatter:  NewFormatter(true),
		logger:     slog.Default(),
		workers:    4,
		recipients: make(map[string]Recipient),
	}
	for _, o := range opts {
		o(h)
	}
	h.pool = NewWorkerPool(h.workers, h.queue)
	h.pool.OnError = func(err error) { h.logger.Warn("relay job failed", "error", err) }
	return h
}

// Start launches the conversion workers. They stop when ctx ends or on Close.
func (h *Hub) Start(ctx context.Context) {
	h.pool.Start(ctx)
}

// Close stops accepting lines, drains the queue and flushes history.
func (h *Hub) Close() error {
	h.pool.Close()
	if h.history != nil {
		return h.history.Close()
	}
	return nil
}

// Join registers a recipient under name, replacing any previous one.
func (h *Hub) Join(name string, r Recipient) {
	h.mu.Lock()
	h.recipients[name] = r
	h.mu.Unlock()
	h.logger.Debug("recipient joined", "name", name)
}

// Leave removes the named recipient.
func (h *Hub) Leave(name string) {
	h.mu.Lock()
	delete(h.recipients, name)
	h.mu.Unlock()
}

// Recipients returns the registered names in sorted order.
func (h *Hub) Recipients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.recipients))
	for n := range h.recipients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Publish queues line for conversion and broadcast. It blocks while the queue
// is full and returns early if ctx is done.
func (h *Hub) Publish(ctx context.Context, line chatall.Line) error {
	return h.pool.SubmitCtx(ctx, func(ctx context.Context) error {
		_, err := h.Handle(ctx, line)
		return err
	})
}

// Handle processes line synchronously. Command lines are answered to the
// speaker only; chat lines are broadcast to everyone. Lines without a context
// are dropped.
func (h *Hub) Handle(ctx context.Context, line chatall.Line) (*Broadcast, error) {
	if IsCommand(line.Text) {
		h.runCommand(line)
		return nil, nil
	}
	if line.Context == "" {
		h.logger.Debug("dropping line without context", "speaker", line.Speaker)
		return nil, nil
	}

	res := h.conv.Convert(line.Text)
	b := &Broadcast{
		Line:   line,
		Result: res,
		Text:   h.formatter.Format(line, res),
		SentAt: time.Now(),
	}
	b.Recipients = h.broadcast(b.Text)
	h.logger.Info(Plain(line, res))

	var err error
	if h.history != nil {
		err = h.history.Record(db.Message{
			Context:          line.Context,
			Speaker:          line.Speaker,
			RawText:          line.Text,
			Annotation:       res.Annotation,
			AnnotationSource: string(res.Source),
			SentAt:           b.SentAt,
		})
	}
	if h.OnBroadcast != nil {
		h.OnBroadcast(*b)
	}
	return b, err
}

func (h *Hub) broadcast(text string) int {
	h.mu.RLock()
	targets := make(map[string]Recipient, len(h.recipients))
	for n, r := range h.recipients {
		targets[n] = r
	}
	h.mu.RUnlock()

	delivered := 0
	for name, r := range targets {
		if err := r.Send(text); err != nil {
			h.logger.Warn("failed to deliver chat line", "recipient", name, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// ErrNoCommands is logged when a command arrives but none are configured.
var ErrNoCommands = errors.New("relay: dictionary commands are not enabled")

func (h *Hub) runCommand(line chatall.Line) []string {
	if h.commands == nil {
		h.logger.Warn("ignoring dictionary command", "speaker", line.Speaker, "error", ErrNoCommands)
		return nil
	}
	reply := h.commands.Execute(line.Speaker, CommandArgs(line.Text))

	h.mu.RLock()
	r, ok := h.recipients[line.Speaker]
	h.mu.RUnlock()
	if !ok {
		if h.operator == nil {
			return reply
		}
		r = h.operator
	}
	for _, msg := range reply {
		if err := r.Send(msg); err != nil {
			h.logger.Warn("failed to deliver command reply", "recipient", line.Speaker, "error", err)
			break
		}
	}
	return reply
}

// IsCommand reports whether text is a dictionary command.
func IsCommand(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && strings.EqualFold(fields[0], CommandPrefix)
}

// CommandArgs returns the arguments after the command prefix.
func CommandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}
