package relay

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/japaniel/chatall/pkg/db"
)

// HistoryWriter buffers relayed messages and writes them to the history
// database in batches, one transaction per batch.
type HistoryWriter struct {
	mu          sync.Mutex
	buf         []db.Message
	cap         int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	commitCh chan []db.Message
	conn     *sql.DB
	OnError  func(error)

	// lastErr stores the first asynchronous error seen by the writer. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

// NewHistoryWriter creates a writer that flushes when batchSize messages are
// buffered or every flushInterval (0 disables the timer).
func NewHistoryWriter(conn *sql.DB, batchSize int, flushInterval time.Duration) *HistoryWriter {
	if batchSize <= 0 {
		batchSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	hw := &HistoryWriter{
		buf:      make([]db.Message, 0, batchSize),
		cap:      batchSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []db.Message, 2),
		conn:     conn,
	}

	hw.wg.Add(1)
	go hw.committer()

	if flushInterval > 0 {
		hw.flushTicker = time.NewTicker(flushInterval)
		hw.wg.Add(1)
		go hw.loop()
	}
	return hw
}

// Record enqueues a message.
func (hw *HistoryWriter) Record(m db.Message) error {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	if hw.closed {
		return ErrHistoryClosed
	}
	hw.buf = append(hw.buf, m)
	if len(hw.buf) >= hw.cap {
		hw.flushLocked()
	}
	return nil
}

// flushLocked assumes hw.mu is held. A full commit queue blocks Record, which
// is the backpressure on the relay.
func (hw *HistoryWriter) flushLocked() {
	if len(hw.buf) == 0 {
		return
	}
	batch := hw.buf
	hw.buf = make([]db.Message, 0, hw.cap)
	select {
	case hw.commitCh <- batch:
	case <-hw.ctx.Done():
		hw.setErr(fmt.Errorf("history writer: dropping batch of %d messages due to shutdown", len(batch)))
	}
}

func (hw *HistoryWriter) committer() {
	defer hw.wg.Done()
	for batch := range hw.commitCh {
		if err := hw.writeBatch(batch); err != nil {
			hw.setErr(err)
		}
	}
}

func (hw *HistoryWriter) writeBatch(batch []db.Message) error {
	// Flushes use a background context so Close can still drain.
	ctx := context.Background()
	tx, err := hw.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, m := range batch {
		if _, err := db.RecordMessage(ctx, tx, m); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history batch (%d messages): %w", len(batch), err)
	}
	return nil
}

func (hw *HistoryWriter) loop() {
	defer hw.wg.Done()
	for {
		select {
		case <-hw.ctx.Done():
			return
		case <-hw.flushTicker.C:
			hw.mu.Lock()
			hw.flushLocked()
			hw.mu.Unlock()
		}
	}
}

func (hw *HistoryWriter) setErr(err error) {
	hw.errMu.Lock()
	if hw.lastErr == nil {
		hw.lastErr = err
	}
	hw.errMu.Unlock()
	if hw.OnError != nil {
		hw.OnError(err)
	}
}

// Close flushes buffered messages, waits for pending writes and returns the
// first write error, if any.
func (hw *HistoryWriter) Close() error {
	hw.mu.Lock()
	if hw.closed {
		hw.mu.Unlock()
		return ErrHistoryClosed
	}
	hw.closed = true
	if hw.flushTicker != nil {
		hw.flushTicker.Stop()
	}
	hw.flushLocked()
	hw.mu.Unlock()

	hw.cancel()
	close(hw.commitCh)
	hw.wg.Wait()

	hw.errMu.Lock()
	defer hw.errMu.Unlock()
	return hw.lastErr
}

// ErrHistoryClosed is returned when recording after Close.
var ErrHistoryClosed = &PoolError{"history writer closed"}
