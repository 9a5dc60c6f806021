package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmerrick/chatwire/internal/metrics"
	"github.com/dmerrick/chatwire/internal/protocol"
)

// Config contains archive writer settings.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the initial queue capacity.
	BufferSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
		BufferSize:    10000,
	}
}

// Row is one archived message.
type Row struct {
	MessageID  string // UUID
	ServerTsMs int64  // Milliseconds, server clock
	ReceivedAt int64  // Microseconds, local clock
	Sender     string
	Body       string
}

// WriterMetrics contains writer counters.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// Writer consumes received frames and batch-inserts them into the
// messages table.
type Writer struct {
	cfg    Config
	logger *slog.Logger

	queue *Queue
	db    *pgxpool.Pool

	batch       []Row
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats WriterMetrics
}

// NewWriter creates a new archive writer.
func NewWriter(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		logger: logger,
		queue:  NewQueue(cfg.BufferSize),
		db:     db,
		batch:  make([]Row, 0, cfg.BatchSize),
	}
}

// Enqueue queues one decoded frame for archiving. Safe to call from the
// store's sink callback.
func (w *Writer) Enqueue(resp protocol.ResponseFrame, receivedAt time.Time) {
	w.queue.Push(rowFromFrame(resp, receivedAt))
}

// Start begins consuming queued rows and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing what remains.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

	w.queue.Close()
	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("archive writer stopped")
	case <-ctx.Done():
		w.logger.Warn("archive writer stop timed out")
	}

	// Drain whatever is still queued, then flush.
	for {
		r, ok := w.queue.TryPop()
		if !ok {
			break
		}
		w.batchMu.Lock()
		w.batch = append(w.batch, r)
		w.batchMu.Unlock()
	}
	w.flush()

	return nil
}

// Stats returns current writer counters.
func (w *Writer) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.stats
}

// rowFromFrame converts a decoded frame to an archive row.
func rowFromFrame(resp protocol.ResponseFrame, receivedAt time.Time) Row {
	return Row{
		MessageID:  resp.ID.String(),
		ServerTsMs: resp.ServerTsMs,
		ReceivedAt: receivedAt.UnixMicro(),
		Sender:     resp.Sender,
		Body:       resp.Body,
	}
}

// consumeLoop moves rows from the queue into the current batch.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			r, ok := w.queue.TryPop()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}
			w.appendRow(r)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// appendRow adds a row to the batch, flushing when it is full.
func (w *Writer) appendRow(r Row) {
	w.batchMu.Lock()
	w.batch = append(w.batch, r)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]Row, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		metrics.ArchiveErrors.Inc()
		w.batchMu.Lock()
		w.stats.Errors++
		w.batchMu.Unlock()
		return
	}

	metrics.ArchiveInserts.Add(float64(len(batch) - conflicts))

	w.batchMu.Lock()
	w.stats.Inserts += int64(len(batch) - conflicts)
	w.stats.Conflicts += int64(conflicts)
	w.stats.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed messages",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(rows []Row) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO messages (message_id, server_ts, received_at, sender, body)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (message_id) DO NOTHING
		`, r.MessageID, r.ServerTsMs, r.ReceivedAt, r.Sender, r.Body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	br := w.db.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		ct, execErr := br.Exec()
		if execErr != nil {
			return conflicts, execErr
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}
