package ingestion

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"tick-feature-lab/internal/bars"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/observability"
	"tick-feature-lab/internal/storage"
)

// ErrSourceClosed is returned by Run when the trade source ends.
var ErrSourceClosed = errors.New("trade source closed")

// TradeSource provides a stream of trades.
type TradeSource interface {
	Trades() <-chan domain.Transaction
}

// Runner buffers trades from a source and flushes them to storage.
type Runner struct {
	source        TradeSource
	tradeStore    storage.TradeStore
	progressStore storage.ProgressStore // optional
	flushSize     int
	flushInterval time.Duration
	logger        *log.Logger

	// Per-symbol buffers, flushed in (timestamp, seq) order
	buffer   map[string][]domain.Transaction
	buffered int

	// progress caches the last stored position per symbol
	progress map[string]*storage.IngestProgress

	statsMu sync.Mutex
	stats   RunnerStats
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source        TradeSource
	TradeStore    storage.TradeStore
	ProgressStore storage.ProgressStore
	FlushSize     int           // Default: 500 buffered trades
	FlushInterval time.Duration // Default: 5s
	Logger        *log.Logger
}

// RunnerStats counts what the runner has done.
type RunnerStats struct {
	Received int64
	Stored   int64
	Skipped  int64 // at or before saved progress, or already stored
	Flushes  int64
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	flushSize := opts.FlushSize
	if flushSize <= 0 {
		flushSize = 500
	}

	flushInterval := opts.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		source:        opts.Source,
		tradeStore:    opts.TradeStore,
		progressStore: opts.ProgressStore,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		logger:        logger,
		buffer:        make(map[string][]domain.Transaction),
		progress:      make(map[string]*storage.IngestProgress),
	}
}

// Run consumes trades until ctx is cancelled or the source closes.
// Buffered trades are flushed before returning.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Runner started, flush size: %d, flush interval: %v", r.flushSize, r.flushInterval)

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	trades := r.source.Trades()
	for {
		select {
		case <-ctx.Done():
			// Stores still need a live context for the final flush
			r.flush(context.WithoutCancel(ctx))
			r.logger.Println("Runner stopping...")
			return ctx.Err()

		case tx, ok := <-trades:
			if !ok {
				r.flush(ctx)
				r.logger.Println("Trade source closed")
				return ErrSourceClosed
			}
			r.add(ctx, tx)

		case <-flushTicker.C:
			r.flush(ctx)
		}
	}
}

// Stats returns current runner statistics.
func (r *Runner) Stats() RunnerStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// add buffers one trade and flushes when the buffer is full.
func (r *Runner) add(ctx context.Context, tx domain.Transaction) {
	r.statsMu.Lock()
	r.stats.Received++
	r.statsMu.Unlock()
	r.buffer[tx.Symbol] = append(r.buffer[tx.Symbol], tx)
	r.buffered++
	observability.DefaultMetrics.TradeBufferSize.Set(float64(r.buffered))
	observability.DefaultMetrics.LastTradeSeen.Set(float64(tx.Timestamp) / 1000)

	if r.buffered >= r.flushSize {
		r.flush(ctx)
	}
}

// flush writes every buffered symbol, in symbol order.
func (r *Runner) flush(ctx context.Context) {
	if r.buffered == 0 {
		return
	}
	start := time.Now()

	symbols := make([]string, 0, len(r.buffer))
	for symbol := range r.buffer {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	ok := true
	for _, symbol := range symbols {
		if err := r.flushSymbol(ctx, symbol, r.buffer[symbol]); err != nil {
			r.logger.Printf("Error storing trades for %s: %v", symbol, err)
			ok = false
		}
	}

	r.buffer = make(map[string][]domain.Transaction)
	r.buffered = 0
	r.statsMu.Lock()
	r.stats.Flushes++
	r.statsMu.Unlock()

	observability.DefaultMetrics.TradeBufferSize.Set(0)
	observability.DefaultMetrics.FlushDuration.Observe(time.Since(start).Seconds())
	if ok {
		observability.DefaultMetrics.LastSuccessfulIngestion.Set(float64(time.Now().Unix()))
	}
}

// flushSymbol stores the trades past the saved progress and advances it.
func (r *Runner) flushSymbol(ctx context.Context, symbol string, txs []domain.Transaction) error {
	bars.SortTransactions(txs)

	progress, err := r.lastIngested(ctx, symbol)
	if err != nil {
		return err
	}

	fresh := txs[:0]
	for _, tx := range txs {
		if progress == nil || progress.After(tx.Timestamp, tx.Seq) {
			fresh = append(fresh, tx)
		}
	}
	r.skip(len(txs) - len(fresh))
	if len(fresh) == 0 {
		return nil
	}

	stored, err := r.insert(ctx, fresh)
	if err != nil {
		return err
	}
	r.statsMu.Lock()
	r.stats.Stored += int64(stored)
	r.statsMu.Unlock()
	observability.DefaultMetrics.TradesStored.Add(float64(stored))

	last := fresh[len(fresh)-1]
	next := &storage.IngestProgress{Symbol: symbol, Timestamp: last.Timestamp, Seq: last.Seq}
	if r.progressStore != nil {
		if err := r.progressStore.SetLastIngested(ctx, next); err != nil {
			return err
		}
	}
	r.progress[symbol] = next
	return nil
}

// insert stores trades in bulk. A duplicate in the batch falls back to
// row-by-row inserts so the new trades around it still land.
func (r *Runner) insert(ctx context.Context, txs []domain.Transaction) (int, error) {
	err := r.tradeStore.InsertBulk(ctx, txs)
	if err == nil {
		return len(txs), nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return 0, err
	}

	stored := 0
	for i := range txs {
		err := r.tradeStore.InsertBulk(ctx, txs[i:i+1])
		switch {
		case err == nil:
			stored++
		case errors.Is(err, storage.ErrDuplicateKey):
			// Duplicate is expected after a reconnect
			r.skip(1)
		default:
			return stored, err
		}
	}
	return stored, nil
}

// lastIngested returns the cached or stored progress for symbol, nil if none.
func (r *Runner) lastIngested(ctx context.Context, symbol string) (*storage.IngestProgress, error) {
	if p, ok := r.progress[symbol]; ok {
		return p, nil
	}
	if r.progressStore == nil {
		return nil, nil
	}

	p, err := r.progressStore.GetLastIngested(ctx, symbol)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.progress[symbol] = p
	return p, nil
}

func (r *Runner) skip(n int) {
	if n <= 0 {
		return
	}
	r.statsMu.Lock()
	r.stats.Skipped += int64(n)
	r.statsMu.Unlock()
	observability.DefaultMetrics.TradesSkipped.Add(float64(n))
}
