package ingestion

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
	"tick-feature-lab/internal/storage/memory"
)

// mockTradeSource implements a controllable trade source for testing.
type mockTradeSource struct {
	ch chan domain.Transaction
}

func newMockTradeSource() *mockTradeSource {
	return &mockTradeSource{ch: make(chan domain.Transaction, 100)}
}

func (m *mockTradeSource) Trades() <-chan domain.Transaction { return m.ch }

func (m *mockTradeSource) Send(txs ...domain.Transaction) {
	for _, tx := range txs {
		m.ch <- tx
	}
}

func (m *mockTradeSource) Close() { close(m.ch) }

func trade(symbol string, ts, seq int64) domain.Transaction {
	return domain.Transaction{Symbol: symbol, Timestamp: ts, Seq: seq, Price: 100, Size: 1}
}

func newTestRunner(source TradeSource, trades storage.TradeStore, progress storage.ProgressStore, flushSize int) *Runner {
	return NewRunner(RunnerOptions{
		Source:        source,
		TradeStore:    trades,
		ProgressStore: progress,
		FlushSize:     flushSize,
		FlushInterval: time.Hour,
		Logger:        log.New(os.Stderr, "[test] ", log.LstdFlags),
	})
}

func TestRunner_FlushOnSourceClose(t *testing.T) {
	ctx := context.Background()
	source := newMockTradeSource()
	trades := memory.NewTradeStore()
	progress := memory.NewProgressStore()
	runner := newTestRunner(source, trades, progress, 100)

	// Out of order arrival
	source.Send(trade("ES", 2000, 0), trade("ES", 1000, 1), trade("ES", 1000, 0), trade("NQ", 1500, 0))
	source.Close()

	err := runner.Run(ctx)
	require.ErrorIs(t, err, ErrSourceClosed)

	stored, err := trades.GetBySymbol(ctx, "ES")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, int64(1000), stored[0].Timestamp)
	assert.Equal(t, int64(1), stored[1].Seq)

	p, err := progress.GetLastIngested(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), p.Timestamp)
	assert.Equal(t, int64(0), p.Seq)

	stats := runner.Stats()
	assert.Equal(t, int64(4), stats.Received)
	assert.Equal(t, int64(4), stats.Stored)
	assert.Equal(t, int64(1), stats.Flushes)
}

func TestRunner_FlushOnSize(t *testing.T) {
	source := newMockTradeSource()
	trades := memory.NewTradeStore()
	runner := newTestRunner(source, trades, nil, 2)

	source.Send(trade("ES", 1000, 0), trade("ES", 2000, 0), trade("ES", 3000, 0))
	source.Close()

	require.ErrorIs(t, runner.Run(context.Background()), ErrSourceClosed)
	assert.Equal(t, int64(2), runner.Stats().Flushes)
	assert.Equal(t, int64(3), runner.Stats().Stored)
}

func TestRunner_SkipsAlreadyIngested(t *testing.T) {
	ctx := context.Background()
	source := newMockTradeSource()
	trades := memory.NewTradeStore()
	progress := memory.NewProgressStore()
	require.NoError(t, progress.SetLastIngested(ctx, &storage.IngestProgress{Symbol: "ES", Timestamp: 1000, Seq: 1}))

	runner := newTestRunner(source, trades, progress, 100)
	source.Send(trade("ES", 1000, 0), trade("ES", 1000, 1), trade("ES", 1000, 2), trade("ES", 2000, 0))
	source.Close()

	require.ErrorIs(t, runner.Run(ctx), ErrSourceClosed)

	stored, err := trades.GetBySymbol(ctx, "ES")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(2), stored[0].Seq)
	assert.Equal(t, int64(2), runner.Stats().Skipped)
}

func TestRunner_DuplicateFallsBackToRows(t *testing.T) {
	ctx := context.Background()
	source := newMockTradeSource()
	trades := memory.NewTradeStore()
	require.NoError(t, trades.InsertBulk(ctx, []domain.Transaction{trade("ES", 2000, 0)}))

	// No progress store: the stored trade is only caught as a duplicate
	runner := newTestRunner(source, trades, nil, 100)
	source.Send(trade("ES", 1000, 0), trade("ES", 2000, 0), trade("ES", 3000, 0))
	source.Close()

	require.ErrorIs(t, runner.Run(ctx), ErrSourceClosed)

	stored, err := trades.GetBySymbol(ctx, "ES")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, int64(2), runner.Stats().Stored)
	assert.Equal(t, int64(1), runner.Stats().Skipped)
}

func TestRunner_ContextCancelFlushes(t *testing.T) {
	source := newMockTradeSource()
	trades := memory.NewTradeStore()
	runner := newTestRunner(source, trades, nil, 100)

	source.Send(trade("ES", 1000, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := trades.GetBySymbol(context.Background(), "ES")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRunner_PeriodicFlush(t *testing.T) {
	source := newMockTradeSource()
	trades := memory.NewTradeStore()
	runner := NewRunner(RunnerOptions{
		Source:        source,
		TradeStore:    trades,
		FlushSize:     100,
		FlushInterval: 10 * time.Millisecond,
	})

	source.Send(trade("ES", 1000, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		stored, err := trades.GetBySymbol(context.Background(), "ES")
		return err == nil && len(stored) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
