// Package backend opens the configured store implementations.
package backend

import (
	"context"
	"fmt"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/storage"
	chstore "tick-feature-lab/internal/storage/clickhouse"
	"tick-feature-lab/internal/storage/memory"
	"tick-feature-lab/internal/storage/migrations"
	pgstore "tick-feature-lab/internal/storage/postgres"
)

// Stores holds every store the pipeline needs.
type Stores struct {
	Trades    storage.TradeStore
	Progress  storage.ProgressStore
	Bars      storage.BarStore
	Labels    storage.LabelStore
	Summaries storage.SummaryStore
}

// NewMemory creates in-memory stores.
func NewMemory() *Stores {
	return &Stores{
		Trades:    memory.NewTradeStore(),
		Progress:  memory.NewProgressStore(),
		Bars:      memory.NewBarStore(),
		Labels:    memory.NewLabelStore(),
		Summaries: memory.NewSummaryStore(),
	}
}

// Open creates the stores for cfg.Backend. Database backends are migrated first:
// trades and ingest progress live in PostgreSQL, bars, labels and summaries in ClickHouse.
// The returned cleanup closes any connections.
func Open(ctx context.Context, cfg config.StorageConfig) (*Stores, func(), error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), func() {}, nil
	case "postgres":
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &Stores{
		// PostgreSQL stores (source data)
		Trades:   pgstore.NewTradeStore(pool),
		Progress: pgstore.NewProgressStore(pool),

		// ClickHouse stores (analytics)
		Bars:      chstore.NewBarStore(chConn),
		Labels:    chstore.NewLabelStore(chConn),
		Summaries: chstore.NewSummaryStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}
