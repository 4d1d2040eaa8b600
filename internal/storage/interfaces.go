package storage

import (
	"context"

	"tick-feature-lab/internal/domain"
)

// TradeStore provides access to trades storage.
type TradeStore interface {
	// InsertBulk adds multiple trades atomically. Fails entire batch on duplicate (symbol, timestamp, seq).
	InsertBulk(ctx context.Context, trades []domain.Transaction) error

	// GetBySymbol retrieves all trades for a symbol, ordered by (timestamp, seq) ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.Transaction, error)

	// GetByTimeRange retrieves trades for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]domain.Transaction, error)

	// ListSymbols returns every symbol with at least one trade, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// BarStore provides access to bars storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, kind, seq).
	InsertBulk(ctx context.Context, bars []domain.Bar) error

	// GetBySymbol retrieves a bar series ordered by seq ASC.
	GetBySymbol(ctx context.Context, symbol string, kind domain.BarKind) ([]domain.Bar, error)

	// DeleteBySymbol removes a bar series so it can be rebuilt.
	DeleteBySymbol(ctx context.Context, symbol string, kind domain.BarKind) error
}

// LabelStore provides access to labels storage.
type LabelStore interface {
	// InsertBulk adds multiple labels. Fails entire batch on duplicate (symbol, kind, seq).
	InsertBulk(ctx context.Context, labels []domain.LabelPoint) error

	// GetBySymbol retrieves labels for a bar series ordered by seq ASC.
	GetBySymbol(ctx context.Context, symbol string, kind domain.BarKind) ([]domain.LabelPoint, error)

	// DeleteBySymbol removes labels for a bar series so they can be recomputed.
	DeleteBySymbol(ctx context.Context, symbol string, kind domain.BarKind) error
}

// SummaryStore provides access to label_summaries storage.
type SummaryStore interface {
	// Insert adds a summary. Returns ErrDuplicateKey if (run_id, symbol, kind) exists.
	Insert(ctx context.Context, s *domain.LabelSummary) error

	// GetByRun retrieves all summaries of a run, ordered by (symbol, kind).
	GetByRun(ctx context.Context, runID string) ([]*domain.LabelSummary, error)

	// GetLatest retrieves the most recent summary for a symbol and kind.
	// Returns ErrNotFound if none exists.
	GetLatest(ctx context.Context, symbol string, kind domain.BarKind) (*domain.LabelSummary, error)
}
