package postgres

import (
	"context"
	"fmt"

	"tick-feature-lab/internal/storage"
)

// ProgressStore is a PostgreSQL implementation of storage.ProgressStore.
// One row per symbol in ingest_progress.
type ProgressStore struct {
	pool *Pool
}

// NewProgressStore creates a new PostgreSQL progress store.
func NewProgressStore(pool *Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProgressStore = (*ProgressStore)(nil)

// GetLastIngested returns the progress for a symbol.
func (s *ProgressStore) GetLastIngested(ctx context.Context, symbol string) (*storage.IngestProgress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT symbol, timestamp, seq
		FROM ingest_progress
		WHERE symbol = $1
	`, symbol)

	var progress storage.IngestProgress
	err := row.Scan(&progress.Symbol, &progress.Timestamp, &progress.Seq)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ingest progress: %w", err)
	}

	return &progress, nil
}

// SetLastIngested saves the progress for a symbol.
// Uses upsert to handle initial insert and subsequent updates.
func (s *ProgressStore) SetLastIngested(ctx context.Context, progress *storage.IngestProgress) error {
	if progress == nil || progress.Symbol == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_progress (symbol, timestamp, seq, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (symbol) DO UPDATE
		SET timestamp = EXCLUDED.timestamp,
		    seq = EXCLUDED.seq,
		    updated_at = NOW()
	`, progress.Symbol, progress.Timestamp, progress.Seq)
	if err != nil {
		return fmt.Errorf("set ingest progress: %w", err)
	}
	return nil
}
