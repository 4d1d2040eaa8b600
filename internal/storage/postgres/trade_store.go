package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []domain.Transaction) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (symbol, timestamp, seq, price, size)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, t := range trades {
		if t.Symbol == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			t.Symbol,
			t.Timestamp,
			t.Seq,
			t.Price,
			int64(t.Size),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by (timestamp, seq) ASC.
func (s *TradeStore) GetBySymbol(ctx context.Context, symbol string) ([]domain.Transaction, error) {
	query := `
		SELECT symbol, timestamp, seq, price, size
		FROM trades
		WHERE symbol = $1
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades for a symbol within [start, end] (inclusive).
func (s *TradeStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]domain.Transaction, error) {
	query := `
		SELECT symbol, timestamp, seq, price, size
		FROM trades
		WHERE symbol = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListSymbols returns every symbol with at least one trade, sorted.
func (s *TradeStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT symbol FROM trades ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbols: %w", err)
	}
	return symbols, nil
}

func scanTrades(rows pgx.Rows) ([]domain.Transaction, error) {
	var trades []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var size int64
		if err := rows.Scan(&t.Symbol, &t.Timestamp, &t.Seq, &t.Price, &size); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Size = uint32(size)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
