package clickhouse

import (
	"context"
	"fmt"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, kind, seq).
func (s *BarStore) InsertBulk(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	groups, err := groupSeqs(len(bars), func(i int) (string, domain.BarKind, int64) {
		return bars[i].Symbol, bars[i].Kind, bars[i].Seq
	})
	if err != nil {
		return err
	}
	if err := checkExisting(ctx, s.conn, "bars", groups); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			bar_id, symbol, kind, seq, start_time, end_time,
			open, high, low, close, vwap, volume, transaction_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.BarID, b.Symbol, string(b.Kind), b.Seq, b.StartTime, b.EndTime,
			b.Open, b.High, b.Low, b.Close, b.VWAP, b.Volume, b.TransactionCount,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySymbol retrieves a bar series ordered by seq ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string, kind domain.BarKind) ([]domain.Bar, error) {
	query := `
		SELECT bar_id, symbol, kind, seq, start_time, end_time,
		       open, high, low, close, vwap, volume, transaction_count
		FROM bars
		WHERE symbol = ? AND kind = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// DeleteBySymbol removes a bar series.
func (s *BarStore) DeleteBySymbol(ctx context.Context, symbol string, kind domain.BarKind) error {
	return deleteSeries(ctx, s.conn, "bars", symbol, kind)
}

func scanBars(rows chRows) ([]domain.Bar, error) {
	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var kind string
		err := rows.Scan(
			&b.BarID, &b.Symbol, &kind, &b.Seq, &b.StartTime, &b.EndTime,
			&b.Open, &b.High, &b.Low, &b.Close, &b.VWAP, &b.Volume, &b.TransactionCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Kind = domain.BarKind(kind)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	return bars, nil
}
