package clickhouse

import (
	"context"
	"fmt"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// LabelStore implements storage.LabelStore using ClickHouse.
type LabelStore struct {
	conn *Conn
}

// NewLabelStore creates a new LabelStore.
func NewLabelStore(conn *Conn) *LabelStore {
	return &LabelStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LabelStore = (*LabelStore)(nil)

// InsertBulk adds multiple labels. Fails entire batch on duplicate (symbol, kind, seq).
func (s *LabelStore) InsertBulk(ctx context.Context, labels []domain.LabelPoint) error {
	if len(labels) == 0 {
		return nil
	}

	groups, err := groupSeqs(len(labels), func(i int) (string, domain.BarKind, int64) {
		return labels[i].Symbol, labels[i].Kind, labels[i].Seq
	})
	if err != nil {
		return err
	}
	if err := checkExisting(ctx, s.conn, "labels", groups); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO labels (
			symbol, kind, seq, timestamp, event, path_return,
			bars_to_touch, touch_timestamp, width
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, l := range labels {
		err = batch.Append(
			l.Symbol, string(l.Kind), l.Seq, l.Timestamp, l.Event, l.Return,
			l.BarsToTouch, l.TouchTimestamp, l.Width,
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

// GetBySymbol retrieves labels for a bar series ordered by seq ASC.
func (s *LabelStore) GetBySymbol(ctx context.Context, symbol string, kind domain.BarKind) ([]domain.LabelPoint, error) {
	query := `
		SELECT symbol, kind, seq, timestamp, event, path_return,
		       bars_to_touch, touch_timestamp, width
		FROM labels
		WHERE symbol = ? AND kind = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	var labels []domain.LabelPoint
	for rows.Next() {
		var l domain.LabelPoint
		var kind string
		err := rows.Scan(
			&l.Symbol, &kind, &l.Seq, &l.Timestamp, &l.Event, &l.Return,
			&l.BarsToTouch, &l.TouchTimestamp, &l.Width,
		)
		if err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		l.Kind = domain.BarKind(kind)
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return labels, nil
}

// DeleteBySymbol removes labels for a bar series.
func (s *LabelStore) DeleteBySymbol(ctx context.Context, symbol string, kind domain.BarKind) error {
	return deleteSeries(ctx, s.conn, "labels", symbol, kind)
}
