package clickhouse

import (
	"context"
	"fmt"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// SummaryStore implements storage.SummaryStore using ClickHouse.
type SummaryStore struct {
	conn *Conn
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(conn *Conn) *SummaryStore {
	return &SummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

const summaryColumns = `
	run_id, symbol, kind, created_at,
	total_bars, profit_takes, stop_losses, neutrals, unlabeled,
	touch_rate, return_mean, return_stddev, return_median,
	return_p10, return_p90, return_min, return_max,
	mean_bars_held, max_drawdown`

// Insert adds a summary. Returns ErrDuplicateKey if (run_id, symbol, kind) exists.
func (s *SummaryStore) Insert(ctx context.Context, sum *domain.LabelSummary) error {
	if sum == nil || sum.RunID == "" || sum.Symbol == "" || sum.Kind == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, sum.RunID, sum.Symbol, sum.Kind)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO label_summaries (`+summaryColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		sum.RunID, sum.Symbol, string(sum.Kind), sum.CreatedAt,
		uint32(sum.TotalBars), uint32(sum.ProfitTakes), uint32(sum.StopLosses),
		uint32(sum.Neutrals), uint32(sum.Unlabeled),
		sum.TouchRate, sum.ReturnMean, sum.ReturnStddev, sum.ReturnMedian,
		sum.ReturnP10, sum.ReturnP90, sum.ReturnMin, sum.ReturnMax,
		sum.MeanBarsHeld, sum.MaxDrawdown,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves all summaries of a run, ordered by (symbol, kind).
func (s *SummaryStore) GetByRun(ctx context.Context, runID string) ([]*domain.LabelSummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM label_summaries
		WHERE run_id = ?
		ORDER BY symbol ASC, kind ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// GetLatest retrieves the most recent summary for a symbol and kind.
func (s *SummaryStore) GetLatest(ctx context.Context, symbol string, kind domain.BarKind) (*domain.LabelSummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM label_summaries
		WHERE symbol = ? AND kind = ?
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, symbol, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, storage.ErrNotFound
	}
	return summaries[0], nil
}

func (s *SummaryStore) exists(ctx context.Context, runID, symbol string, kind domain.BarKind) (bool, error) {
	query := `
		SELECT count(*) FROM label_summaries
		WHERE run_id = ? AND symbol = ? AND kind = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, symbol, string(kind)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanSummaries(rows chRows) ([]*domain.LabelSummary, error) {
	var summaries []*domain.LabelSummary
	for rows.Next() {
		var sum domain.LabelSummary
		var kind string
		var total, pt, sl, neutral, unlabeled uint32
		err := rows.Scan(
			&sum.RunID, &sum.Symbol, &kind, &sum.CreatedAt,
			&total, &pt, &sl, &neutral, &unlabeled,
			&sum.TouchRate, &sum.ReturnMean, &sum.ReturnStddev, &sum.ReturnMedian,
			&sum.ReturnP10, &sum.ReturnP90, &sum.ReturnMin, &sum.ReturnMax,
			&sum.MeanBarsHeld, &sum.MaxDrawdown,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Kind = domain.BarKind(kind)
		sum.TotalBars = int(total)
		sum.ProfitTakes = int(pt)
		sum.StopLosses = int(sl)
		sum.Neutrals = int(neutral)
		sum.Unlabeled = int(unlabeled)
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}
