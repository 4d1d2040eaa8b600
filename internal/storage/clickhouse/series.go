package clickhouse

import (
	"context"
	"fmt"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// seriesKey identifies one (symbol, kind) series.
type seriesKey struct {
	symbol string
	kind   domain.BarKind
}

// seqRange collects the seqs a batch writes into one series.
type seqRange struct {
	lo, hi int64
	seqs   map[int64]struct{}
}

// groupSeqs validates a batch keyed by (symbol, kind, seq) and groups its seqs per series.
// Returns ErrDuplicateKey on an intra-batch duplicate.
func groupSeqs(n int, key func(i int) (string, domain.BarKind, int64)) (map[seriesKey]*seqRange, error) {
	groups := make(map[seriesKey]*seqRange)
	for i := 0; i < n; i++ {
		symbol, kind, seq := key(i)
		if symbol == "" || kind == "" {
			return nil, storage.ErrInvalidInput
		}
		k := seriesKey{symbol, kind}
		g, ok := groups[k]
		if !ok {
			g = &seqRange{lo: seq, hi: seq, seqs: make(map[int64]struct{})}
			groups[k] = g
		}
		if _, dup := g.seqs[seq]; dup {
			return nil, storage.ErrDuplicateKey
		}
		g.seqs[seq] = struct{}{}
		g.lo = min(g.lo, seq)
		g.hi = max(g.hi, seq)
	}
	return groups, nil
}

// checkExisting returns ErrDuplicateKey if any grouped seq is already stored in table.
func checkExisting(ctx context.Context, conn *Conn, table string, groups map[seriesKey]*seqRange) error {
	query := fmt.Sprintf(`
		SELECT seq FROM %s
		WHERE symbol = ? AND kind = ? AND seq >= ? AND seq <= ?
	`, table)

	for k, g := range groups {
		rows, err := conn.Query(ctx, query, k.symbol, string(k.kind), g.lo, g.hi)
		if err != nil {
			return fmt.Errorf("check existing %s: %w", table, err)
		}
		for rows.Next() {
			var seq int64
			if err := rows.Scan(&seq); err != nil {
				rows.Close()
				return fmt.Errorf("scan existing seq: %w", err)
			}
			if _, clash := g.seqs[seq]; clash {
				rows.Close()
				return storage.ErrDuplicateKey
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("iterate existing %s: %w", table, err)
		}
	}
	return nil
}

// deleteSeries removes one series from table and waits for the mutation.
func deleteSeries(ctx context.Context, conn *Conn, table, symbol string, kind domain.BarKind) error {
	query := fmt.Sprintf(`ALTER TABLE %s DELETE WHERE symbol = ? AND kind = ?`, table)
	if err := conn.Exec(syncMutation(ctx), query, symbol, string(kind)); err != nil {
		return fmt.Errorf("delete %s series: %w", table, err)
	}
	return nil
}
