package bars

import (
	"fmt"
	"math"

	"tick-feature-lab/internal/domain"
)

// DefaultSessionMs is one UTC day.
const DefaultSessionMs int64 = 24 * 60 * 60 * 1000

// Spec selects a sampling method and its parameter.
type Spec struct {
	Kind       domain.BarKind
	Threshold  float64 // volume or dollar threshold
	Ticks      int     // trades per tick bar
	IntervalMs int64   // time bar width
}

// Sample builds bars of the requested kind. Volume thresholds are truncated to
// whole units.
func Sample(txs []domain.Transaction, spec Spec) ([]domain.Bar, error) {
	switch spec.Kind {
	case domain.BarKindVolume:
		if spec.Threshold < 1 || spec.Threshold > math.MaxUint32 || spec.Threshold != math.Trunc(spec.Threshold) {
			return nil, fmt.Errorf("volume threshold %v: %w", spec.Threshold, ErrInvalidThreshold)
		}
		return Aggregate(txs, VolumeThresholds(uint32(spec.Threshold)))
	case domain.BarKindDollar:
		return Aggregate(txs, DollarThresholds(spec.Threshold))
	case domain.BarKindTick:
		return TickBars(txs, spec.Ticks)
	case domain.BarKindTime:
		return TimeBars(txs, spec.IntervalMs)
	default:
		return nil, fmt.Errorf("bar kind %q: %w", spec.Kind, ErrUnsupportedType)
	}
}

// TickBars closes a bar every n transactions. The last bar may hold fewer.
func TickBars(txs []domain.Transaction, n int) ([]domain.Bar, error) {
	if n <= 0 {
		return nil, fmt.Errorf("tick count %d: %w", n, ErrInvalidThreshold)
	}

	acc := newAccumulator()
	var result []domain.Bar
	for i, tx := range txs {
		acc.add(tx.Timestamp, tx.Price, tx.Size)
		if (i+1)%n == 0 {
			result = append(result, acc.flush(domain.BarKindTick))
		}
	}
	if !acc.empty() {
		result = append(result, acc.flush(domain.BarKindTick))
	}
	return result, nil
}

// TimeBars buckets transactions by floor(timestamp / intervalMs).
// Intervals without trades produce no bar.
func TimeBars(txs []domain.Transaction, intervalMs int64) ([]domain.Bar, error) {
	if intervalMs <= 0 {
		return nil, fmt.Errorf("interval %dms: %w", intervalMs, ErrInvalidThreshold)
	}

	acc := newAccumulator()
	var result []domain.Bar
	var current int64
	for _, tx := range txs {
		bucket := floorDiv(tx.Timestamp, intervalMs)
		if !acc.empty() && bucket != current {
			result = append(result, acc.flush(domain.BarKindTime))
		}
		current = bucket
		acc.add(tx.Timestamp, tx.Price, tx.Size)
	}
	if !acc.empty() {
		result = append(result, acc.flush(domain.BarKindTime))
	}
	return result, nil
}

// SplitSessions cuts ordered transactions into consecutive runs that share the
// same floor(timestamp / sessionMs). Bars built per run never span a session.
func SplitSessions(txs []domain.Transaction, sessionMs int64) [][]domain.Transaction {
	if len(txs) == 0 {
		return nil
	}
	if sessionMs <= 0 {
		return [][]domain.Transaction{txs}
	}

	var sessions [][]domain.Transaction
	start := 0
	current := floorDiv(txs[0].Timestamp, sessionMs)
	for i := 1; i < len(txs); i++ {
		s := floorDiv(txs[i].Timestamp, sessionMs)
		if s != current {
			sessions = append(sessions, txs[start:i])
			start = i
			current = s
		}
	}
	return append(sessions, txs[start:])
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
