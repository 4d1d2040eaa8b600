// Package bars segments ordered trades into OHLCV bars.
//
// Volume and dollar bars run in split mode: a trade that crosses the active
// threshold is divided so that every closed bar holds exactly the threshold.
// Only the trailing bar may be short, and it is emitted only when non-empty.
package bars

import (
	"fmt"
	"math"

	"tick-feature-lab/internal/domain"
)

// dollarEpsilon absorbs float error when converting a dollar remainder back to size.
const dollarEpsilon = 1e-9

// Thresholds holds either one threshold per input row or a single scalar.
// Exactly one of Volume or Dollar is populated, as selected by Kind.
type Thresholds struct {
	Kind   domain.ThresholdKind
	Volume []uint32
	Dollar []float64
}

// VolumeThresholds creates volume thresholds (scalar when one value is given).
func VolumeThresholds(values ...uint32) Thresholds {
	return Thresholds{Kind: domain.ThresholdVolume, Volume: values}
}

// DollarThresholds creates dollar thresholds (scalar when one value is given).
func DollarThresholds(values ...float64) Thresholds {
	return Thresholds{Kind: domain.ThresholdDollar, Dollar: values}
}

// validate checks lengths and values against an input of n rows.
func (t Thresholds) validate(n int) error {
	var size int
	switch t.Kind {
	case domain.ThresholdVolume:
		size = len(t.Volume)
		for _, v := range t.Volume {
			if v == 0 {
				return fmt.Errorf("volume threshold 0: %w", ErrInvalidThreshold)
			}
		}
	case domain.ThresholdDollar:
		size = len(t.Dollar)
		for _, v := range t.Dollar {
			if !(v > 0) || math.IsInf(v, 0) {
				return fmt.Errorf("dollar threshold %v: %w", v, ErrInvalidThreshold)
			}
		}
	default:
		return fmt.Errorf("threshold kind %q: %w", t.Kind, ErrUnsupportedType)
	}

	if size != 1 && size != n {
		return fmt.Errorf("got %d thresholds for %d rows: %w", size, n, ErrLengthMismatch)
	}
	return nil
}

// rowIndex maps an input row to its threshold slot.
func rowIndex(size, i int) int {
	if size == 1 {
		return 0
	}
	return i
}

// Aggregate partitions ordered transactions into bars by cumulative volume or
// dollar value. The threshold kind is resolved once for the whole call.
// Empty input yields no bars and no error.
func Aggregate(txs []domain.Transaction, th Thresholds) ([]domain.Bar, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	if err := th.validate(len(txs)); err != nil {
		return nil, err
	}

	switch th.Kind {
	case domain.ThresholdVolume:
		return volumeBars(txs, th.Volume), nil
	case domain.ThresholdDollar:
		return dollarBars(txs, th.Dollar), nil
	}
	return nil, ErrUnsupportedType
}

// volumeBars closes a bar every time the accumulated size reaches the threshold.
func volumeBars(txs []domain.Transaction, thresholds []uint32) []domain.Bar {
	acc := newAccumulator()
	var result []domain.Bar

	for i, tx := range txs {
		limit := thresholds[rowIndex(len(thresholds), i)]

		// A per-row threshold may drop below what is already accumulated.
		if acc.volume >= limit && !acc.empty() {
			result = append(result, acc.flush(domain.BarKindVolume))
		}

		// Zero-size trades still count toward price and transaction count.
		if tx.Size == 0 {
			acc.add(tx.Timestamp, tx.Price, 0)
			continue
		}

		size := tx.Size
		remaining := limit - acc.volume
		for size > 0 && size >= remaining {
			acc.add(tx.Timestamp, tx.Price, remaining)
			result = append(result, acc.flush(domain.BarKindVolume))
			size -= remaining
			remaining = limit
		}
		if size > 0 {
			acc.add(tx.Timestamp, tx.Price, size)
		}
	}

	if !acc.empty() {
		result = append(result, acc.flush(domain.BarKindVolume))
	}
	return result
}

// dollarBars closes a bar every time the accumulated notional reaches the threshold.
// The portion of a trade needed to fill a bar is remaining/price, floored to whole
// units and never less than one unit.
func dollarBars(txs []domain.Transaction, thresholds []float64) []domain.Bar {
	acc := newAccumulator()
	var result []domain.Bar

	for i, tx := range txs {
		limit := thresholds[rowIndex(len(thresholds), i)]

		if acc.dollars >= limit && !acc.empty() {
			result = append(result, acc.flush(domain.BarKindDollar))
		}

		if tx.Size == 0 {
			acc.add(tx.Timestamp, tx.Price, 0)
			continue
		}

		size := tx.Size
		remaining := limit - acc.dollars
		for size > 0 && tx.Price*float64(size) >= remaining {
			part := uint32(math.Floor(remaining/tx.Price + dollarEpsilon))
			if part == 0 {
				part = 1
			}
			if part > size {
				part = size
			}
			acc.add(tx.Timestamp, tx.Price, part)
			result = append(result, acc.flush(domain.BarKindDollar))
			size -= part
			remaining = limit
		}
		if size > 0 {
			acc.add(tx.Timestamp, tx.Price, size)
		}
	}

	if !acc.empty() {
		result = append(result, acc.flush(domain.BarKindDollar))
	}
	return result
}
