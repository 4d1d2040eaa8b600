package labels

import (
	"fmt"

	"tick-feature-lab/internal/lookup"
)

// window resolves the half-open path range [start, end) for a seed row.
type window func(row int) (start, end int, err error)

// Horizon bounds how far forward a seed's path is scanned (the vertical barrier).
// Use FixedHorizon or IndexHorizon.
type Horizon interface {
	bind(n int, index []int64) (window, error)
}

type fixedHorizon struct {
	bars int
}

// FixedHorizon scans rows i..i+bars inclusive, truncated at the end of input.
func FixedHorizon(bars int) Horizon {
	return fixedHorizon{bars: bars}
}

func (h fixedHorizon) bind(n int, _ []int64) (window, error) {
	if h.bars < 0 {
		return nil, fmt.Errorf("fixed horizon %d: %w", h.bars, ErrInvalidHorizon)
	}
	return func(row int) (int, int, error) {
		return row, min(row+h.bars+1, n), nil
	}, nil
}

type indexHorizon struct {
	ends []*int64
}

// IndexHorizon scans from the seed's own index key to an explicit end key, both
// located by equality in the ordering index. A nil end scans to the end of input.
// A key missing from the index fails the whole labeling call.
func IndexHorizon(ends []*int64) Horizon {
	return indexHorizon{ends: ends}
}

func (h indexHorizon) bind(n int, index []int64) (window, error) {
	if len(index) != n {
		return nil, fmt.Errorf("index has %d rows, prices %d: %w", len(index), n, ErrLengthMismatch)
	}
	if len(h.ends) != n {
		return nil, fmt.Errorf("horizon has %d rows, prices %d: %w", len(h.ends), n, ErrLengthMismatch)
	}

	ix := lookup.NewIndex(index)
	return func(row int) (int, int, error) {
		end := h.ends[row]
		if end == nil {
			return row, n, nil
		}

		start, stop, err := ix.SliceRange(index[row], *end)
		if err != nil {
			return 0, 0, err
		}
		// An end key before the seed leaves only the seed itself.
		if stop <= start {
			stop = start + 1
		}
		return start, stop, nil
	}, nil
}
