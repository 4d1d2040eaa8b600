// Package labels implements triple-barrier labeling of forward price paths.
//
// Each seed row is classified by which barrier its path reaches first: the upper
// (profit-take) return, the lower (stop-loss) return, or the vertical horizon.
// Rows are independent, so Labeler evaluates them concurrently; every row writes
// only its own output slot.
package labels

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// defaultChunkSize is the number of rows evaluated per worker task.
const defaultChunkSize = 1024

// Label is the labeling result for one row.
type Label struct {
	Event       *int8   // -1 | 0 | 1, nil when unresolved or not a seed
	Return      float64 // path return at touch
	BarsToTouch int64   // absolute row index of the touch
}

// Input holds aligned per-row columns. Prices is required.
type Input struct {
	Prices   []float64
	Index    []int64             // ordering keys, required by IndexHorizon
	Barriers []HorizontalBarrier // nil disables horizontal barriers for every row
	Horizon  Horizon
	Valid    []bool // seed mask, nil marks every row as a seed
}

// Labeler labels price paths under a fixed policy.
type Labeler struct {
	policy    Policy
	workers   int
	chunkSize int
}

// NewLabeler creates a Labeler. Non-positive workers uses GOMAXPROCS.
func NewLabeler(policy Policy, workers int) *Labeler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Labeler{
		policy:    policy,
		workers:   workers,
		chunkSize: defaultChunkSize,
	}
}

// Label produces one Label per row of in.Prices.
// Input is fully validated before any row is processed. Any row failure (a
// horizon key missing from the index) fails the call and no labels are returned.
func (l *Labeler) Label(ctx context.Context, in Input) ([]Label, error) {
	n := len(in.Prices)
	if err := l.policy.validate(); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Horizon == nil {
		return nil, fmt.Errorf("no horizon: %w", ErrInvalidHorizon)
	}
	win, err := in.Horizon.bind(n, in.Index)
	if err != nil {
		return nil, err
	}

	out := make([]Label, n)
	if n == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for lo := 0; lo < n; lo += l.chunkSize {
		lo, hi := lo, min(lo+l.chunkSize, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				label, err := l.labelRow(in, win, i)
				if err != nil {
					return fmt.Errorf("row %d: %w", i, err)
				}
				out[i] = label
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// labelRow classifies a single seed row. Non-seed rows get an empty placeholder.
func (l *Labeler) labelRow(in Input, win window, i int) (Label, error) {
	if in.Valid != nil && !in.Valid[i] {
		return Label{}, nil
	}

	start, end, err := win(i)
	if err != nil {
		return Label{}, err
	}

	var barrier HorizontalBarrier
	if in.Barriers != nil {
		barrier = in.Barriers[i]
	}

	path := NewPricePath(in.Prices, start, end)
	outcome := Classify(path.Returns, barrier, l.policy)

	return Label{
		Event:       outcome.Event,
		Return:      outcome.Return,
		BarsToTouch: int64(path.Start + outcome.Index),
	}, nil
}

func validateInput(in Input) error {
	n := len(in.Prices)
	for i, p := range in.Prices {
		if math.IsNaN(p) {
			return fmt.Errorf("price at row %d is missing: %w", i, ErrInvalidOperation)
		}
	}
	if in.Barriers != nil && len(in.Barriers) != n {
		return fmt.Errorf("barriers has %d rows, prices %d: %w", len(in.Barriers), n, ErrLengthMismatch)
	}
	if in.Valid != nil && len(in.Valid) != n {
		return fmt.Errorf("valid mask has %d rows, prices %d: %w", len(in.Valid), n, ErrLengthMismatch)
	}
	return nil
}
