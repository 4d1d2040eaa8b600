package labels

import (
	"fmt"
	"math"

	"tick-feature-lab/internal/lookup"
)

// DefaultVolLookbackMs is the daily volatility lookback (24h).
const DefaultVolLookbackMs int64 = 24 * 60 * 60 * 1000

// DailyVolatility estimates per-row volatility as the exponentially weighted
// standard deviation of lookback returns. The lookback return for row i is
// price[i] / price[j] - 1, where j is the last row at or before ts[i]-lookbackMs.
// Rows without a lookback price, and the first observed return, are nil.
// Timestamps must be sorted ascending.
func DailyVolatility(timestamps []int64, prices []float64, lookbackMs int64, span int) ([]*float64, error) {
	if len(timestamps) != len(prices) {
		return nil, fmt.Errorf("timestamps has %d rows, prices %d: %w", len(timestamps), len(prices), ErrLengthMismatch)
	}
	if span < 1 {
		return nil, fmt.Errorf("ewm span %d must be >= 1: %w", span, ErrInvalidPolicy)
	}

	returns := make([]*float64, len(prices))
	for i := range prices {
		j, err := lookup.AtOrBefore(timestamps[i]-lookbackMs, timestamps)
		if err != nil {
			continue
		}
		r := prices[i]/prices[j] - 1
		returns[i] = &r
	}
	return EWMStd(returns, span), nil
}

// EWMStd computes the bias-corrected exponentially weighted standard deviation
// with alpha = 2/(span+1) and adjusted weights. Nil inputs are skipped and yield nil.
func EWMStd(values []*float64, span int) []*float64 {
	ewm := newEWMVar(2 / (float64(span) + 1))
	result := make([]*float64, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		ewm.push(*v)
		if std, ok := ewm.std(); ok {
			result[i] = &std
		}
	}
	return result
}

// ewmVar keeps decayed weight sums for an adjusted EWM variance.
type ewmVar struct {
	decay float64
	sw    float64 // sum of weights
	sw2   float64 // sum of squared weights
	swx   float64 // weighted sum
	swxx  float64 // weighted sum of squares
	n     int
}

func newEWMVar(alpha float64) *ewmVar {
	return &ewmVar{decay: 1 - alpha}
}

func (e *ewmVar) push(x float64) {
	e.sw = e.sw*e.decay + 1
	e.sw2 = e.sw2*e.decay*e.decay + 1
	e.swx = e.swx*e.decay + x
	e.swxx = e.swxx*e.decay + x*x
	e.n++
}

func (e *ewmVar) std() (float64, bool) {
	if e.n < 2 {
		return 0, false
	}
	mean := e.swx / e.sw
	biased := e.swxx/e.sw - mean*mean
	if biased < 0 {
		biased = 0
	}
	denom := e.sw*e.sw - e.sw2
	if denom <= 0 {
		return 0, false
	}
	return math.Sqrt(biased * e.sw * e.sw / denom), true
}
