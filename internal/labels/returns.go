package labels

import (
	"fmt"
	"math"

	"tick-feature-lab/internal/domain"
)

// FixedTimeReturn computes, for each row t, the return from price[t+offset] to
// price[t+offset+window]. Rows whose endpoints fall outside the series are nil.
// An offset of 1 avoids using the price observed at decision time.
func FixedTimeReturn(prices []float64, window, offset int) ([]*float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("return window %d: %w", window, ErrInvalidHorizon)
	}

	n := len(prices)
	result := make([]*float64, n)
	for t := range prices {
		from, to := t+offset, t+offset+window
		if from < 0 || to < 0 || from >= n || to >= n {
			continue
		}
		r := prices[to]/prices[from] - 1
		result[t] = &r
	}
	return result, nil
}

// ClassifyByThreshold maps returns to -1/0/1.
// Without a threshold the sign of the return is used. With one, returns beyond
// +|threshold| or -|threshold| are 1 or -1 and anything in between is 0.
// Nil and NaN returns stay nil.
func ClassifyByThreshold(returns []*float64, threshold *float64) []*int8 {
	result := make([]*int8, len(returns))
	for i, r := range returns {
		if r == nil || math.IsNaN(*r) {
			continue
		}
		v := *r

		if threshold == nil {
			switch {
			case v > 0:
				result[i] = event(domain.EventProfitTake)
			case v < 0:
				result[i] = event(domain.EventStopLoss)
			default:
				result[i] = event(domain.EventNeutral)
			}
			continue
		}

		h := math.Abs(*threshold)
		switch {
		case v > h:
			result[i] = event(domain.EventProfitTake)
		case v < -h:
			result[i] = event(domain.EventStopLoss)
		default:
			result[i] = event(domain.EventNeutral)
		}
	}
	return result
}
