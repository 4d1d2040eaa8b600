// Package features derives stationary inputs and event triggers from price series:
// fixed-width fractional differencing and the symmetric CUSUM filter.
package features

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// maxWeights bounds the FFD window; thresholds that need more weights are rejected.
const maxWeights = 1 << 16

// FFDWeights returns the fixed-width fractional differencing weights for order d.
// The recurrence w_k = -w_{k-1}/k * (d-k+1) continues while |w_k| >= threshold.
// Weights are returned oldest first, so the last weight (1) applies to the newest value.
func FFDWeights(d, threshold float64) ([]float64, error) {
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return nil, fmt.Errorf("order %v: %w", d, ErrInvalidParameter)
	}
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return nil, fmt.Errorf("threshold %v: %w", threshold, ErrInvalidParameter)
	}

	w := []float64{1}
	for k := 1.0; ; k++ {
		next := -w[len(w)-1] / k * (d - k + 1)
		if math.Abs(next) < threshold {
			break
		}
		if len(w) == maxWeights {
			return nil, fmt.Errorf("threshold %v needs more than %d weights: %w", threshold, maxWeights, ErrInvalidParameter)
		}
		w = append(w, next)
	}
	slices.Reverse(w)
	return w, nil
}

// FracDiff applies fixed-width fractional differencing to series.
// Missing values are forward-filled first. A row is nil until a full window of
// len(weights) observed values ends at it.
func FracDiff(series []*float64, d, threshold float64) ([]*float64, error) {
	w, err := FFDWeights(d, threshold)
	if err != nil {
		return nil, err
	}

	filled := make([]float64, len(series))
	first := -1
	for i, v := range series {
		switch {
		case v != nil && !math.IsNaN(*v):
			filled[i] = *v
			if first < 0 {
				first = i
			}
		case first >= 0:
			filled[i] = filled[i-1]
		}
	}

	result := make([]*float64, len(series))
	if first < 0 {
		return result, nil
	}
	width := len(w) - 1
	for i := first + width; i < len(series); i++ {
		v := floats.Dot(w, filled[i-width:i+1])
		result[i] = &v
	}
	return result, nil
}
