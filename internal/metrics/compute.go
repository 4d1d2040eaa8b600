package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"tick-feature-lab/internal/domain"
)

// Summarize computes label statistics for one bar series.
// Labels are ordered by seq before order-dependent metrics are computed.
// RunID and CreatedAt are left for the caller.
func Summarize(symbol string, kind domain.BarKind, labels []domain.LabelPoint) *domain.LabelSummary {
	sum := &domain.LabelSummary{
		Symbol:    symbol,
		Kind:      kind,
		TotalBars: len(labels),
	}

	sorted := make([]domain.LabelPoint, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seq < sorted[j].Seq
	})

	var returns, held []float64
	for _, l := range sorted {
		if l.Event == nil {
			sum.Unlabeled++
			continue
		}
		switch *l.Event {
		case domain.EventProfitTake:
			sum.ProfitTakes++
		case domain.EventStopLoss:
			sum.StopLosses++
		default:
			sum.Neutrals++
		}
		returns = append(returns, l.Return)
		held = append(held, float64(l.BarsToTouch-l.Seq))
	}

	n := len(returns)
	if n == 0 {
		return sum
	}

	sum.TouchRate = float64(sum.ProfitTakes+sum.StopLosses) / float64(n)
	sum.MeanBarsHeld = stat.Mean(held, nil)
	sum.MaxDrawdown = computeMaxDrawdown(returns)

	// Distribution (order-independent)
	sortedReturns := make([]float64, n)
	copy(sortedReturns, returns)
	sort.Float64s(sortedReturns)

	if n > 1 {
		sum.ReturnMean, sum.ReturnStddev = stat.MeanStdDev(returns, nil)
	} else {
		sum.ReturnMean = returns[0]
	}
	sum.ReturnMedian = computePercentile(sortedReturns, 0.50)
	sum.ReturnP10 = computePercentile(sortedReturns, 0.10)
	sum.ReturnP90 = computePercentile(sortedReturns, 0.90)
	sum.ReturnMin = floats.Min(sortedReturns)
	sum.ReturnMax = floats.Max(sortedReturns)

	return sum
}

// computePercentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC. p is a fraction (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative returns.
// Returns must be in seq order.
func computeMaxDrawdown(returns []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		if drawdown := peak - cumulative; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
