package labels

// HorizontalBarrier bounds a path's return. A nil side is not checked.
type HorizontalBarrier struct {
	Lower *float64 // stop-loss return, usually negative
	Upper *float64 // profit-take return
}

// ScaleBarriers derives per-row barriers from a width series (e.g. volatility):
// upper = width * profitTake, lower = -width * stopLoss.
// A nil width disables both sides for that row; a nil rate disables that side.
func ScaleBarriers(width []*float64, profitTake, stopLoss *float64) []HorizontalBarrier {
	result := make([]HorizontalBarrier, len(width))
	for i, w := range width {
		if w == nil {
			continue
		}
		if profitTake != nil {
			upper := *w * *profitTake
			result[i].Upper = &upper
		}
		if stopLoss != nil {
			lower := -*w * *stopLoss
			result[i].Lower = &lower
		}
	}
	return result
}

// ConstantWidth returns n copies of width, for labeling with fixed barriers.
func ConstantWidth(n int, width float64) []*float64 {
	result := make([]*float64, n)
	for i := range result {
		w := width
		result[i] = &w
	}
	return result
}
