package features

import "math"

// SymmetricCUSUM flags rows where the cumulative positive or negative drift of
// diffs exceeds h. It returns -1 for a downside event, 1 for an upside event and
// 0 otherwise. The triggered side resets to zero. The downside is checked first.
// Missing diffs emit 0 and leave the sums unchanged.
func SymmetricCUSUM(diffs []*float64, h float64) []int8 {
	out := make([]int8, len(diffs))
	var pos, neg float64
	for i, v := range diffs {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		pos = math.Max(0, pos+*v)
		neg = math.Min(0, neg+*v)
		switch {
		case neg < -h:
			neg = 0
			out[i] = -1
		case pos > h:
			pos = 0
			out[i] = 1
		}
	}
	return out
}

// Diff returns first differences of values; the first row and rows next to a
// missing value are nil.
func Diff(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if math.IsNaN(d) {
			continue
		}
		out[i] = &d
	}
	return out
}

// LogReturns returns log(p[i]/p[i-1]); the first row is nil.
func LogReturns(prices []float64) []*float64 {
	out := make([]*float64, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		r := math.Log(prices[i] / prices[i-1])
		out[i] = &r
	}
	return out
}

// Events converts filter output into a seed mask: true where an event fired.
func Events(flags []int8) []bool {
	mask := make([]bool, len(flags))
	for i, f := range flags {
		mask[i] = f != 0
	}
	return mask
}
