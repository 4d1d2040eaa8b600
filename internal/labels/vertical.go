package labels

import "tick-feature-lab/internal/lookup"

// VerticalBarrierByOffset returns, for each timestamp, the first timestamp in the
// series at or after ts+offsetMs, or nil when the series ends first.
// The result feeds IndexHorizon with the timestamps as the ordering index.
// Timestamps must be sorted ascending.
func VerticalBarrierByOffset(timestamps []int64, offsetMs int64) []*int64 {
	result := make([]*int64, len(timestamps))
	for i, ts := range timestamps {
		j, err := lookup.AtOrAfter(ts+offsetMs, timestamps)
		if err != nil {
			continue
		}
		barrier := timestamps[j]
		result[i] = &barrier
	}
	return result
}
