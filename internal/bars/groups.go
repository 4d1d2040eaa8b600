package bars

import (
	"fmt"
	"math"
)

// Group assigns (part of) an input row to a bar group.
type Group struct {
	Row    int     // input row index
	ID     uint32  // bar group id, non-decreasing from 0
	Amount float64 // portion of the row's value assigned to ID
}

// Groups assigns a bar group id to each input value.
//
// With allowSplits, a value that crosses the bar size is divided: the part that
// fills the current group closes it and the rest carries into following groups,
// so one row may produce several Group entries. Without allowSplits every row
// maps to exactly one group and the next row starts a new group once the running
// sum reaches or exceeds barSize.
func Groups(values []float64, barSize float64, allowSplits bool) ([]Group, error) {
	if !(barSize > 0) || math.IsInf(barSize, 0) {
		return nil, fmt.Errorf("bar size %v: %w", barSize, ErrInvalidThreshold)
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("row %d: %w", i, ErrInvalidValue)
		}
	}

	if allowSplits {
		return splitGroups(values, barSize), nil
	}
	return overflowGroups(values, barSize), nil
}

func splitGroups(values []float64, barSize float64) []Group {
	result := make([]Group, 0, len(values))
	var id uint32
	cumulative := 0.0

	for row, v := range values {
		emitted := false
		remaining := barSize - cumulative
		for v > 0 && v >= remaining {
			result = append(result, Group{Row: row, ID: id, Amount: remaining})
			emitted = true
			id++
			cumulative = 0
			v -= remaining
			remaining = barSize
		}
		if v != 0 || !emitted {
			result = append(result, Group{Row: row, ID: id, Amount: v})
			cumulative += v
		}
	}
	return result
}

func overflowGroups(values []float64, barSize float64) []Group {
	result := make([]Group, len(values))
	var id uint32
	cumulative := 0.0

	for row, v := range values {
		result[row] = Group{Row: row, ID: id, Amount: v}
		cumulative += v
		if cumulative >= barSize {
			id++
			cumulative = 0
		}
	}
	return result
}

// DynamicTickGroups assigns group ids by row count, where each row carries the
// tick count that closes the group it lands in. A nil threshold yields a nil id
// and does not advance the counter.
func DynamicTickGroups(thresholds []*uint32) []*uint32 {
	result := make([]*uint32, len(thresholds))
	var id, count uint32

	for i, th := range thresholds {
		if th == nil {
			continue
		}
		count++
		groupID := id
		result[i] = &groupID
		if count >= *th {
			id++
			count = 0
		}
	}
	return result
}
