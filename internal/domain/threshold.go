package domain

import "fmt"

// ThresholdKind selects what a bar threshold accumulates.
type ThresholdKind string

// Threshold kinds
const (
	ThresholdVolume ThresholdKind = "volume" // cumulative traded size
	ThresholdDollar ThresholdKind = "dollar" // cumulative price * size
)

// BarKind identifies how a bar series was sampled.
type BarKind string

// Bar kinds
const (
	BarKindTick   BarKind = "tick"
	BarKindTime   BarKind = "time"
	BarKindVolume BarKind = "volume"
	BarKindDollar BarKind = "dollar"
)

// ParseBarKind converts a string into a BarKind.
func ParseBarKind(s string) (BarKind, error) {
	switch BarKind(s) {
	case BarKindTick, BarKindTime, BarKindVolume, BarKindDollar:
		return BarKind(s), nil
	default:
		return "", fmt.Errorf("unknown bar kind %q", s)
	}
}
