// Package verification replays featurization from stored trades and checks
// that the stored bar and label series match the replay field by field.
package verification

import (
	"context"
	"fmt"
	"math"

	"tick-feature-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // e.g. "bar[3].Close"
	Expected any    // stored value
	Actual   any    // replayed value
}

// SeriesResult is the verification of one (symbol, kind) series.
type SeriesResult struct {
	Symbol         string
	Kind           domain.BarKind
	Match          bool
	Divergences    []FieldDivergence
	StoredBars     int
	ReplayedBars   int
	StoredLabels   int
	ReplayedLabels int
}

// Report contains results for batch verification.
type Report struct {
	TotalSeries     int
	MatchedSeries   int
	DivergentSeries int
	Results         []SeriesResult
}

// Verifier checks stored series against a replay.
type Verifier interface {
	// VerifySymbol rebuilds one symbol's series and compares it with storage.
	VerifySymbol(ctx context.Context, symbol string) (*SeriesResult, error)

	// VerifyAll verifies every symbol with stored trades.
	VerifyAll(ctx context.Context) (*Report, error)
}

// CompareBars compares two bar series and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareBars(stored, replayed []domain.Bar) []FieldDivergence {
	var divergences []FieldDivergence
	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{
			Field:    "bars.len",
			Expected: len(stored),
			Actual:   len(replayed),
		})
	}

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		field := func(name string) string { return fmt.Sprintf("bar[%d].%s", i, name) }

		if s.BarID != r.BarID {
			divergences = append(divergences, FieldDivergence{Field: field("BarID"), Expected: s.BarID, Actual: r.BarID})
		}
		if s.Seq != r.Seq {
			divergences = append(divergences, FieldDivergence{Field: field("Seq"), Expected: s.Seq, Actual: r.Seq})
		}
		if s.StartTime != r.StartTime {
			divergences = append(divergences, FieldDivergence{Field: field("StartTime"), Expected: s.StartTime, Actual: r.StartTime})
		}
		if s.EndTime != r.EndTime {
			divergences = append(divergences, FieldDivergence{Field: field("EndTime"), Expected: s.EndTime, Actual: r.EndTime})
		}

		prices := []struct {
			name   string
			sv, rv float64
		}{
			{"Open", s.Open, r.Open},
			{"High", s.High, r.High},
			{"Low", s.Low, r.Low},
			{"Close", s.Close, r.Close},
			{"VWAP", s.VWAP, r.VWAP},
		}
		for _, p := range prices {
			if !floatEquals(p.sv, p.rv) {
				divergences = append(divergences, FieldDivergence{Field: field(p.name), Expected: p.sv, Actual: p.rv})
			}
		}

		if s.Volume != r.Volume {
			divergences = append(divergences, FieldDivergence{Field: field("Volume"), Expected: s.Volume, Actual: r.Volume})
		}
		if s.TransactionCount != r.TransactionCount {
			divergences = append(divergences, FieldDivergence{Field: field("TransactionCount"), Expected: s.TransactionCount, Actual: r.TransactionCount})
		}
	}
	return divergences
}

// CompareLabels compares two label series and returns divergences.
func CompareLabels(stored, replayed []domain.LabelPoint) []FieldDivergence {
	var divergences []FieldDivergence
	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{
			Field:    "labels.len",
			Expected: len(stored),
			Actual:   len(replayed),
		})
	}

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		field := func(name string) string { return fmt.Sprintf("label[%d].%s", i, name) }

		if s.Seq != r.Seq {
			divergences = append(divergences, FieldDivergence{Field: field("Seq"), Expected: s.Seq, Actual: r.Seq})
		}
		if s.Timestamp != r.Timestamp {
			divergences = append(divergences, FieldDivergence{Field: field("Timestamp"), Expected: s.Timestamp, Actual: r.Timestamp})
		}
		if !int8PtrEquals(s.Event, r.Event) {
			divergences = append(divergences, FieldDivergence{Field: field("Event"), Expected: s.Event, Actual: r.Event})
		}
		if !floatEquals(s.Return, r.Return) {
			divergences = append(divergences, FieldDivergence{Field: field("Return"), Expected: s.Return, Actual: r.Return})
		}
		if s.BarsToTouch != r.BarsToTouch {
			divergences = append(divergences, FieldDivergence{Field: field("BarsToTouch"), Expected: s.BarsToTouch, Actual: r.BarsToTouch})
		}
		if s.TouchTimestamp != r.TouchTimestamp {
			divergences = append(divergences, FieldDivergence{Field: field("TouchTimestamp"), Expected: s.TouchTimestamp, Actual: r.TouchTimestamp})
		}
		if !floatPtrEquals(s.Width, r.Width) {
			divergences = append(divergences, FieldDivergence{Field: field("Width"), Expected: s.Width, Actual: r.Width})
		}
	}
	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
// NaN equals NaN.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= FloatTolerance
}

func floatPtrEquals(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return floatEquals(*a, *b)
}

func int8PtrEquals(a, b *int8) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
