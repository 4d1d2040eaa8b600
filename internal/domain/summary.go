package domain

// LabelSummary aggregates the labels of one symbol's bar series in a run.
// Corresponds to label_summaries table in ClickHouse.
type LabelSummary struct {
	RunID     string  // pipeline run that produced the labels
	Symbol    string  // instrument symbol
	Kind      BarKind // bar series
	CreatedAt int64   // Unix timestamp in milliseconds

	// Counts
	TotalBars   int // labeled rows, seeds or not
	ProfitTakes int // event 1
	StopLosses  int // event -1
	Neutrals    int // event 0
	Unlabeled   int // event nil: not a seed, or expired inside the deadband

	// TouchRate is the share of labeled events that hit a horizontal barrier.
	TouchRate float64

	// Return distribution over labeled events
	ReturnMean   float64
	ReturnStddev float64 // sample stddev (n-1)
	ReturnMedian float64
	ReturnP10    float64
	ReturnP90    float64
	ReturnMin    float64
	ReturnMax    float64

	// MeanBarsHeld is the mean distance in bars from seed to touch.
	MeanBarsHeld float64

	// MaxDrawdown is the worst peak-to-trough of cumulative event returns.
	MaxDrawdown float64
}

// Labeled returns the number of rows with a resolved event.
func (s *LabelSummary) Labeled() int {
	return s.ProfitTakes + s.StopLosses + s.Neutrals
}
