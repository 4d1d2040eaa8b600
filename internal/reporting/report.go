package reporting

import "time"

// Report summarizes one featurization run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	StartedAt   int64 // Unix ms

	// Data Summary
	DataSummary DataSummary

	// Per-symbol label metrics (sorted by symbol, kind)
	SymbolMetrics []SymbolMetricRow

	// Event balance across all symbols
	EventBalance EventBalance

	// Per-symbol failures
	Errors []string
}

// DataSummary contains data description.
type DataSummary struct {
	Symbols int
	Trades  int
	Bars    int
	Labels  int
	Failed  int
}

// SymbolMetricRow represents one row in the label metrics table.
type SymbolMetricRow struct {
	Symbol       string
	Kind         string
	TotalBars    int
	ProfitTakes  int
	StopLosses   int
	Neutrals     int
	Unlabeled    int
	TouchRate    float64
	ReturnMean   float64
	ReturnStddev float64
	ReturnMedian float64
	ReturnP10    float64
	ReturnP90    float64
	MeanBarsHeld float64
	MaxDrawdown  float64
}

// EventBalance is the share of each event among labeled rows.
type EventBalance struct {
	Labeled        int
	ProfitTakePct  float64
	StopLossPct    float64
	NeutralPct     float64
	UnlabeledCount int
}
