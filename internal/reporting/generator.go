package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/orchestrator"
	"tick-feature-lab/internal/storage"
)

// Generator produces reports from stored summaries.
type Generator struct {
	summaryStore storage.SummaryStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(summaryStore storage.SummaryStore) *Generator {
	return &Generator{
		summaryStore: summaryStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of a completed run.
func (g *Generator) Generate(ctx context.Context, run *orchestrator.RunResult) (*Report, error) {
	if run == nil {
		return nil, fmt.Errorf("generate report: nil run")
	}

	summaries, err := g.summaryStore.GetByRun(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("load summaries for run %s: %w", run.RunID, err)
	}

	rows := generateSymbolMetrics(summaries)

	return &Report{
		GeneratedAt: g.now(),
		RunID:       run.RunID,
		StartedAt:   run.StartedAt,
		DataSummary: DataSummary{
			Symbols: run.Symbols,
			Trades:  run.Trades,
			Bars:    run.Bars,
			Labels:  run.Labels,
			Failed:  len(run.Errors),
		},
		SymbolMetrics: rows,
		EventBalance:  generateEventBalance(summaries),
		Errors:        append([]string(nil), run.Errors...),
	}, nil
}

// generateSymbolMetrics builds sorted rows from summaries.
func generateSymbolMetrics(summaries []*domain.LabelSummary) []SymbolMetricRow {
	rows := make([]SymbolMetricRow, len(summaries))
	for i, s := range summaries {
		rows[i] = SymbolMetricRow{
			Symbol:       s.Symbol,
			Kind:         string(s.Kind),
			TotalBars:    s.TotalBars,
			ProfitTakes:  s.ProfitTakes,
			StopLosses:   s.StopLosses,
			Neutrals:     s.Neutrals,
			Unlabeled:    s.Unlabeled,
			TouchRate:    s.TouchRate,
			ReturnMean:   s.ReturnMean,
			ReturnStddev: s.ReturnStddev,
			ReturnMedian: s.ReturnMedian,
			ReturnP10:    s.ReturnP10,
			ReturnP90:    s.ReturnP90,
			MeanBarsHeld: s.MeanBarsHeld,
			MaxDrawdown:  s.MaxDrawdown,
		}
	}

	// Sort by (symbol, kind)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Kind < rows[j].Kind
	})
	return rows
}

// generateEventBalance pools event counts over all symbols.
func generateEventBalance(summaries []*domain.LabelSummary) EventBalance {
	var pt, sl, neutral, unlabeled int
	for _, s := range summaries {
		pt += s.ProfitTakes
		sl += s.StopLosses
		neutral += s.Neutrals
		unlabeled += s.Unlabeled
	}

	b := EventBalance{Labeled: pt + sl + neutral, UnlabeledCount: unlabeled}
	if b.Labeled > 0 {
		total := float64(b.Labeled)
		b.ProfitTakePct = float64(pt) / total * 100
		b.StopLossPct = float64(sl) / total * 100
		b.NeutralPct = float64(neutral) / total * 100
	}
	return b
}
