package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Featurization Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Started (ms): %d\n\n", r.RunID, r.StartedAt))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Symbols | %d |\n", r.DataSummary.Symbols))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", r.DataSummary.Trades))
	sb.WriteString(fmt.Sprintf("| Bars | %d |\n", r.DataSummary.Bars))
	sb.WriteString(fmt.Sprintf("| Labels | %d |\n", r.DataSummary.Labels))
	sb.WriteString(fmt.Sprintf("| Failed Symbols | %d |\n", r.DataSummary.Failed))
	sb.WriteString("\n")

	// Label Metrics
	sb.WriteString("## Label Metrics\n\n")
	if len(r.SymbolMetrics) > 0 {
		sb.WriteString("| Symbol | Kind | Bars | PT | SL | Neutral | Unlabeled | TouchRate | Mean | Median | P10 | P90 | Held | MaxDD |\n")
		sb.WriteString("|--------|------|------|----|----|---------|-----------|-----------|------|--------|-----|-----|------|-------|\n")
		for _, m := range r.SymbolMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %d | %.4f | %.6f | %.6f | %.6f | %.6f | %.2f | %.6f |\n",
				m.Symbol, m.Kind, m.TotalBars,
				m.ProfitTakes, m.StopLosses, m.Neutrals, m.Unlabeled,
				m.TouchRate, m.ReturnMean, m.ReturnMedian, m.ReturnP10, m.ReturnP90,
				m.MeanBarsHeld, m.MaxDrawdown))
		}
	} else {
		sb.WriteString("No label metrics available.\n")
	}
	sb.WriteString("\n")

	// Event Balance
	sb.WriteString("## Event Balance\n\n")
	if r.EventBalance.Labeled > 0 {
		sb.WriteString("| Event | Share% |\n")
		sb.WriteString("|-------|--------|\n")
		sb.WriteString(fmt.Sprintf("| Profit take | %.2f |\n", r.EventBalance.ProfitTakePct))
		sb.WriteString(fmt.Sprintf("| Stop loss | %.2f |\n", r.EventBalance.StopLossPct))
		sb.WriteString(fmt.Sprintf("| Neutral | %.2f |\n", r.EventBalance.NeutralPct))
		sb.WriteString(fmt.Sprintf("\nLabeled: %d | Unlabeled: %d\n", r.EventBalance.Labeled, r.EventBalance.UnlabeledCount))
	} else {
		sb.WriteString("No labeled events.\n")
	}
	sb.WriteString("\n")

	// Errors
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
