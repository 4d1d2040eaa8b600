package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders label metrics as CSV string.
func RenderCSV(metrics []SymbolMetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("symbol,kind,total_bars,profit_takes,stop_losses,neutrals,unlabeled,touch_rate,")
	sb.WriteString("return_mean,return_stddev,return_median,return_p10,return_p90,")
	sb.WriteString("mean_bars_held,max_drawdown\n")

	// Rows
	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			m.Symbol,
			m.Kind,
			m.TotalBars,
			m.ProfitTakes,
			m.StopLosses,
			m.Neutrals,
			m.Unlabeled,
			m.TouchRate,
			m.ReturnMean,
			m.ReturnStddev,
			m.ReturnMedian,
			m.ReturnP10,
			m.ReturnP90,
			m.MeanBarsHeld,
			m.MaxDrawdown,
		))
	}

	return sb.String()
}
