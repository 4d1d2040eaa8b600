// Package pipeline turns a symbol's trades into bars and triple-barrier labels.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"tick-feature-lab/internal/bars"
	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/features"
	"tick-feature-lab/internal/idhash"
	"tick-feature-lab/internal/labels"
	"tick-feature-lab/internal/lookup"
)

// Output holds one symbol's bar series and its labels, aligned by row.
type Output struct {
	Symbol string
	Bars   []domain.Bar
	Labels []domain.LabelPoint
}

// BarSpec maps bar configuration onto a sampling spec.
// Tick bars read Threshold as a trade count, time bars as milliseconds.
func BarSpec(cfg config.BarsConfig) (bars.Spec, error) {
	kind, err := domain.ParseBarKind(cfg.Kind)
	if err != nil {
		return bars.Spec{}, err
	}
	if kind == domain.BarKindTick || kind == domain.BarKindTime {
		if cfg.Threshold != math.Trunc(cfg.Threshold) {
			return bars.Spec{}, fmt.Errorf("%s bar threshold %v is not a whole number: %w", kind, cfg.Threshold, bars.ErrInvalidThreshold)
		}
	}
	return bars.Spec{
		Kind:       kind,
		Threshold:  cfg.Threshold,
		Ticks:      int(cfg.Threshold),
		IntervalMs: int64(cfg.Threshold),
	}, nil
}

// Featurize samples bars from trades and labels them.
// Trades are sorted by (timestamp, seq) first when needed; the input slice is not modified.
func Featurize(ctx context.Context, symbol string, txs []domain.Transaction, cfg *config.Config) (*Output, error) {
	spec, err := BarSpec(cfg.Bars)
	if err != nil {
		return nil, fmt.Errorf("bar spec: %w", err)
	}

	sampled, err := buildBars(symbol, txs, spec, cfg.Bars.SessionMs)
	if err != nil {
		return nil, err
	}

	points, err := labelBars(ctx, sampled, cfg.Labels)
	if err != nil {
		return nil, err
	}

	return &Output{Symbol: symbol, Bars: sampled, Labels: points}, nil
}

// buildBars samples each session separately and numbers the bars across sessions.
func buildBars(symbol string, txs []domain.Transaction, spec bars.Spec, sessionMs int64) ([]domain.Bar, error) {
	ordered := txs
	if !bars.IsOrdered(txs) {
		ordered = make([]domain.Transaction, len(txs))
		copy(ordered, txs)
		bars.SortTransactions(ordered)
	}

	var result []domain.Bar
	for _, session := range bars.SplitSessions(ordered, sessionMs) {
		sessionBars, err := bars.Sample(session, spec)
		if err != nil {
			return nil, fmt.Errorf("sample %s bars: %w", spec.Kind, err)
		}
		result = append(result, sessionBars...)
	}

	for i := range result {
		result[i].Symbol = symbol
		result[i].Seq = int64(i)
	}
	idhash.AssignBarIDs(result)
	return result, nil
}

// labelBars runs the triple-barrier labeler over bar closes.
// Row positions serve as the ordering index so bars sharing an end time stay distinct.
func labelBars(ctx context.Context, series []domain.Bar, cfg config.LabelsConfig) ([]domain.LabelPoint, error) {
	n := len(series)
	closes := make([]float64, n)
	endTimes := make([]int64, n)
	positions := make([]int64, n)
	for i, b := range series {
		closes[i] = b.Close
		endTimes[i] = b.EndTime
		positions[i] = int64(i)
	}

	width, err := barrierWidth(endTimes, closes, cfg)
	if err != nil {
		return nil, err
	}

	tieBreak, err := labels.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, err
	}
	policy := labels.Policy{
		MinReturn:              cfg.MinReturn,
		UseVerticalBarrierSign: cfg.UseVerticalSign,
		TieBreak:               tieBreak,
	}

	valid := seeds(closes, width, cfg)

	in := labels.Input{
		Prices:   closes,
		Index:    positions,
		Barriers: labels.ScaleBarriers(width, rate(cfg.ProfitTake), rate(cfg.StopLoss)),
		Horizon:  horizon(endTimes, cfg),
		Valid:    valid,
	}

	out, err := labels.NewLabeler(policy, cfg.Workers).Label(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("label bars: %w", err)
	}

	points := make([]domain.LabelPoint, n)
	for i, l := range out {
		p := domain.LabelPoint{
			Symbol:      series[i].Symbol,
			Kind:        series[i].Kind,
			Seq:         series[i].Seq,
			Timestamp:   series[i].EndTime,
			Event:       l.Event,
			Return:      l.Return,
			BarsToTouch: l.BarsToTouch,
			Width:       width[i],
		}
		if valid[i] {
			p.TouchTimestamp = endTimes[l.BarsToTouch]
		}
		points[i] = p
	}
	return points, nil
}

// barrierWidth is the daily volatility of closes, or a constant when VolSpan is 0.
func barrierWidth(endTimes []int64, closes []float64, cfg config.LabelsConfig) ([]*float64, error) {
	if cfg.VolSpan == 0 {
		return labels.ConstantWidth(len(closes), cfg.Width), nil
	}
	width, err := labels.DailyVolatility(endTimes, closes, cfg.VolLookbackMs, cfg.VolSpan)
	if err != nil {
		return nil, fmt.Errorf("daily volatility: %w", err)
	}
	return width, nil
}

// seeds marks the rows to label: CUSUM events on log returns when a threshold
// is set, otherwise every row. Rows without a barrier width are never seeds.
func seeds(closes []float64, width []*float64, cfg config.LabelsConfig) []bool {
	var valid []bool
	if cfg.CUSUMThreshold > 0 {
		valid = features.Events(features.SymmetricCUSUM(features.LogReturns(closes), cfg.CUSUMThreshold))
	} else {
		valid = make([]bool, len(closes))
		for i := range valid {
			valid[i] = true
		}
	}
	for i, w := range width {
		if w == nil {
			valid[i] = false
		}
	}
	return valid
}

// horizon selects a time offset horizon when HorizonMs is set, else a fixed bar count.
// A time horizon ends at the first bar whose end time reaches end_time + HorizonMs.
func horizon(endTimes []int64, cfg config.LabelsConfig) labels.Horizon {
	if cfg.HorizonMs <= 0 {
		return labels.FixedHorizon(cfg.HorizonBars)
	}

	index := lookup.NewIndex(endTimes)
	ends := make([]*int64, len(endTimes))
	for i, vb := range labels.VerticalBarrierByOffset(endTimes, cfg.HorizonMs) {
		if vb == nil {
			continue
		}
		if pos, ok := index.Position(*vb); ok {
			end := int64(pos)
			ends[i] = &end
		}
	}
	return labels.IndexHorizon(ends)
}

// rate converts a zero barrier multiplier into a disabled side.
func rate(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
