package verification

import (
	"context"
	"errors"
	"fmt"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/pipeline"
	"tick-feature-lab/internal/storage"
)

// ErrNoTrades is returned when a symbol has no stored trades to replay.
var ErrNoTrades = errors.New("no trades to replay")

// ReplayVerifier implements Verifier by re-running featurization.
type ReplayVerifier struct {
	tradeStore storage.TradeStore
	barStore   storage.BarStore
	labelStore storage.LabelStore
	cfg        *config.Config
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	TradeStore storage.TradeStore
	BarStore   storage.BarStore
	LabelStore storage.LabelStore
	Config     *config.Config // must match the config the series were built with
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &ReplayVerifier{
		tradeStore: opts.TradeStore,
		barStore:   opts.BarStore,
		labelStore: opts.LabelStore,
		cfg:        cfg,
	}
}

// VerifySymbol rebuilds the symbol's series for the configured bar kind.
func (v *ReplayVerifier) VerifySymbol(ctx context.Context, symbol string) (*SeriesResult, error) {
	kind, err := domain.ParseBarKind(v.cfg.Bars.Kind)
	if err != nil {
		return nil, err
	}

	// 1. Load stored series
	storedBars, err := v.barStore.GetBySymbol(ctx, symbol, kind)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	storedLabels, err := v.labelStore.GetBySymbol(ctx, symbol, kind)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	// 2. Replay from trades
	txs, err := v.tradeStore.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	if len(txs) == 0 {
		return nil, ErrNoTrades
	}
	out, err := pipeline.Featurize(ctx, symbol, txs, v.cfg)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	// 3. Compare
	divergences := append(CompareBars(storedBars, out.Bars), CompareLabels(storedLabels, out.Labels)...)

	return &SeriesResult{
		Symbol:         symbol,
		Kind:           kind,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		StoredBars:     len(storedBars),
		ReplayedBars:   len(out.Bars),
		StoredLabels:   len(storedLabels),
		ReplayedLabels: len(out.Labels),
	}, nil
}

// VerifyAll verifies every symbol with stored trades.
// Per-symbol errors are recorded as divergences.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*Report, error) {
	symbols, err := v.tradeStore.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalSeries: len(symbols),
		Results:     make([]SeriesResult, 0, len(symbols)),
	}

	for _, symbol := range symbols {
		result, err := v.VerifySymbol(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Results = append(report.Results, SeriesResult{
				Symbol: symbol,
				Kind:   domain.BarKind(v.cfg.Bars.Kind),
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentSeries++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedSeries++
		} else {
			report.DivergentSeries++
		}
	}

	return report, nil
}
