package metrics

import (
	"context"
	"errors"
	"fmt"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// ErrNoLabels is returned when no labels are available for aggregation.
var ErrNoLabels = errors.New("no labels available for aggregation")

// Aggregator computes label summaries from stored labels.
type Aggregator struct {
	labelStore   storage.LabelStore
	summaryStore storage.SummaryStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(labelStore storage.LabelStore, summaryStore storage.SummaryStore) *Aggregator {
	return &Aggregator{
		labelStore:   labelStore,
		summaryStore: summaryStore,
	}
}

// ComputeSummary loads the labels of a series and summarizes them.
// Returns ErrNoLabels if the series has no labels.
func (a *Aggregator) ComputeSummary(ctx context.Context, symbol string, kind domain.BarKind) (*domain.LabelSummary, error) {
	labels, err := a.labelStore.GetBySymbol(ctx, symbol, kind)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return Summarize(symbol, kind, labels), nil
}

// ComputeAndStore computes and persists the summary for a run.
// Returns storage.ErrDuplicateKey if the run already has a summary for the series.
func (a *Aggregator) ComputeAndStore(ctx context.Context, runID string, createdAt int64, symbol string, kind domain.BarKind) (*domain.LabelSummary, error) {
	sum, err := a.ComputeSummary(ctx, symbol, kind)
	if err != nil {
		return nil, err
	}
	sum.RunID = runID
	sum.CreatedAt = createdAt

	if err := a.summaryStore.Insert(ctx, sum); err != nil {
		return nil, err
	}
	return sum, nil
}
