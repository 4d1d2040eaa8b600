package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// SummaryStore is an in-memory implementation of storage.SummaryStore.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LabelSummary // keyed by (run_id, symbol, kind)
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		data: make(map[string]*domain.LabelSummary),
	}
}

func summaryKey(runID, symbol string, kind domain.BarKind) string {
	return fmt.Sprintf("%s|%s|%s", runID, symbol, kind)
}

// Insert adds a summary. Returns ErrDuplicateKey if key exists.
func (s *SummaryStore) Insert(_ context.Context, sum *domain.LabelSummary) error {
	if sum == nil || sum.RunID == "" || sum.Symbol == "" || sum.Kind == "" {
		return storage.ErrInvalidInput
	}

	key := summaryKey(sum.RunID, sum.Symbol, sum.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	sumCopy := *sum
	s.data[key] = &sumCopy
	return nil
}

// GetByRun retrieves all summaries of a run, ordered by (symbol, kind).
func (s *SummaryStore) GetByRun(_ context.Context, runID string) ([]*domain.LabelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LabelSummary
	for _, sum := range s.data {
		if sum.RunID == runID {
			sumCopy := *sum
			result = append(result, &sumCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Symbol != result[j].Symbol {
			return result[i].Symbol < result[j].Symbol
		}
		return result[i].Kind < result[j].Kind
	})
	return result, nil
}

// GetLatest retrieves the most recent summary for a symbol and kind.
func (s *SummaryStore) GetLatest(_ context.Context, symbol string, kind domain.BarKind) (*domain.LabelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.LabelSummary
	for _, sum := range s.data {
		if sum.Symbol != symbol || sum.Kind != kind {
			continue
		}
		if latest == nil || sum.CreatedAt > latest.CreatedAt ||
			(sum.CreatedAt == latest.CreatedAt && sum.RunID > latest.RunID) {
			latest = sum
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	sumCopy := *latest
	return &sumCopy, nil
}

var _ storage.SummaryStore = (*SummaryStore)(nil)
