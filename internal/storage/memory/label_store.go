package memory

import (
	"context"
	"sort"
	"sync"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// LabelStore is an in-memory implementation of storage.LabelStore.
type LabelStore struct {
	mu   sync.RWMutex
	data map[string]domain.LabelPoint // keyed by (symbol, kind, seq)
}

// NewLabelStore creates a new in-memory label store.
func NewLabelStore() *LabelStore {
	return &LabelStore{
		data: make(map[string]domain.LabelPoint),
	}
}

// InsertBulk adds multiple labels. Fails entire batch on duplicate.
func (s *LabelStore) InsertBulk(_ context.Context, labels []domain.LabelPoint) error {
	if len(labels) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l.Symbol == "" || l.Kind == "" {
			return storage.ErrInvalidInput
		}
		key := seriesKey(l.Symbol, l.Kind, l.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, l := range labels {
		s.data[seriesKey(l.Symbol, l.Kind, l.Seq)] = copyLabel(l)
	}
	return nil
}

// GetBySymbol retrieves labels for a bar series ordered by seq ASC.
func (s *LabelStore) GetBySymbol(_ context.Context, symbol string, kind domain.BarKind) ([]domain.LabelPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.LabelPoint
	for _, l := range s.data {
		if l.Symbol == symbol && l.Kind == kind {
			result = append(result, copyLabel(l))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// DeleteBySymbol removes labels for a bar series.
func (s *LabelStore) DeleteBySymbol(_ context.Context, symbol string, kind domain.BarKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, l := range s.data {
		if l.Symbol == symbol && l.Kind == kind {
			delete(s.data, key)
		}
	}
	return nil
}

// copyLabel detaches the nullable fields from the caller's memory.
func copyLabel(l domain.LabelPoint) domain.LabelPoint {
	if l.Event != nil {
		e := *l.Event
		l.Event = &e
	}
	if l.Width != nil {
		w := *l.Width
		l.Width = &w
	}
	return l
}

var _ storage.LabelStore = (*LabelStore)(nil)
