package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]domain.Bar // keyed by (symbol, kind, seq)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]domain.Bar),
	}
}

func seriesKey(symbol string, kind domain.BarKind, seq int64) string {
	return fmt.Sprintf("%s|%s|%d", symbol, kind, seq)
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *BarStore) InsertBulk(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		if b.Symbol == "" || b.Kind == "" {
			return storage.ErrInvalidInput
		}
		key := seriesKey(b.Symbol, b.Kind, b.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, b := range bars {
		s.data[seriesKey(b.Symbol, b.Kind, b.Seq)] = b
	}
	return nil
}

// GetBySymbol retrieves a bar series ordered by seq ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string, kind domain.BarKind) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol && b.Kind == kind {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// DeleteBySymbol removes a bar series.
func (s *BarStore) DeleteBySymbol(_ context.Context, symbol string, kind domain.BarKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.data {
		if b.Symbol == symbol && b.Kind == kind {
			delete(s.data, key)
		}
	}
	return nil
}

var _ storage.BarStore = (*BarStore)(nil)
