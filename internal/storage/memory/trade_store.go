package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tick-feature-lab/internal/bars"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]domain.Transaction // keyed by (symbol, timestamp, seq)
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]domain.Transaction),
	}
}

func tradeKey(symbol string, timestamp, seq int64) string {
	return fmt.Sprintf("%s|%d|%d", symbol, timestamp, seq)
}

// InsertBulk adds multiple trades. Fails entire batch on duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []domain.Transaction) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))

	// First pass: check for duplicates (existing + intra-batch)
	for _, t := range trades {
		if t.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := tradeKey(t.Symbol, t.Timestamp, t.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range trades {
		s.data[tradeKey(t.Symbol, t.Timestamp, t.Seq)] = t
	}
	return nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by (timestamp, seq) ASC.
func (s *TradeStore) GetBySymbol(_ context.Context, symbol string) ([]domain.Transaction, error) {
	return s.filter(func(t domain.Transaction) bool {
		return t.Symbol == symbol
	}), nil
}

// GetByTimeRange retrieves trades for a symbol within [start, end] (inclusive).
func (s *TradeStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]domain.Transaction, error) {
	return s.filter(func(t domain.Transaction) bool {
		return t.Symbol == symbol && t.Timestamp >= start && t.Timestamp <= end
	}), nil
}

// ListSymbols returns every symbol with at least one trade, sorted.
func (s *TradeStore) ListSymbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.data {
		seen[t.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *TradeStore) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Transaction
	for _, t := range s.data {
		if keep(t) {
			result = append(result, t)
		}
	}
	bars.SortTransactions(result)
	return result
}

var _ storage.TradeStore = (*TradeStore)(nil)
