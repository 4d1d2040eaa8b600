package memory

import (
	"context"
	"sync"

	"tick-feature-lab/internal/storage"
)

// ProgressStore is an in-memory implementation of storage.ProgressStore.
type ProgressStore struct {
	mu       sync.RWMutex
	progress map[string]storage.IngestProgress
}

// NewProgressStore creates a new in-memory progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		progress: make(map[string]storage.IngestProgress),
	}
}

// GetLastIngested returns the progress for a symbol.
func (s *ProgressStore) GetLastIngested(_ context.Context, symbol string) (*storage.IngestProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[symbol]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

// SetLastIngested saves the progress for a symbol.
func (s *ProgressStore) SetLastIngested(_ context.Context, progress *storage.IngestProgress) error {
	if progress == nil || progress.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[progress.Symbol] = *progress
	return nil
}

var _ storage.ProgressStore = (*ProgressStore)(nil)
