package storage

import "context"

// IngestProgress is the last trade persisted for a symbol.
type IngestProgress struct {
	Symbol    string
	Timestamp int64 // Unix timestamp in milliseconds
	Seq       int64
}

// ProgressStore persists ingestion positions.
// A restarted feed uses them to drop trades it already stored.
type ProgressStore interface {
	// GetLastIngested returns the progress for a symbol.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastIngested(ctx context.Context, symbol string) (*IngestProgress, error)

	// SetLastIngested saves the progress for a symbol, replacing any previous value.
	SetLastIngested(ctx context.Context, progress *IngestProgress) error
}

// After reports whether (timestamp, seq) is strictly past the saved position.
func (p *IngestProgress) After(timestamp, seq int64) bool {
	if timestamp != p.Timestamp {
		return timestamp > p.Timestamp
	}
	return seq > p.Seq
}
