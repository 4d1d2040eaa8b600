package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"tick-feature-lab/internal/domain"
)

// ComputeBarID computes a deterministic bar_id using SHA256.
// Formula: SHA256(symbol|kind|seq|start_time|end_time)
// Returns the base58-encoded hash.
func ComputeBarID(
	symbol string,
	kind domain.BarKind,
	seq int64,
	startTime int64,
	endTime int64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d",
		symbol,
		string(kind),
		seq,
		startTime,
		endTime,
	)
	return encode(data)
}

// ComputeLabelID computes a deterministic id for a label row.
// Formula: SHA256(symbol|kind|seq|run_id)
func ComputeLabelID(symbol string, kind domain.BarKind, seq int64, runID string) string {
	return encode(fmt.Sprintf("%s|%s|%d|%s", symbol, string(kind), seq, runID))
}

// AssignBarIDs fills BarID on every bar in place.
func AssignBarIDs(bars []domain.Bar) {
	for i := range bars {
		b := &bars[i]
		b.BarID = ComputeBarID(b.Symbol, b.Kind, b.Seq, b.StartTime, b.EndTime)
	}
}

func encode(data string) string {
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
