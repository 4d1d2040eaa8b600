package bars

import (
	"sort"

	"tick-feature-lab/internal/domain"
)

// SortTransactions orders transactions by (timestamp ASC, seq ASC).
// Ties keep their input order.
func SortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return compareTransactions(&txs[i], &txs[j]) < 0
	})
}

// IsOrdered reports whether transactions are already in (timestamp, seq) order.
func IsOrdered(txs []domain.Transaction) bool {
	for i := 1; i < len(txs); i++ {
		if compareTransactions(&txs[i-1], &txs[i]) > 0 {
			return false
		}
	}
	return true
}

// compareTransactions returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareTransactions(a, b *domain.Transaction) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if a.Seq != b.Seq {
		if a.Seq < b.Seq {
			return -1
		}
		return 1
	}
	return 0
}
