package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

// FixtureStart is the first fixture trade time, 2024-01-01 00:00:00 UTC.
const FixtureStart int64 = 1704067200000

// GenerateFixtureTrades produces a deterministic random walk of n trades.
// About one trade in eight shares the previous timestamp, with seq breaking the tie.
func GenerateFixtureTrades(symbol string, n int, seed uint64) []domain.Transaction {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	trades := make([]domain.Transaction, 0, n)
	price := 100.0
	ts := FixtureStart
	var seq int64
	for i := 0; i < n; i++ {
		if i > 0 {
			if rng.IntN(8) == 0 {
				seq++
			} else {
				ts += 1 + rng.Int64N(2000)
				seq = 0
			}
		}
		price *= math.Exp(rng.NormFloat64() * 0.001)
		trades = append(trades, domain.Transaction{
			Symbol:    symbol,
			Timestamp: ts,
			Seq:       seq,
			Price:     math.Round(price*100) / 100,
			Size:      uint32(1 + rng.IntN(100)),
		})
	}
	return trades
}

// LoadFixtures seeds a trade store with n fixture trades per symbol.
func LoadFixtures(ctx context.Context, store storage.TradeStore, symbols []string, n int) error {
	for i, symbol := range symbols {
		trades := GenerateFixtureTrades(symbol, n, uint64(i+1))
		if err := store.InsertBulk(ctx, trades); err != nil {
			return fmt.Errorf("load fixtures for %s: %w", symbol, err)
		}
	}
	return nil
}
