package bars

import (
	"gonum.org/v1/gonum/floats"

	"tick-feature-lab/internal/domain"
)

// accumulator buffers the contributions of the bar currently being built.
// It is owned by a single aggregation loop and reset after every flush.
type accumulator struct {
	timestamps []int64
	prices     []float64
	sizes      []float64

	volume  uint32  // sum of sizes
	dollars float64 // sum of price * size
}

func newAccumulator() *accumulator {
	return &accumulator{}
}

// add appends a (possibly partial) transaction to the open bar.
func (a *accumulator) add(timestamp int64, price float64, size uint32) {
	a.timestamps = append(a.timestamps, timestamp)
	a.prices = append(a.prices, price)
	a.sizes = append(a.sizes, float64(size))
	a.volume += size
	a.dollars += price * float64(size)
}

func (a *accumulator) empty() bool {
	return len(a.prices) == 0
}

func (a *accumulator) reset() {
	a.timestamps = a.timestamps[:0]
	a.prices = a.prices[:0]
	a.sizes = a.sizes[:0]
	a.volume = 0
	a.dollars = 0
}

// flush reduces the buffered contributions into an OHLCV bar and resets the buffer.
// Must not be called on an empty accumulator.
func (a *accumulator) flush(kind domain.BarKind) domain.Bar {
	n := len(a.prices)
	bar := domain.Bar{
		Kind:             kind,
		StartTime:        a.timestamps[0],
		EndTime:          a.timestamps[n-1],
		Open:             a.prices[0],
		High:             floats.Max(a.prices),
		Low:              floats.Min(a.prices),
		Close:            a.prices[n-1],
		Volume:           a.volume,
		TransactionCount: uint32(n),
	}

	// Zero-size ticks can produce a bar without volume.
	if total := floats.Sum(a.sizes); total > 0 {
		bar.VWAP = floats.Dot(a.prices, a.sizes) / total
	} else {
		bar.VWAP = bar.Close
	}

	a.reset()
	return bar
}
