package domain

// Bar represents an OHLCV summary of a contiguous run of transactions.
// Corresponds to bars table in ClickHouse.
type Bar struct {
	BarID            string  // deterministic id, see idhash.ComputeBarID
	Symbol           string  // instrument symbol
	Kind             BarKind // sampling method
	Seq              int64   // position within the (symbol, kind) series, from 0
	StartTime        int64   // first contribution timestamp (ms)
	EndTime          int64   // last contribution timestamp (ms)
	Open             float64 // first price
	High             float64 // max price
	Low              float64 // min price
	Close            float64 // last price
	VWAP             float64 // sum(price*size) / sum(size)
	Volume           uint32  // sum of contributed sizes
	TransactionCount uint32  // number of contributions (split trades count once per bar)
}

// DollarVolume approximates the bar notional as vwap * volume.
func (b *Bar) DollarVolume() float64 {
	return b.VWAP * float64(b.Volume)
}
