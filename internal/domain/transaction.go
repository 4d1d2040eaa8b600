package domain

// Transaction represents a single executed trade.
// Corresponds to trades table in PostgreSQL.
type Transaction struct {
	Symbol    string  // instrument symbol
	Timestamp int64   // Unix timestamp in milliseconds
	Seq       int64   // arrival order among trades sharing a timestamp
	Price     float64 // execution price
	Size      uint32  // traded quantity
}

// Notional returns price * size.
func (t Transaction) Notional() float64 {
	return t.Price * float64(t.Size)
}
