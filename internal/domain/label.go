package domain

// Label events
const (
	EventStopLoss   int8 = -1
	EventNeutral    int8 = 0
	EventProfitTake int8 = 1
)

// LabelPoint is a triple-barrier label attached to a bar.
// Corresponds to labels table in ClickHouse.
type LabelPoint struct {
	Symbol         string   // instrument symbol
	Kind           BarKind  // bar series the label was computed on
	Seq            int64    // seed bar seq
	Timestamp      int64    // seed bar end time (ms)
	Event          *int8    // -1 | 0 | 1, nil when unresolved or not a seed
	Return         float64  // path return at touch
	BarsToTouch    int64    // absolute bar index of the touch
	TouchTimestamp int64    // end time of the touch bar (ms), 0 if not a seed
	Width          *float64 // barrier width used for the seed
}
