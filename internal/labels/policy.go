package labels

import (
	"fmt"
	"math"

	"tick-feature-lab/internal/domain"
)

// TieBreak decides which barrier wins when both are first touched at the same index.
type TieBreak int

// Tie-break policies
const (
	StopLossFirst   TieBreak = iota // stop-loss wins ties
	ProfitTakeFirst                 // profit-take wins ties
)

// ParseTieBreak converts "stop_loss" or "profit_take" into a TieBreak.
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "stop_loss":
		return StopLossFirst, nil
	case "profit_take":
		return ProfitTakeFirst, nil
	default:
		return 0, fmt.Errorf("tie break %q: %w", s, ErrInvalidPolicy)
	}
}

func (t TieBreak) String() string {
	if t == ProfitTakeFirst {
		return "profit_take"
	}
	return "stop_loss"
}

// Policy configures how a price path is classified.
type Policy struct {
	// MinReturn is the deadband: touches and vertical signs only count when the
	// return magnitude reaches it.
	MinReturn float64

	// UseVerticalBarrierSign labels vertical expiries by the sign of the final
	// return instead of a neutral 0.
	UseVerticalBarrierSign bool

	TieBreak TieBreak
}

func (p Policy) validate() error {
	if p.MinReturn < 0 || math.IsNaN(p.MinReturn) {
		return fmt.Errorf("min return %v: %w", p.MinReturn, ErrInvalidPolicy)
	}
	if p.TieBreak != StopLossFirst && p.TieBreak != ProfitTakeFirst {
		return fmt.Errorf("tie break %d: %w", p.TieBreak, ErrInvalidPolicy)
	}
	return nil
}

// Outcome is the classification of one path.
type Outcome struct {
	Event  *int8   // -1 | 0 | 1, nil when unresolved
	Return float64 // return at the touch, or final return on expiry
	Index  int     // path position of the touch, or last position on expiry
}

// Classify scans returns for the first profit-take and stop-loss touches.
// The earlier touch wins; equal indices are resolved by policy.TieBreak.
// Without a touch the path expires at its last position.
func Classify(returns []float64, barrier HorizontalBarrier, policy Policy) Outcome {
	if len(returns) == 0 {
		return Outcome{}
	}

	pt := -1
	if barrier.Upper != nil {
		for j, r := range returns {
			if r >= *barrier.Upper && r >= policy.MinReturn {
				pt = j
				break
			}
		}
	}

	sl := -1
	if barrier.Lower != nil {
		for j, r := range returns {
			if r <= *barrier.Lower && r <= -policy.MinReturn {
				sl = j
				break
			}
		}
	}

	switch {
	case pt >= 0 && (sl < 0 || pt < sl || (pt == sl && policy.TieBreak == ProfitTakeFirst)):
		return touched(returns, pt, domain.EventProfitTake)
	case sl >= 0:
		return touched(returns, sl, domain.EventStopLoss)
	}

	last := len(returns) - 1
	final := returns[last]
	outcome := Outcome{Return: final, Index: last}

	if !policy.UseVerticalBarrierSign {
		outcome.Event = event(domain.EventNeutral)
		return outcome
	}
	if math.Abs(final) > policy.MinReturn {
		if final > 0 {
			outcome.Event = event(domain.EventProfitTake)
		} else {
			outcome.Event = event(domain.EventStopLoss)
		}
	}
	return outcome
}

func touched(returns []float64, idx int, e int8) Outcome {
	return Outcome{Event: event(e), Return: returns[idx], Index: idx}
}

func event(e int8) *int8 {
	return &e
}
