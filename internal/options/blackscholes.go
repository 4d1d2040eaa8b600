// Package options prices European options.
package options

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrUnknownOptionType is returned for an option type other than call or put.
var ErrUnknownOptionType = errors.New("unknown option type")

// Type is the option right.
type Type string

// Option types
const (
	Call Type = "call"
	Put  Type = "put"
)

// ParseType converts "call" or "put" into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case Call, Put:
		return t, nil
	default:
		return "", fmt.Errorf("option type %q: %w", s, ErrUnknownOptionType)
	}
}

// BlackScholes prices a European option.
//
// s is the spot, k the strike, r the continuously compounded annual rate,
// sigma the annual volatility and t the time to expiry in years.
// At or past expiry the intrinsic value is returned. Without volatility the
// price is the discounted intrinsic value of the forward.
func BlackScholes(s, k, r, sigma, t float64, typ Type) (float64, error) {
	if typ != Call && typ != Put {
		return 0, fmt.Errorf("option type %q: %w", typ, ErrUnknownOptionType)
	}

	if t <= 0 {
		if typ == Call {
			return math.Max(s-k, 0), nil
		}
		return math.Max(k-s, 0), nil
	}

	discount := math.Exp(-r * t)
	if sigma <= 0 {
		fwd := s / discount
		if typ == Call {
			return math.Max(fwd-k, 0) * discount, nil
		}
		return math.Max(k-fwd, 0) * discount, nil
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	n := distuv.UnitNormal
	if typ == Call {
		return s*n.CDF(d1) - k*discount*n.CDF(d2), nil
	}
	return k*discount*n.CDF(-d2) - s*n.CDF(-d1), nil
}
