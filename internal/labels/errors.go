package labels

import (
	"errors"

	"tick-feature-lab/internal/lookup"
)

// Errors returned by the labeler.
var (
	// ErrInvalidOperation is returned when prices or the ordering index hold
	// missing values. Nothing is labeled.
	ErrInvalidOperation = errors.New("invalid operation: missing values in prices or index")

	// ErrKeyNotFound is returned when an explicit horizon key is absent from the index.
	ErrKeyNotFound = lookup.ErrKeyNotFound

	// ErrLengthMismatch is returned when per-row inputs are not aligned with prices.
	ErrLengthMismatch = errors.New("input columns have different lengths")

	// ErrInvalidHorizon is returned for a missing or negative horizon.
	ErrInvalidHorizon = errors.New("invalid horizon")

	// ErrInvalidPolicy is returned for a negative minimum return or unknown tie-break.
	ErrInvalidPolicy = errors.New("invalid label policy")
)
