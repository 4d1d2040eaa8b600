package bars

import "errors"

// Errors returned by bar construction.
var (
	// ErrUnsupportedType is returned when a threshold kind has no aggregation.
	ErrUnsupportedType = errors.New("unsupported threshold type")

	// ErrInvalidThreshold is returned for zero, negative or non-finite thresholds.
	ErrInvalidThreshold = errors.New("threshold must be positive and finite")

	// ErrLengthMismatch is returned when per-row thresholds do not align with the input.
	ErrLengthMismatch = errors.New("threshold length does not match input length")

	// ErrInvalidValue is returned when a grouped value is NaN.
	ErrInvalidValue = errors.New("value must not be NaN")
)
