package plugin

import "errors"

// Error kinds reported by plugin functions. Each one fails the whole call.
var (
	// ErrUnsupportedType is returned when an input column has an element type the
	// function has no implementation for.
	ErrUnsupportedType = errors.New("unsupported column type")

	// ErrInvalidOperation is returned for disallowed nulls, misaligned columns or
	// invalid kwargs.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrLookup is returned when a horizon key is absent from the ordering index.
	ErrLookup = errors.New("lookup failure")

	// ErrUnknownFunction is returned by Registry.Call for an unregistered name.
	ErrUnknownFunction = errors.New("unknown function")
)
