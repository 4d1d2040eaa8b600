package features

import "errors"

// ErrInvalidParameter is returned for a fractional order or threshold that
// cannot produce a finite weight series.
var ErrInvalidParameter = errors.New("invalid feature parameter")
