package domain

import "github.com/pkg/errors"

// Every failure of a run wraps one of these kinds.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrLookup        = errors.New("lookup error")
	ErrNumerical     = errors.New("numerical error")
)
