package analytics

import "errors"

var (
	// ErrMalformedInput is returned when a transaction collection is not a
	// list of records. Dirty individual records never produce it.
	ErrMalformedInput = errors.New("malformed transaction collection")

	// ErrInvalidSignConvention is returned for an unknown amount sign convention.
	ErrInvalidSignConvention = errors.New("invalid amount sign convention")
)
