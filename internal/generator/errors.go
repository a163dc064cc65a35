package generator

import "errors"

var (
	// ErrEmpty is returned when a generator is built over zero units.
	ErrEmpty = errors.New("empty collection")

	// ErrMissingKeys is returned when a keyed generator gets units
	// without keys.
	ErrMissingKeys = errors.New("keys are missing")

	// ErrPolicy is returned for an iteration policy the generator does
	// not support.
	ErrPolicy = errors.New("unsupported iteration policy")
)
