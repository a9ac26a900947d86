package types

import "errors"

var (
	// ErrIncompatibleInput reports an identification without RT and/or
	// m/z information. Grouping across runs requires coordinates for
	// every participant, so the whole invocation aborts with no partial
	// output.
	ErrIncompatibleInput = errors.New("incompatible input data")

	// ErrInvalidConfiguration reports negative tolerances, an unknown
	// algorithm choice, or a probabilistic scorer selected for input
	// whose scores are not posterior error probabilities.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
