package cluster

import "errors"

var (
	// ErrInvalidInput is returned for empty data, non-positive parameters or
	// rows of inconsistent dimension. No partial result accompanies it.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateSplit marks a split that left one side empty. It is
	// advisory: callers record it and carry on with the unbalanced labels.
	ErrDegenerateSplit = errors.New("degenerate split")
)
