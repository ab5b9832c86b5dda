package weight

import "errors"

// Sentinel kinds for weight model errors.
var (
	// ErrInvalidPersistence reports a persistence outside (0, 1].
	ErrInvalidPersistence = errors.New("persistence must be in (0, 1]")
	// ErrOutOfCoverage reports a rank the weight vector does not reach.
	// It marks a contribution to skip, not a failure.
	ErrOutOfCoverage = errors.New("rank out of weight coverage")
)
