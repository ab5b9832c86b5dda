package topk

import "errors"

// Sentinel kinds for selection errors.
var (
	ErrInvalidDepth = errors.New("depth must be at least 1")
)
