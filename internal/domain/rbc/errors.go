package rbc

import (
	"errors"

	"github.com/okian/rbcfuse/internal/domain/topk"
	"github.com/okian/rbcfuse/internal/domain/weight"
)

// Sentinel kinds for engine errors.
var (
	ErrUninitializedRegistry = errors.New("topic registry not initialized")
	ErrRegistryInitialized   = errors.New("topic registry already initialized")
	// ErrUnregisteredTopic marks an entry for a topic absent from the
	// registry. Such entries are skipped.
	ErrUnregisteredTopic = errors.New("topic not registered")
	ErrNilRun            = errors.New("nil run")

	ErrInvalidPersistence = weight.ErrInvalidPersistence
	ErrOutOfCoverage      = weight.ErrOutOfCoverage
	ErrInvalidDepth       = topk.ErrInvalidDepth
)
