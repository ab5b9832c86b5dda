// Package weight implements the geometric rank weights of Rank-Biased
// Centroids: the document at rank r of a run is worth (1-phi)*phi^(r-1).
package weight

import (
	"fmt"
)

// Model is a lazily grown RBC weight vector.
//
// Extending it only computes the missing suffix. next carries the weight of
// the first uncovered rank so the series stays continuous across calls.
type Model struct {
	phi     float64
	weights []float64
	next    float64
}

// New returns an empty model for persistence phi.
//
// phi == 1 is accepted: every weight is zero and fusion degenerates to an
// ordering by document identifier.
func New(phi float64) (*Model, error) {
	if err := Validate(phi); err != nil {
		return nil, err
	}
	return &Model{phi: phi, next: 1 - phi}, nil
}

// Validate reports whether phi is a usable persistence.
func Validate(phi float64) error {
	// NaN fails both comparisons.
	if !(phi > 0 && phi <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidPersistence, phi)
	}
	return nil
}

// Extend grows coverage to at least n ranks. It never shrinks.
func (m *Model) Extend(n int) {
	prev := len(m.weights)
	if n <= prev {
		return
	}
	if cap(m.weights) < n {
		grown := make([]float64, prev, n)
		copy(grown, m.weights)
		m.weights = grown
	}
	for i := prev; i < n; i++ {
		m.weights = append(m.weights, m.next)
		m.next *= m.phi
	}
}

// At returns the weight of the 1-based rank.
func (m *Model) At(rank int) (float64, error) {
	if rank < 1 || rank > len(m.weights) {
		return 0, ErrOutOfCoverage
	}
	return m.weights[rank-1], nil
}

// Len is the coverage depth.
func (m *Model) Len() int { return len(m.weights) }

// Phi returns the persistence.
func (m *Model) Phi() float64 { return m.phi }

// Weights returns a copy of the vector.
func (m *Model) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}
