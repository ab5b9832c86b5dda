// Package topk extracts the best scored documents of an accumulator.
//
// Ordering: score DESC, then document identifier ASC (byte-wise). The
// identifier tie-break makes the output independent of hash-table layout.
package topk

import (
	"container/heap"
	"fmt"

	"github.com/okian/rbcfuse/internal/domain/model"
)

// Source is a read-only view of accumulated scores.
type Source interface {
	Range(fn func(docID string, score float64) bool)
	Len() int
}

type scored struct {
	docID string
	score float64
}

// before returns true if a should be ranked ahead of b.
func before(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.docID < b.docID
}

// maxHeap keeps the best document at index 0.
type maxHeap []scored

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return before(h[i], h[j]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *maxHeap) Push(x interface{}) {
	*h = append(*h, x.(scored))
}

func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Select returns at most min(depth, coverage, src.Len()) documents of src in
// rank order, with output ranks starting at 1. Topic is left zero for the
// caller to fill.
//
// coverage is the deepest rank that carries weight; depth beyond it is
// clamped.
func Select(src Source, depth, coverage int) ([]model.Result, error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	if depth > coverage {
		depth = coverage
	}
	if depth <= 0 || src.Len() == 0 {
		return []model.Result{}, nil
	}

	h := make(maxHeap, 0, src.Len())
	src.Range(func(docID string, score float64) bool {
		h = append(h, scored{docID: docID, score: score})
		return true
	})
	heap.Init(&h)

	n := min(depth, h.Len())
	out := make([]model.Result, 0, n)
	for len(out) < n {
		s := heap.Pop(&h).(scored)
		out = append(out, model.Result{DocID: s.docID, Rank: len(out) + 1, Score: s.score})
	}
	return out, nil
}
