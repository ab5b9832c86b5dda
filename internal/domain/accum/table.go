// Package accum implements the per-topic score accumulator: an
// open-addressing hash table from document identifier to summed weight.
//
// Collisions are resolved by linear probing. Entries are never deleted, so
// the table has no tombstones.
package accum

import (
	"github.com/cespare/xxhash/v2"

	"github.com/okian/rbcfuse/pkg/metrics"
)

const (
	defaultCapacity = 1031
	maxLoadFactor   = 0.75
	// growthFactor takes the load factor down to roughly 25% on rehash.
	growthFactor = 4
)

type slot struct {
	docID string
	score float64
	used  bool
}

// Table accumulates scores by document identifier.
// A Table is not safe for concurrent mutation.
type Table struct {
	slots    []slot
	size     int
	rehashes int
}

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithCapacity sizes the initial slot array. The hint is rounded up to a
// prime.
func WithCapacity(hint int) Option {
	return func(t *Table) {
		if hint > 0 {
			t.slots = make([]slot, nextPrime(hint))
		}
	}
}

// New creates an empty table.
func New(opts ...Option) *Table {
	t := &Table{}
	for _, opt := range opts {
		opt(t)
	}
	if t.slots == nil {
		t.slots = make([]slot, defaultCapacity)
	}
	return t
}

// Add adds w to the score of docID, inserting it with score w when absent.
// It reports whether a new slot was taken.
func (t *Table) Add(docID string, w float64) bool {
	if t.needRehash() {
		t.rehash()
	}
	return t.insert(docID, w)
}

// insert assumes a free slot exists.
func (t *Table) insert(docID string, w float64) bool {
	i := t.home(docID)
	for {
		s := &t.slots[i]
		if !s.used {
			s.docID = docID
			s.score = w
			s.used = true
			t.size++
			return true
		}
		if s.docID == docID {
			s.score += w
			return false
		}
		i++
		if i == len(t.slots) {
			i = 0
		}
	}
}

// Get returns the accumulated score of docID.
func (t *Table) Get(docID string) (float64, bool) {
	i := t.home(docID)
	for n := 0; n < len(t.slots); n++ {
		s := &t.slots[i]
		if !s.used {
			return 0, false
		}
		if s.docID == docID {
			return s.score, true
		}
		i++
		if i == len(t.slots) {
			i = 0
		}
	}
	return 0, false
}

// Range calls fn for every accumulated document in slot order until fn
// returns false. Slot order is arbitrary; callers needing a ranking must
// sort.
func (t *Table) Range(fn func(docID string, score float64) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.used && !fn(s.docID, s.score) {
			return
		}
	}
}

// Len is the number of distinct documents.
func (t *Table) Len() int { return t.size }

// Cap is the number of slots; always prime.
func (t *Table) Cap() int { return len(t.slots) }

// LoadFactor is Len/Cap.
func (t *Table) LoadFactor() float64 { return float64(t.size) / float64(len(t.slots)) }

// Rehashes is the number of times the table has grown.
func (t *Table) Rehashes() int { return t.rehashes }

func (t *Table) home(docID string) int {
	return int(xxhash.Sum64String(docID) % uint64(len(t.slots)))
}

func (t *Table) needRehash() bool {
	return t.LoadFactor() > maxLoadFactor
}

// rehash moves every entry into a table about four times the current
// population. Scores are moved as-is.
func (t *Table) rehash() {
	old := t.slots
	t.slots = make([]slot, nextPrime(growthFactor*t.size))
	t.size = 0
	for i := range old {
		if old[i].used {
			t.insert(old[i].docID, old[i].score)
		}
	}
	t.rehashes++
	metrics.RecordAccumulatorRehash()
}
