// Package model contains domain models passed between layers.
package model

// Entry is one ranked line of a run: a document retrieved for a topic.
type Entry struct {
	Topic int     // topic (query) identifier
	DocID string  // document identifier, non-empty, no whitespace
	Rank  int     // 1-based position within the topic
	Score float64 // the run's own score; not used by RBC
}

// Run is one input ranked list covering some or all topics.
type Run struct {
	Name    string // run name column of the first line, if any
	Path    string // source file, for diagnostics
	Entries []Entry
	Topics  []int // topics in order of first appearance, unique
	MaxRank int   // deepest rank of any topic in the run

	depth map[int]int
}

// NewRun returns an empty run.
func NewRun(path string) *Run {
	return &Run{Path: path, depth: make(map[int]int)}
}

// Append adds the next document of topic. Ranks are assigned by arrival
// order within the topic, starting at 1.
func (r *Run) Append(topic int, docID string, score float64) Entry {
	if r.depth == nil {
		r.depth = make(map[int]int)
	}
	n, seen := r.depth[topic]
	if !seen {
		r.Topics = append(r.Topics, topic)
	}
	n++
	r.depth[topic] = n
	if n > r.MaxRank {
		r.MaxRank = n
	}

	e := Entry{Topic: topic, DocID: docID, Rank: n, Score: score}
	r.Entries = append(r.Entries, e)
	return e
}

// Len returns the number of entries in the run.
func (r *Run) Len() int { return len(r.Entries) }

// Result is one line of a fused ranking.
type Result struct {
	Topic int     `json:"topic"`
	DocID string  `json:"doc_id"`
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
}

// MaxRank returns the deepest rank across runs. It is the coverage every
// weight vector must reach for no entry of runs to be skipped. runs must not
// contain nil.
func MaxRank(runs []*Run) int {
	depth := 0
	for _, r := range runs {
		if r.MaxRank > depth {
			depth = r.MaxRank
		}
	}
	return depth
}
