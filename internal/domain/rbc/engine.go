// Package rbc combines runs with Rank-Biased Centroids.
//
// An Engine owns the weight vector, the topic registry and one accumulator
// per registered topic. Typical use:
//
//	e, _ := rbc.New(0.8)
//	e.Cover(model.MaxRank(runs))
//	_ = e.Init(runs[0].Topics)
//	for _, r := range runs {
//		_, _ = e.Accumulate(ctx, r)
//	}
//	rankings, _ := e.Rankings(ctx, 1000, 0)
//
// Accumulation is single-threaded. Once accumulation is over the
// accumulators are read-only and Rankings may extract topics concurrently.
package rbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rbcfuse/internal/domain/accum"
	"github.com/okian/rbcfuse/internal/domain/model"
	"github.com/okian/rbcfuse/internal/domain/topk"
	"github.com/okian/rbcfuse/internal/domain/weight"
	"github.com/okian/rbcfuse/pkg/logger"
	"github.com/okian/rbcfuse/pkg/metrics"
)

// ctxCheckInterval is how many entries Accumulate applies between context checks.
const ctxCheckInterval = 4096

// Engine accumulates RBC scores per topic.
type Engine struct {
	weights *weight.Model

	// registry; fixed once Init returns
	topics []int
	tables map[int]*accum.Table

	tableCapacity int
	logger        logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTableCapacity sets the initial slot count of every accumulator.
func WithTableCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.tableCapacity = n
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Stats summarizes the accumulation of one run.
type Stats struct {
	Entries       int // entries seen
	Accumulated   int // entries that contributed weight
	OutOfCoverage int // skipped: rank deeper than the weight vector
	Unregistered  int // skipped: topic not in the registry
	NewDocuments  int // accumulators created
}

// New creates an engine for persistence phi with an empty weight vector.
func New(phi float64, opts ...Option) (*Engine, error) {
	w, err := weight.New(phi)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		weights: w,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Cover extends the weight vector to at least depth ranks.
func (e *Engine) Cover(depth int) {
	e.weights.Extend(depth)
	metrics.UpdateWeightCoverage(e.weights.Len())
}

// Coverage is the deepest rank that carries weight.
func (e *Engine) Coverage() int { return e.weights.Len() }

// Phi returns the persistence.
func (e *Engine) Phi() float64 { return e.weights.Phi() }

// Init builds the registry from topics, dropping duplicates but keeping
// first-seen order, and allocates an empty accumulator per topic.
func (e *Engine) Init(topics []int) error {
	if e.tables != nil {
		return ErrRegistryInitialized
	}

	e.tables = make(map[int]*accum.Table, len(topics))
	e.topics = make([]int, 0, len(topics))
	for _, t := range topics {
		if _, dup := e.tables[t]; dup {
			continue
		}
		var opts []accum.Option
		if e.tableCapacity > 0 {
			opts = append(opts, accum.WithCapacity(e.tableCapacity))
		}
		e.tables[t] = accum.New(opts...)
		e.topics = append(e.topics, t)
	}
	metrics.UpdateTopicCount(len(e.topics))
	return nil
}

// Initialized reports whether Init has been called.
func (e *Engine) Initialized() bool { return e.tables != nil }

// Topics returns the registry in order.
func (e *Engine) Topics() []int {
	out := make([]int, len(e.topics))
	copy(out, e.topics)
	return out
}

// Table returns the accumulator of topic.
func (e *Engine) Table(topic int) (*accum.Table, bool) {
	t, ok := e.tables[topic]
	return t, ok
}

// Documents is the number of (topic, document) accumulators.
func (e *Engine) Documents() int {
	n := 0
	for _, t := range e.tables {
		n += t.Len()
	}
	return n
}

// Add credits docID in topic with the weight of rank.
//
// ErrOutOfCoverage and ErrUnregisteredTopic mean the contribution was
// skipped; the engine is unchanged and accumulation may continue.
func (e *Engine) Add(topic int, docID string, rank int) error {
	_, err := e.add(topic, docID, rank)
	return err
}

func (e *Engine) add(topic int, docID string, rank int) (bool, error) {
	if e.tables == nil {
		return false, ErrUninitializedRegistry
	}
	w, err := e.weights.At(rank)
	if err != nil {
		return false, err
	}
	table, ok := e.tables[topic]
	if !ok {
		return false, ErrUnregisteredTopic
	}
	return table.Add(docID, w), nil
}

// Accumulate credits every entry of run. Skipped entries are counted in
// the returned Stats; only a missing registry or ctx cancellation stop it.
func (e *Engine) Accumulate(ctx context.Context, run *model.Run) (Stats, error) {
	var st Stats
	if e.tables == nil {
		metrics.RecordErrorByComponent("engine", "uninitialized_registry")
		return st, ErrUninitializedRegistry
	}
	if run == nil {
		return st, ErrNilRun
	}

	start := time.Now()
	for i, entry := range run.Entries {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return st, fmt.Errorf("accumulate %s: %w", run.Path, err)
			}
		}
		st.Entries++

		created, err := e.add(entry.Topic, entry.DocID, entry.Rank)
		switch {
		case err == nil:
			st.Accumulated++
			if created {
				st.NewDocuments++
			}
		case errors.Is(err, ErrOutOfCoverage):
			st.OutOfCoverage++
		case errors.Is(err, ErrUnregisteredTopic):
			st.Unregistered++
		default:
			return st, err
		}
	}

	metrics.RecordRunIngested()
	metrics.RecordEntriesAccumulated(st.Accumulated)
	metrics.RecordEntriesSkipped(metrics.SkipOutOfCoverage, st.OutOfCoverage)
	metrics.RecordEntriesSkipped(metrics.SkipUnregisteredTopic, st.Unregistered)
	metrics.RecordIngestLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateDocumentCount(e.Documents())

	e.logger.Debug(ctx, "run accumulated",
		logger.String("run", run.Path),
		logger.Int("entries", st.Entries),
		logger.Int("accumulated", st.Accumulated),
		logger.Int("out_of_coverage", st.OutOfCoverage),
		logger.Int("unregistered", st.Unregistered),
	)
	return st, nil
}

// TopK returns the best depth documents of topic, with ranks from 1.
// depth is clamped to the weight coverage.
func (e *Engine) TopK(topic, depth int) ([]model.Result, error) {
	if e.tables == nil {
		return nil, ErrUninitializedRegistry
	}
	table, ok := e.tables[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnregisteredTopic, topic)
	}

	start := time.Now()
	res, err := topk.Select(table, depth, e.weights.Len())
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Topic = topic
	}
	metrics.RecordSelectLatency(float64(time.Since(start).Microseconds()) / 1000)
	return res, nil
}

// Rankings returns TopK of every registered topic, in registry order.
// Topics are extracted by up to workers goroutines; workers < 1 means no
// limit.
func (e *Engine) Rankings(ctx context.Context, depth, workers int) ([][]model.Result, error) {
	if e.tables == nil {
		return nil, ErrUninitializedRegistry
	}
	if depth < 1 {
		metrics.RecordErrorByComponent("engine", "invalid_depth")
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}

	out := make([][]model.Result, len(e.topics))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, topic := range e.topics {
		i, topic := i, topic
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.TopK(topic, depth)
			if err != nil {
				return fmt.Errorf("topic %d: %w", topic, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
