// Package service orchestrates a fusion: it reads the input runs, feeds them
// to an RBC engine and writes the fused ranking.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/rbcfuse/internal/adapters/trec"
	"github.com/okian/rbcfuse/internal/domain/model"
	"github.com/okian/rbcfuse/internal/domain/rbc"
	"github.com/okian/rbcfuse/internal/domain/weight"
	"github.com/okian/rbcfuse/pkg/logger"
	"github.com/okian/rbcfuse/pkg/metrics"
)

const (
	// MinRuns is the fewest runs a fusion accepts.
	MinRuns = 2
	// DefaultMaxRuns is the default cap on input runs.
	DefaultMaxRuns = 32
)

var (
	// ErrNotEnoughRuns is returned for fewer than MinRuns inputs.
	ErrNotEnoughRuns = errors.New("at least two runs are required")
	// ErrTooManyRuns is returned for more inputs than the configured maximum.
	ErrTooManyRuns = errors.New("too many runs")
)

// Service fuses TREC runs with Rank-Biased Centroids.
type Service struct {
	persistence float64
	depth       int
	runID       string
	workers     int
	maxRuns     int
	metricsFile string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPersistence sets φ. It is validated when a fusion starts.
func WithPersistence(phi float64) Option {
	return func(s *Service) {
		s.persistence = phi
	}
}

// WithDepth sets the number of documents output per topic.
func WithDepth(depth int) Option {
	return func(s *Service) {
		s.depth = depth
	}
}

// WithRunID sets the run identifier written on every output line.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithWorkers bounds parsing and extraction concurrency.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxRuns sets the maximum number of runs accepted.
func WithMaxRuns(n int) Option {
	return func(s *Service) {
		if n >= MinRuns {
			s.maxRuns = n
		}
	}
}

// WithMetricsFile enables a Prometheus textfile dump after each fusion.
func WithMetricsFile(path string) Option {
	return func(s *Service) {
		s.metricsFile = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Summary describes a completed fusion.
type Summary struct {
	InvocationID string
	Runs         int
	Entries      int
	Topics       int
	Documents    int
	Coverage     int
	Skipped      int
	Lines        int
	Duration     time.Duration
}

// New constructs a Service with the rbc-combine defaults.
func New(opts ...Option) *Service {
	s := &Service{
		persistence: 0.8,
		depth:       1000,
		runID:       "rbc-combine",
		workers:     runtime.NumCPU(),
		maxRuns:     DefaultMaxRuns,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Run reads the run files at paths and writes their fusion to out.
// Files are parsed concurrently; fusion itself follows the order of paths.
func (s *Service) Run(ctx context.Context, paths []string, out io.Writer) (Summary, error) {
	id := uuid.NewString()
	log := s.logger.With(logger.String("invocation_id", id))
	if err := s.checkCount(len(paths)); err != nil {
		return Summary{}, err
	}
	if err := s.checkSettings(); err != nil {
		return Summary{}, err
	}

	start := time.Now()
	runs, err := s.readRuns(ctx, paths)
	if err != nil {
		metrics.RecordErrorByComponent("service", "read_run")
		return Summary{}, err
	}
	log.Debug(ctx, "runs parsed",
		logger.Int("runs", len(runs)),
		logger.Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000),
	)
	return s.fuse(ctx, id, log, runs, out)
}

// Fuse writes the fusion of already parsed runs to out. The first run
// defines the topics that are output.
func (s *Service) Fuse(ctx context.Context, runs []*model.Run, out io.Writer) (Summary, error) {
	id := uuid.NewString()
	if err := s.checkCount(len(runs)); err != nil {
		return Summary{}, err
	}
	for i, run := range runs {
		if run == nil {
			return Summary{}, fmt.Errorf("run %d: %w", i, rbc.ErrNilRun)
		}
	}
	if err := s.checkSettings(); err != nil {
		return Summary{}, err
	}
	return s.fuse(ctx, id, s.logger.With(logger.String("invocation_id", id)), runs, out)
}

func (s *Service) checkCount(n int) error {
	if n < MinRuns {
		return fmt.Errorf("%w: got %d", ErrNotEnoughRuns, n)
	}
	if n > s.maxRuns {
		return fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyRuns, n, s.maxRuns)
	}
	return nil
}

// checkSettings rejects persistence and depth before any run is touched.
func (s *Service) checkSettings() error {
	if err := weight.Validate(s.persistence); err != nil {
		metrics.RecordErrorByComponent("service", "invalid_persistence")
		return err
	}
	if s.depth < 1 {
		metrics.RecordErrorByComponent("service", "invalid_depth")
		return fmt.Errorf("%w: got %d", rbc.ErrInvalidDepth, s.depth)
	}
	return nil
}

func (s *Service) readRuns(ctx context.Context, paths []string) ([]*model.Run, error) {
	runs := make([]*model.Run, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			run, err := trec.ReadFile(gctx, path)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Service) fuse(ctx context.Context, id string, log logger.Logger, runs []*model.Run, out io.Writer) (Summary, error) {
	sum := Summary{InvocationID: id, Runs: len(runs)}
	start := time.Now()

	engine, err := rbc.New(s.persistence, rbc.WithLogger(log.Named("engine")))
	if err != nil {
		metrics.RecordErrorByComponent("service", "invalid_persistence")
		return sum, err
	}
	if s.persistence == 1 {
		log.Warn(ctx, "persistence is 1: every weight is zero")
	}

	// One coverage for all runs, so no entry of any run is out of reach.
	engine.Cover(model.MaxRank(runs))
	sum.Coverage = engine.Coverage()

	if err := engine.Init(runs[0].Topics); err != nil {
		return sum, err
	}
	sum.Topics = len(engine.Topics())
	if sum.Topics == 0 {
		log.Warn(ctx, "first run has no topics", logger.String("run", runs[0].Path))
	}

	for _, run := range runs {
		st, err := engine.Accumulate(ctx, run)
		if err != nil {
			return sum, err
		}
		sum.Entries += st.Entries
		sum.Skipped += st.OutOfCoverage + st.Unregistered
	}
	sum.Documents = engine.Documents()

	rankings, err := engine.Rankings(ctx, s.depth, s.workers)
	if err != nil {
		return sum, err
	}
	sum.Lines, err = trec.WriteAll(out, s.runID, rankings)
	if err != nil {
		metrics.RecordErrorByComponent("service", "write")
		return sum, err
	}
	sum.Duration = time.Since(start)

	if s.metricsFile != "" {
		if err := metrics.WriteTextfile(s.metricsFile); err != nil {
			return sum, err
		}
	}

	log.Info(ctx, "fusion complete",
		logger.Int("runs", sum.Runs),
		logger.Int("entries", sum.Entries),
		logger.Int("topics", sum.Topics),
		logger.Int("documents", sum.Documents),
		logger.Int("coverage", sum.Coverage),
		logger.Int("skipped", sum.Skipped),
		logger.Int("lines", sum.Lines),
		logger.Float64("persistence", s.persistence),
		logger.Float64("elapsed_ms", float64(sum.Duration.Microseconds())/1000),
	)
	return sum, nil
}
