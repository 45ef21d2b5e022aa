package rbd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-rbd/pkg/estimate"
	"github.com/dd0wney/cluso-rbd/pkg/logging"
	"github.com/dd0wney/cluso-rbd/pkg/metrics"
	"github.com/dd0wney/cluso-rbd/pkg/parallel"
)

// Evaluation defaults
const (
	DefaultChunkSize  = 512
	DefaultConfidence = 1.96 // two-sided 95% normal quantile
)

// Options controls a Monte Carlo run.
type Options struct {
	// Trials is the number of simulated system lifetimes (>= 1).
	Trials int
	// Seed determines every draw of the run.
	Seed uint64
	// Grid is the strictly ascending time grid of the reliability curve.
	Grid []float64
	// Workers bounds parallelism; <= 0 means GOMAXPROCS.
	Workers int
	// ChunkSize is the number of trials sharing one generator stream;
	// <= 0 means DefaultChunkSize. Results depend on it, not on Workers.
	ChunkSize int
	// Tolerance is the largest acceptable relative half-width of the MTTF
	// confidence interval. Zero disables the convergence check.
	Tolerance float64
	// Confidence is the normal quantile used for half-widths; <= 0 means
	// DefaultConfidence.
	Confidence float64
	// KeepSamples retains every trial's failure time in Result.Samples.
	KeepSamples bool
	// Logger overrides the system logger for this run.
	Logger logging.Logger
	// Metrics overrides the system registry for this run.
	Metrics *metrics.Registry
}

// Result holds the estimates of one run.
type Result struct {
	RunID      string
	System     string
	Seed       uint64
	Requested  int
	Trials     int // completed trials
	MTTF       float64
	StdDev     float64
	HalfWidth  float64
	MinFailure float64
	MaxFailure float64
	Censored   int
	Unbounded  int // censored trials in which no block drew a finite lifetime
	Curve      []estimate.CurvePoint
	Samples    []float64 // trial order, only with KeepSamples
	Warnings   []error
	Cancelled  bool
	Elapsed    time.Duration
}

// Reliability returns the curve probabilities without their times.
func (r *Result) Reliability() []float64 {
	out := make([]float64, len(r.Curve))
	for i, p := range r.Curve {
		out[i] = p.Probability
	}
	return out
}

type chunkResult struct {
	acc       *estimate.Accumulator
	samples   []float64
	unbounded int
	err       error
}

// MonteCarlo estimates the MTTF and the reliability curve of the system.
//
// Trials are split into chunks of ChunkSize; chunk k draws from its own PCG
// stream (Seed, k) and chunk partials are merged in chunk order, so a run
// is reproducible for a given topology, seed, trial count and chunk size
// whatever the worker count.
//
// Cancelling ctx stops every chunk after its current trial. The partial
// result is returned together with the context error.
func (s *System) MonteCarlo(ctx context.Context, opts Options) (*Result, error) {
	if opts.Trials < 1 {
		return nil, NewError("MonteCarlo").Entity("options").Configuration().Context("trial count %d must be at least 1", opts.Trials).Err()
	}
	if err := estimate.ValidateGrid(opts.Grid); err != nil {
		return nil, NewError("MonteCarlo").Entity("grid").Numerical().Context("%v", err).Err()
	}
	if opts.Tolerance < 0 || math.IsNaN(opts.Tolerance) {
		return nil, NewError("MonteCarlo").Entity("options").Configuration().Context("tolerance %v must be non-negative", opts.Tolerance).Err()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Confidence <= 0 {
		opts.Confidence = DefaultConfidence
	}
	logger := opts.Logger
	if logger == nil {
		logger = s.logger
	}
	registry := opts.Metrics
	if registry == nil {
		registry = s.metrics
	}

	topo, err := s.freeze()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger = logger.With(logging.RunID(runID), logging.System(s.name))
	timer := logging.StartTimer(logger, "monte carlo run finished")
	logger.Info("monte carlo run started",
		logging.Trials(opts.Trials),
		logging.Seed(opts.Seed),
		logging.Workers(opts.Workers),
		logging.Int("blocks", topo.blockCount()),
		logging.Int("grid_points", len(opts.Grid)))

	partials, runErr := s.runChunks(ctx, topo, opts, logger)

	total := estimate.NewAccumulator(opts.Grid)
	var samples []float64
	unbounded := 0
	for _, p := range partials {
		if p.acc == nil {
			continue
		}
		total.Merge(p.acc)
		unbounded += p.unbounded
		if opts.KeepSamples {
			samples = append(samples, p.samples...)
		}
	}

	res := &Result{
		RunID:      runID,
		System:     s.name,
		Seed:       opts.Seed,
		Requested:  opts.Trials,
		Trials:     total.Count(),
		MTTF:       total.Mean(),
		StdDev:     total.StdDev(),
		HalfWidth:  total.HalfWidth(opts.Confidence),
		MinFailure: total.Min(),
		MaxFailure: total.Max(),
		Censored:   total.Censored(),
		Unbounded:  unbounded,
		Curve:      total.Curve(),
		Samples:    samples,
		Elapsed:    time.Since(timer.Start()),
	}

	status := "success"
	switch {
	case runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)):
		status = "cancelled"
		res.Cancelled = true
	case runErr != nil:
		status = "error"
	}
	if registry != nil {
		registry.RecordRun(s.name, status, res.Trials, res.Censored, res.MTTF, res.Elapsed)
	}

	if runErr != nil && !res.Cancelled {
		timer.EndError(runErr)
		return nil, runErr
	}

	if res.Censored > 0 {
		w := &CensoringWarning{Censored: res.Censored, Unbounded: res.Unbounded, Trials: res.Trials}
		res.Warnings = append(res.Warnings, w)
		logger.Warn("censored trials", logging.Error(w))
	}
	if opts.Tolerance > 0 && res.Trials > 0 {
		if rhw := total.RelativeHalfWidth(opts.Confidence); rhw > opts.Tolerance {
			w := &ConvergenceWarning{Trials: res.Trials, RelativeHalfWidth: rhw, Tolerance: opts.Tolerance}
			res.Warnings = append(res.Warnings, w)
			logger.Warn("estimate has not converged", logging.Error(w))
			if registry != nil {
				registry.RecordConvergenceWarning(s.name)
			}
		}
	}

	if res.Cancelled {
		timer.EndWithLevel(logging.WarnLevel, "monte carlo run cancelled")
		return res, runErr
	}
	timer.End(logging.Trials(res.Trials), logging.MTTF(res.MTTF))
	return res, nil
}

// runChunks executes every chunk on a worker pool. The first trial error
// cancels the remaining chunks and is returned; otherwise the context
// error, if any, is returned with the partials completed so far.
func (s *System) runChunks(ctx context.Context, topo *topology, opts Options, logger logging.Logger) ([]chunkResult, error) {
	chunks := (opts.Trials + opts.ChunkSize - 1) / opts.ChunkSize
	partials := make([]chunkResult, chunks)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := opts.Workers
	if workers > chunks {
		workers = chunks
	}
	pool, err := parallel.NewWorkerPool(workers)
	if err != nil {
		return nil, NewError("MonteCarlo").Entity("options").Configuration().Context("%v", err).Err()
	}
	pool.SetPanicHandler(func(r any) {
		fail(NewError("MonteCarlo").Entity("trial").Numerical().Context("lifetime source panicked: %v", r).Err())
	})

	for k := 0; k < chunks; k++ {
		first := k * opts.ChunkSize
		count := min(opts.ChunkSize, opts.Trials-first)
		pool.Submit(func() {
			p := topo.runChunk(runCtx, opts.Seed, k, first, count, opts.Grid, opts.KeepSamples)
			partials[k] = p
			if p.err != nil {
				fail(p.err)
				return
			}
			logger.Debug("chunk finished", logging.Int("chunk", k), logging.Trials(p.acc.Count()))
		})
	}
	pool.Wait()

	if firstErr != nil {
		return partials, firstErr
	}
	return partials, ctx.Err()
}

// runChunk simulates count trials numbered from first on stream (seed, k).
func (t *topology) runChunk(ctx context.Context, seed uint64, k, first, count int, grid []float64, keep bool) chunkResult {
	rng := rand.New(rand.NewPCG(seed, uint64(k)))
	sc := newScratch(t)
	res := chunkResult{acc: estimate.NewAccumulator(grid)}
	if keep {
		res.samples = make([]float64, 0, count)
	}

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		x, censored, err := t.trial(rng, sc, first+i)
		if err != nil {
			res.err = err
			return res
		}
		if censored {
			if len(sc.ordered) == 0 {
				res.unbounded++
			}
			res.acc.AddCensored(x)
		} else {
			res.acc.Add(x)
		}
		if keep {
			res.samples = append(res.samples, x)
		}
	}
	return res
}

// trial samples every block once, in arena order, and returns the system
// failure time: the earliest sampled failure time at which Entry and Exit
// are no longer connected through live blocks.
func (t *topology) trial(rng *rand.Rand, sc *scratch, n int) (float64, bool, error) {
	sc.ordered = sc.ordered[:0]
	for v := 2; v < t.nodeCount(); v++ {
		draws := t.sources[v].SampleFailureTime(rng, 1)
		if len(draws) != 1 {
			return 0, false, NewError("MonteCarlo").Block(t.names[v]).Numerical().
				Context("trial %d: source returned %d samples, want 1", n, len(draws)).Err()
		}
		x := draws[0]
		if x < 0 || math.IsNaN(x) {
			return 0, false, NewError("MonteCarlo").Block(t.names[v]).Numerical().
				Context("trial %d: sampled lifetime %v", n, x).Err()
		}
		sc.failAt[v] = x
		if !math.IsInf(x, 1) {
			sc.ordered = append(sc.ordered, x)
		}
	}

	sort.Float64s(sc.ordered)
	// Liveness only changes at sampled times and connectivity can only be
	// lost as time grows, so the first disconnected sample is the answer.
	i := sort.Search(len(sc.ordered), func(i int) bool {
		return !t.connected(sc, sc.ordered[i])
	})
	if i < len(sc.ordered) {
		return sc.ordered[i], false, nil
	}
	if len(sc.ordered) == 0 {
		return 0, true, nil
	}
	return sc.ordered[len(sc.ordered)-1], true, nil
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: MTTF %.6g ± %.3g over %d trials (seed %d)", r.System, r.MTTF, r.HalfWidth, r.Trials, r.Seed)
}
