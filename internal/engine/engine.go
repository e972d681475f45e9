// Package engine evaluates the escape-time fractal over a Domain in parallel.
//
// Rows are the unit of work. Both axes are discretised once and shared
// read-only; every row is written into its own arena slot by exactly one
// worker, and the matrix is assembled only after all workers have joined.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/logging"
)

// Engine is a mandel.Evaluator. It holds no per-call state and may be used
// from several goroutines at once; each call allocates fresh row storage.
// Engines are built with New; the unexported fields are configured only
// through Options.
type Engine struct {
	workers int
	policy  Policy
	logger  *logging.Logger

	// rowHook runs before each row is computed. It is never set outside
	// this package's tests, which use it to inject faults; nil in normal use.
	rowHook func(y int)
}

var _ mandel.Evaluator = (*Engine)(nil)

type Option func(*Engine)

// WithWorkers sets the worker budget. Values below 1 select DefaultWorkers.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		workers: DefaultWorkers(),
		policy:  PolicyContiguous,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Workers() int   { return e.workers }
func (e *Engine) Policy() Policy { return e.policy }

// Evaluate blocks until every cell of the matrix for d is computed. A
// configuration problem is reported before any work starts; a worker fault
// yields a *mandel.EvaluationError and no matrix. ctx is only consulted
// before dispatch: running rows are never interrupted.
func (e *Engine) Evaluate(ctx context.Context, d mandel.Domain) (*mandel.Matrix, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	start := time.Now()
	xs, err := Discretize(d.Region.X(), d.Resolution.X)
	if err != nil {
		return nil, err
	}
	ys, err := Discretize(d.Region.Y(), d.Resolution.Y)
	if err != nil {
		return nil, err
	}

	j := &job{
		xs:        xs,
		ys:        ys,
		threshold: d.Threshold,
		maxIter:   d.MaxIter,
		arena:     newRowArena(len(ys), len(xs)),
		hook:      e.rowHook,
	}

	var rec *panics.Recovered
	switch e.policy {
	case PolicyRowPerTask:
		rec = e.runRowPerTask(j)
	default:
		rec = e.runContiguous(j)
	}
	if rec != nil {
		e.logger.Error("worker panicked", "panic", fmt.Sprint(rec.Value))
		return nil, &mandel.EvaluationError{Cause: rec.AsError(), Recovered: rec.String()}
	}
	if err := j.errs.err(); err != nil {
		return nil, &mandel.EvaluationError{Cause: err}
	}

	rows, err := j.arena.collect()
	if err != nil {
		return nil, &mandel.EvaluationError{Cause: err}
	}
	m, err := mandel.NewMatrix(rows, d.MaxIter)
	if err != nil {
		return nil, &mandel.EvaluationError{Cause: err}
	}

	e.logger.Debug("evaluation finished",
		"width", m.Width(),
		"height", m.Height(),
		"max_iter", d.MaxIter,
		"workers", e.workers,
		"policy", string(e.policy),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return m, nil
}

// runContiguous starts one goroutine per span and joins them all.
func (e *Engine) runContiguous(j *job) *panics.Recovered {
	var wg conc.WaitGroup
	for _, s := range Partition(len(j.ys), e.workers) {
		wg.Go(func() {
			for y := s.Start; y < s.End; y++ {
				if err := j.row(y); err != nil {
					j.errs.add(err)
					return
				}
			}
		})
	}
	return wg.WaitAndRecover()
}

// runRowPerTask submits every row as its own task to a pool of e.workers
// goroutines.
func (e *Engine) runRowPerTask(j *job) *panics.Recovered {
	p := pool.New().WithMaxGoroutines(max(1, e.workers))
	var pc panics.Catcher
	for y := range j.ys {
		p.Go(func() {
			pc.Try(func() {
				if err := j.row(y); err != nil {
					j.errs.add(err)
				}
			})
		})
	}
	p.Wait()
	return pc.Recovered()
}

// job is the shared, read-only input of one evaluation plus its arena.
type job struct {
	xs, ys    []float64
	threshold float64
	maxIter   int
	arena     *rowArena
	hook      func(y int)
	errs      errorSink
}

func (j *job) row(y int) error {
	buf, err := j.arena.checkout(y)
	if err != nil {
		return err
	}
	if j.hook != nil {
		j.hook(y)
	}

	ci := j.ys[y]
	for x := 0; x < len(j.xs); x++ {
		buf[x] = Escape(j.xs[x], ci, j.threshold, j.maxIter)
	}
	return j.arena.giveBack(y)
}

type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) add(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *errorSink) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}
