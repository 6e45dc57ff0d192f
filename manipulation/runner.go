package manipulation

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/maniplib/core"
)

// Iteration evaluates one step of a strategy's outer search loop. It returns
// nil when the step yields no manipulation.
type Iteration func(ctx context.Context, i int) (*core.Manipulation, error)

// Runner evaluates independent search iterations on a bounded worker pool.
// A Runner is safe for concurrent use.
type Runner struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) (*Runner, error) {
	size := max(runtime.NumCPU(), 1)
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	r := &Runner{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}
	return r, nil
}

// Release stops the worker pool.
func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Logger returns the runner's logger.
func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

// Best runs iterations 0..n-1 and returns the manipulation with the highest
// positive value. Ties go to the lowest iteration index. Best returns nil when
// no iteration produced a positive value. The first iteration error cancels
// the remaining iterations and is returned.
func (r *Runner) Best(ctx context.Context, n int, fn Iteration) (*core.Manipulation, error) {
	if n <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*core.Manipulation, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			m, err := fn(ctx, i)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = m
		})
		if err != nil {
			wg.Done()
			errs[i] = err
			cancel()
			break
		}
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}

	var best *core.Manipulation
	bestAt := -1
	for i, m := range results {
		if m == nil || m.Value <= 0 {
			continue
		}
		if best == nil || m.Value > best.Value {
			best = m
			bestAt = i
		}
	}
	if best != nil {
		r.logger.Debug("selected manipulation", "iteration", bestAt, "iterations", n, "value", best.Value)
	}
	return best, nil
}

// firstError prefers a real failure over the cancellations it triggered.
func firstError(errs []error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if canceled == nil {
				canceled = err
			}
			continue
		}
		return err
	}
	return canceled
}
