package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/manipulation"
	"github.com/poiesic/maniplib/preflib"
	"github.com/poiesic/maniplib/profilegen"
	"github.com/poiesic/maniplib/storage"
	"github.com/poiesic/maniplib/utility"
	"golang.org/x/sync/errgroup"
)

// Manipulator answers a manipulation request, typically from a result cache.
type Manipulator interface {
	Manipulate(ctx context.Context, req *manipulation.Request) (*core.ResultRecord, error)
}

// Source fetches datasets by URL.
type Source interface {
	Fetch(ctx context.Context, url string) (*core.Profile, error)
}

// Task is one manipulation search of an experiment.
type Task struct {
	Index     int
	Run       int
	Dataset   string
	Strategy  string
	Evaluator string
	L         int
	K         int
	R         int
	Rep       int
}

// Tasks expands the configuration into its searches in a fixed order.
func (c *Config) Tasks() []Task {
	var tasks []Task
	for ri := range c.Runs {
		run := &c.Runs[ri]
		for _, strategy := range run.Strategies {
			for _, evaluator := range run.Evaluators {
				for _, l := range run.L {
					for _, k := range run.K {
						for _, r := range run.R {
							for rep := range run.Repeat {
								tasks = append(tasks, Task{
									Index:     len(tasks),
									Run:       ri,
									Dataset:   run.Label(),
									Strategy:  strategy,
									Evaluator: evaluator,
									L:         l,
									K:         k,
									R:         r,
									Rep:       rep,
								})
							}
						}
					}
				}
			}
		}
	}
	return tasks
}

// Runner executes experiments.
type Runner struct {
	manipulator Manipulator
	source      Source
	checkpoints storage.CheckpointRepository
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithSource sets the source used for URL datasets.
func WithSource(source Source) Option {
	return func(r *Runner) error {
		r.source = source
		return nil
	}
}

// WithCheckpoints records completed runs in repo.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(r *Runner) error {
		r.checkpoints = repo
		return nil
	}
}

// WithProgress writes progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a runner that answers searches with m.
func NewRunner(m Manipulator, opts ...Option) (*Runner, error) {
	if m == nil {
		return nil, ErrManipulatorRequired
	}
	r := &Runner{
		manipulator: m,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run executes every search of cfg. Searches whose parameters do not fit the
// dataset (l or k above the number of candidates, or a coalition as large as
// the electorate) are counted as skipped.
func (r *Runner) Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	profiles, err := r.loadProfiles(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tasks := cfg.Tasks()
	report := &Report{Name: cfg.Name}

	if r.checkpoints != nil {
		cp, err := r.checkpoints.LoadCheckpoint(ctx, cfg.Name)
		if err != nil {
			return nil, err
		}
		if cp != nil && cp.Completed <= len(tasks) {
			report.Resumed = cp.Completed
			r.logger.Info("resuming experiment", "name", cfg.Name, "completed", cp.Completed, "total", len(tasks))
		}
	}

	var tracker *ProgressTracker
	if r.progress != nil {
		tracker = NewProgressTracker(r.progress, len(tasks)-report.Resumed, cfg.ReportInterval)
		tracker.Start(0)
	}
	started := time.Now()

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := r.request(cfg, task, profiles[task.Run])
		if err == nil {
			var record *core.ResultRecord
			record, err = r.manipulator.Manipulate(ctx, req)
			if err == nil {
				report.Rows = append(report.Rows, Row{Task: task, Record: record})
			}
		}
		switch {
		case err == nil:
		case skippable(err):
			r.logger.Warn("skipping run", "dataset", task.Dataset, "strategy", task.Strategy,
				"l", task.L, "k", task.K, "r", task.R, "error", err)
			report.Skipped++
		default:
			return nil, fmt.Errorf("run %d (%s, %s): %w", task.Index+1, task.Dataset, task.Strategy, err)
		}

		if task.Index < report.Resumed {
			continue
		}
		if r.checkpoints != nil {
			if err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Experiment: cfg.Name, Completed: task.Index + 1}); err != nil {
				return nil, err
			}
		}
		if tracker != nil {
			tracker.Increment(1)
		}
	}

	if tracker != nil {
		tracker.Finish()
	}
	report.Elapsed = time.Since(started)
	r.logger.Info("experiment finished", "name", cfg.Name, "runs", len(report.Rows),
		"skipped", report.Skipped, "elapsed", report.Elapsed)
	return report, nil
}

// Coalition derives r manipulators and their utilities from profile with the
// named utility model. udiff is only used by borda-random-diff.
func Coalition(profile *core.Profile, model string, r, udiff int, rng *rand.Rand) (*core.Utilities, error) {
	switch model {
	case UtilityBorda, "":
		return utility.Borda(profile, r)
	case UtilityBordaRandom:
		return utility.BordaRandom(profile, r, rng)
	case UtilityBordaRandomDiff:
		return utility.BordaRandomDiff(profile, r, udiff, rng)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUtility, model)
	}
}

func skippable(err error) bool {
	return errors.Is(err, manipulation.ErrInvalidProblem) ||
		errors.Is(err, core.ErrInvalidParameter) ||
		errors.Is(err, core.ErrTooManyManipulators)
}

// request derives the coalition of a task. Random coalitions are seeded by the
// dataset, r and the repetition so that every strategy and evaluator sees the
// same coalition.
func (r *Runner) request(cfg *Config, task Task, profile *core.Profile) (*manipulation.Request, error) {
	run := &cfg.Runs[task.Run]
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(core.IDFromContent(fmt.Sprintf("%s|%d|%d", task.Dataset, task.R, task.Rep)))))

	u, err := Coalition(profile, run.Utility, task.R, run.UDiff, rng)
	if err != nil {
		return nil, err
	}
	return &manipulation.Request{
		Dataset:   task.Dataset,
		Strategy:  task.Strategy,
		Evaluator: task.Evaluator,
		L:         task.L,
		K:         task.K,
		Profile:   profile,
		Utilities: u,
	}, nil
}

// loadProfiles fetches, reads or generates the profile of every run. Each URL
// is fetched once.
func (r *Runner) loadProfiles(ctx context.Context, cfg *Config) ([]*core.Profile, error) {
	profiles := make([]*core.Profile, len(cfg.Runs))
	byDataset := make(map[string]*core.Profile)
	var mu sync.Mutex

	if r.source == nil {
		for _, run := range cfg.Runs {
			if run.Generate == nil && isURL(run.Dataset) {
				return nil, fmt.Errorf("%w: %s", ErrSourceRequired, run.Dataset)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.FetchConcurrency)

	seen := make(map[string]bool)
	for i := range cfg.Runs {
		run := &cfg.Runs[i]
		if run.Generate != nil {
			e, err := profilegen.Generate(rand.New(rand.NewPCG(cfg.Seed, uint64(i))), *run.Generate)
			if err != nil {
				g.Wait()
				return nil, fmt.Errorf("run %d: %w", i+1, err)
			}
			profiles[i] = e.Profile()
			continue
		}
		if seen[run.Dataset] {
			continue
		}
		seen[run.Dataset] = true

		dataset := run.Dataset
		g.Go(func() error {
			var (
				p   *core.Profile
				err error
			)
			if isURL(dataset) {
				p, err = r.source.Fetch(gctx, dataset)
			} else {
				p, err = preflib.ReadFile(dataset)
			}
			if err != nil {
				return fmt.Errorf("loading %s: %w", dataset, err)
			}
			r.logger.Debug("loaded dataset", "dataset", dataset,
				"candidates", p.NumCandidates(), "voters", p.NumVoters())

			mu.Lock()
			byDataset[dataset] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range cfg.Runs {
		if profiles[i] == nil {
			profiles[i] = byDataset[cfg.Runs[i].Dataset]
		}
	}
	return profiles, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
