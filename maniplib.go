// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package maniplib searches for coalitional manipulations of l-Bloc
// committee elections.
//
// A Library bundles the storage, the worker pool, the dataset fetcher and the
// manipulation strategies. Results are cached by the content of the request,
// so repeating a search is a lookup.
package maniplib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/maniplib/consistent"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/egalitarian"
	"github.com/poiesic/maniplib/experiment"
	"github.com/poiesic/maniplib/knapsack"
	"github.com/poiesic/maniplib/manipulation"
	"github.com/poiesic/maniplib/preflib"
	"github.com/poiesic/maniplib/storage"
	"github.com/poiesic/maniplib/storage/badger"
)

// ErrUnknownStrategy is returned for an unregistered strategy name.
var ErrUnknownStrategy = experiment.ErrUnknownStrategy

type Library struct {
	backend     *badger.Backend
	datasets    storage.DatasetRepository
	results     storage.ResultRepository
	checkpoints storage.CheckpointRepository
	runner      *manipulation.Runner
	fetcher     *preflib.Fetcher
	strategies  map[string]manipulation.Strategy
	cache       bool
	logger      *slog.Logger
}

// Option configures a Library.
type Option func(*options)

type options struct {
	inMemory    bool
	poolSize    int
	cache       bool
	logger      *slog.Logger
	fetcherOpts []preflib.FetcherOption
}

// WithInMemory keeps all storage in memory; the path is ignored.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithPoolSize sets the number of workers searching in parallel.
func WithPoolSize(size int) Option {
	return func(o *options) {
		o.poolSize = size
	}
}

// WithoutResultCache always recomputes results. Results are still stored.
func WithoutResultCache() Option {
	return func(o *options) {
		o.cache = false
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFetcherOptions passes options to the dataset fetcher.
func WithFetcherOptions(opts ...preflib.FetcherOption) Option {
	return func(o *options) {
		o.fetcherOpts = append(o.fetcherOpts, opts...)
	}
}

// Open opens or creates a library stored at filePath.
func Open(filePath string, opts ...Option) (*Library, error) {
	options := &options{
		cache:  true,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackendWithLogger(filePath, options.inMemory, options.logger)
	if err != nil {
		return nil, err
	}

	runnerOpts := []manipulation.Option{manipulation.WithLogger(options.logger)}
	if options.poolSize > 0 {
		runnerOpts = append(runnerOpts, manipulation.WithPoolSize(options.poolSize))
	}
	runner, err := manipulation.NewRunner(runnerOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	datasets := badger.NewDatasetRepository(backend)

	fetcherOpts := append([]preflib.FetcherOption{
		preflib.WithCache(datasets),
		preflib.WithLogger(options.logger),
	}, options.fetcherOpts...)
	fetcher, err := preflib.NewFetcher(fetcherOpts...)
	if err != nil {
		runner.Release()
		backend.Close()
		return nil, err
	}

	lib := &Library{
		backend:     backend,
		datasets:    datasets,
		results:     badger.NewResultRepository(backend),
		checkpoints: badger.NewCheckpointRepository(backend),
		runner:      runner,
		fetcher:     fetcher,
		strategies:  make(map[string]manipulation.Strategy),
		cache:       options.cache,
		logger:      options.logger,
	}

	for _, build := range []func(*manipulation.Runner) (manipulation.Strategy, error){
		func(r *manipulation.Runner) (manipulation.Strategy, error) { return consistent.New(r) },
		func(r *manipulation.Runner) (manipulation.Strategy, error) { return knapsack.New(r) },
		func(r *manipulation.Runner) (manipulation.Strategy, error) { return egalitarian.New(r) },
	} {
		s, err := build(runner)
		if err != nil {
			lib.Close()
			return nil, err
		}
		lib.strategies[s.Name()] = s
	}

	return lib, nil
}

func (l *Library) Close() error {
	l.runner.Release()

	if err := l.results.Close(); err != nil {
		l.logger.Error("error closing result repository", "err", err)
		return err
	}
	if err := l.datasets.Close(); err != nil {
		l.logger.Error("error closing dataset repository", "err", err)
		return err
	}

	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// StrategyNames lists the registered strategies in alphabetical order.
func (l *Library) StrategyNames() []string {
	names := make([]string, 0, len(l.strategies))
	for name := range l.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategy looks up a strategy by name.
func (l *Library) Strategy(name string) (manipulation.Strategy, error) {
	s, ok := l.strategies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownStrategy, name, strings.Join(l.StrategyNames(), ", "))
	}
	return s, nil
}

// Manipulate answers req from the result cache or runs the requested strategy
// and stores the result.
func (l *Library) Manipulate(ctx context.Context, req *manipulation.Request) (*core.ResultRecord, error) {
	strategy, err := l.Strategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	id := req.ID()
	if l.cache {
		record, err := l.results.GetResult(ctx, id)
		switch {
		case err == nil:
			l.logger.Debug("result cache hit", "id", id, "strategy", record.Strategy)
			return record, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	problem, err := req.Problem()
	if err != nil {
		return nil, err
	}
	result, err := strategy.Manipulate(ctx, problem)
	if err != nil {
		return nil, err
	}

	record := &core.ResultRecord{
		Id:        id,
		Strategy:  strategy.Name(),
		Evaluator: strings.ToLower(req.Evaluator),
		Dataset:   req.Dataset,
		L:         req.L,
		K:         req.K,
		R:         problem.R(),
		Result:    *result,
	}
	stored, err := l.results.PutResults(ctx, record)
	if err != nil {
		return nil, err
	}
	return stored[0], nil
}

// Fetcher returns the library's dataset fetcher. Fetched files are cached.
func (l *Library) Fetcher() *preflib.Fetcher {
	return l.fetcher
}

func (l *Library) DatasetRepository() storage.DatasetRepository {
	return l.datasets
}

func (l *Library) ResultRepository() storage.ResultRepository {
	return l.results
}

func (l *Library) CheckpointRepository() storage.CheckpointRepository {
	return l.checkpoints
}

// NewExperimentRunner creates an experiment runner backed by this library.
func (l *Library) NewExperimentRunner(opts ...experiment.Option) (*experiment.Runner, error) {
	base := []experiment.Option{
		experiment.WithSource(l.fetcher),
		experiment.WithCheckpoints(l.checkpoints),
		experiment.WithLogger(l.logger),
	}
	return experiment.NewRunner(l, append(base, opts...)...)
}
