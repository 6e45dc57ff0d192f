package experiment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/consistent"
	"github.com/poiesic/maniplib/egalitarian"
	"github.com/poiesic/maniplib/knapsack"
	"github.com/poiesic/maniplib/profilegen"
	"gopkg.in/yaml.v3"
)

// StrategyNames lists the strategies a run may name.
var StrategyNames = []string{consistent.Name, egalitarian.Name, knapsack.Name}

// Utility model names.
const (
	UtilityBorda           = "borda"
	UtilityBordaRandom     = "borda-random"
	UtilityBordaRandomDiff = "borda-random-diff"
)

// Config describes an experiment.
type Config struct {
	// Name identifies the experiment; checkpoints are stored under it.
	Name string `yaml:"name"`

	// Seed drives coalition sampling. The same seed reproduces the same
	// coalitions for every strategy and evaluator.
	Seed uint64 `yaml:"seed"`

	// FetchConcurrency bounds the number of datasets fetched at once.
	// Default: 4
	FetchConcurrency int `yaml:"fetch_concurrency"`

	// ReportInterval reports progress every N completed runs.
	// Default: 1
	ReportInterval int `yaml:"report_interval"`

	Runs []Run `yaml:"runs"`
}

// Run is one sweep over a dataset.
type Run struct {
	// Dataset is an http(s) URL or a file path. Exactly one of Dataset and
	// Generate must be set.
	Dataset  string             `yaml:"dataset"`
	Generate *profilegen.Params `yaml:"generate"`

	Strategies []string `yaml:"strategies"`
	Evaluators []string `yaml:"evaluators"`
	L          []int    `yaml:"l"`
	K          []int    `yaml:"k"`
	R          []int    `yaml:"r"`

	// Utility is one of borda, borda-random and borda-random-diff.
	// Default: borda
	Utility string `yaml:"utility"`
	// UDiff is the number of distinct utility values for borda-random-diff.
	UDiff int `yaml:"udiff"`
	// Repeat runs every combination this many times. Default: 1
	Repeat int `yaml:"repeat"`
}

// Label names the run's dataset in reports.
func (r *Run) Label() string {
	if r.Generate != nil {
		return r.Generate.String()
	}
	return r.Dataset
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithName sets the experiment name.
func WithName(name string) ConfigOption {
	return func(c *Config) {
		c.Name = name
	}
}

// WithSeed sets the sampling seed.
func WithSeed(seed uint64) ConfigOption {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithFetchConcurrency sets how many datasets are fetched at once.
func WithFetchConcurrency(n int) ConfigOption {
	return func(c *Config) {
		c.FetchConcurrency = n
	}
}

// WithRuns appends runs to the configuration.
func WithRuns(runs ...Run) ConfigOption {
	return func(c *Config) {
		c.Runs = append(c.Runs, runs...)
	}
}

// DefaultConfig returns a Config with defaults and no runs.
func DefaultConfig() *Config {
	return &Config{
		Name:             "experiment",
		Seed:             1,
		FetchConcurrency: 4,
		ReportInterval:   1,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(bytes.NewReader(data))
}

// ParseConfig decodes a YAML configuration over the defaults and validates it.
// Unknown keys are rejected.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills in per-run defaults and checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("%w: fetch_concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.ReportInterval < 1 {
		return fmt.Errorf("%w: report_interval must be at least 1", ErrInvalidConfig)
	}
	if len(c.Runs) == 0 {
		return fmt.Errorf("%w: at least one run is required", ErrInvalidConfig)
	}
	for i := range c.Runs {
		if err := c.Runs[i].validate(); err != nil {
			return fmt.Errorf("%w: run %d: %w", ErrInvalidConfig, i+1, err)
		}
	}
	return nil
}

func (r *Run) validate() error {
	if r.Utility == "" {
		r.Utility = UtilityBorda
	}
	if r.Repeat == 0 {
		r.Repeat = 1
	}
	if len(r.Evaluators) == 0 {
		r.Evaluators = []string{bloc.UtilitarianName}
	}

	switch {
	case r.Dataset == "" && r.Generate == nil:
		return errors.New("dataset or generate is required")
	case r.Dataset != "" && r.Generate != nil:
		return errors.New("dataset and generate are mutually exclusive")
	}
	if len(r.Strategies) == 0 {
		return errors.New("at least one strategy is required")
	}
	for _, name := range r.Strategies {
		if !slices.Contains(StrategyNames, strings.ToLower(name)) {
			return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownStrategy, name, strings.Join(StrategyNames, ", "))
		}
	}
	for _, name := range r.Evaluators {
		if _, err := bloc.EvaluatorByName(name); err != nil {
			return err
		}
	}
	for _, field := range []struct {
		name   string
		values []int
	}{{"l", r.L}, {"k", r.K}, {"r", r.R}} {
		if len(field.values) == 0 {
			return fmt.Errorf("%s needs at least one value", field.name)
		}
		for _, v := range field.values {
			if v < 1 {
				return fmt.Errorf("%s values must be positive, got %d", field.name, v)
			}
		}
	}
	switch r.Utility {
	case UtilityBorda, UtilityBordaRandom:
	case UtilityBordaRandomDiff:
		if r.UDiff < 1 {
			return errors.New("udiff must be positive for borda-random-diff")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownUtility, r.Utility)
	}
	if r.Repeat < 1 {
		return fmt.Errorf("repeat must be positive, got %d", r.Repeat)
	}
	return nil
}
