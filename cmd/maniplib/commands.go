package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/maniplib"
	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/experiment"
	"github.com/poiesic/maniplib/manipulation"
	"github.com/poiesic/maniplib/preflib"
	"github.com/poiesic/maniplib/profilegen"
	"github.com/poiesic/maniplib/singlepeak"
	"github.com/poiesic/maniplib/tiebreak"
	"github.com/urfave/cli/v2"
)

func openLibrary(c *cli.Context) (*maniplib.Library, error) {
	var opts []maniplib.Option
	if c.Bool("memory") {
		opts = append(opts, maniplib.WithInMemory())
	}
	if n := c.Int("workers"); n > 0 {
		opts = append(opts, maniplib.WithPoolSize(n))
	}

	dbPath := c.String("db")
	if dbPath == "" && !c.Bool("memory") {
		return nil, fmt.Errorf("database path is required")
	}
	lib, err := maniplib.Open(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return lib, nil
}

// loadProfile reads a local election file or fetches a remote one.
func loadProfile(ctx context.Context, lib *maniplib.Library, dataset string) (*core.Profile, error) {
	if strings.HasPrefix(dataset, "http://") || strings.HasPrefix(dataset, "https://") {
		return lib.Fetcher().Fetch(ctx, dataset)
	}
	return preflib.ReadFile(dataset)
}

func coalition(c *cli.Context, profile *core.Profile) (*core.Utilities, error) {
	rng := rand.New(rand.NewPCG(c.Uint64("seed"), 0))
	return experiment.Coalition(profile, c.String("utility"), c.Int("manipulators"), c.Int("udiff"), rng)
}

func manipulateCommand(c *cli.Context) error {
	ctx := c.Context

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	dataset := c.String("dataset")
	profile, err := loadProfile(ctx, lib, dataset)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	u, err := coalition(c, profile)
	if err != nil {
		return err
	}

	record, err := lib.Manipulate(ctx, &manipulation.Request{
		Dataset:   dataset,
		Strategy:  c.String("strategy"),
		Evaluator: c.String("evaluator"),
		L:         c.Int("approvals"),
		K:         c.Int("committee"),
		Profile:   profile,
		Utilities: u,
	})
	if err != nil {
		return fmt.Errorf("manipulation failed: %w", err)
	}

	return writeRecord(c.App.Writer, profile, u, record)
}

func writeRecord(w io.Writer, profile *core.Profile, u *core.Utilities, record *core.ResultRecord) error {
	m := record.Result
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Strategy:\t%s\n", record.Strategy)
	fmt.Fprintf(tw, "Evaluator:\t%s\n", record.Evaluator)
	fmt.Fprintf(tw, "Manipulators:\t%s\n", formatInts(u.Manipulators))
	fmt.Fprintf(tw, "Found:\t%t\n", m.Found)
	if len(m.Support) > 0 {
		fmt.Fprintf(tw, "Support:\t%s\n", strings.Join(profile.Names(m.Support), ", "))
	}
	if len(m.Approvals) > 0 {
		var parts []string
		for _, c := range profile.CandidateList() {
			if n := m.Approvals[c]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", profile.Candidates[c], n))
			}
		}
		fmt.Fprintf(tw, "Approvals:\t%s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(tw, "Winners:\t%s\n", strings.Join(profile.Names(m.Winners), ", "))
	fmt.Fprintf(tw, "Value:\t%d\n", m.Value)
	fmt.Fprintf(tw, "Replaced:\t%d\n", m.Replaced)
	return tw.Flush()
}

func winnersCommand(c *cli.Context) error {
	l, k := c.Int("approvals"), c.Int("committee")

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	profile, err := loadProfile(c.Context, lib, c.String("dataset"))
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if err := core.ValidateParameters(l, k, profile.NumCandidates()); err != nil {
		return err
	}

	scores := bloc.Scores(l, profile)
	winners := bloc.Winners(k, scores)
	if c.Bool("tiebreak") {
		// The coalition abstains; ties at the threshold go its way.
		u, err := coalition(c, profile)
		if err != nil {
			return err
		}
		scores = bloc.Scores(l, profile.Without(u.Manipulators))
		winners = tiebreak.Winners(k, scores, u)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tSCORE")
	for _, w := range winners {
		fmt.Fprintf(tw, "%s\t%d\n", profile.Candidates[w], scores[w])
	}
	return tw.Flush()
}

func generateCommand(c *cli.Context) error {
	params := profilegen.Params{
		Culture:    c.String("culture"),
		Candidates: c.Int("candidates"),
		Voters:     c.Int("voters"),
		Replace:    c.Int("replace"),
		Refs:       c.Int("refs"),
	}
	if c.IsSet("phi") {
		phi := c.Float64("phi")
		params.Phi = &phi
	}

	election, err := profilegen.Generate(profilegen.NewRand(c.Uint64("seed")), params)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return preflib.Write(w, election.Profile())
}

func singlePeakedCommand(c *cli.Context) error {
	profile, err := preflib.ReadFile(c.String("dataset"))
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	axis, err := singlepeak.Axis(profile)
	if err != nil {
		return err
	}
	if axis == nil {
		fmt.Fprintln(c.App.Writer, "not single-peaked")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "single-peaked: %s\n", strings.Join(profile.Names(axis), " < "))
	return nil
}

func experimentCommand(c *cli.Context) error {
	cfg, err := experiment.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if c.Bool("status") {
		cp, err := lib.CheckpointRepository().LoadCheckpoint(c.Context, cfg.Name)
		if err != nil {
			return err
		}
		if cp == nil {
			fmt.Fprintf(c.App.Writer, "%s: not started\n", cfg.Name)
			return nil
		}
		total := len(cfg.Tasks())
		fmt.Fprintf(c.App.Writer, "%s: %d/%d runs completed (updated %s)\n",
			cfg.Name, cp.Completed, total, cp.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	}

	runner, err := lib.NewExperimentRunner(experiment.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Experiment: %s\n", cfg.Name)
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintln(c.App.ErrWriter)

	report, err := runner.Run(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}
	if c.Bool("csv") {
		return report.WriteCSV(c.App.Writer)
	}
	return report.WriteTable(c.App.Writer)
}

func resultsCommand(c *cli.Context) error {
	limit := c.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	records, err := lib.ResultRepository().GetRecentResults(c.Context, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSERTED\tDATASET\tSTRATEGY\tEVALUATOR\tL\tK\tR\tFOUND\tVALUE\tWINNERS")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%t\t%d\t%s\n",
			r.InsertedAt.Local().Format("2006-01-02 15:04:05"), r.Dataset, r.Strategy, r.Evaluator,
			r.L, r.K, r.R, r.Result.Found, r.Result.Value, experiment.FormatCandidates(r.Result.Winners))
	}
	return tw.Flush()
}

func formatInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
