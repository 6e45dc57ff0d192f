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


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/consistent"
	"github.com/poiesic/maniplib/experiment"
	"github.com/poiesic/maniplib/profilegen"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	datasetFlag := &cli.StringFlag{
		Name:     "dataset",
		Aliases:  []string{"d"},
		Usage:    "PrefLib election file path or URL",
		Required: true,
	}
	electionFlags := []cli.Flag{
		&cli.IntFlag{
			Name:    "approvals",
			Aliases: []string{"a"},
			Usage:   "Number of candidates each voter approves (l)",
			Value:   1,
		},
		&cli.IntFlag{
			Name:    "committee",
			Aliases: []string{"k"},
			Usage:   "Number of winners (k)",
			Value:   1,
		},
	}
	coalitionFlags := []cli.Flag{
		&cli.IntFlag{
			Name:    "manipulators",
			Aliases: []string{"r"},
			Usage:   "Coalition size (r)",
			Value:   1,
		},
		&cli.StringFlag{
			Name:  "utility",
			Usage: "Utility model (borda, borda-random, borda-random-diff)",
			Value: experiment.UtilityBorda,
		},
		&cli.IntFlag{
			Name:  "udiff",
			Usage: "Distinct utility values for borda-random-diff",
			Value: 1,
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for random coalitions",
			Value: 1,
		},
	}

	return &cli.App{
		Name:  "maniplib",
		Usage: "Coalitional manipulation of l-Bloc committee elections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to BadgerDB database directory",
				Value: "./maniplib_db",
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Keep the database in memory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of parallel search workers (0 = CPU count)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "manipulate",
				Usage:  "Search for the best manipulation of an election",
				Action: manipulateCommand,
				Flags: concatFlags([]cli.Flag{
					datasetFlag,
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Manipulation strategy (consistent, knapsack, egalitarian)",
						Value:   consistent.Name,
					},
					&cli.StringFlag{
						Name:    "evaluator",
						Aliases: []string{"e"},
						Usage:   "Evaluator (" + strings.Join(bloc.EvaluatorNames, ", ") + ")",
						Value:   bloc.UtilitarianName,
					},
				}, electionFlags, coalitionFlags),
			},
			{
				Name:   "winners",
				Usage:  "Print the l-Bloc winners of an election",
				Action: winnersCommand,
				Flags: concatFlags([]cli.Flag{
					datasetFlag,
					&cli.BoolFlag{
						Name:  "tiebreak",
						Usage: "Break ties at the threshold in the coalition's egalitarian favor",
					},
				}, electionFlags, coalitionFlags),
			},
			{
				Name:   "generate",
				Usage:  "Generate a synthetic election",
				Action: generateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "culture",
						Usage: "Statistical culture (" + strings.Join(profilegen.Cultures, ", ") + ")",
						Value: profilegen.CultureIC,
					},
					&cli.IntFlag{
						Name:    "candidates",
						Aliases: []string{"m"},
						Usage:   "Number of candidates",
						Value:   5,
					},
					&cli.IntFlag{
						Name:    "voters",
						Aliases: []string{"n"},
						Usage:   "Number of voters",
						Value:   10,
					},
					&cli.IntFlag{
						Name:  "replace",
						Usage: "Urn replacements per draw",
					},
					&cli.IntFlag{
						Name:  "refs",
						Usage: "Mallows reference orders",
						Value: 1,
					},
					&cli.Float64Flag{
						Name:  "phi",
						Usage: "Mallows dispersion in [0, 1]; random per reference when unset",
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "Random seed",
						Value: 1,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
			{
				Name:   "single-peaked",
				Usage:  "Check whether an election is single-peaked",
				Action: singlePeakedCommand,
				Flags:  []cli.Flag{datasetFlag},
			},
			{
				Name:   "experiment",
				Usage:  "Run an experiment described in a YAML file",
				Action: experimentCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to experiment YAML",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Write results as CSV instead of a table",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Print the experiment's checkpoint and exit",
					},
				},
			},
			{
				Name:   "results",
				Usage:  "List recently computed results",
				Action: resultsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of results to list",
						Value: 10,
					},
				},
			},
		},
	}
}

func concatFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
