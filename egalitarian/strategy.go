package egalitarian

import (
	"context"
	"maps"
	"slices"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/manipulation"
)

// Name is the registry name of the egalitarian strategy.
const Name = "egalitarian"

// Strategy is the egalitarian manipulation strategy.
type Strategy struct {
	runner *manipulation.Runner
}

// New creates an egalitarian Strategy backed by runner.
func New(runner *manipulation.Runner) (*Strategy, error) {
	if runner == nil {
		return nil, manipulation.ErrRunnerRequired
	}
	return &Strategy{runner: runner}, nil
}

// Name implements manipulation.Strategy.
func (s *Strategy) Name() string {
	return Name
}

type threshold struct {
	z, p, plus int
}

// Manipulate implements manipulation.Strategy. Every threshold score z and
// promoted count p forms one iteration, which tries all feasible border
// counts b in ascending order.
func (s *Strategy) Manipulate(ctx context.Context, p *manipulation.Problem) (*core.Manipulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r, m := p.R(), p.M()
	scores := p.Scores()
	strength := bloc.StrengthOrder(scores)
	types := bloc.Types(p.Utilities)

	var steps []threshold
	for z := scores.Min(); z <= scores.Max()+r; z++ {
		plus := 0
		for _, sc := range scores {
			if sc > z {
				plus++
			}
		}
		if plus >= p.K {
			continue
		}
		for promoted := range p.K - plus {
			steps = append(steps, threshold{z: z, p: promoted, plus: plus})
		}
	}

	best, err := s.runner.Best(ctx, len(steps), func(ctx context.Context, i int) (*core.Manipulation, error) {
		th := steps[i]
		sv := newSolver(th.z, th.p, r, p.L, types, scores)

		var found *core.Manipulation
		for b := p.K - th.plus - th.p; b <= m-th.plus-th.p; b++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, sel := range sv.solutions(b) {
				approvals := Approvals(sel)
				winners := bloc.Winners(p.K, bloc.MergeScores(scores, approvals))
				value := p.Evaluate(winners, p.Utilities)
				if found == nil || value > found.Value {
					found = &core.Manipulation{
						Support:   slices.Sorted(maps.Keys(approvals)),
						Approvals: approvals,
						Value:     value,
						Winners:   winners,
					}
				}
			}
		}
		return found, nil
	})
	if err != nil {
		return nil, err
	}

	s.runner.Logger().Debug("egalitarian manipulation finished",
		"l", p.L, "k", p.K, "r", r, "thresholds", len(steps), "found", best != nil)
	return p.Finish(best, strength), nil
}
