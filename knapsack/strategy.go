package knapsack

import (
	"context"
	"maps"
	"slices"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/manipulation"
)

// Name is the registry name of the knapsack strategy.
const Name = "knapsack"

// Strategy is the inconsistent manipulation strategy.
type Strategy struct {
	runner *manipulation.Runner
}

// New creates a knapsack Strategy backed by runner.
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

// Manipulate implements manipulation.Strategy. Only the first k+r*l
// candidates of the strength order are tried as the weakest winner, since the
// manipulators can lift at most r*l candidates. Every (c, z) pair is a
// separate iteration.
func (s *Strategy) Manipulate(ctx context.Context, p *manipulation.Problem) (*core.Manipulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r, m := p.R(), p.M()
	scores := p.Scores()
	strength := bloc.StrengthOrder(scores)
	cands := strength[:min(p.K+r*p.L, len(strength))]

	values := make(map[core.Candidate]int, m)
	for _, c := range strength {
		values[c] = p.Evaluate([]core.Candidate{c}, p.Utilities)
	}

	steps := r + 1
	best, err := s.runner.Best(ctx, len(cands)*steps, func(ctx context.Context, i int) (*core.Manipulation, error) {
		c := cands[i/steps]
		z := scores[c] + i%steps
		return s.iterate(p, scores, values, c, z), nil
	})
	if err != nil {
		return nil, err
	}

	s.runner.Logger().Debug("knapsack manipulation finished",
		"l", p.L, "k", p.K, "r", r, "candidates", len(cands), "found", best != nil)
	return p.Finish(best, strength), nil
}

func (s *Strategy) iterate(p *manipulation.Problem, scores bloc.ScoreMap, values map[core.Candidate]int, c core.Candidate, z int) *core.Manipulation {
	r := p.R()
	params, ok := Parameters(p.K, r, p.L, c, z, scores)
	if !ok {
		return nil
	}

	weights := Weights(scores, z, c, params.CStar)
	profits := make([]int, len(params.CStar))
	for i, can := range params.CStar {
		profits[i] = values[can]
	}

	idx, ok := ExactK(weights, profits, params.KStar, params.SStar)
	if !ok {
		return nil
	}

	others := p.M() - len(params.CStar) - 1
	if Unplaceable(r, p.L, params.Shift, weights, idx, others) > 0 {
		return nil
	}

	chosen := make([]core.Candidate, len(idx))
	for i, x := range idx {
		chosen[i] = params.CStar[x]
	}

	winners := ManipulatedWinners(params, c, z, scores, chosen)
	approvals := MinimalApprovals(params, c, scores, z, chosen)
	return &core.Manipulation{
		Support:   slices.Sorted(maps.Keys(approvals)),
		Approvals: approvals,
		Value:     p.Evaluate(winners, p.Utilities),
		Winners:   winners,
	}
}
