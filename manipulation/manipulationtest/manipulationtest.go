// Package manipulationtest provides small random problems and exhaustive
// optima for checking manipulation strategies.
package manipulationtest

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/manipulation"
)

// RandomProblem draws a problem over m candidates and r manipulators: up to
// eight sincere voters with strict ballots, utilities between 0 and 4, l in
// 1..m and k in 1..m-1. m must be at least 2.
func RandomProblem(rng *rand.Rand, m, r int, eval bloc.Evaluator) *manipulation.Problem {
	profile := &core.Profile{Candidates: make(map[core.Candidate]string, m)}
	for c := 1; c <= m; c++ {
		profile.Candidates[core.Candidate(c)] = fmt.Sprintf("c%d", c)
	}
	n := 1 + rng.IntN(8)
	for range n {
		b := make(core.Ballot, m)
		for rank, c := range rng.Perm(m) {
			b[core.Candidate(c+1)] = rank + 1
		}
		profile.Ballots = append(profile.Ballots, b)
	}

	u := &core.Utilities{Manipulators: make([]int, r), Values: make([][]int, m)}
	for i := range u.Manipulators {
		u.Manipulators[i] = n + i
	}
	for c := range u.Values {
		u.Values[c] = make([]int, r)
		for i := range u.Values[c] {
			u.Values[c][i] = rng.IntN(5)
		}
	}

	return &manipulation.Problem{
		L:         1 + rng.IntN(m),
		K:         1 + rng.IntN(m-1),
		Profile:   profile,
		Utilities: u,
		Evaluate:  eval,
	}
}

// Cast returns the approvals of r manipulators who all approve support.
func Cast(r int, support []core.Candidate) map[core.Candidate]int {
	approvals := make(map[core.Candidate]int, len(support))
	for _, c := range support {
		approvals[c] += r
	}
	return approvals
}

// Optimum returns the best evaluation over every placement of the r*l
// manipulative approvals with at most r approvals per candidate. Every such
// placement can be split into r ballots of l approvals.
func Optimum(p *manipulation.Problem) int {
	scores := p.Scores()
	m, r := p.M(), p.R()
	approvals := make(map[core.Candidate]int, m)
	best := math.MinInt

	var walk func(c, left int)
	walk = func(c, left int) {
		if c > m {
			if left == 0 {
				best = max(best, evaluate(p, scores, approvals))
			}
			return
		}
		if left > r*(m-c+1) {
			return
		}
		for a := 0; a <= min(r, left); a++ {
			approvals[core.Candidate(c)] = a
			walk(c+1, left-a)
		}
	}
	walk(1, r*p.L)
	return best
}

// ConsistentOptimum returns the best evaluation over every set of l
// candidates approved by all r manipulators.
func ConsistentOptimum(p *manipulation.Problem) int {
	scores := p.Scores()
	m, r := p.M(), p.R()
	best := math.MinInt

	var walk func(next int, x []core.Candidate)
	walk = func(next int, x []core.Candidate) {
		if len(x) == p.L {
			best = max(best, evaluate(p, scores, Cast(r, x)))
			return
		}
		for c := next; c <= m; c++ {
			walk(c+1, append(x, core.Candidate(c)))
		}
	}
	walk(1, nil)
	return best
}

func evaluate(p *manipulation.Problem, scores bloc.ScoreMap, approvals map[core.Candidate]int) int {
	return p.Evaluate(bloc.Winners(p.K, bloc.MergeScores(scores, approvals)), p.Utilities)
}
