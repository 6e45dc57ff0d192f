// Package consistent computes l-Bloc manipulations in which every manipulator
// casts the same ballot: a single set of l supported candidates.
//
// The search fixes t, the number of sincere winners the coalition keeps, and
// the strongest non-kept candidate (the dropped candidate). Candidates that r
// extra approvals lift above the dropped candidate are distinguished; the most
// valuable of them are supported, the remaining approvals go to kept winners
// and, when l is not yet exhausted, to the weakest candidates.
package consistent

import (
	"cmp"
	"context"
	"slices"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/manipulation"
)

// Name is the registry name of the consistent strategy.
const Name = "consistent"

// DistinguishedCandidates returns the candidates, in strength order, that can
// overtake the dropped candidate c once they receive r approvals.
func DistinguishedCandidates(c core.Candidate, r int, scores bloc.ScoreMap, strength []core.Candidate) []core.Candidate {
	sc := scores[c]
	var d []core.Candidate
	for _, can := range strength {
		s := scores[can]
		switch {
		case s == sc && can > c:
			d = append(d, can)
		case s < sc && s+r > sc:
			d = append(d, can)
		case s < sc && s+r == sc && can < c:
			d = append(d, can)
		}
	}
	return d
}

// MostValuable returns the n distinct members of d with the highest
// single-candidate evaluation. Equal values keep the order of d. It returns
// nil when d has fewer than n members.
func MostValuable(n int, u *core.Utilities, d []core.Candidate, eval bloc.Evaluator) []core.Candidate {
	if n > len(d) || n <= 0 {
		return nil
	}
	type valued struct {
		c   core.Candidate
		val int
	}
	vals := make([]valued, len(d))
	for i, c := range d {
		vals[i] = valued{c: c, val: eval([]core.Candidate{c}, u)}
	}
	slices.SortStableFunc(vals, func(a, b valued) int {
		return cmp.Compare(b.val, a.val)
	})
	out := make([]core.Candidate, n)
	for i := range out {
		out[i] = vals[i].c
	}
	return out
}

// ManipulatedWinners returns the winning group after r manipulators approve
// every member of x.
func ManipulatedWinners(r, k int, x []core.Candidate, scores bloc.ScoreMap) []core.Candidate {
	approvals := make(map[core.Candidate]int, len(x))
	for _, c := range x {
		approvals[c] = r
	}
	return bloc.Winners(k, bloc.MergeScores(scores, approvals))
}

// KickedOut counts how many of the k strongest candidates in x, extended by
// the diff weakest candidates outside x, do not belong to x.
func KickedOut(k, diff int, x, strength []core.Candidate) int {
	if diff <= 0 {
		return 0
	}
	outside := without(strength, x)
	a := slices.Clone(outside[max(len(outside)-diff, 0):])
	a = append(a, x...)

	pos := bloc.Position(strength)
	slices.SortFunc(a, func(p, q core.Candidate) int {
		return cmp.Compare(pos[p], pos[q])
	})

	kicked := 0
	for _, c := range a[:min(k, len(a))] {
		if !slices.Contains(x, c) {
			kicked++
		}
	}
	return kicked
}

// SupportedSet returns the l candidates the coalition approves when it keeps
// the t strongest sincere winners. The k-t most valuable distinguished
// candidates are supported first, then up to t kept winners; remaining slots
// go to valuable distinguished candidates that would otherwise be pushed out
// and finally to the weakest candidates.
func SupportedSet(k, l, t int, d, strength []core.Candidate, u *core.Utilities, eval bloc.Evaluator) []core.Candidate {
	l = min(l, len(strength))
	x := MostValuable(k-t, u, d, eval)

	arb := max(min(t, l-len(x)), 0)
	x = append(x, strength[:arb]...)

	diff := l - len(x)
	if diff > 0 {
		p := KickedOut(k, diff, x, strength)
		x = append(x, MostValuable(min(p, diff), u, without(d, x), eval)...)
	}

	if rest := l - len(x); rest > 0 {
		outside := without(strength, x)
		x = append(x, outside[len(outside)-rest:]...)
	}
	return x
}

// ThresholdSupport returns the l candidates to support so that w ends up the
// weakest winner, with w itself supported when lifted is set. Candidates that
// beat w anyway always win; of those beating w only when supported, the k-1
// still missing are the most valuable ones; every other slot goes to the
// weakest candidates whose support leaves the winners unchanged. It reports
// false when w cannot be the weakest winner with exactly l supported.
func ThresholdSupport(k, l, r int, w core.Candidate, lifted bool, scores bloc.ScoreMap, strength []core.Candidate, u *core.Utilities, eval bloc.Evaluator) ([]core.Candidate, bool) {
	sw := scores[w]
	if lifted {
		sw += r
	}
	beats := func(s int, c core.Candidate) bool {
		return s > sw || (s == sw && c < w)
	}

	var always, lift, free []core.Candidate
	for _, c := range strength {
		switch {
		case c == w:
		case beats(scores[c], c):
			always = append(always, c)
			free = append(free, c)
		case beats(scores[c]+r, c):
			lift = append(lift, c)
		default:
			free = append(free, c)
		}
	}

	need := k - 1 - len(always)
	if need < 0 || need > len(lift) {
		return nil, false
	}
	x := MostValuable(need, u, lift, eval)
	if lifted {
		x = append(x, w)
	}
	rest := l - len(x)
	if rest < 0 || rest > len(free) {
		return nil, false
	}
	return append(x, free[len(free)-rest:]...), true
}

// Strategy is the consistent manipulation strategy.
type Strategy struct {
	runner *manipulation.Runner
}

// New creates a consistent Strategy backed by runner.
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

// Manipulate implements manipulation.Strategy. Each number of kept winners is
// evaluated as a separate iteration, followed by one iteration per candidate
// and lift as the weakest winner (see ThresholdSupport). The latter alone is
// exact for evaluators that sum per-winner values.
func (s *Strategy) Manipulate(ctx context.Context, p *manipulation.Problem) (*core.Manipulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := p.R()
	scores := p.Scores()
	strength := bloc.StrengthOrder(scores)
	lo := max(p.K-p.L, 0)
	hi := min(p.K, len(strength)-1)

	kept := hi - lo + 1
	best, err := s.runner.Best(ctx, kept+2*len(strength), func(ctx context.Context, i int) (*core.Manipulation, error) {
		var x []core.Candidate
		if i < kept {
			t := lo + i
			d := DistinguishedCandidates(strength[t], r, scores, strength)
			if len(d) < p.K-t {
				return nil, nil
			}
			x = SupportedSet(p.K, p.L, t, d, strength, p.Utilities, p.Evaluate)
		} else {
			j := i - kept
			var ok bool
			x, ok = ThresholdSupport(p.K, p.L, r, strength[j/2], j%2 == 1, scores, strength, p.Utilities, p.Evaluate)
			if !ok {
				return nil, nil
			}
		}
		winners := ManipulatedWinners(r, p.K, x, scores)
		return &core.Manipulation{
			Support: x,
			Value:   p.Evaluate(winners, p.Utilities),
			Winners: winners,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.runner.Logger().Debug("consistent manipulation finished",
		"l", p.L, "k", p.K, "r", r, "found", best != nil)
	return p.Finish(best, strength), nil
}

func without(list, drop []core.Candidate) []core.Candidate {
	out := make([]core.Candidate, 0, len(list))
	for _, c := range list {
		if !slices.Contains(drop, c) {
			out = append(out, c)
		}
	}
	return out
}
