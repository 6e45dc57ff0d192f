// Package tiebreak breaks l-Bloc ties in favor of a coalition of manipulators
// under the egalitarian evaluation.
package tiebreak

import (
	"math"
	"slices"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
)

// EgalitarianOptimistic chooses k candidates maximizing the total utility of
// the least satisfied manipulator. The candidates are returned in ascending
// index order; of two candidates of the same type the smaller index is taken.
func EgalitarianOptimistic(u *core.Utilities, k int) []core.Candidate {
	pool := make([]core.Candidate, u.NumCandidates())
	for i := range pool {
		pool[i] = core.Candidate(i + 1)
	}
	return choose(u, make([]int, u.NumManipulators()), pool, k)
}

// Winners returns the k winners of the l-Bloc scores. Candidates scoring above
// the k-th score always win; the remaining seats are filled from the
// candidates tied at the k-th score so that the least satisfied manipulator
// fares best. The result is in strength order of the scores, ties by index.
func Winners(k int, scores bloc.ScoreMap, u *core.Utilities) []core.Candidate {
	order := bloc.StrengthOrder(scores)
	if k >= len(order) {
		return order
	}
	if k <= 0 {
		return nil
	}

	threshold := scores[order[k-1]]
	var above, tied []core.Candidate
	for _, c := range order {
		switch {
		case scores[c] > threshold:
			above = append(above, c)
		case scores[c] == threshold:
			tied = append(tied, c)
		}
	}

	base := make([]int, u.NumManipulators())
	for _, c := range above {
		for i, v := range u.Of(c) {
			base[i] += v
		}
	}
	picked := choose(u, base, tied, k-len(above))

	winners := slices.Clone(above)
	pos := bloc.Position(order)
	slices.SortFunc(picked, func(a, b core.Candidate) int { return pos[a] - pos[b] })
	return append(winners, picked...)
}

// choose selects q candidates from pool maximizing min_i (base[i] + Σ u_i(c))
// by branch and bound over the candidate types of the pool.
func choose(u *core.Utilities, base []int, pool []core.Candidate, q int) []core.Candidate {
	if q <= 0 || len(pool) == 0 {
		return nil
	}
	q = min(q, len(pool))

	sub := &core.Utilities{Manipulators: u.Manipulators, Values: make([][]int, len(pool))}
	for i, c := range pool {
		sub.Values[i] = u.Of(c)
	}
	types := bloc.Types(sub)

	b := newBnB(types, base, q)
	b.search(0, q, slices.Clone(base))

	var out []core.Candidate
	for t, n := range b.best {
		for _, m := range types.Members(t)[:n] {
			out = append(out, pool[int(m)-1])
		}
	}
	slices.Sort(out)
	return out
}

type bnb struct {
	types *bloc.TypeSet
	// suffixMax[t][i] is the largest utility manipulator i assigns to any
	// type at or after t.
	suffixMax [][]int
	// suffixCount[t] is the number of candidates of types at or after t.
	suffixCount []int
	counts      []int
	best        []int
	bestValue   int
}

func newBnB(types *bloc.TypeSet, base []int, q int) *bnb {
	n, r := types.Len(), len(base)
	b := &bnb{
		types:       types,
		suffixMax:   make([][]int, n+1),
		suffixCount: make([]int, n+1),
		counts:      make([]int, n),
		bestValue:   math.MinInt,
	}
	b.suffixMax[n] = make([]int, r)
	for t := n - 1; t >= 0; t-- {
		b.suffixMax[t] = slices.Clone(b.suffixMax[t+1])
		for i, v := range types.Vectors[t] {
			b.suffixMax[t][i] = max(b.suffixMax[t][i], v)
		}
		b.suffixCount[t] = b.suffixCount[t+1] + types.Counts[t]
	}
	return b
}

func (b *bnb) search(t, left int, sums []int) {
	if left == 0 {
		if v := minOf(sums); v > b.bestValue {
			b.bestValue = v
			b.best = slices.Clone(b.counts)
		}
		return
	}
	if t == b.types.Len() || b.suffixCount[t] < left {
		return
	}

	bound := math.MaxInt
	for i, s := range sums {
		bound = min(bound, s+left*b.suffixMax[t][i])
	}
	if bound <= b.bestValue {
		return
	}

	vec := b.types.Vectors[t]
	for n := min(left, b.types.Counts[t]); n >= 0; n-- {
		for i, v := range vec {
			sums[i] += n * v
		}
		b.counts[t] = n
		b.search(t+1, left-n, sums)
		for i, v := range vec {
			sums[i] -= n * v
		}
	}
	b.counts[t] = 0
}

func minOf(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	return slices.Min(xs)
}
