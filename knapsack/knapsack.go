// Package knapsack computes l-Bloc manipulations in which manipulators may
// cast different ballots.
//
// The search fixes c, the weakest member of the manipulated winning group, and
// its final score z. Candidates already beating c at score z win anyway; the
// remaining seats go to the candidates chosen by an exact k-item knapsack whose
// weights are the approvals each candidate needs to overtake c and whose
// profits are the candidates' evaluations. An iteration is valid only when
// every leftover approval can be placed without changing the winners.
package knapsack

import (
	"math"
	"slices"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
)

// Beats reports whether a wins a score tie against b. The smaller index wins.
func Beats(a, b core.Candidate) bool {
	return a < b
}

// Params holds the knapsack instance for one (c, z) iteration.
type Params struct {
	// KStar is the number of seats still open after C+ and c.
	KStar int
	// SStar is the knapsack capacity: approvals left after lifting c to z.
	SStar int
	// Shift is the number of approvals c needs to reach z.
	Shift int
	// CStar lists the candidates able to join the winning group.
	CStar []core.Candidate
	// CPlus lists the candidates that win regardless.
	CPlus []core.Candidate
}

// Parameters computes the knapsack instance for winner c with final score z.
// It reports false when c cannot be the weakest winner at score z.
func Parameters(k, r, l int, c core.Candidate, z int, scores bloc.ScoreMap) (*Params, bool) {
	order := bloc.StrengthOrder(scores)

	var plus []core.Candidate
	for _, can := range order {
		if s := scores[can]; s > z || (s == z && Beats(can, c)) {
			plus = append(plus, can)
		}
	}
	if len(plus) >= k {
		return nil, false
	}

	shift := z - scores[c]
	if shift < 0 || shift > r {
		return nil, false
	}

	var star []core.Candidate
	for _, can := range order {
		if can == c || slices.Contains(plus, can) {
			continue
		}
		if s := scores[can]; s > z-r || (s == z-r && Beats(can, c)) {
			star = append(star, can)
		}
	}

	kStar := k - len(plus) - 1
	if len(star) < kStar {
		return nil, false
	}

	return &Params{
		KStar: kStar,
		SStar: r*l - shift,
		Shift: shift,
		CStar: star,
		CPlus: plus,
	}, true
}

// Weights returns, for each member of cStar, the approvals it needs to beat c
// at score z.
func Weights(scores bloc.ScoreMap, z int, c core.Candidate, cStar []core.Candidate) []int {
	w := make([]int, len(cStar))
	for i, can := range cStar {
		w[i] = z - scores[can]
		if Beats(c, can) {
			w[i]++
		}
	}
	return w
}

// UpperBound returns the sum of the k largest profits.
func UpperBound(k int, profits []int) int {
	sorted := slices.Clone(profits)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	total := 0
	for _, p := range sorted[:min(k, len(sorted))] {
		total += p
	}
	return total
}

// ExactK solves the exact k-item knapsack problem: choose exactly k items with
// total weight at most capacity and maximal total profit. It returns the
// chosen item indices in ascending order, or false when no k items fit.
func ExactK(weights, profits []int, k, capacity int) ([]int, bool) {
	n := len(weights)
	if k < 0 || k > n || capacity < 0 {
		return nil, false
	}
	if k == 0 {
		return []int{}, true
	}

	u := UpperBound(k, profits)
	const inf = math.MaxInt

	// y[q][j] is the least weight reaching profit exactly q with j items.
	y := make([][]int, u+1)
	for q := range y {
		y[q] = make([]int, k+1)
		for j := range y[q] {
			y[q][j] = inf
		}
	}
	y[0][0] = 0

	take := make([][][]bool, n)
	for i := range n {
		take[i] = make([][]bool, u+1)
		for q := range take[i] {
			take[i][q] = make([]bool, k+1)
		}
		p, w := profits[i], weights[i]
		for j := min(k, i+1); j >= 1; j-- {
			for q := u; q >= p; q-- {
				prev := y[q-p][j-1]
				if prev == inf || prev+w > capacity {
					continue
				}
				if prev+w < y[q][j] {
					y[q][j] = prev + w
					take[i][q][j] = true
				}
			}
		}
	}

	for q := u; q >= 0; q-- {
		if y[q][k] > capacity {
			continue
		}
		chosen := make([]int, 0, k)
		j := k
		for i := n - 1; i >= 0 && j > 0; i-- {
			if take[i][q][j] {
				chosen = append(chosen, i)
				q -= profits[i]
				j--
			}
		}
		slices.Reverse(chosen)
		return chosen, true
	}
	return nil, false
}

// Unplaceable returns how many of the r*l manipulative approvals cannot be
// placed without changing the winners once c received shift approvals and
// every chosen knapsack item received its weight. Candidates in C+ and those
// too weak to reach c absorb up to r approvals (others counts them), chosen
// items absorb up to r, and unchosen members of C* stay one approval short of
// their weight. A positive result means the iteration is invalid.
func Unplaceable(r, l, shift int, weights, chosen []int, others int) int {
	capacity := shift + r*len(chosen) + r*others
	for i, w := range weights {
		if !slices.Contains(chosen, i) {
			capacity += w - 1
		}
	}
	return r*l - capacity
}

// ManipulatedWinners returns the winning group C+ ∪ {c} ∪ chosen in strength
// order of the manipulated scores.
func ManipulatedWinners(params *Params, c core.Candidate, z int, scores bloc.ScoreMap, chosen []core.Candidate) []core.Candidate {
	approvals := MinimalApprovals(params, c, scores, z, chosen)
	merged := bloc.MergeScores(scores, approvals)
	winners := append(slices.Clone(params.CPlus), c)
	winners = append(winners, chosen...)
	pos := bloc.Position(bloc.StrengthOrder(merged))
	slices.SortFunc(winners, func(a, b core.Candidate) int {
		return pos[a] - pos[b]
	})
	return winners
}

// MinimalApprovals returns the least approvals per candidate that realize the
// iteration: c is lifted to z and every chosen candidate overtakes c.
func MinimalApprovals(params *Params, c core.Candidate, scores bloc.ScoreMap, z int, chosen []core.Candidate) map[core.Candidate]int {
	approvals := make(map[core.Candidate]int, len(chosen)+1)
	if params.Shift > 0 {
		approvals[c] = params.Shift
	}
	w := Weights(scores, z, c, chosen)
	for i, can := range chosen {
		approvals[can] = w[i]
	}
	return approvals
}
