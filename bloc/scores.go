package bloc

import (
	"cmp"
	"maps"
	"slices"

	"github.com/poiesic/maniplib/core"
)

// ScoreMap maps each candidate to its number of approvals.
type ScoreMap map[core.Candidate]int

// Clone returns an independent copy of the score map.
func (s ScoreMap) Clone() ScoreMap {
	return maps.Clone(s)
}

// Min returns the lowest score, or 0 for an empty map.
func (s ScoreMap) Min() int {
	if len(s) == 0 {
		return 0
	}
	return slices.Min(slices.Collect(maps.Values(s)))
}

// Max returns the highest score, or 0 for an empty map.
func (s ScoreMap) Max() int {
	if len(s) == 0 {
		return 0
	}
	return slices.Max(slices.Collect(maps.Values(s)))
}

// Scores computes the l-Bloc score of every candidate in the profile.
// A voter approves each candidate it ranks at rank l or better; candidates
// that no voter ranks score zero.
func Scores(l int, profile *core.Profile) ScoreMap {
	scores := make(ScoreMap, profile.NumCandidates())
	for c := range profile.Candidates {
		scores[c] = 0
	}
	for _, ballot := range profile.Ballots {
		for c, rank := range ballot {
			if rank <= l {
				scores[c]++
			}
		}
	}
	return scores
}

// StrengthOrder sorts candidates by score, strongest first. Equal scores are
// ordered by ascending candidate index.
func StrengthOrder(scores ScoreMap) []core.Candidate {
	order := slices.Collect(maps.Keys(scores))
	slices.SortFunc(order, func(a, b core.Candidate) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order
}

// Winners returns the k strongest candidates.
func Winners(k int, scores ScoreMap) []core.Candidate {
	order := StrengthOrder(scores)
	return order[:min(k, len(order))]
}

// MergeScores adds manipulative approvals to sincere scores.
// An empty approval map returns the scores unchanged.
func MergeScores(scores ScoreMap, approvals map[core.Candidate]int) ScoreMap {
	if len(approvals) == 0 {
		return scores
	}
	merged := make(ScoreMap, len(scores))
	for c, s := range scores {
		merged[c] = s + approvals[c]
	}
	return merged
}

// Replaced counts the members of winners that are not among the first k
// candidates of the sincere strength order.
func Replaced(k int, winners, strength []core.Candidate) int {
	sincere := strength[:min(k, len(strength))]
	replaced := 0
	for _, c := range winners {
		if !slices.Contains(sincere, c) {
			replaced++
		}
	}
	return replaced
}

// Position returns a lookup from candidate to its index in order.
func Position(order []core.Candidate) map[core.Candidate]int {
	pos := make(map[core.Candidate]int, len(order))
	for i, c := range order {
		pos[c] = i
	}
	return pos
}
