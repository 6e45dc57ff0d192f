// Package utility derives manipulator utilities from a preference profile.
//
// A coalition of r voters is selected from the profile (the first r voters, or
// a random sample) and their ballots are turned into Borda-style utilities:
// a candidate ranked at position p receives maxRank-p+1, where maxRank is the
// largest rank used anywhere in the profile. Unranked candidates receive 0.
package utility

import (
	"fmt"
	"math/rand/v2"

	"github.com/poiesic/maniplib/core"
)

// Borda selects the first r voters as manipulators.
func Borda(profile *core.Profile, r int) (*core.Utilities, error) {
	if err := checkCoalition(profile, r); err != nil {
		return nil, err
	}
	voters := make([]int, r)
	for i := range voters {
		voters[i] = i
	}
	return fromVoters(profile, voters, 0), nil
}

// BordaRandom selects r distinct voters uniformly at random.
func BordaRandom(profile *core.Profile, r int, rng *rand.Rand) (*core.Utilities, error) {
	if err := checkCoalition(profile, r); err != nil {
		return nil, err
	}
	return fromVoters(profile, sample(rng, profile.NumVoters(), r), 0), nil
}

// BordaRandomDiff selects r random voters and limits utilities to udiff
// distinct values: every candidate ranked at udiff or worse gets utility 0.
func BordaRandomDiff(profile *core.Profile, r, udiff int, rng *rand.Rand) (*core.Utilities, error) {
	if err := checkCoalition(profile, r); err != nil {
		return nil, err
	}
	if udiff < 1 || udiff > profile.NumCandidates() {
		return nil, fmt.Errorf("%w: udiff must be between 1 and %d, got %d",
			core.ErrInvalidParameter, profile.NumCandidates(), udiff)
	}
	return fromVoters(profile, sample(rng, profile.NumVoters(), r), udiff), nil
}

// NonManipulative returns the profile without the manipulators' ballots.
func NonManipulative(profile *core.Profile, u *core.Utilities) *core.Profile {
	return profile.Without(u.Manipulators)
}

func checkCoalition(profile *core.Profile, r int) error {
	if r < 1 {
		return core.ErrNoManipulators
	}
	if r > profile.NumVoters() {
		return fmt.Errorf("%w: %d manipulators, %d voters", core.ErrTooManyManipulators, r, profile.NumVoters())
	}
	return nil
}

// fromVoters builds the utility matrix for the given voters. A positive udiff
// zeroes the utility of candidates ranked at udiff or worse.
func fromVoters(profile *core.Profile, voters []int, udiff int) *core.Utilities {
	m := profile.NumCandidates()
	maxRank := profile.MaxRank()

	values := make([][]int, m)
	for c := range values {
		values[c] = make([]int, len(voters))
	}
	for i, v := range voters {
		for c, rank := range profile.Ballots[v] {
			if udiff > 0 && rank >= udiff {
				continue
			}
			values[int(c)-1][i] = maxRank - rank + 1
		}
	}

	return &core.Utilities{Manipulators: voters, Values: values}
}

// sample draws r distinct indices from [0, n) in random order.
func sample(rng *rand.Rand, n, r int) []int {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	perm := rng.Perm(n)
	return perm[:r]
}
