package core

import (
	"encoding/binary"
	"maps"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Candidate is a 1-based candidate index as used by PrefLib data files.
type Candidate int

// Ballot maps candidates to their rank in a single voter's preference.
// Rank 1 is the most preferred; tied candidates share a rank.
// Candidates missing from the map are unranked.
type Ballot map[Candidate]int

// MaxRank returns the largest rank used in the ballot, or 0 for an empty ballot.
func (b Ballot) MaxRank() int {
	highest := 0
	for _, rank := range b {
		if rank > highest {
			highest = rank
		}
	}
	return highest
}

// Order returns the ranked candidates grouped by rank, most preferred first.
// Candidates inside a tied group are sorted by index.
func (b Ballot) Order() [][]Candidate {
	groups := make([][]Candidate, b.MaxRank())
	for c, rank := range b {
		if rank < 1 {
			continue
		}
		groups[rank-1] = append(groups[rank-1], c)
	}
	order := groups[:0]
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		slices.Sort(g)
		order = append(order, g)
	}
	return order
}

// IsStrict reports whether the ballot ranks exactly n candidates without ties.
func (b Ballot) IsStrict(n int) bool {
	if len(b) != n {
		return false
	}
	seen := make(map[int]bool, len(b))
	for _, rank := range b {
		if seen[rank] {
			return false
		}
		seen[rank] = true
	}
	return true
}

// Profile is an election: the candidate names and one ballot per voter.
// Duplicate ballots are stored once per voter that cast them.
type Profile struct {
	Candidates map[Candidate]string
	Ballots    []Ballot
}

// NumCandidates returns the number of candidates in the profile.
func (p *Profile) NumCandidates() int {
	return len(p.Candidates)
}

// NumVoters returns the number of ballots in the profile.
func (p *Profile) NumVoters() int {
	return len(p.Ballots)
}

// CandidateList returns the candidate indices in ascending order.
func (p *Profile) CandidateList() []Candidate {
	return slices.Sorted(maps.Keys(p.Candidates))
}

// MaxRank returns the largest rank used by any ballot.
func (p *Profile) MaxRank() int {
	highest := 0
	for _, b := range p.Ballots {
		if r := b.MaxRank(); r > highest {
			highest = r
		}
	}
	return highest
}

// Without returns a profile that shares the candidate map but drops the
// ballots of the given voters. Voter indices refer to positions in Ballots.
func (p *Profile) Without(voters []int) *Profile {
	drop := make(map[int]bool, len(voters))
	for _, v := range voters {
		drop[v] = true
	}
	ballots := make([]Ballot, 0, len(p.Ballots))
	for i, b := range p.Ballots {
		if !drop[i] {
			ballots = append(ballots, b)
		}
	}
	return &Profile{Candidates: p.Candidates, Ballots: ballots}
}

// Names maps candidate indices to names, falling back to the empty string for
// unknown candidates.
func (p *Profile) Names(cs []Candidate) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = p.Candidates[c]
	}
	return names
}

// Utilities holds the manipulators' utility for every candidate.
// Values[c-1][i] is the utility manipulator i assigns to candidate c.
type Utilities struct {
	// Manipulators are the voter indices (positions in the original profile)
	// of the coalition, in selection order.
	Manipulators []int
	Values       [][]int
}

// NumManipulators returns the coalition size r.
func (u *Utilities) NumManipulators() int {
	return len(u.Manipulators)
}

// NumCandidates returns the number of candidates covered by the utilities.
func (u *Utilities) NumCandidates() int {
	return len(u.Values)
}

// Of returns the utility vector of a candidate.
func (u *Utilities) Of(c Candidate) []int {
	return u.Values[int(c)-1]
}

// Manipulation is the outcome of a manipulation search.
type Manipulation struct {
	// Support lists the candidates the manipulators approve. For consistent
	// manipulations this is the common l-approval ballot.
	Support []Candidate
	// Approvals holds the minimal number of manipulative approvals per
	// candidate, when the strategy distributes votes inconsistently.
	Approvals map[Candidate]int
	// Value is the evaluation of Winners under the chosen evaluator.
	Value int
	// Winners is the winning group after manipulation.
	Winners []Candidate
	// Replaced counts winners that were not winners without manipulation.
	Replaced int
	// Found is false when no manipulation improved on the sincere outcome and
	// the fields describe the sincere winners instead.
	Found bool
}

// ResultRecord is a persisted manipulation result.
type ResultRecord struct {
	Id         ID
	Strategy   string
	Evaluator  string
	Dataset    string
	L          int
	K          int
	R          int
	Result     Manipulation
	InsertedAt time.Time
}

// Dataset is a fetched election file, stored verbatim.
type Dataset struct {
	Id        ID
	URL       string
	Data      []byte
	FetchedAt time.Time
}

// Checkpoint records how many runs of an experiment have completed.
type Checkpoint struct {
	Experiment string
	Completed  int
	UpdatedAt  time.Time
}
