package bloc

import (
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/maniplib/core"
)

// TypeSet groups candidates by their utility vector. Two candidates share a
// type when every manipulator assigns them the same utility.
type TypeSet struct {
	// Vectors holds one utility vector per type in order of first appearance.
	Vectors [][]int
	// Counts holds the number of candidates of each type.
	Counts []int
	// Of maps a candidate (Of[c-1]) to its type index.
	Of []int
}

// Types computes the candidate types of a utility matrix.
func Types(u *core.Utilities) *TypeSet {
	ts := &TypeSet{Of: make([]int, u.NumCandidates())}
	index := make(map[string]int)
	for i, vec := range u.Values {
		key := typeKey(vec)
		t, ok := index[key]
		if !ok {
			t = len(ts.Vectors)
			index[key] = t
			ts.Vectors = append(ts.Vectors, slices.Clone(vec))
			ts.Counts = append(ts.Counts, 0)
		}
		ts.Counts[t]++
		ts.Of[i] = t
	}
	return ts
}

// Len returns the number of distinct types.
func (ts *TypeSet) Len() int {
	return len(ts.Vectors)
}

// Members returns the candidates of type t in ascending index order.
func (ts *TypeSet) Members(t int) []core.Candidate {
	var members []core.Candidate
	for i, typ := range ts.Of {
		if typ == t {
			members = append(members, core.Candidate(i+1))
		}
	}
	return members
}

func typeKey(vec []int) string {
	var sb strings.Builder
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}
