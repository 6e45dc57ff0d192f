package manipulation

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/utility"
)

// Request names a strategy and evaluator to apply to a full profile. The
// manipulators' own ballots are still part of Profile; Problem removes them.
type Request struct {
	Dataset   string
	Strategy  string
	Evaluator string
	L         int
	K         int
	Profile   *core.Profile
	Utilities *core.Utilities
}

// Problem resolves the evaluator and drops the manipulators' ballots.
func (r *Request) Problem() (*Problem, error) {
	eval, err := bloc.EvaluatorByName(r.Evaluator)
	if err != nil {
		return nil, err
	}
	if r.Profile == nil || r.Utilities == nil {
		return nil, fmt.Errorf("%w: profile and utilities are required", ErrInvalidProblem)
	}
	p := &Problem{
		L:         r.L,
		K:         r.K,
		Profile:   utility.NonManipulative(r.Profile, r.Utilities),
		Utilities: r.Utilities,
		Evaluate:  eval,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ID hashes everything that determines the result, so equal requests share a
// cache entry. The dataset name is not part of it.
func (r *Request) ID() core.ID {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%d|%d\n", strings.ToLower(r.Strategy), strings.ToLower(r.Evaluator), r.L, r.K)
	if r.Utilities != nil {
		writeInts(&sb, r.Utilities.Manipulators)
		for _, vec := range r.Utilities.Values {
			writeInts(&sb, vec)
		}
	}
	if r.Profile != nil {
		for _, c := range r.Profile.CandidateList() {
			sb.WriteString(strconv.Itoa(int(c)))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
		// Raw ranks, not their order: approval is rank <= l, so a gap in the
		// ranks changes the scores.
		for _, b := range r.Profile.Ballots {
			for _, c := range slices.Sorted(maps.Keys(b)) {
				fmt.Fprintf(&sb, "%d:%d ", c, b[c])
			}
			sb.WriteByte('\n')
		}
	}
	return core.IDFromContent(sb.String())
}

func writeInts(sb *strings.Builder, xs []int) {
	for _, x := range xs {
		sb.WriteString(strconv.Itoa(x))
		sb.WriteByte(',')
	}
	sb.WriteByte('\n')
}
