package bloc

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/maniplib/core"
)

// Evaluator scores a winning group from the manipulators' point of view.
type Evaluator func(winners []core.Candidate, u *core.Utilities) int

// Utilitarian sums every manipulator's utility over the winning group.
func Utilitarian(winners []core.Candidate, u *core.Utilities) int {
	total := 0
	for _, c := range winners {
		for _, v := range u.Of(c) {
			total += v
		}
	}
	return total
}

// CandidateEgalitarian sums, over the winning group, the utility of the
// manipulator least satisfied with each winner.
func CandidateEgalitarian(winners []core.Candidate, u *core.Utilities) int {
	total := 0
	for _, c := range winners {
		if vals := u.Of(c); len(vals) > 0 {
			total += slices.Min(vals)
		}
	}
	return total
}

// Egalitarian returns the total utility of the least satisfied manipulator.
func Egalitarian(winners []core.Candidate, u *core.Utilities) int {
	r := u.NumManipulators()
	if r == 0 {
		return 0
	}
	sums := make([]int, r)
	for _, c := range winners {
		for i, v := range u.Of(c) {
			sums[i] += v
		}
	}
	least := math.MaxInt
	for _, s := range sums {
		least = min(least, s)
	}
	return least
}

// Evaluator names accepted by EvaluatorByName.
const (
	UtilitarianName          = "utilitarian"
	CandidateEgalitarianName = "candegal"
	EgalitarianName          = "egalitarian"
)

// EvaluatorNames lists the registered evaluator names.
var EvaluatorNames = []string{UtilitarianName, CandidateEgalitarianName, EgalitarianName}

// EvaluatorByName resolves an evaluator from its name.
func EvaluatorByName(name string) (Evaluator, error) {
	switch strings.ToLower(name) {
	case UtilitarianName:
		return Utilitarian, nil
	case CandidateEgalitarianName, "candidate-egalitarian":
		return CandidateEgalitarian, nil
	case EgalitarianName:
		return Egalitarian, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownEvaluator, name, strings.Join(EvaluatorNames, ", "))
	}
}
