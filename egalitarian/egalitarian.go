// Package egalitarian computes l-Bloc manipulations under the egalitarian
// evaluation, where manipulators may cast different ballots.
//
// For a threshold score z, candidates are grouped by type (utility vector) and
// by the number j of approvals they need to reach z. A solution chooses, per
// group, how many members become border candidates (j approvals, final score z)
// and how many are promoted (j+1 approvals, final score z+1). The counts must
// use at most l*r approvals, and every approval left over has to fit somewhere
// without creating new winners. The integer program is solved exactly by
// dynamic programming over the groups.
package egalitarian

import (
	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
)

// Selection is the outcome for one (type, j) group.
type Selection struct {
	// Type is the index of the group's type in the TypeSet.
	Type int
	// J is the number of approvals a member needs to reach z.
	J int
	// Members lists the group's candidates in ascending index order.
	Members []core.Candidate
	// Border is the number of members lifted to exactly z.
	Border int
	// Promoted is the number of members lifted to z+1.
	Promoted int
}

// Group returns the candidates of type typ whose sincere score is z-j.
func Group(typ, j, z int, scores bloc.ScoreMap, types *bloc.TypeSet) []core.Candidate {
	var g []core.Candidate
	for _, c := range types.Members(typ) {
		if scores[c] == z-j {
			g = append(g, c)
		}
	}
	return g
}

// Approvals converts group selections into approvals per candidate. The first
// Promoted members of a group get J+1 approvals, the next Border members get J.
// Candidates without approvals are omitted.
func Approvals(selections []Selection) map[core.Candidate]int {
	out := make(map[core.Candidate]int)
	for _, s := range selections {
		for i, c := range s.Members[:s.Promoted+s.Border] {
			a := s.J
			if i < s.Promoted {
				a++
			}
			if a > 0 {
				out[c] = a
			}
		}
	}
	return out
}

// SolveOptimistic finds approvals that make exactly p candidates promoted and b
// candidates border for threshold z. It reports false when no distribution of
// the l*r approvals satisfies the constraints.
func SolveOptimistic(z, p, b, r, l int, types *bloc.TypeSet, scores bloc.ScoreMap) (map[core.Candidate]int, bool) {
	sel, ok := newSolver(z, p, r, l, types, scores).solve(b)
	if !ok {
		return nil, false
	}
	return Approvals(sel), true
}

type step struct {
	prev, x, y int
}

// solver holds the dynamic program for a fixed z and p. States are
// (border count, promoted count, spent approvals) and map to the largest
// number of leftover approvals the groups can absorb.
type solver struct {
	r, p, spend int
	bMax        int
	safe        int
	groups      []Selection
	absorb      [][]int
	from        [][]step
}

func newSolver(z, p, r, l int, types *bloc.TypeSet, scores bloc.ScoreMap) *solver {
	s := &solver{r: r, p: p, spend: l * r}

	outside := 0
	for _, sc := range scores {
		if sc > z || sc < z-r {
			outside++
		}
	}
	s.safe = r * outside

	for t := range types.Len() {
		for j := 0; j <= r; j++ {
			if g := Group(t, j, z, scores, types); len(g) > 0 {
				s.groups = append(s.groups, Selection{Type: t, J: j, Members: g})
				s.bMax += len(g)
			}
		}
	}

	s.run()
	return s
}

func (s *solver) width() int {
	return (s.bMax + 1) * (s.p + 1) * (s.spend + 1)
}

func (s *solver) index(b, p, o int) int {
	return (b*(s.p+1)+p)*(s.spend+1) + o
}

func (s *solver) decode(i int) (b, p, o int) {
	o = i % (s.spend + 1)
	i /= s.spend + 1
	return i / (s.p + 1), i % (s.p + 1), o
}

func (s *solver) run() {
	layer := make([]int, s.width())
	for i := range layer {
		layer[i] = -1
	}
	layer[s.index(0, 0, 0)] = 0
	s.absorb = [][]int{layer}
	s.from = [][]step{nil}

	for _, g := range s.groups {
		n, j := len(g.Members), g.J
		next := make([]int, len(layer))
		for i := range next {
			next[i] = -1
		}
		from := make([]step, len(layer))

		for st, absorbed := range layer {
			if absorbed < 0 {
				continue
			}
			b, p, o := s.decode(st)
			for x := 0; x <= n; x++ {
				for y := 0; x+y <= n; y++ {
					if j == 0 && x+y != n {
						continue
					}
					if j == s.r && y > 0 {
						break
					}
					nb, np, no := b+x, p+y, o+j*x+(j+1)*y
					if nb > s.bMax || np > s.p || no > s.spend {
						continue
					}
					na := absorbed + max(j-1, 0)*(n-x-y) + max(s.r-j-1, 0)*y
					ns := s.index(nb, np, no)
					if na > next[ns] {
						next[ns] = na
						from[ns] = step{prev: st, x: x, y: y}
					}
				}
			}
		}

		layer = next
		s.absorb = append(s.absorb, next)
		s.from = append(s.from, from)
	}
}

// feasible reports whether spending o approvals on b border and p promoted
// candidates leaves a remainder the other candidates can absorb.
func (s *solver) feasible(b, o int) bool {
	if b > s.bMax {
		return false
	}
	absorbed := s.absorb[len(s.absorb)-1][s.index(b, s.p, o)]
	return absorbed >= 0 && s.spend-o <= s.safe+absorbed
}

func (s *solver) solve(b int) ([]Selection, bool) {
	for o := 0; o <= s.spend; o++ {
		if s.feasible(b, o) {
			return s.backtrack(b, o), true
		}
	}
	return nil, false
}

// solutions returns one selection per feasible spend level, cheapest first.
func (s *solver) solutions(b int) [][]Selection {
	var out [][]Selection
	for o := 0; o <= s.spend; o++ {
		if s.feasible(b, o) {
			out = append(out, s.backtrack(b, o))
		}
	}
	return out
}

func (s *solver) backtrack(b, o int) []Selection {
	sel := make([]Selection, len(s.groups))
	copy(sel, s.groups)
	st := s.index(b, s.p, o)
	for g := len(s.groups); g > 0; g-- {
		f := s.from[g][st]
		sel[g-1].Border = f.x
		sel[g-1].Promoted = f.y
		st = f.prev
	}
	return sel
}
