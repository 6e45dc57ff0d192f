// Package singlepeak decides whether a profile of strict orders is
// single-peaked and finds a compatible axis.
//
// The axis search follows Escoffier, Lang and Öztürk: candidates ranked last
// by some voter must sit at the ends of the axis, so the axis is built from
// the outside in by repeatedly placing the set of last-ranked candidates and
// removing them from every order. Runs in O(n·m²) for n orders over m
// candidates.
package singlepeak

import (
	"errors"
	"slices"

	"github.com/poiesic/maniplib/core"
)

// ErrNotStrict is returned when a ballot does not rank every candidate
// without ties.
var ErrNotStrict = errors.New("single-peakedness requires strict complete orders")

// Orders converts the ballots of a strict profile into orders, most preferred
// candidate first.
func Orders(profile *core.Profile) ([][]core.Candidate, error) {
	m := profile.NumCandidates()
	orders := make([][]core.Candidate, 0, len(profile.Ballots))
	for _, b := range profile.Ballots {
		if !b.IsStrict(m) {
			return nil, ErrNotStrict
		}
		order := make([]core.Candidate, 0, m)
		for _, group := range b.Order() {
			order = append(order, group...)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Axis returns an axis the profile is single-peaked on, or nil if there is
// none.
func Axis(profile *core.Profile) ([]core.Candidate, error) {
	orders, err := Orders(profile)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return profile.CandidateList(), nil
	}
	return FindAxis(orders), nil
}

// FindAxis is Axis on orders that are already known to be strict and complete.
func FindAxis(orders [][]core.Candidate) []core.Candidate {
	s := newSearch(orders)

	last := s.lastSet()
	for len(last) == 1 {
		s.placeBalanced(last[0])
		last = s.lastSet()
	}
	switch len(last) {
	case 0:
		return s.finish()
	case 2:
		s.left = append(s.left, last[0])
		s.right = slices.Insert(s.right, 0, last[1])
		s.placed[last[0]], s.placed[last[1]] = true, true
	default:
		return nil
	}

	for {
		last = s.lastSet()
		switch len(last) {
		case 0:
			return s.finish()
		case 1:
			s.placeSingle(last[0])
		case 2:
			axis, done := s.placePair(last[0], last[1])
			if done {
				return axis
			}
			if s.left == nil {
				return nil
			}
		default:
			return nil
		}
	}
}

// VerifyAxis reports whether every order is single-peaked on axis: walking
// down an order from its peak, each candidate extends the interval of
// already visited candidates by one position.
func VerifyAxis(axis []core.Candidate, orders [][]core.Candidate) bool {
	if len(orders) == 0 {
		return len(axis) > 0
	}
	pos := make(map[core.Candidate]int, len(axis))
	for i, c := range axis {
		pos[c] = i
	}
	for _, order := range orders {
		if len(order) != len(axis) {
			return false
		}
		lo, ok := pos[order[0]]
		if !ok {
			return false
		}
		hi := lo
		for _, c := range order[1:] {
			p, ok := pos[c]
			switch {
			case !ok:
				return false
			case p == lo-1:
				lo = p
			case p == hi+1:
				hi = p
			default:
				return false
			}
		}
	}
	return true
}

type search struct {
	orders    [][]core.Candidate
	positions []map[core.Candidate]int
	placed    map[core.Candidate]bool
	left      []core.Candidate
	right     []core.Candidate
}

func newSearch(orders [][]core.Candidate) *search {
	s := &search{
		orders:    orders,
		positions: make([]map[core.Candidate]int, len(orders)),
		placed:    make(map[core.Candidate]bool),
	}
	for i, o := range orders {
		s.positions[i] = make(map[core.Candidate]int, len(o))
		for j, c := range o {
			s.positions[i][c] = j
		}
	}
	return s
}

// lastSet returns the distinct candidates ranked last among the unplaced ones,
// in ascending order.
func (s *search) lastSet() []core.Candidate {
	var last []core.Candidate
	for _, o := range s.orders {
		for i := len(o) - 1; i >= 0; i-- {
			if s.placed[o[i]] {
				continue
			}
			if !slices.Contains(last, o[i]) {
				last = append(last, o[i])
			}
			break
		}
	}
	slices.Sort(last)
	return last
}

func (s *search) placeBalanced(c core.Candidate) {
	if len(s.left) < len(s.right) {
		s.left = append(s.left, c)
	} else {
		s.right = slices.Insert(s.right, 0, c)
	}
	s.placed[c] = true
}

// placeSingle places the only last-ranked candidate x next to whichever end
// some voter ranks it between.
func (s *search) placeSingle(x core.Candidate) {
	xi, xj := s.left[len(s.left)-1], s.right[0]
	toLeft, toRight := false, false
	for _, pos := range s.positions {
		if pos[xj] < pos[x] && pos[x] < pos[xi] {
			toLeft = true
			break
		}
	}
	if !toLeft {
		for _, pos := range s.positions {
			if pos[xi] < pos[x] && pos[x] < pos[xj] {
				toRight = true
				break
			}
		}
	}
	switch {
	case toLeft:
		s.left = append(s.left, x)
		s.placed[x] = true
	case toRight:
		s.right = slices.Insert(s.right, 0, x)
		s.placed[x] = true
	default:
		s.placeBalanced(x)
	}
}

// placePair places two last-ranked candidates at the inner ends. A voter that
// ranks both between the two inner ends fixes the rest of the axis; it is
// returned with done set. A contradiction clears left and returns done unset.
func (s *search) placePair(x, y core.Candidate) ([]core.Candidate, bool) {
	xi, xj := s.left[len(s.left)-1], s.right[0]
	xLeft, yLeft := false, false

	for n, pos := range s.positions {
		lo, hi := min(pos[x], pos[y]), max(pos[x], pos[y])
		switch {
		case pos[xj] < lo && hi < pos[xi]:
			middle := s.remaining(s.orders[n])
			slices.Reverse(middle)
			return s.closeWith(middle), true
		case pos[xi] < lo && hi < pos[xj]:
			return s.closeWith(s.remaining(s.orders[n])), true
		}

		if (pos[xi] > pos[x] && pos[x] > pos[xj] && pos[xj] > pos[y]) ||
			(pos[xj] > pos[y] && pos[y] > pos[xi] && pos[xi] > pos[x]) {
			xLeft = true
		}
		if (pos[xj] > pos[x] && pos[x] > pos[xi] && pos[xi] > pos[y]) ||
			(pos[xi] > pos[y] && pos[y] > pos[xj] && pos[xj] > pos[x]) {
			yLeft = true
		}
		if xLeft && yLeft {
			s.left = nil
			return nil, false
		}
	}

	if xLeft {
		s.left = append(s.left, x)
		s.right = slices.Insert(s.right, 0, y)
	} else {
		s.left = append(s.left, y)
		s.right = slices.Insert(s.right, 0, x)
	}
	s.placed[x], s.placed[y] = true, true
	return nil, false
}

func (s *search) remaining(order []core.Candidate) []core.Candidate {
	var rest []core.Candidate
	for _, c := range order {
		if !s.placed[c] {
			rest = append(rest, c)
		}
	}
	return rest
}

func (s *search) closeWith(middle []core.Candidate) []core.Candidate {
	axis := slices.Concat(s.left, middle, s.right)
	if VerifyAxis(axis, s.orders) {
		return axis
	}
	return nil
}

func (s *search) finish() []core.Candidate {
	return s.closeWith(nil)
}
