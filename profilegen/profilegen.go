// Package profilegen generates synthetic strict preference profiles from
// statistical cultures: impartial culture, impartial anonymous culture, the
// Pólya-Eggenberger urn, single-peaked impartial culture and Mallows
// mixtures.
//
// Every generator draws from the *rand.Rand it is given, so a seeded source
// reproduces the same election. Results are preflib.Elections: distinct
// orders in order of first appearance with their counts.
package profilegen

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/preflib"
)

var (
	// ErrInvalidMixture is returned when Mallows mixture weights, dispersions
	// and reference orders disagree in length or the weights do not sum to 1.
	ErrInvalidMixture = errors.New("invalid mallows mixture")

	// ErrInvalidDispersion is returned for a Mallows φ outside [0, 1].
	ErrInvalidDispersion = errors.New("mallows dispersion must be in [0, 1]")
)

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// CandidateMap names candidates 1..m "Candidate i".
func CandidateMap(m int) map[core.Candidate]string {
	cands := make(map[core.Candidate]string, m)
	for i := 1; i <= m; i++ {
		cands[core.Candidate(i)] = "Candidate " + strconv.Itoa(i)
	}
	return cands
}

// ImpartialCulture draws n orders uniformly at random.
func ImpartialCulture(rng *rand.Rand, n int, cands map[core.Candidate]string) (*preflib.Election, error) {
	return Urn(rng, n, 0, cands)
}

// ImpartialAnonymousCulture draws n orders so that every anonymous profile is
// equally likely, which is the urn model with one replacement.
func ImpartialAnonymousCulture(rng *rand.Rand, n int, cands map[core.Candidate]string) (*preflib.Election, error) {
	return Urn(rng, n, 1, cands)
}

// Urn draws n orders from the urn model: the urn starts with one copy of each
// of the m! orders and every drawn order is returned with replace additional
// copies.
func Urn(rng *rand.Rand, n, replace int, cands map[core.Candidate]string) (*preflib.Election, error) {
	if err := checkSize(n, cands); err != nil {
		return nil, err
	}
	if replace < 0 {
		return nil, fmt.Errorf("%w: replace %d", core.ErrInvalidParameter, replace)
	}

	alts := sortedCandidates(cands)
	ic := math.Gamma(float64(len(alts)) + 1)
	set := newVoteSet(cands)

	var (
		drawn       [][]core.Candidate
		weights     []int
		replaceSize int
	)
	for range n {
		if replaceSize == 0 || math.IsInf(ic, 1) || rng.Float64()*(ic+float64(replaceSize)) < ic {
			order := icOrder(rng, alts)
			set.add(order)
			if replace > 0 {
				if i := indexOf(drawn, order); i >= 0 {
					weights[i] += replace
				} else {
					drawn = append(drawn, order)
					weights = append(weights, replace)
				}
				replaceSize += replace
			}
			continue
		}

		flip := rng.IntN(replaceSize)
		for i, w := range weights {
			flip -= w
			if flip < 0 {
				set.add(drawn[i])
				weights[i] += replace
				replaceSize += replace
				break
			}
		}
	}
	return set.election(), nil
}

// SinglePeakedImpartialCulture draws n orders uniformly among those that are
// single-peaked on the axis of ascending candidate indices.
func SinglePeakedImpartialCulture(rng *rand.Rand, n int, cands map[core.Candidate]string) (*preflib.Election, error) {
	if err := checkSize(n, cands); err != nil {
		return nil, err
	}
	alts := sortedCandidates(cands)
	set := newVoteSet(cands)
	for range n {
		set.add(singlePeakedOrder(rng, alts))
	}
	return set.election(), nil
}

// Mallows draws n orders from a mixture of Mallows models. Model i is chosen
// with probability mix[i] and perturbs refs[i] with dispersion phis[i]; φ = 0
// always returns the reference and φ = 1 is impartial culture.
func Mallows(rng *rand.Rand, n int, cands map[core.Candidate]string, mix, phis []float64, refs [][]core.Candidate) (*preflib.Election, error) {
	if err := checkSize(n, cands); err != nil {
		return nil, err
	}
	if len(mix) == 0 || len(mix) != len(phis) || len(phis) != len(refs) {
		return nil, fmt.Errorf("%w: %d weights, %d dispersions, %d references", ErrInvalidMixture, len(mix), len(phis), len(refs))
	}
	if math.Abs(sum(mix)-1) > 1e-5 {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrInvalidMixture, sum(mix))
	}

	m := len(cands)
	dists := make([][][]float64, len(phis))
	for i, phi := range phis {
		if phi < 0 || phi > 1 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDispersion, phi)
		}
		if len(refs[i]) != m {
			return nil, fmt.Errorf("%w: reference %d ranks %d of %d candidates", ErrInvalidMixture, i, len(refs[i]), m)
		}
		dists[i] = insertionDistributions(m, phi)
	}

	set := newVoteSet(cands)
	for range n {
		model := draw(rng, mix)
		order := make([]core.Candidate, 0, m)
		for i, c := range refs[model] {
			at := draw(rng, dists[model][i])
			order = slices.Insert(order, at, c)
		}
		set.add(order)
	}
	return set.election(), nil
}

// MallowsMix draws nref uniformly random reference orders with uniformly
// random dispersions and integer mixture weights in [1, 100], then samples
// n orders from the resulting mixture.
func MallowsMix(rng *rand.Rand, n int, cands map[core.Candidate]string, nref int) (*preflib.Election, error) {
	return mallowsMix(rng, n, cands, nref, func() float64 {
		return math.Round(rng.Float64()*1e5) / 1e5
	})
}

// MallowsMixPhi is MallowsMix with the same dispersion phi for every model.
func MallowsMixPhi(rng *rand.Rand, n int, cands map[core.Candidate]string, nref int, phi float64) (*preflib.Election, error) {
	return mallowsMix(rng, n, cands, nref, func() float64 { return phi })
}

func mallowsMix(rng *rand.Rand, n int, cands map[core.Candidate]string, nref int, phi func() float64) (*preflib.Election, error) {
	if nref < 1 {
		return nil, fmt.Errorf("%w: %d reference orders", ErrInvalidMixture, nref)
	}
	alts := sortedCandidates(cands)
	mix := make([]float64, nref)
	phis := make([]float64, nref)
	refs := make([][]core.Candidate, nref)
	for i := range nref {
		refs[i] = icOrder(rng, alts)
		phis[i] = phi()
		mix[i] = float64(rng.IntN(100) + 1)
	}
	total := sum(mix)
	for i := range mix {
		mix[i] /= total
	}
	return Mallows(rng, n, cands, mix, phis, refs)
}

// insertionDistributions returns, for every position i of the reference, the
// distribution of the slot the i-th reference candidate is inserted at:
// slot j of i+1 has weight φ^(i−j).
func insertionDistributions(m int, phi float64) [][]float64 {
	dists := make([][]float64, m)
	for i := range m {
		slots := i + 1
		denom := 0.0
		for k := range slots {
			denom += math.Pow(phi, float64(k))
		}
		dist := make([]float64, slots)
		for j := range slots {
			dist[j] = math.Pow(phi, float64(i-j)) / denom
		}
		dists[i] = dist
	}
	return dists
}

// draw returns an index sampled from distro. Rounding slack falls on the
// last index.
func draw(rng *rand.Rand, distro []float64) int {
	x := rng.Float64()
	for i, p := range distro {
		x -= p
		if x < 0 {
			return i
		}
	}
	return len(distro) - 1
}

func icOrder(rng *rand.Rand, alts []core.Candidate) []core.Candidate {
	order := slices.Clone(alts)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// singlePeakedOrder builds an order from the bottom up: the least preferred
// remaining candidate is one of the two ends of the remaining axis segment.
func singlePeakedOrder(rng *rand.Rand, alts []core.Candidate) []core.Candidate {
	order := make([]core.Candidate, len(alts))
	a, b := 0, len(alts)-1
	for pos := len(alts) - 1; pos >= 0; pos-- {
		if a == b || rng.IntN(2) == 0 {
			order[pos] = alts[b]
			b--
		} else {
			order[pos] = alts[a]
			a++
		}
	}
	return order
}

func checkSize(n int, cands map[core.Candidate]string) error {
	if n < 0 {
		return fmt.Errorf("%w: %d voters", core.ErrInvalidParameter, n)
	}
	if len(cands) == 0 {
		return core.ErrNoCandidates
	}
	return nil
}

func sortedCandidates(cands map[core.Candidate]string) []core.Candidate {
	return (&core.Profile{Candidates: cands}).CandidateList()
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func indexOf(orders [][]core.Candidate, order []core.Candidate) int {
	return slices.IndexFunc(orders, func(o []core.Candidate) bool { return slices.Equal(o, order) })
}

// voteSet counts distinct orders in order of first appearance.
type voteSet struct {
	cands  map[core.Candidate]string
	index  map[string]int
	orders []core.Ballot
	counts []int
}

func newVoteSet(cands map[core.Candidate]string) *voteSet {
	return &voteSet{cands: cands, index: make(map[string]int)}
}

func (s *voteSet) add(order []core.Candidate) {
	var sb strings.Builder
	for _, c := range order {
		sb.WriteString(strconv.Itoa(int(c)))
		sb.WriteByte(',')
	}
	key := sb.String()
	if i, ok := s.index[key]; ok {
		s.counts[i]++
		return
	}
	ballot := make(core.Ballot, len(order))
	for rank, c := range order {
		ballot[c] = rank + 1
	}
	s.index[key] = len(s.orders)
	s.orders = append(s.orders, ballot)
	s.counts = append(s.counts, 1)
}

func (s *voteSet) election() *preflib.Election {
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return &preflib.Election{Candidates: s.cands, Orders: s.orders, Counts: s.counts, NumVoters: n}
}
