package profilegen

import (
	"slices"
	"testing"

	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/preflib"
	"github.com/poiesic/maniplib/singlepeak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersOf(t *testing.T, e *preflib.Election) [][]core.Candidate {
	t.Helper()
	orders, err := singlepeak.Orders(e.Profile())
	require.NoError(t, err)
	return orders
}

func TestCandidateMap(t *testing.T) {
	cands := CandidateMap(3)
	assert.Equal(t, map[core.Candidate]string{
		1: "Candidate 1",
		2: "Candidate 2",
		3: "Candidate 3",
	}, cands)
}

func TestImpartialCulture(t *testing.T) {
	cands := CandidateMap(4)
	e, err := ImpartialCulture(NewRand(1), 50, cands)
	require.NoError(t, err)

	assert.Equal(t, 50, e.NumVoters)
	assert.Len(t, e.Profile().Ballots, 50)
	for _, o := range e.Orders {
		assert.True(t, o.IsStrict(4))
	}
	assert.NoError(t, core.ValidateProfile(e.Profile()))
}

func TestGeneratorsAreDeterministic(t *testing.T) {
	cands := CandidateMap(5)
	a, err := ImpartialAnonymousCulture(NewRand(42), 30, cands)
	require.NoError(t, err)
	b, err := ImpartialAnonymousCulture(NewRand(42), 30, cands)
	require.NoError(t, err)
	assert.Equal(t, a.Orders, b.Orders)
	assert.Equal(t, a.Counts, b.Counts)
}

func TestUrn_LargeReplacementConcentrates(t *testing.T) {
	// With 10^6 copies added per draw, later draws are almost surely repeats.
	e, err := Urn(NewRand(7), 20, 1_000_000, CandidateMap(6))
	require.NoError(t, err)
	assert.Equal(t, 20, e.NumVoters)
	assert.Less(t, len(e.Orders), 5)
}

func TestUrn_InvalidParameters(t *testing.T) {
	_, err := Urn(NewRand(1), 5, -1, CandidateMap(3))
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = Urn(NewRand(1), -1, 0, CandidateMap(3))
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = Urn(NewRand(1), 5, 0, CandidateMap(0))
	assert.ErrorIs(t, err, core.ErrNoCandidates)
}

func TestSinglePeakedImpartialCulture(t *testing.T) {
	cands := CandidateMap(6)
	e, err := SinglePeakedImpartialCulture(NewRand(3), 100, cands)
	require.NoError(t, err)

	orders := ordersOf(t, e)
	axis := []core.Candidate{1, 2, 3, 4, 5, 6}
	assert.True(t, singlepeak.VerifyAxis(axis, orders))
}

func TestMallows_ZeroDispersionReturnsReference(t *testing.T) {
	ref := []core.Candidate{3, 1, 4, 2}
	e, err := Mallows(NewRand(9), 10, CandidateMap(4), []float64{1}, []float64{0}, [][]core.Candidate{ref})
	require.NoError(t, err)

	require.Len(t, e.Orders, 1)
	assert.Equal(t, []int{10}, e.Counts)
	assert.Equal(t, core.Ballot{3: 1, 1: 2, 4: 3, 2: 4}, e.Orders[0])
}

func TestMallows_Validation(t *testing.T) {
	cands := CandidateMap(3)
	ref := []core.Candidate{1, 2, 3}

	_, err := Mallows(NewRand(1), 5, cands, []float64{0.5}, []float64{0.5}, [][]core.Candidate{ref})
	assert.ErrorIs(t, err, ErrInvalidMixture)

	_, err = Mallows(NewRand(1), 5, cands, []float64{1}, []float64{0.5, 0.5}, [][]core.Candidate{ref})
	assert.ErrorIs(t, err, ErrInvalidMixture)

	_, err = Mallows(NewRand(1), 5, cands, []float64{1}, []float64{1.5}, [][]core.Candidate{ref})
	assert.ErrorIs(t, err, ErrInvalidDispersion)

	_, err = Mallows(NewRand(1), 5, cands, []float64{1}, []float64{0.5}, [][]core.Candidate{{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidMixture)
}

func TestMallowsMix(t *testing.T) {
	e, err := MallowsMix(NewRand(11), 40, CandidateMap(5), 3)
	require.NoError(t, err)
	assert.Equal(t, 40, e.NumVoters)
	assert.NoError(t, core.ValidateProfile(e.Profile()))

	e, err = MallowsMixPhi(NewRand(11), 40, CandidateMap(5), 2, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(e.Orders), 2)

	_, err = MallowsMix(NewRand(11), 40, CandidateMap(5), 0)
	assert.ErrorIs(t, err, ErrInvalidMixture)
}

func TestInsertionDistributions(t *testing.T) {
	dists := insertionDistributions(4, 0.5)
	require.Len(t, dists, 4)
	for i, d := range dists {
		assert.Len(t, d, i+1)
		assert.InDelta(t, 1.0, sum(d), 1e-9)
		// The last slot keeps the reference order and is the most likely.
		assert.Equal(t, slices.Max(d), d[len(d)-1])
	}
}

func TestDraw(t *testing.T) {
	rng := NewRand(5)
	for range 100 {
		assert.Equal(t, 2, draw(rng, []float64{0, 0, 1}))
	}
}

func TestGenerate(t *testing.T) {
	phi := 0.0
	for _, culture := range Cultures {
		t.Run(culture, func(t *testing.T) {
			e, err := Generate(NewRand(1), Params{Culture: culture, Candidates: 4, Voters: 12, Replace: 2, Phi: &phi})
			require.NoError(t, err)
			assert.Equal(t, 12, e.NumVoters)
			assert.NoError(t, core.ValidateProfile(e.Profile()))
		})
	}

	_, err := Generate(NewRand(1), Params{Culture: "plurality", Candidates: 3, Voters: 3})
	assert.ErrorIs(t, err, ErrUnknownCulture)
}

func TestParamsString(t *testing.T) {
	phi := 0.25
	assert.Equal(t, "ic-m5-n10", Params{Culture: "IC", Candidates: 5, Voters: 10}.String())
	assert.Equal(t, "urn-m3-n7-r2", Params{Culture: "urn", Candidates: 3, Voters: 7, Replace: 2}.String())
	assert.Equal(t, "mallows-m4-n9-refs1-phi0.25", Params{Culture: "mallows", Candidates: 4, Voters: 9, Phi: &phi}.String())
}
