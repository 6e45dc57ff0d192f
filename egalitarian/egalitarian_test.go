package egalitarian

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/manipulation"
	"github.com/poiesic/maniplib/manipulation/manipulationtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProblem yields 1-Bloc scores c1=3, c2=2, c3=1, c4=0. Only candidate 2
// is worth anything to the two manipulators.
func testProblem() *manipulation.Problem {
	top1 := core.Ballot{1: 1, 2: 2, 3: 3, 4: 4}
	top2 := core.Ballot{2: 1, 1: 2, 3: 3, 4: 4}
	top3 := core.Ballot{3: 1, 1: 2, 2: 3, 4: 4}
	return &manipulation.Problem{
		L: 1,
		K: 1,
		Profile: &core.Profile{
			Candidates: map[core.Candidate]string{1: "a", 2: "b", 3: "c", 4: "d"},
			Ballots:    []core.Ballot{top1, top1, top1, top2, top2, top3},
		},
		Utilities: &core.Utilities{Manipulators: []int{6, 7}, Values: [][]int{{0, 0}, {5, 5}, {0, 0}, {0, 0}}},
		Evaluate:  bloc.Egalitarian,
	}
}

func TestGroup(t *testing.T) {
	p := testProblem()
	scores := p.Scores()
	types := bloc.Types(p.Utilities)

	assert.Equal(t, []core.Candidate{2}, Group(1, 2, 4, scores, types))
	assert.Equal(t, []core.Candidate{1}, Group(0, 1, 4, scores, types))
	assert.Equal(t, []core.Candidate{3}, Group(0, 2, 3, scores, types))
	assert.Nil(t, Group(1, 0, 4, scores, types))
}

func TestApprovals(t *testing.T) {
	got := Approvals([]Selection{
		{J: 1, Members: []core.Candidate{5, 6, 7}, Border: 1, Promoted: 1},
		{J: 0, Members: []core.Candidate{2}, Border: 1},
		{J: 0, Members: []core.Candidate{3}, Promoted: 1},
	})
	assert.Equal(t, map[core.Candidate]int{5: 2, 6: 1, 3: 1}, got)
}

func TestSolveOptimistic(t *testing.T) {
	p := testProblem()
	scores := p.Scores()
	types := bloc.Types(p.Utilities)

	// the cheapest single border candidate at z=4 is candidate 1
	got, ok := SolveOptimistic(4, 0, 1, 2, 1, types, scores)
	require.True(t, ok)
	assert.Equal(t, map[core.Candidate]int{1: 1}, got)

	// candidate 1 already scores 3 and must be border or promoted
	got, ok = SolveOptimistic(3, 0, 1, 2, 1, types, scores)
	require.True(t, ok)
	assert.Empty(t, got)

	_, ok = SolveOptimistic(3, 0, 4, 2, 1, types, scores)
	assert.False(t, ok, "more border candidates than group members")

	_, ok = SolveOptimistic(4, 0, 2, 2, 1, types, scores)
	assert.False(t, ok, "two border candidates need more than l*r approvals")
}

func TestSolver_Solutions(t *testing.T) {
	p := testProblem()
	sv := newSolver(4, 0, 2, 1, bloc.Types(p.Utilities), p.Scores())

	sols := sv.solutions(1)
	require.Len(t, sols, 2)
	assert.Equal(t, map[core.Candidate]int{1: 1}, Approvals(sols[0]))
	assert.Equal(t, map[core.Candidate]int{2: 2}, Approvals(sols[1]))
}

func TestStrategy_Manipulate(t *testing.T) {
	runner, err := manipulation.NewRunner(manipulation.WithPoolSize(2))
	require.NoError(t, err)
	defer runner.Release()
	s, err := New(runner)
	require.NoError(t, err)

	got, err := s.Manipulate(context.Background(), testProblem())
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, []core.Candidate{2}, got.Winners)
	assert.Equal(t, map[core.Candidate]int{2: 2}, got.Approvals)
	assert.Equal(t, 5, got.Value)
	assert.Equal(t, 1, got.Replaced)
	assert.Equal(t, Name, s.Name())
}

func TestStrategy_ManipulateFallsBackToSincere(t *testing.T) {
	runner, err := manipulation.NewRunner(manipulation.WithPoolSize(2))
	require.NoError(t, err)
	defer runner.Release()
	s, err := New(runner)
	require.NoError(t, err)

	p := testProblem()
	p.Utilities.Values = [][]int{{0, 0}, {0, 0}, {0, 0}, {0, 0}}
	got, err := s.Manipulate(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, []core.Candidate{1}, got.Winners)
}

func TestStrategy_NeverBeatsExhaustiveSearch(t *testing.T) {
	runner, err := manipulation.NewRunner(manipulation.WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(runner.Release)
	s, err := New(runner)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(19, 23))
	for i := range 120 {
		m, r := 3+rng.IntN(3), 1+rng.IntN(3)
		p := manipulationtest.RandomProblem(rng, m, r, bloc.Egalitarian)

		got, err := s.Manipulate(context.Background(), p)
		require.NoError(t, err)

		assert.Equal(t, bloc.Egalitarian(got.Winners, p.Utilities), got.Value, "case %d", i)
		assert.Len(t, got.Winners, p.K, "case %d", i)
		assert.LessOrEqual(t, got.Value, manipulationtest.Optimum(p), "case %d: m=%d l=%d k=%d r=%d", i, m, p.L, p.K, r)
		if !got.Found {
			continue
		}
		total := 0
		for c, a := range got.Approvals {
			assert.LessOrEqual(t, a, r, "case %d candidate %d", i, c)
			total += a
		}
		assert.LessOrEqual(t, total, r*p.L, "case %d", i)
		assert.ElementsMatch(t, got.Winners, bloc.Winners(p.K, bloc.MergeScores(p.Scores(), got.Approvals)), "case %d", i)
	}
}
