package manipulation

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	r, err := NewRunner(WithPoolSize(4))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func TestRunner_BestPicksHighestEarliest(t *testing.T) {
	r := newTestRunner(t)
	values := []int{3, 0, 7, -2, 7, 5}

	best, err := r.Best(context.Background(), len(values), func(_ context.Context, i int) (*core.Manipulation, error) {
		return &core.Manipulation{Value: values[i], Winners: []core.Candidate{core.Candidate(i + 1)}}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 7, best.Value)
	assert.Equal(t, []core.Candidate{3}, best.Winners)
}

func TestRunner_BestIgnoresNonPositive(t *testing.T) {
	r := newTestRunner(t)

	best, err := r.Best(context.Background(), 3, func(_ context.Context, i int) (*core.Manipulation, error) {
		if i == 1 {
			return nil, nil
		}
		return &core.Manipulation{Value: 0}, nil
	})
	require.NoError(t, err)
	assert.Nil(t, best)

	best, err = r.Best(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestRunner_BestPropagatesError(t *testing.T) {
	r := newTestRunner(t)
	boom := errors.New("boom")

	_, err := r.Best(context.Background(), 5, func(_ context.Context, i int) (*core.Manipulation, error) {
		if i == 2 {
			return nil, boom
		}
		return &core.Manipulation{Value: 1}, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunner_BestCanceledContext(t *testing.T) {
	r := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Best(ctx, 3, func(_ context.Context, _ int) (*core.Manipulation, error) {
		return &core.Manipulation{Value: 1}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProblem_Validate(t *testing.T) {
	p := &Problem{
		L: 1,
		K: 1,
		Profile: &core.Profile{
			Candidates: map[core.Candidate]string{1: "a", 2: "b"},
			Ballots:    []core.Ballot{{1: 1, 2: 2}},
		},
		Utilities: &core.Utilities{Manipulators: []int{0}, Values: [][]int{{1}, {2}}},
		Evaluate:  bloc.Utilitarian,
	}
	require.NoError(t, p.Validate())
	assert.Equal(t, 1, p.R())
	assert.Equal(t, 2, p.M())

	p.Evaluate = nil
	assert.ErrorIs(t, p.Validate(), ErrEvaluatorRequired)

	p.Evaluate = bloc.Utilitarian
	p.K = 3
	assert.ErrorIs(t, p.Validate(), ErrInvalidProblem)

	var nilProblem *Problem
	assert.ErrorIs(t, nilProblem.Validate(), ErrInvalidProblem)
}

func TestProblem_SincereAndFinish(t *testing.T) {
	p := &Problem{
		L: 1,
		K: 1,
		Profile: &core.Profile{
			Candidates: map[core.Candidate]string{1: "a", 2: "b"},
			Ballots:    []core.Ballot{{1: 1, 2: 2}},
		},
		Utilities: &core.Utilities{Manipulators: []int{0}, Values: [][]int{{1}, {2}}},
		Evaluate:  bloc.Utilitarian,
	}
	strength := bloc.StrengthOrder(p.Scores())
	require.Equal(t, []core.Candidate{1, 2}, strength)

	sincere := p.Finish(nil, strength)
	assert.False(t, sincere.Found)
	assert.Equal(t, []core.Candidate{1}, sincere.Winners)
	assert.Equal(t, 1, sincere.Value)

	found := p.Finish(&core.Manipulation{Winners: []core.Candidate{2}, Value: 2}, strength)
	assert.True(t, found.Found)
	assert.Equal(t, 1, found.Replaced)
}
