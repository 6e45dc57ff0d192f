package manipulation

import (
	"context"
	"fmt"

	"github.com/poiesic/maniplib/bloc"
	"github.com/poiesic/maniplib/core"
)

// Problem is a coalitional manipulation instance for the l-Bloc rule.
type Problem struct {
	// L is the number of approvals per ballot.
	L int
	// K is the size of the winning group.
	K int
	// Profile holds the non-manipulative ballots.
	Profile *core.Profile
	// Utilities holds the coalition's utilities.
	Utilities *core.Utilities
	// Evaluate judges a winning group.
	Evaluate bloc.Evaluator
}

// Validate checks the problem for consistency.
func (p *Problem) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: problem is nil", ErrInvalidProblem)
	}
	if err := core.ValidateProfile(p.Profile); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	m := p.Profile.NumCandidates()
	if err := core.ValidateParameters(p.L, p.K, m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if err := core.ValidateUtilities(p.Utilities, m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if p.Evaluate == nil {
		return fmt.Errorf("%w: %w", ErrInvalidProblem, ErrEvaluatorRequired)
	}
	return nil
}

// R returns the number of manipulators.
func (p *Problem) R() int {
	return p.Utilities.NumManipulators()
}

// M returns the number of candidates.
func (p *Problem) M() int {
	return p.Profile.NumCandidates()
}

// Scores returns the sincere l-Bloc scores.
func (p *Problem) Scores() bloc.ScoreMap {
	return bloc.Scores(p.L, p.Profile)
}

// Sincere describes the outcome without manipulation: the manipulators
// support the l strongest candidates and the k strongest win.
func (p *Problem) Sincere(strength []core.Candidate) *core.Manipulation {
	winners := append([]core.Candidate(nil), strength[:min(p.K, len(strength))]...)
	return &core.Manipulation{
		Support:  append([]core.Candidate(nil), strength[:min(p.L, len(strength))]...),
		Value:    p.Evaluate(winners, p.Utilities),
		Winners:  winners,
		Replaced: 0,
		Found:    false,
	}
}

// Finish fills in the replaced count of a found manipulation, or falls back to
// the sincere outcome when best is nil.
func (p *Problem) Finish(best *core.Manipulation, strength []core.Candidate) *core.Manipulation {
	if best == nil {
		return p.Sincere(strength)
	}
	best.Replaced = bloc.Replaced(p.K, best.Winners, strength)
	best.Found = true
	return best
}

// Strategy computes a manipulation for a Problem.
type Strategy interface {
	// Name identifies the strategy.
	Name() string

	// Manipulate searches for the manipulation maximizing the problem's evaluator.
	// When no manipulation has a positive value the sincere outcome is returned
	// with Found set to false.
	Manipulate(ctx context.Context, p *Problem) (*core.Manipulation, error)
}
