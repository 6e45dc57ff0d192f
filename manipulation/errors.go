package manipulation

import "errors"

var (
	// ErrInvalidProblem is returned when a Problem fails validation.
	ErrInvalidProblem = errors.New("invalid manipulation problem")

	// ErrEvaluatorRequired is returned when a Problem has no evaluator.
	ErrEvaluatorRequired = errors.New("evaluator required")

	// ErrRunnerRequired is returned when a strategy is built without a runner.
	ErrRunnerRequired = errors.New("runner required")
)
