package bloc

import "errors"

var (
	// ErrUnknownEvaluator is returned when an evaluator name is not registered.
	ErrUnknownEvaluator = errors.New("unknown evaluator")
)
