package experiment

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid experiment config")

	// ErrManipulatorRequired is returned when a Runner is created without a manipulator.
	ErrManipulatorRequired = errors.New("manipulator required")

	// ErrSourceRequired is returned when a run names a URL but no source was configured.
	ErrSourceRequired = errors.New("dataset source required for urls")

	// ErrUnknownUtility is returned for an unregistered utility model.
	ErrUnknownUtility = errors.New("unknown utility model")

	// ErrUnknownStrategy is returned for an unregistered strategy name.
	ErrUnknownStrategy = errors.New("unknown strategy")
)
