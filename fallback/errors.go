package fallback

import "errors"

var (
	// ErrScorerRequired is returned when no quality scorer is given.
	ErrScorerRequired = errors.New("quality scorer required")

	// ErrEnginePanic wraps a panic recovered from an engine.
	ErrEnginePanic = errors.New("engine panicked")

	// ErrEmptyResult is reported when an engine returns neither a result nor an error.
	ErrEmptyResult = errors.New("engine returned no result")
)
