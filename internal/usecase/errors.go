package usecase

import "errors"

// Pipeline sentinels. The CLI maps ErrInvalidInput to a usage exit code;
// everything else is an operational failure.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrStoreWrite            = errors.New("store write failure")
)
