package ecs

import "errors"

var (
	ErrCapacityExceeded      = errors.New("entity capacity exceeded")
	ErrInvalidHandle         = errors.New("invalid entity handle")
	ErrMissingComponent      = errors.New("component not present")
	ErrTooManyComponentTypes = errors.New("too many component types")
)
