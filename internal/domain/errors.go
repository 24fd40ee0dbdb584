package domain

import "errors"

var (
	// ErrInvalidTransition is returned when a status change is not in the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownAction is returned for actions missing from the user action table.
	ErrUnknownAction = errors.New("unknown action")
)
