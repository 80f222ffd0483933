package workflow

import "errors"

var (
	// ErrInvalidTransition means the current state has no edge for the trigger
	ErrInvalidTransition = errors.New("transition not permitted")

	// ErrInvalidState marks a state outside the submission lifecycle
	ErrInvalidState = errors.New("unknown state")

	// ErrGuardFailed means every edge for the trigger was refused by its guard
	ErrGuardFailed = errors.New("no guard admitted the transition")
)
