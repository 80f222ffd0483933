package workflow

import (
	"context"
	"time"
)

// StateMachine represents a state machine that tracks current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger

	// History returns the transitions taken so far, oldest first
	History() []Transition
}

// Transition is one step recorded by a state machine
type Transition struct {
	From    State     `json:"from"`
	Trigger Trigger   `json:"trigger"`
	To      State     `json:"to"`
	At      time.Time `json:"at"`
}
