package workflow

// State represents a stage of one submission attempt
type State string

const (
	StateIdle           State = "IDLE"
	StateValidating     State = "VALIDATING"
	StateCreating       State = "CREATING"
	StateAttachingFiles State = "ATTACHING_FILES"
	StateSucceeded      State = "SUCCEEDED"
	StateFailed         State = "FAILED"
)

var validStates = map[State]bool{
	StateIdle:           true,
	StateValidating:     true,
	StateCreating:       true,
	StateAttachingFiles: true,
	StateSucceeded:      true,
	StateFailed:         true,
}

var terminalStates = map[State]bool{
	StateSucceeded: true,
	StateFailed:    true,
}

// IsTerminal returns true if no further automatic transition happens for the attempt
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
