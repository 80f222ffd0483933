package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestRecorded Type = "request.recorded"
	TypeEmployeeChanged Type = "employee.changed"
	TypeEmployeeRemoved Type = "employee.removed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestRecorded, TypeEmployeeChanged, TypeEmployeeRemoved:
		return true
	default:
		return false
	}
}
