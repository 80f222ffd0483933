package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit             Trigger = "SUBMIT"
	TriggerRejectInput        Trigger = "REJECT_INPUT"
	TriggerAcceptInput        Trigger = "ACCEPT_INPUT"
	TriggerCreateFailed       Trigger = "CREATE_FAILED"
	TriggerCreateSucceeded    Trigger = "CREATE_SUCCEEDED"
	TriggerAttachmentsSettled Trigger = "ATTACHMENTS_SETTLED"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
