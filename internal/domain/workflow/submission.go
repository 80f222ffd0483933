package workflow

import "context"

// NewSubmissionBuilder configures the submission lifecycle:
//
//	IDLE -> VALIDATING -> FAILED                        (input rejected)
//	VALIDATING -> CREATING -> FAILED                    (record store rejected)
//	CREATING -> SUCCEEDED                               (no staged files)
//	CREATING -> ATTACHING_FILES -> SUCCEEDED            (staged files, upload outcome absorbed)
//
// hasAttachments decides between the last two paths when the record is created.
func NewSubmissionBuilder(hasAttachments GuardFunc) StateMachineBuilder {
	if hasAttachments == nil {
		hasAttachments = func(context.Context) bool { return false }
	}
	b := NewBuilder()

	b.Configure(StateIdle).
		Permit(TriggerSubmit, StateValidating)

	b.Configure(StateValidating).
		Permit(TriggerRejectInput, StateFailed).
		Permit(TriggerAcceptInput, StateCreating)

	b.Configure(StateCreating).
		Permit(TriggerCreateFailed, StateFailed).
		PermitIf(TriggerCreateSucceeded, StateAttachingFiles, hasAttachments).
		Permit(TriggerCreateSucceeded, StateSucceeded)

	b.Configure(StateAttachingFiles).
		Permit(TriggerAttachmentsSettled, StateSucceeded)

	return b
}
