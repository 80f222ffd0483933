package entity

import (
	"fmt"
	"strconv"
)

// Severity of a user-facing notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is the transient message shown to the user after a form action
type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Fixed messages per outcome class; no failure detail reaches the user.
const (
	MessageRecorded     = "Request recorded successfully! ID:%d"
	MessageCreateFailed = "Failed to record the request"
	MessageInvalidInput = "Some fields are invalid, please review the form"
)

// RecordedNotification is shown once the record exists
func RecordedNotification(id int64) Notification {
	return Notification{Severity: SeveritySuccess, Message: fmt.Sprintf(MessageRecorded, id)}
}

// CreateFailedNotification is shown when the record store rejects the record
func CreateFailedNotification() Notification {
	return Notification{Severity: SeverityError, Message: MessageCreateFailed}
}

// InvalidInputNotification accompanies inline field errors
func InvalidInputNotification() Notification {
	return Notification{Severity: SeverityError, Message: MessageInvalidInput}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
