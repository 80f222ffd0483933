package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys
const (
	KeyFormTitle    = "form_title"
	KeyReceiptEmail = "receipt_email"
	KeyEmployee     = "employee"
	KeyEmployeeID   = "employee_id"
)

// Event represents a domain event
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RequestID     int64                  `json:"request_id,omitempty"`
	FormKey       string                 `json:"form_key,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with a generated ID and timestamp
func NewEvent(eventType Type, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            id,
		Type:          eventType,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
}

// NewRequestRecorded announces a request the record store accepted
func NewRequestRecorded(requestID int64, formKey string, payload map[string]interface{}) *Event {
	evt := NewEvent(TypeRequestRecorded, payload)
	evt.RequestID = requestID
	evt.FormKey = formKey
	return evt
}

// WithCorrelation links the event to an existing chain
func (e *Event) WithCorrelation(correlationID string) *Event {
	out := e.clone()
	out.CorrelationID = correlationID
	return out
}

// WithPayload returns a copy of the event with one more payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	out := e.clone()
	out.Payload[key] = value
	return out
}

func (e *Event) clone() *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	out := *e
	out.Payload = payload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if str, ok := e.Payload[key].(string); ok {
		return str
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
