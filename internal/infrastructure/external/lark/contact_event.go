package lark

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/travel-support/internal/domain/event"
)

// Contact event types the directory sync listens to
const (
	EventUserCreated = "contact.user.created_v3"
	EventUserUpdated = "contact.user.updated_v3"
	EventUserDeleted = "contact.user.deleted_v3"
)

// ContactEventTypes lists every contact event TranslateContactEvent understands
var ContactEventTypes = []string{EventUserCreated, EventUserUpdated, EventUserDeleted}

type contactEventEnvelope struct {
	Header struct {
		EventID   string `json:"event_id"`
		EventType string `json:"event_type"`
	} `json:"header"`
	Event struct {
		Object contactUser `json:"object"`
	} `json:"event"`
}

// TranslateContactEvent turns a raw contact event body into a domain event.
// Bodies for other event types yield nil.
func TranslateContactEvent(body []byte, attrs AttrMapping) (*event.Event, error) {
	var env contactEventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse contact event: %w", err)
	}

	userID := strings.ToUpper(strings.TrimSpace(env.Event.Object.UserID))

	var evt *event.Event
	switch env.Header.EventType {
	case EventUserCreated, EventUserUpdated:
		if userID == "" {
			return nil, fmt.Errorf("contact event %s has no user_id", env.Header.EventID)
		}
		evt = event.NewEvent(event.TypeEmployeeChanged, map[string]interface{}{
			event.KeyEmployee:   env.Event.Object.employee(attrs),
			event.KeyEmployeeID: userID,
		})
	case EventUserDeleted:
		if userID == "" {
			return nil, fmt.Errorf("contact event %s has no user_id", env.Header.EventID)
		}
		evt = event.NewEvent(event.TypeEmployeeRemoved, map[string]interface{}{
			event.KeyEmployeeID: userID,
		})
	default:
		return nil, nil
	}

	if env.Header.EventID != "" {
		evt = evt.WithCorrelation(env.Header.EventID)
	}
	return evt, nil
}
