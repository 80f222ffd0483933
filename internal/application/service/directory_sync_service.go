package service

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/event"
)

// DirectorySyncService applies directory change events to the local employee table
type DirectorySyncService struct {
	writer port.EmployeeWriter
	logger Logger
}

// NewDirectorySyncService creates a new DirectorySyncService
func NewDirectorySyncService(writer port.EmployeeWriter, logger Logger) *DirectorySyncService {
	return &DirectorySyncService{writer: writer, logger: logger}
}

// HandleEmployeeChanged upserts the employee carried by the event
func (s *DirectorySyncService) HandleEmployeeChanged(ctx context.Context, evt *event.Event) error {
	emp, ok := evt.Payload[event.KeyEmployee].(*entity.Employee)
	if !ok || emp == nil || emp.ID == "" {
		return fmt.Errorf("event %s carries no employee", evt.ID)
	}

	if err := s.writer.Upsert(ctx, emp); err != nil {
		return fmt.Errorf("upsert employee %s: %w", emp.ID, err)
	}
	s.logger.Info("Employee synced", "employee_id", emp.ID)
	return nil
}

// HandleEmployeeRemoved deletes the employee named by the event
func (s *DirectorySyncService) HandleEmployeeRemoved(ctx context.Context, evt *event.Event) error {
	id := evt.GetPayloadString(event.KeyEmployeeID)
	if id == "" {
		return fmt.Errorf("event %s carries no employee id", evt.ID)
	}

	if err := s.writer.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete employee %s: %w", id, err)
	}
	s.logger.Info("Employee removed", "employee_id", id)
	return nil
}
