package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/infrastructure/persistence/sqlite"
)

// EmployeeRepository serves the employee directory from the local employees table
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

const employeeColumns = `id, full_name, work_email, company_code, company_name, cost_center, approval_level, country`

// Lookup finds one employee by id or work e-mail
func (r *EmployeeRepository) Lookup(ctx context.Context, key entity.LookupKey) (*entity.Employee, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var query string
	switch key.Field {
	case entity.LookupByID:
		query = `SELECT ` + employeeColumns + ` FROM employees WHERE UPPER(id) = ?`
	case entity.LookupByEmail:
		query = `SELECT ` + employeeColumns + ` FROM employees WHERE LOWER(work_email) = ?`
	}

	var emp entity.Employee
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, key.Value).Scan(
		&emp.ID,
		&emp.FullName,
		&emp.WorkEmail,
		&emp.CompanyCode,
		&emp.CompanyName,
		&emp.CostCenter,
		&emp.ApprovalLevel,
		&emp.Country,
	)
	if err == sql.ErrNoRows {
		return nil, port.ErrEmployeeNotFound
	}
	if err != nil {
		r.logger.Error("Failed to look up employee", zap.String("field", string(key.Field)), zap.Error(err))
		return nil, fmt.Errorf("failed to look up employee: %w", err)
	}
	return &emp, nil
}

// Upsert inserts or replaces an employee row
func (r *EmployeeRepository) Upsert(ctx context.Context, emp *entity.Employee) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			full_name = excluded.full_name,
			work_email = excluded.work_email,
			company_code = excluded.company_code,
			company_name = excluded.company_name,
			cost_center = excluded.cost_center,
			approval_level = excluded.approval_level,
			country = excluded.country,
			updated_at = excluded.updated_at`,
		emp.ID,
		emp.FullName,
		emp.WorkEmail,
		emp.CompanyCode,
		emp.CompanyName,
		emp.CostCenter,
		emp.ApprovalLevel,
		emp.Country,
		time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert employee", zap.String("id", emp.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// Delete removes an employee; unknown ids are ignored
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var (
	_ port.EmployeeDirectory = (*EmployeeRepository)(nil)
	_ port.EmployeeWriter    = (*EmployeeRepository)(nil)
)
