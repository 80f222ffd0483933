package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
	"github.com/garyjia/travel-support/internal/infrastructure/persistence/sqlite"
)

var (
	// ErrInvalidFileName is returned for attachment names that cannot be stored
	ErrInvalidFileName = entity.ErrInvalidFileName

	// ErrDuplicateAttachment is returned when two files of one request share a stored name
	ErrDuplicateAttachment = errors.New("duplicate attachment file name")
)

// RequestRepository is the SQLite record store. Field values are kept as one JSON
// document per request; attachment bytes live in file storage under requests/<id>/.
type RequestRepository struct {
	db     *sql.DB
	tx     port.TransactionManager
	files  port.FileStorage
	logger *zap.Logger
	now    func() time.Time
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, tx port.TransactionManager, files port.FileStorage, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		tx:     tx,
		files:  files,
		logger: logger,
		now:    time.Now,
	}
}

// Create stores a normalized record and returns its id
func (r *RequestRepository) Create(ctx context.Context, formKey string, record form.Record) (int64, error) {
	fields, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`INSERT INTO requests (form_key, fields, created_at) VALUES (?, ?, ?)`,
		formKey, string(fields), r.now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("form", formKey), zap.Error(err))
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// AddAttachments stores every file against request id. Either all files are indexed or
// none are; files written before a failure are removed again.
func (r *RequestRepository) AddAttachments(ctx context.Context, id int64, files []entity.StagedAttachment) error {
	names := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, f := range files {
		name, err := entity.CleanFileName(f.Name)
		if err != nil {
			return err
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q and %q are both stored as %q", ErrDuplicateAttachment, prev, f.Name, name)
		}
		seen[name] = f.Name
		names[i] = name
	}

	var written []string
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for i, f := range files {
			name := names[i]
			rel := attachmentPath(id, name)

			if _, err := r.getExecutor(ctx).ExecContext(ctx, `
				INSERT INTO request_attachments (request_id, file_name, file_path, file_size, mime_type, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (request_id, file_name) DO UPDATE SET
					file_path = excluded.file_path,
					file_size = excluded.file_size,
					mime_type = excluded.mime_type`,
				id, name, rel, f.Size(), mimetype.Detect(f.Content).String(), r.now().UTC(),
			); err != nil {
				return fmt.Errorf("failed to index attachment %s: %w", name, err)
			}

			if err := r.files.Save(ctx, rel, f.Content); err != nil {
				return fmt.Errorf("failed to store attachment %s: %w", name, err)
			}
			written = append(written, rel)
		}
		return nil
	})
	if err != nil {
		for _, rel := range written {
			if delErr := r.files.Delete(ctx, rel); delErr != nil {
				r.logger.Error("Failed to remove orphaned attachment", zap.String("path", rel), zap.Error(delErr))
			}
		}
		return err
	}
	return nil
}

// GetAttachments lists the files stored against request id, ordered by name
func (r *RequestRepository) GetAttachments(ctx context.Context, id int64) ([]entity.AttachmentInfo, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, `
		SELECT file_name, file_size, mime_type
		FROM request_attachments
		WHERE request_id = ?
		ORDER BY file_name`, id)
	if err != nil {
		r.logger.Error("Failed to list attachments", zap.Int64("request_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	files := []entity.AttachmentInfo{}
	for rows.Next() {
		info := entity.AttachmentInfo{}
		if err := rows.Scan(&info.FileName, &info.Size, &info.MimeType); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		info.URL = AttachmentURL(id, info.FileName)
		files = append(files, info)
	}
	return files, rows.Err()
}

// ReadAttachment returns one stored file with its content
func (r *RequestRepository) ReadAttachment(ctx context.Context, id int64, fileName string) (*entity.StoredFile, error) {
	var rel string
	file := &entity.StoredFile{}
	err := r.getExecutor(ctx).QueryRowContext(ctx, `
		SELECT file_name, file_path, file_size, mime_type
		FROM request_attachments
		WHERE request_id = ? AND file_name = ?`, id, fileName,
	).Scan(&file.FileName, &rel, &file.Size, &file.MimeType)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", port.ErrFileNotFound, fileName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	content, err := r.files.Read(ctx, rel)
	if err != nil {
		return nil, err
	}
	file.Content = content
	file.URL = AttachmentURL(id, file.FileName)
	return file, nil
}

// Get retrieves a request by id
func (r *RequestRepository) Get(ctx context.Context, id int64) (*entity.Request, error) {
	row := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT id, form_key, fields, created_at FROM requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", port.ErrRequestNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// List returns the newest requests matching filter first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*entity.Request, error) {
	where, args := filterClause(filter)
	query := `SELECT id, form_key, fields, created_at FROM requests` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Count returns how many requests match filter
func (r *RequestRepository) Count(ctx context.Context, filter port.RequestFilter) (int, error) {
	where, args := filterClause(filter)

	var n int
	if err := r.getExecutor(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}

func (r *RequestRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(s scanner) (*entity.Request, error) {
	var (
		req    entity.Request
		fields string
	)
	if err := s.Scan(&req.ID, &req.FormKey, &fields, &req.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &req.Fields); err != nil {
		return nil, fmt.Errorf("request %d has malformed fields: %w", req.ID, err)
	}
	return &req, nil
}

func filterClause(f port.RequestFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.FormKey != "" {
		conds = append(conds, "form_key = ?")
		args = append(args, f.FormKey)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, f.Until.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func attachmentPath(id int64, name string) string {
	return fmt.Sprintf("requests/%d/%s", id, name)
}

// AttachmentURL is where the HTTP API serves a stored attachment
func AttachmentURL(id int64, name string) string {
	return fmt.Sprintf("/api/requests/%d/attachments/%s", id, url.PathEscape(name))
}

var (
	_ port.RecordStore   = (*RequestRepository)(nil)
	_ port.RequestReader = (*RequestRepository)(nil)
)
