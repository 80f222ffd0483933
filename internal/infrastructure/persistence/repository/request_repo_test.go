package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
	"github.com/garyjia/travel-support/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-support/internal/infrastructure/storage"
)

func newRequestRepo(t *testing.T) (*RequestRepository, sqlmock.Sqlmock, port.FileStorage) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	files := storage.NewLocalFileStorage(t.TempDir(), logger)
	repo := NewRequestRepository(db, sqlite.NewDB(db, logger), files, logger)
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mock, files
}

func TestRequestRepository_Create(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests (form_key, fields, created_at)")).
		WithArgs("hosting-regularization", `{"MOTIVO":"late check-in","TFD":true}`, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create(context.Background(), "hosting-regularization", form.Record{"MOTIVO": "late check-in", "TFD": true})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_CreateFailure(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)

	mock.ExpectExec("INSERT INTO requests").WillReturnError(errors.New("database is locked"))

	_, err := repo.Create(context.Background(), "travel-request-issue", form.Record{})
	assert.ErrorContains(t, err, "failed to create request")
}

func TestRequestRepository_Get(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, form_key, fields, created_at FROM requests WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "form_key", "fields", "created_at"}).
			AddRow(7, "fuel-card-base-creation", `{"QUANTIDADE":3,"NOVO_LIMITE":"1500.5"}`, created))

	req, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "fuel-card-base-creation", req.FormKey)
	assert.Equal(t, "1500.5", req.Field("NOVO_LIMITE"))
	assert.Equal(t, float64(3), req.Fields["QUANTIDADE"])
	assert.Equal(t, created, req.CreatedAt)
}

func TestRequestRepository_GetNotFound(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)

	mock.ExpectQuery("FROM requests WHERE id").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, port.ErrRequestNotFound)
}

func TestRequestRepository_ListAppliesFilter(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)
	since := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM requests WHERE form_key = ? AND created_at >= ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
		WithArgs("travel-request-issue", since, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "form_key", "fields", "created_at"}).
			AddRow(2, "travel-request-issue", `{}`, since).
			AddRow(1, "travel-request-issue", `{}`, since))

	list, err := repo.List(context.Background(), port.RequestFilter{FormKey: "travel-request-issue", Since: since}, 10, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM requests")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	n, err := repo.Count(context.Background(), port.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_AddAttachments(t *testing.T) {
	repo, mock, files := newRequestRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO request_attachments").
		WithArgs(int64(5), "ticket.pdf", "requests/5/ticket.pdf", int64(8), "application/pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO request_attachments").
		WithArgs(int64(5), "notes.txt", "requests/5/notes.txt", int64(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.AddAttachments(ctx, 5, []entity.StagedAttachment{
		{Name: "C:\\Users\\ana\\ticket.pdf", Content: []byte("%PDF-1.4")},
		{Name: "notes.txt", Content: []byte("hello")},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	content, err := files.Read(ctx, "requests/5/ticket.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), content)
}

func TestRequestRepository_AddAttachmentsRollsBack(t *testing.T) {
	repo, mock, files := newRequestRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO request_attachments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO request_attachments").WillReturnError(errors.New("FOREIGN KEY constraint failed"))
	mock.ExpectRollback()

	err := repo.AddAttachments(ctx, 5, []entity.StagedAttachment{
		{Name: "a.pdf", Content: []byte("a")},
		{Name: "b.pdf", Content: []byte("b")},
	})
	assert.ErrorContains(t, err, "b.pdf")
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = files.Read(ctx, "requests/5/a.pdf")
	assert.ErrorIs(t, err, port.ErrFileNotFound)
}

func TestRequestRepository_AddAttachmentsRejectsBadName(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)

	err := repo.AddAttachments(context.Background(), 5, []entity.StagedAttachment{{Name: "..", Content: []byte("x")}})
	assert.ErrorIs(t, err, ErrInvalidFileName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_AddAttachmentsRejectsCollidingNames(t *testing.T) {
	repo, mock, files := newRequestRepo(t)
	ctx := context.Background()

	err := repo.AddAttachments(ctx, 5, []entity.StagedAttachment{
		{Name: "a/x.pdf", Content: []byte("first")},
		{Name: `b\x.pdf`, Content: []byte("second")},
	})
	assert.ErrorIs(t, err, ErrDuplicateAttachment)
	assert.ErrorContains(t, err, `"x.pdf"`)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = files.Read(ctx, "requests/5/x.pdf")
	assert.ErrorIs(t, err, port.ErrFileNotFound)
}

func TestRequestRepository_GetAttachments(t *testing.T) {
	repo, mock, _ := newRequestRepo(t)

	mock.ExpectQuery("FROM request_attachments").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"file_name", "file_size", "mime_type"}).
			AddRow("boarding pass.pdf", 120, "application/pdf"))

	list, err := repo.GetAttachments(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/api/requests/3/attachments/boarding%20pass.pdf", list[0].URL)
	assert.Equal(t, int64(120), list[0].Size)
}

func TestRequestRepository_ReadAttachment(t *testing.T) {
	repo, mock, files := newRequestRepo(t)
	ctx := context.Background()
	require.NoError(t, files.Save(ctx, "requests/3/a.pdf", []byte("%PDF")))

	mock.ExpectQuery("FROM request_attachments").WithArgs(int64(3), "a.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"file_name", "file_path", "file_size", "mime_type"}).
			AddRow("a.pdf", "requests/3/a.pdf", 4, "application/pdf"))

	file, err := repo.ReadAttachment(ctx, 3, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), file.Content)
	assert.Equal(t, "application/pdf", file.MimeType)

	mock.ExpectQuery("FROM request_attachments").WithArgs(int64(3), "missing.pdf").WillReturnError(sql.ErrNoRows)
	_, err = repo.ReadAttachment(ctx, 3, "missing.pdf")
	assert.ErrorIs(t, err, port.ErrFileNotFound)
}
