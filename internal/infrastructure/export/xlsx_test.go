package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

func testSchemas(t *testing.T) []*form.Schema {
	t.Helper()
	a, err := form.NewSchema("travel-request-issue", "Travel", []form.FieldRule{
		form.Text("MOTIVO"),
		form.Number("SLA"),
	})
	require.NoError(t, err)
	b, err := form.NewSchema("a-form-key-that-is-longer-than-thirty-one", "Long", []form.FieldRule{
		form.Boolean("TFD"),
	})
	require.NoError(t, err)
	return []*form.Schema{a, b}
}

func TestXLSXExporter_Export(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	requests := []*entity.Request{
		{ID: 7, FormKey: "travel-request-issue", CreatedAt: created, Fields: map[string]any{"MOTIVO": "no hotel", "SLA": float64(48)}},
		{ID: 8, FormKey: "travel-request-issue", CreatedAt: created, Fields: map[string]any{"MOTIVO": "no car"}},
		{ID: 9, FormKey: "unknown", CreatedAt: created},
	}

	data, err := NewXLSXExporter(zap.NewNop()).Export(context.Background(), testSchemas(t), requests)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"travel-request-issue", "a-form-key-that-is-longer-than-"}, f.GetSheetList())

	rows, err := f.GetRows("travel-request-issue")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Created at", "MOTIVO", "SLA"}, rows[0])
	assert.Equal(t, []string{"7", "2024-05-01T12:00:00Z", "no hotel", "48"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 3)
	assert.Equal(t, "no car", rows[2][2])

	rows, err = f.GetRows("a-form-key-that-is-longer-than-")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestXLSXExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewXLSXExporter(zap.NewNop()).Export(ctx, testSchemas(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
