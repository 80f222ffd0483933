// Package export renders recorded requests as spreadsheets.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

const maxSheetName = 31

// XLSXExporter writes one worksheet per form: an id and creation time column
// followed by the form's fields in declaration order.
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

// Export implements port.SpreadsheetExporter
func (e *XLSXExporter) Export(ctx context.Context, schemas []*form.Schema, requests []*entity.Request) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	byForm := make(map[string][]*entity.Request)
	for _, r := range requests {
		byForm[r.FormKey] = append(byForm[r.FormKey], r)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, schema := range schemas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet := sheetName(schema.Key)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := e.fillSheet(f, sheet, header, schema, byForm[schema.Key]); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Workbook rendered", zap.Int("sheets", len(schemas)), zap.Int("rows", len(requests)))
	return buf.Bytes(), nil
}

func (e *XLSXExporter) fillSheet(f *excelize.File, sheet string, headerStyle int, schema *form.Schema, rows []*entity.Request) error {
	fields := schema.FieldNames()

	titles := make([]interface{}, 0, len(fields)+2)
	titles = append(titles, "ID", "Created at")
	for _, name := range fields {
		titles = append(titles, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &titles); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	for i, r := range rows {
		values := make([]interface{}, 0, len(titles))
		values = append(values, r.ID, r.CreatedAt.UTC().Format(time.RFC3339))
		for _, name := range fields {
			values = append(values, cellValue(r.Fields[name]))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write request %d: %w", r.ID, err)
		}
	}
	return nil
}

// cellValue keeps numbers and booleans typed; anything else is written as text
func cellValue(v any) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case float64, bool, string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func sheetName(key string) string {
	if len(key) > maxSheetName {
		return key[:maxSheetName]
	}
	return key
}

var _ port.SpreadsheetExporter = (*XLSXExporter)(nil)
