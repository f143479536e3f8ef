package render

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// XLSXRenderer renders documents as a single-sheet Excel workbook.
type XLSXRenderer struct{}

// NewXLSXRenderer creates a new XLSXRenderer.
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXRenderer) Extension() string { return "xlsx" }

// Render writes a title block followed by the table, its subtotal rows in bold
// and the totals row.
func (r *XLSXRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Creator: "assaylab",
		Created: doc.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("xlsx properties: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	w := &sheetWriter{f: f}
	w.line(title, doc.Title)
	w.line(0, doc.Subtitle)
	w.line(0, doc.DateRange)
	w.line(0, doc.Description)
	for _, l := range doc.Lines {
		w.line(0, l)
	}
	w.line(0, "Report generated on "+doc.GeneratedAt.Format("02-Jan-2006"))
	w.row++

	w.cells(bold, doc.Table.Headers)
	for i, row := range doc.Table.Rows {
		if i%cancelCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		style := 0
		if row.Subtotal {
			style = bold
		}
		w.cells(style, row.Cells)
	}
	w.cells(bold, doc.Table.Totals)
	if w.err != nil {
		return nil, fmt.Errorf("xlsx write: %w", w.err)
	}

	if len(doc.Table.Headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(doc.Table.Headers))
		if err := f.SetColWidth(sheetName, "A", last, 16); err != nil {
			return nil, fmt.Errorf("xlsx column width: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx output: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows to the report sheet and keeps the first error.
type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (w *sheetWriter) line(style int, text string) {
	if text == "" {
		return
	}
	w.cells(style, []string{text})
}

func (w *sheetWriter) cells(style int, values []string) {
	w.row++
	if w.err != nil || len(values) == 0 {
		return
	}
	start, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := w.f.SetSheetRow(sheetName, start, &row); err != nil {
		w.err = err
		return
	}
	if style == 0 {
		return
	}
	end, err := excelize.CoordinatesToCellName(len(values), w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(sheetName, start, end, style)
}
