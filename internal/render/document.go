// Package render lays out aggregated report tables as downloadable documents.
package render

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"assaylab/internal/domain"
)

// Orientation is the page orientation passed to the PDF engine.
type Orientation string

const (
	Portrait  Orientation = "P"
	Landscape Orientation = "L"
)

// landscapeThreshold is the data column count above which pages turn landscape.
const landscapeThreshold = 4

// OrientationFor picks the page orientation for a table with the given number of data columns.
func OrientationFor(columns int) Orientation {
	if columns > landscapeThreshold {
		return Landscape
	}
	return Portrait
}

// Renderer serializes a document to bytes. Implementations return either the
// complete output or an error, never partial bytes.
type Renderer interface {
	Render(ctx context.Context, doc *Document) ([]byte, error)
	ContentType() string
	Extension() string
}

// Row is one formatted table row.
type Row struct {
	Cells    []string
	Subtotal bool
}

// Table is a fully formatted report table. KeyColumns is the number of leading
// label columns.
type Table struct {
	Headers    []string
	KeyColumns int
	Rows       []Row
	Totals     []string
}

// Document is everything a renderer needs to lay out one report.
type Document struct {
	Title       string
	Subtitle    string
	DateRange   string
	Description string
	Lines       []string
	Table       Table
	Orientation Orientation
	GeneratedAt time.Time
	// Logo is PNG or JPEG image data; nil renders without a logo.
	Logo []byte
}

// NewDocument builds a document around the formatted aggregate table. Orientation
// follows the number of data columns.
func NewDocument(title, subtitle string, agg domain.Aggregate, generatedAt time.Time) *Document {
	return &Document{
		Title:       title,
		Subtitle:    subtitle,
		Table:       TableFromAggregate(agg),
		Orientation: OrientationFor(len(agg.Columns)),
		GeneratedAt: generatedAt,
	}
}

const absentCell = "-"

// TableFromAggregate formats an aggregate's cells as text. Absent values render as
// "-"; a missing totals row renders zero-filled.
func TableFromAggregate(agg domain.Aggregate) Table {
	keys := len(agg.KeyHeaders)
	headers := make([]string, 0, keys+len(agg.Columns)+1)
	headers = append(headers, agg.KeyHeaders...)
	for _, c := range agg.Columns {
		headers = append(headers, agg.Unit+c)
	}
	if agg.RowTotals {
		headers = append(headers, "Totals")
	}

	t := Table{Headers: headers, KeyColumns: keys, Rows: make([]Row, 0, len(agg.Rows))}
	for _, r := range agg.Rows {
		t.Rows = append(t.Rows, Row{
			Cells:    formatRow(r, keys, len(agg.Columns), agg.RowTotals, agg.Precision),
			Subtotal: r.Subtotal,
		})
	}

	totals := agg.Totals
	if len(totals.Values) == 0 {
		totals.Values = make([]decimal.NullDecimal, len(agg.Columns))
		for i := range totals.Values {
			totals.Values[i] = decimal.NewNullDecimal(decimal.Zero)
		}
		if agg.RowTotals {
			totals.Total = decimal.NewNullDecimal(decimal.Zero)
		}
	}
	if len(totals.Labels) == 0 {
		totals.Labels = []string{"Totals"}
	}
	t.Totals = formatRow(totals, keys, len(agg.Columns), agg.RowTotals, agg.TotalsPrecision)
	return t
}

func formatRow(r domain.AggregateRow, keys, columns int, rowTotal bool, precision int32) []string {
	cells := make([]string, 0, keys+columns+1)
	for i := 0; i < keys; i++ {
		if i < len(r.Labels) {
			cells = append(cells, r.Labels[i])
		} else {
			cells = append(cells, "")
		}
	}
	for i := 0; i < columns; i++ {
		if i < len(r.Values) {
			cells = append(cells, formatCell(r.Values[i], precision))
		} else {
			cells = append(cells, absentCell)
		}
	}
	if rowTotal {
		cells = append(cells, formatCell(r.Total, precision))
	}
	return cells
}

func formatCell(v decimal.NullDecimal, precision int32) string {
	if !v.Valid {
		return absentCell
	}
	return v.Decimal.StringFixed(precision)
}
