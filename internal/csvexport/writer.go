package csvexport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"assaylab/internal/render"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer wraps csv.Writer for exporting report tables as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteTitle writes one single-cell row per non-empty line.
func (w *Writer) WriteTitle(lines ...string) error {
	for _, l := range lines {
		if l == "" {
			continue
		}
		if err := w.csv.Write([]string{l}); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes the header row, the body rows and the totals row.
func (w *Writer) WriteTable(t render.Table) error {
	if err := w.csv.Write(t.Headers); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := w.csv.Write(r.Cells); err != nil {
			return err
		}
	}
	if len(t.Totals) == 0 {
		return nil
	}
	return w.csv.Write(t.Totals)
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Renderer adapts Writer to render.Renderer.
type Renderer struct{}

// NewRenderer creates a CSV report renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) ContentType() string { return "text/csv; charset=utf-8" }

func (r *Renderer) Extension() string { return "csv" }

// Render writes the BOM, the title block, a blank separator line and the table.
func (r *Renderer) Render(ctx context.Context, doc *render.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(BOM)

	w := NewWriter(&buf)
	lines := append([]string{doc.Title, doc.Subtitle, doc.DateRange, doc.Description}, doc.Lines...)
	if err := w.WriteTitle(lines...); err != nil {
		return nil, fmt.Errorf("csv title: %w", err)
	}
	w.Flush()
	buf.WriteString("\n")

	if err := w.WriteTable(doc.Table); err != nil {
		return nil, fmt.Errorf("csv table: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition and object keys.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// Stamp layouts used in report filenames.
const (
	StampTime = "20060102150405"
	StampDate = "2006-01-02"
)

// BuildFilename returns {prefix}-{stamp}.{ext}, formatting t with layout.
func BuildFilename(prefix string, t time.Time, layout, ext string) string {
	return fmt.Sprintf("%s-%s.%s", SanitizeFilename(prefix), t.Format(layout), ext)
}
