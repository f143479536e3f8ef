package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
)

var (
	colorHeaderBand  = [3]int{232, 245, 233}
	colorTableHeader = [3]int{46, 125, 50}
	colorSubtotal    = [3]int{241, 245, 241}
	colorTotals      = [3]int{200, 230, 201}
	colorTextDark    = [3]int{33, 33, 33}
	colorTextMuted   = [3]int{117, 117, 117}
	colorRule        = [3]int{224, 224, 224}
)

const (
	margin        = 12.0
	logoWidth     = 28.0
	bandTop       = 8.0
	bandBaseline  = 30.0
	lineHeight    = 5.0
	rowHeight     = 6.0
	footerReserve = 18.0

	keyColumnWidth  = 34.0
	dataColumnWidth = 22.0

	logoName = "report-logo"

	// ctx is re-checked after this many rows.
	cancelCheckRows = 50
)

var errUnsupportedLogo = errors.New("logo must be a PNG or JPEG image")

// PDFRenderer renders documents as A4 PDF pages.
type PDFRenderer struct{}

// NewPDFRenderer creates a new PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Extension() string { return "pdf" }

// Render lays out the header band, the table with its totals row, and a footer on
// every page. The table header repeats after each page break.
func (r *PDFRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orientation := doc.Orientation
	if orientation == "" {
		orientation = Portrait
	}

	pdf := fpdf.New(string(orientation), "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("assaylab", true)
	pdf.AliasNbPages("")

	// Core fonts are cp1252; text arrives as UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	hasLogo := false
	if len(doc.Logo) > 0 {
		imageType, err := detectImageType(doc.Logo)
		if err != nil {
			return nil, err
		}
		pdf.RegisterImageOptionsReader(logoName, fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}, bytes.NewReader(doc.Logo))
		if pdf.Err() {
			return nil, fmt.Errorf("registering logo: %w", pdf.Error())
		}
		hasLogo = true
	}

	pdf.SetHeaderFunc(func() { drawHeaderBand(pdf, tr, doc, hasLogo) })
	pdf.SetFooterFunc(func() { drawFooter(pdf, tr, doc) })

	pdf.AddPage()
	widths := columnWidths(pdf, doc)
	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - footerReserve

	if doc.Description != "" {
		pdf.SetFont("Times", "U", 12)
		setText(pdf, colorTextDark)
		pdf.CellFormat(0, 7, tr(doc.Description), "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	drawTableHeader(pdf, tr, doc.Table, widths)
	for i, row := range doc.Table.Rows {
		if i%cancelCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if pdf.GetY()+rowHeight > bottom {
			pdf.AddPage()
			drawTableHeader(pdf, tr, doc.Table, widths)
		}
		style := ""
		if row.Subtotal {
			style = "B"
		}
		drawRow(pdf, tr, row.Cells, widths, doc.Table.KeyColumns, style, row.Subtotal, colorSubtotal)
	}

	if pdf.GetY()+rowHeight > bottom {
		pdf.AddPage()
		drawTableHeader(pdf, tr, doc.Table, widths)
	}
	drawRow(pdf, tr, doc.Table.Totals, widths, doc.Table.KeyColumns, "B", true, colorTotals)

	if pdf.Err() {
		return nil, fmt.Errorf("PDF layout error: %w", pdf.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeaderBand(pdf *fpdf.Fpdf, tr func(string) string, doc *Document, hasLogo bool) {
	pageWidth, _ := pdf.GetPageSize()
	bandHeight := bandBaseline + lineHeight*float64(len(doc.Lines))

	setFill(pdf, colorHeaderBand)
	pdf.Rect(0, 0, pageWidth, bandHeight, "F")

	if hasLogo {
		pdf.ImageOptions(logoName, margin, bandTop, logoWidth, 0, false, fpdf.ImageOptions{}, 0, "")
	}

	pdf.SetXY(margin, bandTop)
	pdf.SetFont("Times", "B", 18)
	setText(pdf, colorTextDark)
	pdf.CellFormat(0, 8, tr(doc.Title), "", 1, "R", false, 0, "")

	if doc.Subtitle != "" {
		pdf.SetFont("Times", "", 12)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "R", false, 0, "")
	}
	if doc.DateRange != "" {
		pdf.SetFont("Arial", "", 10)
		setText(pdf, colorTextMuted)
		pdf.CellFormat(0, lineHeight, tr(doc.DateRange), "", 1, "R", false, 0, "")
	}

	pdf.SetY(bandBaseline)
	pdf.SetFont("Arial", "", 9)
	setText(pdf, colorTextDark)
	for _, line := range doc.Lines {
		pdf.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}

	setDraw(pdf, colorRule)
	pdf.SetLineWidth(0.3)
	pdf.Line(margin, bandHeight, pageWidth-margin, bandHeight)
	pdf.SetY(bandHeight + 4)
}

func drawFooter(pdf *fpdf.Fpdf, tr func(string) string, doc *Document) {
	pdf.SetY(-12)
	pdf.SetFont("Arial", "I", 8)
	setText(pdf, colorTextMuted)
	pdf.CellFormat(0, 5, tr("Report generated on "+doc.GeneratedAt.Format("02-Jan-2006")), "", 0, "L", false, 0, "")
	pdf.SetX(margin)
	pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func drawTableHeader(pdf *fpdf.Fpdf, tr func(string) string, t Table, widths []float64) {
	pdf.SetFont("Arial", "B", fontSize(len(widths)))
	setFill(pdf, colorTableHeader)
	pdf.SetTextColor(255, 255, 255)
	setDraw(pdf, colorRule)
	for i, h := range t.Headers {
		pdf.CellFormat(widths[i], rowHeight+1, fit(pdf, tr, h, widths[i]), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string, widths []float64, keys int, style string, fill bool, fillColor [3]int) {
	pdf.SetFont("Arial", style, fontSize(len(widths)))
	setText(pdf, colorTextDark)
	setDraw(pdf, colorRule)
	setFill(pdf, fillColor)
	for i, w := range widths {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		align := "R"
		if i < keys {
			align = "L"
		}
		pdf.CellFormat(w, rowHeight, fit(pdf, tr, text, w), "B", 0, align, fill, 0, "")
	}
	pdf.Ln(-1)
}

// columnWidths gives portrait pages fixed narrow columns and spreads landscape
// columns evenly across the usable width. Portrait falls back to even widths when
// the fixed layout would overflow.
func columnWidths(pdf *fpdf.Fpdf, doc *Document) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*margin
	n := len(doc.Table.Headers)
	widths := make([]float64, n)
	if n == 0 {
		return widths
	}

	if doc.Orientation != Landscape {
		sum := 0.0
		for i := range widths {
			if i < doc.Table.KeyColumns {
				widths[i] = keyColumnWidth
			} else {
				widths[i] = dataColumnWidth
			}
			sum += widths[i]
		}
		if sum <= usable {
			return widths
		}
	}

	for i := range widths {
		widths[i] = usable / float64(n)
	}
	return widths
}

func fontSize(columns int) float64 {
	if columns > 10 {
		return 7
	}
	return 9
}

// fit translates text for the current font and truncates it to a cell of width w.
// Truncation works on runes of the original so multi-byte characters are never split.
func fit(pdf *fpdf.Fpdf, tr func(string) string, text string, w float64) string {
	limit := w - 2*pdf.GetCellMargin()
	if out := tr(text); pdf.GetStringWidth(out) <= limit {
		return out
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"..")) > limit {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "..")
}

func detectImageType(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/png"):
		return "PNG", nil
	case mt.Is("image/jpeg"):
		return "JPG", nil
	default:
		return "", fmt.Errorf("%w, got %s", errUnsupportedLogo, mt.String())
	}
}

func setFill(pdf *fpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *fpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDraw(pdf *fpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }
