// Package seed converts lab result workbooks into SQL seed scripts for local and
// staging databases.
package seed

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"assaylab/internal/element"
)

// Sample is one workbook row: a lab result together with the request it belongs to.
type Sample struct {
	JobNumber      string
	Plant          string
	ProductionDate time.Time
	DateReported   time.Time
	SampleID       string
	TimeOfDay      string
	// Values holds measured elements keyed by canonical element name.
	Values map[string]decimal.Decimal
}

const (
	colJobNumber      = "jobnumber"
	colPlant          = "plantsource"
	colProductionDate = "productiondate"
	colDateReported   = "datereported"
	colSampleID       = "sampleid"
	colTime           = "time"
)

var requiredColumns = []string{colJobNumber, colPlant, colProductionDate, colSampleID}

var dateLayouts = []string{"2006-01-02", "02-Jan-2006", "1/2/2006", "01-02-06", time.RFC3339}

// ReadWorkbook reads samples from the first sheet. Row 1 holds headers; element
// columns are matched by name ignoring case. Unreadable cells are reported as
// warnings and left empty; rows that cannot be stored are skipped with a warning.
func ReadWorkbook(r io.Reader) ([]Sample, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	header, elements := mapHeader(rows[0])
	for _, c := range requiredColumns {
		if _, ok := header[c]; !ok {
			return nil, nil, fmt.Errorf("sheet %s: missing column %q", sheet, c)
		}
	}

	var (
		samples  []Sample
		warnings []string
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		warn := func(format string, args ...interface{}) {
			warnings = append(warnings, fmt.Sprintf("row %d: ", line)+fmt.Sprintf(format, args...))
		}

		s := Sample{
			JobNumber: strings.TrimSpace(cellVal(row, header[colJobNumber])),
			Plant:     strings.TrimSpace(cellVal(row, header[colPlant])),
			SampleID:  strings.TrimSpace(cellVal(row, header[colSampleID])),
			Values:    make(map[string]decimal.Decimal),
		}
		if s.SampleID == "" {
			continue
		}
		if s.JobNumber == "" || s.Plant == "" {
			warn("job number and plant source are required")
			continue
		}

		if s.ProductionDate, err = parseDate(cellVal(row, header[colProductionDate])); err != nil {
			warn("production date: %v", err)
			continue
		}
		s.DateReported = s.ProductionDate
		if idx, ok := header[colDateReported]; ok && strings.TrimSpace(cellVal(row, idx)) != "" {
			if s.DateReported, err = parseDate(cellVal(row, idx)); err != nil {
				warn("date reported: %v", err)
				continue
			}
		}
		if s.ProductionDate.After(s.DateReported) {
			warn("production date %s is after date reported %s", s.ProductionDate.Format("2006-01-02"), s.DateReported.Format("2006-01-02"))
			continue
		}

		if idx, ok := header[colTime]; ok {
			if s.TimeOfDay, err = parseTimeOfDay(cellVal(row, idx)); err != nil {
				warn("time: %v", err)
			}
		}

		for name, idx := range elements {
			raw := strings.TrimSpace(cellVal(row, idx))
			if raw == "" {
				continue
			}
			v, err := decimal.NewFromString(raw)
			if err != nil {
				warn("%s: invalid value %q", name, raw)
				continue
			}
			if v.IsNegative() {
				warn("%s: negative value %s", name, raw)
				continue
			}
			s.Values[name] = v
		}

		samples = append(samples, s)
	}
	return samples, warnings, nil
}

// mapHeader indexes metadata columns by their compacted lower-case name and element
// columns by canonical element name.
func mapHeader(row []string) (header map[string]int, elements map[string]int) {
	header = make(map[string]int)
	elements = make(map[string]int)
	canonical := make(map[string]string)
	for _, n := range element.Names() {
		canonical[strings.ToLower(n)] = n
	}
	for i, h := range row {
		h = strings.TrimSpace(h)
		if name, ok := canonical[strings.ToLower(h)]; ok {
			elements[name] = i
			continue
		}
		key := strings.NewReplacer(" ", "", "_", "").Replace(strings.ToLower(h))
		if _, dup := header[key]; !dup {
			header[key] = i
		}
	}
	return header, elements
}

// parseDate accepts the common text layouts and Excel date serials.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseTimeOfDay returns "HH:MM" for text times and Excel day fractions.
func parseTimeOfDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range []string{"15:04", "15:04:05", "3:04 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	frac, err := strconv.ParseFloat(s, 64)
	if err != nil || frac < 0 || frac >= 1 {
		return "", fmt.Errorf("unrecognized time %q", s)
	}
	minutes := int(frac*24*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", minutes/60%24, minutes%60), nil
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
