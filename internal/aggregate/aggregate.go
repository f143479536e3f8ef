// Package aggregate turns lab records into report tables. The operations here are
// pure: they take already-fetched records and never touch the store.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"assaylab/internal/domain"
	"assaylab/internal/element"
)

const (
	dateLabelLayout  = "02-Jan-2006"
	monthLabelLayout = "Jan-2006"
	totalsLabel      = "Totals"
)

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Month truncates t to the first day of its UTC calendar month.
func Month(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

type period struct {
	trunc  func(time.Time) time.Time
	layout string
	header string
}

var (
	byDay   = period{trunc: Day, layout: dateLabelLayout, header: "Prod Date"}
	byMonth = period{trunc: Month, layout: monthLabelLayout, header: "Month"}
)

// counter accumulates integer counts per period and column.
type counter struct {
	p       period
	columns int
	rows    map[time.Time][]int64
}

func newCounter(p period, columns int) *counter {
	return &counter{p: p, columns: columns, rows: make(map[time.Time][]int64)}
}

func (c *counter) add(t time.Time, col int, n int64) {
	key := c.p.trunc(t)
	row, ok := c.rows[key]
	if !ok {
		row = make([]int64, c.columns)
		c.rows[key] = row
	}
	row[col] += n
}

// touch makes sure a period row exists even when nothing is counted in it.
func (c *counter) touch(t time.Time) {
	key := c.p.trunc(t)
	if _, ok := c.rows[key]; !ok {
		c.rows[key] = make([]int64, c.columns)
	}
}

// aggregate emits rows sorted by period with row totals and a trailing totals row.
func (c *counter) aggregate(columns []string) domain.Aggregate {
	keys := make([]time.Time, 0, len(c.rows))
	for k := range c.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	colTotals := make([]int64, c.columns)
	var grand int64
	rows := make([]domain.AggregateRow, 0, len(keys))
	for _, k := range keys {
		counts := c.rows[k]
		values := make([]decimal.NullDecimal, c.columns)
		var total int64
		for i, n := range counts {
			values[i] = count(n)
			total += n
			colTotals[i] += n
		}
		grand += total
		rows = append(rows, domain.AggregateRow{
			Labels: []string{k.Format(c.p.layout)},
			Period: k,
			Values: values,
			Total:  count(total),
		})
	}

	totals := make([]decimal.NullDecimal, c.columns)
	for i, n := range colTotals {
		totals[i] = count(n)
	}

	return domain.Aggregate{
		KeyHeaders: []string{c.p.header},
		Columns:    columns,
		Rows:       rows,
		Totals: domain.AggregateRow{
			Labels: []string{totalsLabel},
			Values: totals,
			Total:  count(grand),
		},
		RowTotals: true,
	}
}

func count(n int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(n))
}

// ByDatePresenceCounts counts, per production date and element, the results whose
// value is present and strictly positive. The row total is the sum of the element
// counts, so a sample positive in several elements is counted once per element.
func ByDatePresenceCounts(results []domain.LabResult, elements []string) domain.Aggregate {
	c := newCounter(byDay, len(elements))
	for i := range results {
		r := &results[i]
		c.touch(r.ProductionDate)
		for col, name := range elements {
			if element.Positive(r, name) {
				c.add(r.ProductionDate, col, 1)
			}
		}
	}
	return c.aggregate(copyStrings(elements))
}

// ByDatePlantSampleCounts sums NumberOfSamples per production date and plant source.
// Columns follow plants; requests for plants outside that set are ignored.
func ByDatePlantSampleCounts(requests []domain.LabRequest, plants []domain.PlantSource) domain.Aggregate {
	return plantSampleCounts(requests, plants, byDay)
}

// ByMonthPlantSampleCounts is ByDatePlantSampleCounts grouped by calendar month.
func ByMonthPlantSampleCounts(requests []domain.LabRequest, plants []domain.PlantSource) domain.Aggregate {
	return plantSampleCounts(requests, plants, byMonth)
}

func plantSampleCounts(requests []domain.LabRequest, plants []domain.PlantSource, p period) domain.Aggregate {
	index, columns := plantColumns(plants)
	c := newCounter(p, len(columns))
	for i := range requests {
		rq := &requests[i]
		col, ok := index[rq.PlantSourceID]
		if !ok {
			continue
		}
		c.add(rq.ProductionDate, col, int64(rq.NumberOfSamples))
	}
	return c.aggregate(columns)
}

// ByMonthAnalysisPresenceCounts counts, per month and plant source, the results in
// which any element of the analysis subset is present and strictly positive.
func ByMonthAnalysisPresenceCounts(results []domain.LabResult, plants []domain.PlantSource) domain.Aggregate {
	index, columns := plantColumns(plants)
	subset := element.AnalysisSubset()
	c := newCounter(byMonth, len(columns))
	for i := range results {
		r := &results[i]
		col, ok := index[r.PlantSourceID]
		if !ok {
			continue
		}
		c.touch(r.ProductionDate)
		for _, name := range subset {
			if element.Positive(r, name) {
				c.add(r.ProductionDate, col, 1)
				break
			}
		}
	}
	return c.aggregate(columns)
}

// MetReportRows lists every result with its element values, ordered by production
// date. The trailing row counts, per element, the samples with a non-null value;
// unlike the date and month counts, a measured zero counts as present here.
func MetReportRows(results []domain.LabResult, elements []string) domain.Aggregate {
	ordered := make([]*domain.LabResult, len(results))
	for i := range results {
		ordered[i] = &results[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return Day(ordered[i].ProductionDate).Before(Day(ordered[j].ProductionDate))
	})

	present := make([]int64, len(elements))
	rows := make([]domain.AggregateRow, 0, len(ordered))
	for _, r := range ordered {
		values := make([]decimal.NullDecimal, len(elements))
		for col, name := range elements {
			if v, ok := element.Value(r, name); ok {
				values[col] = decimal.NewNullDecimal(v)
				present[col]++
			}
		}
		rows = append(rows, domain.AggregateRow{
			Labels: []string{r.SampleID},
			Period: Day(r.ProductionDate),
			Values: values,
		})
	}

	totals := make([]decimal.NullDecimal, len(elements))
	for i, n := range present {
		totals[i] = count(n)
	}

	return domain.Aggregate{
		KeyHeaders:      []string{"Sample Identification"},
		Columns:         copyStrings(elements),
		Unit:            "%",
		Rows:            rows,
		Totals:          domain.AggregateRow{Labels: []string{"Grand Totals"}, Values: totals},
		Precision:       2,
		TotalsPrecision: 0,
	}
}

type assayGroup struct {
	day     time.Time
	plantID int64
}

// DailyPlantAssayRows lists results grouped by production day and plant source, each
// group followed by a subtotal row summing the measured values. The trailing row
// sums all groups.
func DailyPlantAssayRows(results []domain.LabResult, elements []string) domain.Aggregate {
	ordered := make([]*domain.LabResult, len(results))
	for i := range results {
		ordered[i] = &results[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if da, db := Day(a.ProductionDate), Day(b.ProductionDate); !da.Equal(db) {
			return da.Before(db)
		}
		if a.PlantSourceName != b.PlantSourceName {
			return a.PlantSourceName < b.PlantSourceName
		}
		return a.PlantSourceID < b.PlantSourceID
	})

	grand := make([]decimal.Decimal, len(elements))
	var rows []domain.AggregateRow
	var group []decimal.Decimal
	var current assayGroup
	currentName := ""
	flush := func() {
		if group == nil {
			return
		}
		rows = append(rows, domain.AggregateRow{
			Labels:   []string{"", "", "Totals: " + currentName},
			Period:   current.day,
			Values:   sums(group),
			Subtotal: true,
		})
	}

	for _, r := range ordered {
		key := assayGroup{day: Day(r.ProductionDate), plantID: r.PlantSourceID}
		if group == nil || key.plantID != current.plantID || !key.day.Equal(current.day) {
			flush()
			current = key
			currentName = r.PlantSourceName
			group = make([]decimal.Decimal, len(elements))
		}
		values := make([]decimal.NullDecimal, len(elements))
		for col, name := range elements {
			if v, ok := element.Value(r, name); ok {
				values[col] = decimal.NewNullDecimal(v)
				group[col] = group[col].Add(v)
				grand[col] = grand[col].Add(v)
			}
		}
		rows = append(rows, domain.AggregateRow{
			Labels: []string{r.PlantSourceName, r.TimeOfDay, r.SampleID},
			Period: Day(r.ProductionDate),
			Values: values,
		})
	}
	flush()

	return domain.Aggregate{
		KeyHeaders:      []string{"Plant/Source", "Time", "Sample Identification"},
		Columns:         copyStrings(elements),
		Unit:            "%",
		Rows:            rows,
		Totals:          domain.AggregateRow{Labels: []string{totalsLabel, "", ""}, Values: sums(grand)},
		Precision:       2,
		TotalsPrecision: 2,
	}
}

func sums(values []decimal.Decimal) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewNullDecimal(v)
	}
	return out
}

func plantColumns(plants []domain.PlantSource) (map[int64]int, []string) {
	index := make(map[int64]int, len(plants))
	columns := make([]string, 0, len(plants))
	for _, p := range plants {
		if _, dup := index[p.ID]; dup {
			continue
		}
		index[p.ID] = len(columns)
		columns = append(columns, p.Name)
	}
	return index, columns
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
