package seed

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"assaylab/internal/element"
)

type requestKey struct {
	jobNumber  string
	plant      string
	production string
	reported   string
}

// WriteSQL writes one transaction that upserts the plant sources and inserts one
// lab request per job, plant and date pair with its results.
func WriteSQL(w io.Writer, samples []Sample) error {
	bw := bufio.NewWriter(w)

	var (
		plants   []string
		seen     = make(map[string]bool)
		order    []requestKey
		requests = make(map[requestKey][]Sample)
	)
	for _, s := range samples {
		if !seen[s.Plant] {
			seen[s.Plant] = true
			plants = append(plants, s.Plant)
		}
		k := requestKey{
			jobNumber:  s.JobNumber,
			plant:      s.Plant,
			production: s.ProductionDate.Format("2006-01-02"),
			reported:   s.DateReported.Format("2006-01-02"),
		}
		if _, ok := requests[k]; !ok {
			order = append(order, k)
		}
		requests[k] = append(requests[k], s)
	}

	fmt.Fprintln(bw, "-- Lab result seed data generated from a workbook.")
	fmt.Fprintf(bw, "-- %d samples in %d requests across %d plant sources.\n", len(samples), len(order), len(plants))
	fmt.Fprintln(bw, "BEGIN;")
	fmt.Fprintln(bw)

	if len(plants) > 0 {
		fmt.Fprintln(bw, "INSERT INTO plant_sources (plant_source_name) VALUES")
		for i, p := range plants {
			sep := ","
			if i == len(plants)-1 {
				sep = ""
			}
			fmt.Fprintf(bw, "  (%s)%s\n", quote(p), sep)
		}
		fmt.Fprintln(bw, "ON CONFLICT (plant_source_name) DO NOTHING;")
		fmt.Fprintln(bw)
	}

	for _, k := range order {
		writeRequest(bw, k, requests[k])
	}

	fmt.Fprintln(bw, "COMMIT;")
	return bw.Flush()
}

func writeRequest(w io.Writer, k requestKey, samples []Sample) {
	names := element.Names()
	columns := make([]string, len(names))
	casts := make([]string, len(names))
	for i, n := range names {
		columns[i] = element.Column(n)
		casts[i] = "v." + columns[i] + "::numeric"
	}

	fmt.Fprintln(w, "WITH rq AS (")
	fmt.Fprintln(w, "  INSERT INTO lab_requests (job_number, request_date, production_date, date_reported, plant_source_id, number_of_samples)")
	fmt.Fprintf(w, "  SELECT %s, %s, %s, %s, id, %d FROM plant_sources WHERE plant_source_name = %s\n",
		quote(k.jobNumber), quote(k.production), quote(k.production), quote(k.reported), len(samples), quote(k.plant))
	fmt.Fprintln(w, "  RETURNING id")
	fmt.Fprintln(w, ")")
	fmt.Fprintf(w, "INSERT INTO lab_results (lab_request_id, sample_id, time_of_day, %s)\n", strings.Join(columns, ", "))
	fmt.Fprintf(w, "SELECT rq.id, v.sample_id, v.time_of_day::time, %s\n", strings.Join(casts, ", "))
	fmt.Fprintln(w, "FROM rq, (VALUES")
	for i, s := range samples {
		cells := make([]string, 0, len(names)+2)
		cells = append(cells, quote(s.SampleID), nullable(s.TimeOfDay))
		for _, n := range names {
			if v, ok := s.Values[n]; ok {
				cells = append(cells, v.StringFixed(4))
			} else {
				cells = append(cells, "NULL")
			}
		}
		sep := ","
		if i == len(samples)-1 {
			sep = ""
		}
		fmt.Fprintf(w, "  (%s)%s\n", strings.Join(cells, ", "), sep)
	}
	fmt.Fprintf(w, ") AS v(sample_id, time_of_day, %s);\n\n", strings.Join(columns, ", "))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return quote(s)
}
