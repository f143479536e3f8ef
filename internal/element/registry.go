// Package element is the single source of truth for which lab result fields
// are chemical elements and how to read them.
package element

import (
	"strings"

	"github.com/shopspring/decimal"

	"assaylab/internal/domain"
)

var names = []string{
	"Mn", "Sol_Mn", "Fe", "B", "MnO2", "SiO2", "Al2O3", "MgO", "CaO", "Au", "H2O", "Mg", "P", "As",
}

// analysisSubset is the set of elements whose presence marks a sample as analysed
// in the month analysis statistics.
var analysisSubset = []string{"Al2O3", "CaO", "Fe", "H2O", "Mg", "MgO", "Mn", "P", "SiO2"}

var canonical = func() map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = n
	}
	return m
}()

// Column returns the lab_results column holding the named element, or "" when
// the name is not recognized.
func Column(name string) string {
	c, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ""
	}
	if c == "As" {
		return "arsenic"
	}
	return strings.ToLower(c)
}

// Names returns the recognized element names in display order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// AnalysisSubset returns the elements used for month analysis presence counts.
func AnalysisSubset() []string {
	out := make([]string, len(analysisSubset))
	copy(out, analysisSubset)
	return out
}

// Known reports whether name is a recognized element, ignoring case.
func Known(name string) bool {
	_, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Value returns the named element's value for r. The second result is false when
// the name is not recognized or the field was not measured.
func Value(r *domain.LabResult, name string) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Decimal{}, false
	}
	var v decimal.NullDecimal
	switch name {
	case "Mn":
		v = r.Mn
	case "Sol_Mn":
		v = r.SolMn
	case "Fe":
		v = r.Fe
	case "B":
		v = r.B
	case "MnO2":
		v = r.MnO2
	case "SiO2":
		v = r.SiO2
	case "Al2O3":
		v = r.Al2O3
	case "MgO":
		v = r.MgO
	case "CaO":
		v = r.CaO
	case "Au":
		v = r.Au
	case "H2O":
		v = r.H2O
	case "Mg":
		v = r.Mg
	case "P":
		v = r.P
	case "As":
		v = r.As
	default:
		return decimal.Decimal{}, false
	}
	if !v.Valid {
		return decimal.Decimal{}, false
	}
	return v.Decimal, true
}

// Positive reports whether the named element is present and strictly greater than zero.
func Positive(r *domain.LabResult, name string) bool {
	v, ok := Value(r, name)
	return ok && v.IsPositive()
}

// Normalize turns a caller selection into an ordered, de-duplicated element list.
// Entries may be comma-joined ("Fe,Mn"), as HTML forms post them. Recognized names
// are mapped to their canonical spelling; unrecognized ones are kept and read as absent.
// An empty selection means every known element.
func Normalize(selection []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range selection {
		for _, part := range strings.Split(entry, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			if c, ok := canonical[strings.ToLower(name)]; ok {
				name = c
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return Names()
	}
	return out
}
