package aggregate

import (
	"assaylab/internal/domain"
	"assaylab/internal/element"
)

// Source is the record set a report kind is computed from.
type Source int

const (
	SourceResults Source = iota
	SourceRequests
)

// Kind configures one report type: what it reads, how it groups, and how it is titled.
type Kind struct {
	Tag      domain.ReportKind
	Title    string
	Subtitle string

	// FilePrefix names the output file; StampStartDate selects the yyyy-MM-dd start
	// date over the generation timestamp as its suffix.
	FilePrefix     string
	StampStartDate bool

	Source Source
	// RequireData turns an empty fetch into an EmptyResultError.
	RequireData bool
	Monthly     bool
	SingleDay   bool

	UsesElements  bool
	FixedElements []string
	UsesPlants    bool
	RequirePlants bool
	// PlantColumns makes plant sources the table columns.
	PlantColumns  bool
	UsesJobNumber bool

	RequireDescription bool

	build func(in input) domain.Aggregate
}

type input struct {
	Results  []domain.LabResult
	Requests []domain.LabRequest
	Plants   []domain.PlantSource
	Elements []string
}

// NeedsPlants reports whether plant sources are fetched to build the columns.
func (k *Kind) NeedsPlants() bool { return k.PlantColumns }

// Build runs the kind's aggregation over already-fetched records.
func (k *Kind) Build(results []domain.LabResult, requests []domain.LabRequest, plants []domain.PlantSource, elements []string) domain.Aggregate {
	if k.FixedElements != nil {
		elements = k.FixedElements
	}
	return k.build(input{Results: results, Requests: requests, Plants: plants, Elements: elements})
}

var kinds = []Kind{
	{
		Tag:          domain.KindGeology,
		Title:        "Geology Report",
		Subtitle:     "Analysis Statistics",
		FilePrefix:   "GeoDaily",
		Source:       SourceResults,
		UsesElements: true,
		build:        func(in input) domain.Aggregate { return ByDatePresenceCounts(in.Results, in.Elements) },
	},
	{
		Tag:                domain.KindMet,
		Title:              "MET Report",
		FilePrefix:         "MetReport",
		StampStartDate:     true,
		Source:             SourceResults,
		RequireData:        true,
		UsesElements:       true,
		UsesJobNumber:      true,
		RequireDescription: true,
		build:              func(in input) domain.Aggregate { return MetReportRows(in.Results, in.Elements) },
	},
	{
		Tag:           domain.KindMetStatistics,
		Title:         "MET Report",
		Subtitle:      "Analysis Statistics",
		FilePrefix:    "MetDaily",
		Source:        SourceResults,
		FixedElements: element.AnalysisSubset(),
		build:         func(in input) domain.Aggregate { return ByDatePresenceCounts(in.Results, in.Elements) },
	},
	{
		Tag:          domain.KindDaily,
		Title:        "Daily Report",
		Subtitle:     "Samples Received Statistics",
		FilePrefix:   "DailySamples",
		Source:       SourceRequests,
		RequireData:  true,
		UsesPlants:   true,
		PlantColumns: true,
		build:        func(in input) domain.Aggregate { return ByDatePlantSampleCounts(in.Requests, in.Plants) },
	},
	{
		Tag:            domain.KindDailyAssays,
		Title:          "Daily Report",
		Subtitle:       "Plant Assays",
		FilePrefix:     "DailyReport",
		StampStartDate: true,
		Source:         SourceResults,
		RequireData:    true,
		SingleDay:      true,
		UsesElements:   true,
		UsesPlants:     true,
		build:          func(in input) domain.Aggregate { return DailyPlantAssayRows(in.Results, in.Elements) },
	},
	{
		Tag:          domain.KindYTDSamples,
		Title:        "Year-To-Date Report",
		Subtitle:     "Samples Received Statistics",
		FilePrefix:   "MonthSamples",
		Source:       SourceRequests,
		Monthly:      true,
		UsesPlants:   true,
		PlantColumns: true,
		build:        func(in input) domain.Aggregate { return ByMonthPlantSampleCounts(in.Requests, in.Plants) },
	},
	{
		Tag:          domain.KindYTDAnalysis,
		Title:        "Year-To-Date Report",
		Subtitle:     "Analysis Statistics",
		FilePrefix:   "MonthsTotals",
		Source:       SourceResults,
		Monthly:      true,
		UsesPlants:   true,
		PlantColumns: true,
		build:        func(in input) domain.Aggregate { return ByMonthAnalysisPresenceCounts(in.Results, in.Plants) },
	},
	{
		Tag:           domain.KindPlant,
		Title:         "Plant Report",
		Subtitle:      "Samples Received Statistics",
		FilePrefix:    "PlantDailyReport",
		Source:        SourceRequests,
		UsesPlants:    true,
		RequirePlants: true,
		PlantColumns:  true,
		build:         func(in input) domain.Aggregate { return ByDatePlantSampleCounts(in.Requests, in.Plants) },
	},
}

var kindIndex = func() map[domain.ReportKind]*Kind {
	m := make(map[domain.ReportKind]*Kind, len(kinds))
	for i := range kinds {
		m[kinds[i].Tag] = &kinds[i]
	}
	return m
}()

// Lookup returns the configuration for a report tag.
func Lookup(tag domain.ReportKind) (*Kind, bool) {
	k, ok := kindIndex[tag]
	return k, ok
}

// Kinds returns every report kind in menu order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}
