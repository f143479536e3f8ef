package aggregate

import (
	"context"
	"time"

	"assaylab/internal/domain"
	"assaylab/internal/port"
)

// Result is an aggregation plus the facts about the fetched records that reports
// print in their header.
type Result struct {
	Kind                *Kind
	Aggregate           domain.Aggregate
	Records             int
	FirstProductionDate time.Time
	FirstDateReported   time.Time
	// Warnings lists requests whose production date falls after their date reported.
	Warnings []string
}

// Engine fetches the records a report kind needs and aggregates them.
type Engine struct {
	repo port.LabResultRepository
}

// NewEngine creates a new Engine reading from repo.
func NewEngine(repo port.LabResultRepository) *Engine {
	return &Engine{repo: repo}
}

// Run executes q. Store failures are returned as DependencyError with stage "query";
// kinds that require data return EmptyResultError when nothing matched.
func (e *Engine) Run(ctx context.Context, q domain.ReportQuery) (*Result, error) {
	kind, ok := Lookup(q.Kind)
	if !ok {
		return nil, domain.NewValidationError("kind", "unknown report type %q", q.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Dependency("query", err)
	}

	filter := q.Filter()
	res := &Result{Kind: kind}

	var (
		results  []domain.LabResult
		requests []domain.LabRequest
		err      error
	)
	switch kind.Source {
	case SourceResults:
		results, err = e.repo.ListResults(ctx, filter)
		res.Records = len(results)
	case SourceRequests:
		requests, err = e.repo.ListRequests(ctx, filter)
		res.Records = len(requests)
	}
	if err != nil {
		return nil, domain.Dependency("query", err)
	}

	if kind.RequireData && res.Records == 0 {
		return nil, &domain.EmptyResultError{Kind: kind.Tag, From: q.From, To: q.To}
	}

	var plants []domain.PlantSource
	if kind.NeedsPlants() {
		plants, err = e.repo.ListPlantSources(ctx, q.PlantIDs)
		if err != nil {
			return nil, domain.Dependency("query", err)
		}
	}

	res.Aggregate = kind.Build(results, requests, plants, q.Elements)
	res.FirstProductionDate, res.FirstDateReported = firstDates(results, requests)
	res.Warnings = dateWarnings(results, requests)
	return res, nil
}

func firstDates(results []domain.LabResult, requests []domain.LabRequest) (production, reported time.Time) {
	if len(results) > 0 {
		return results[0].ProductionDate, results[0].DateReported
	}
	if len(requests) > 0 {
		return requests[0].ProductionDate, requests[0].DateReported
	}
	return time.Time{}, time.Time{}
}

func dateWarnings(results []domain.LabResult, requests []domain.LabRequest) []string {
	var warnings []string
	for i := range requests {
		if err := requests[i].Validate(); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	seen := make(map[int64]bool)
	for i := range results {
		r := &results[i]
		if seen[r.LabRequestID] {
			continue
		}
		seen[r.LabRequestID] = true
		rq := domain.LabRequest{JobNumber: r.JobNumber, ProductionDate: r.ProductionDate, DateReported: r.DateReported}
		if err := rq.Validate(); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}
