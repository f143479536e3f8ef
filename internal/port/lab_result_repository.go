package port

import (
	"context"

	"assaylab/internal/domain"
)

// LabResultRepository is the read-only query contract over lab requests and results.
type LabResultRepository interface {
	ListResults(ctx context.Context, filter domain.ResultFilter) ([]domain.LabResult, error)
	ListRequests(ctx context.Context, filter domain.ResultFilter) ([]domain.LabRequest, error)
	ListPlantSources(ctx context.Context, ids []int64) ([]domain.PlantSource, error)
	SearchJobNumbers(ctx context.Context, term string, limit int) ([]string, error)
}
