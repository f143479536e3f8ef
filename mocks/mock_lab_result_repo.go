package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"assaylab/internal/domain"
)

// MockLabResultRepo is a mock implementation of port.LabResultRepository.
type MockLabResultRepo struct {
	mock.Mock
}

func (m *MockLabResultRepo) ListResults(ctx context.Context, filter domain.ResultFilter) ([]domain.LabResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LabResult), args.Error(1)
}

func (m *MockLabResultRepo) ListRequests(ctx context.Context, filter domain.ResultFilter) ([]domain.LabRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LabRequest), args.Error(1)
}

func (m *MockLabResultRepo) ListPlantSources(ctx context.Context, ids []int64) ([]domain.PlantSource, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlantSource), args.Error(1)
}

func (m *MockLabResultRepo) SearchJobNumbers(ctx context.Context, term string, limit int) ([]string, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
