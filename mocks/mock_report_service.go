package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"assaylab/internal/domain"
	"assaylab/internal/service"
)

// MockReportService is a mock implementation of service.ReportService.
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Generate(ctx context.Context, req domain.ReportRequest) (*domain.ReportFile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportFile), args.Error(1)
}

func (m *MockReportService) Kinds() []service.KindInfo {
	args := m.Called()
	return args.Get(0).([]service.KindInfo)
}

func (m *MockReportService) ElementNames() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockReportService) PlantSources(ctx context.Context) ([]domain.PlantSource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlantSource), args.Error(1)
}

func (m *MockReportService) SearchJobNumbers(ctx context.Context, term string) ([]string, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
