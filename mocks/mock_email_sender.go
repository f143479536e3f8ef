package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"assaylab/internal/port"
)

// MockReportMailer is a mock implementation of port.ReportMailer.
type MockReportMailer struct {
	mock.Mock
}

func (m *MockReportMailer) SendReport(ctx context.Context, msg port.ReportEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
