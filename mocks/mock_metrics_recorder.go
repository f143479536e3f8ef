package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockMetricsRecorder is a mock implementation of metrics.Recorder.
type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) ObserveReport(kind, outcome string, elapsed time.Duration) {
	m.Called(kind, outcome, elapsed)
}
