package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"assaylab/internal/render"
)

// MockRenderer is a mock implementation of render.Renderer.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, doc *render.Document) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) ContentType() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRenderer) Extension() string {
	args := m.Called()
	return args.String(0)
}
