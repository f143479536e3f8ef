package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAssetLoader is a mock implementation of service.AssetLoader.
type MockAssetLoader struct {
	mock.Mock
}

func (m *MockAssetLoader) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
