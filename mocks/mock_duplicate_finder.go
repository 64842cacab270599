package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
)

// MockDuplicateFinder is a mock implementation of port.DuplicateFinder.
type MockDuplicateFinder struct {
	mock.Mock
}

func (m *MockDuplicateFinder) FindDuplicates(ctx context.Context, record *domain.StagingRecord) ([]domain.DuplicateCandidate, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DuplicateCandidate), args.Error(1)
}
