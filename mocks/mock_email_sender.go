package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendReviewNeeded(ctx context.Context, record *domain.StagingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockEmailSender) SendImportFailed(ctx context.Context, record *domain.StagingRecord, reason string) error {
	args := m.Called(ctx, record, reason)
	return args.Error(0)
}
