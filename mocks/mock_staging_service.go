package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
	"ocrdesk/internal/service"
)

// MockStagingService is a mock implementation of service.StagingService.
type MockStagingService struct {
	mock.Mock
}

func (m *MockStagingService) Upload(ctx context.Context, input service.UploadInput) (*service.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockStagingService) GetByID(ctx context.Context, id uuid.UUID) (*domain.StagingRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockStagingService) GetLines(ctx context.Context, recordID uuid.UUID) ([]domain.StagingLineItem, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StagingLineItem), args.Error(1)
}

func (m *MockStagingService) List(ctx context.Context, filters port.StagingListFilters) ([]domain.StagingRecord, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StagingRecord), args.Int(1), args.Error(2)
}

func (m *MockStagingService) GetSourceURL(ctx context.Context, recordID uuid.UUID) (string, error) {
	args := m.Called(ctx, recordID)
	return args.String(0), args.Error(1)
}

func (m *MockStagingService) Delete(ctx context.Context, recordID uuid.UUID) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockStagingService) Retry(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockStagingService) NoAction(ctx context.Context, recordID uuid.UUID, reason string) (*domain.StagingRecord, error) {
	args := m.Called(ctx, recordID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockStagingService) Duplicates(ctx context.Context, recordID uuid.UUID) ([]domain.DuplicateCandidate, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DuplicateCandidate), args.Error(1)
}

func (m *MockStagingService) HandleDocumentEvent(ctx context.Context, input service.DocumentEventInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockStagingService) ProcessRecord(ctx context.Context, record *domain.StagingRecord, maxRetries int) {
	m.Called(ctx, record, maxRetries)
}
