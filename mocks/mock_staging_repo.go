package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

// MockStagingRepo is a mock implementation of port.StagingRepository.
type MockStagingRepo struct {
	mock.Mock
}

func (m *MockStagingRepo) Create(ctx context.Context, record *domain.StagingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStagingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.StagingRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockStagingRepo) GetByContentHash(ctx context.Context, hash string) (*domain.StagingRecord, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockStagingRepo) List(ctx context.Context, filters port.StagingListFilters) ([]domain.StagingRecord, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StagingRecord), args.Int(1), args.Error(2)
}

func (m *MockStagingRepo) Update(ctx context.Context, record *domain.StagingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStagingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStagingRepo) ClaimPending(ctx context.Context, limit int) ([]domain.StagingRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StagingRecord), args.Error(1)
}

func (m *MockStagingRepo) ListLines(ctx context.Context, recordID uuid.UUID) ([]domain.StagingLineItem, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StagingLineItem), args.Error(1)
}

func (m *MockStagingRepo) ReplaceLines(ctx context.Context, recordID uuid.UUID, lines []domain.StagingLineItem) error {
	args := m.Called(ctx, recordID, lines)
	return args.Error(0)
}

func (m *MockStagingRepo) UpdateLine(ctx context.Context, line *domain.StagingLineItem) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}
