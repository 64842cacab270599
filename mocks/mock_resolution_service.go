package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/service"
)

// MockResolutionService is a mock implementation of service.ResolutionService.
type MockResolutionService struct {
	mock.Mock
}

func (m *MockResolutionService) ResolveRecord(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockResolutionService) ConfirmSupplier(ctx context.Context, input service.ConfirmSupplierInput) (*domain.StagingRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockResolutionService) ConfirmLine(ctx context.Context, input service.ConfirmLineInput) (*domain.StagingLineItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingLineItem), args.Error(1)
}

func (m *MockResolutionService) SetDocumentKind(ctx context.Context, recordID uuid.UUID, kind domain.DocumentKind) (*domain.StagingRecord, error) {
	args := m.Called(ctx, recordID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}

func (m *MockResolutionService) SetLinks(ctx context.Context, input service.SetLinksInput) (*domain.StagingRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagingRecord), args.Error(1)
}
