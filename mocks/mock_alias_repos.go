package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
)

// MockSupplierAliasRepo is a mock implementation of port.SupplierAliasRepository.
type MockSupplierAliasRepo struct {
	mock.Mock
}

func (m *MockSupplierAliasRepo) Upsert(ctx context.Context, alias *domain.SupplierAlias) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

func (m *MockSupplierAliasRepo) GetByKey(ctx context.Context, key string) (*domain.SupplierAlias, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupplierAlias), args.Error(1)
}

func (m *MockSupplierAliasRepo) ListAll(ctx context.Context) ([]domain.SupplierAlias, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SupplierAlias), args.Error(1)
}

func (m *MockSupplierAliasRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockItemAliasRepo is a mock implementation of port.ItemAliasRepository.
type MockItemAliasRepo struct {
	mock.Mock
}

func (m *MockItemAliasRepo) Upsert(ctx context.Context, alias *domain.ItemAlias) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

func (m *MockItemAliasRepo) GetByKey(ctx context.Context, key string, supplierID *uuid.UUID) (*domain.ItemAlias, error) {
	args := m.Called(ctx, key, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ItemAlias), args.Error(1)
}

func (m *MockItemAliasRepo) ListBySupplier(ctx context.Context, supplierID *uuid.UUID) ([]domain.ItemAlias, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ItemAlias), args.Error(1)
}

func (m *MockItemAliasRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockServiceMappingRepo is a mock implementation of port.ServiceMappingRepository.
type MockServiceMappingRepo struct {
	mock.Mock
}

func (m *MockServiceMappingRepo) Upsert(ctx context.Context, mapping *domain.ServiceMappingPattern) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockServiceMappingRepo) ListForSupplier(ctx context.Context, supplierID *uuid.UUID) ([]domain.ServiceMappingPattern, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceMappingPattern), args.Error(1)
}

func (m *MockServiceMappingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
