package port

import (
	"context"

	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// SupplierAliasRepository defines the contract for supplier alias persistence.
// Keys are normalized before storage; Upsert replaces the target supplier for
// an existing key.
type SupplierAliasRepository interface {
	Upsert(ctx context.Context, alias *domain.SupplierAlias) error
	GetByKey(ctx context.Context, key string) (*domain.SupplierAlias, error)
	ListAll(ctx context.Context) ([]domain.SupplierAlias, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItemAliasRepository defines the contract for item alias persistence.
// An alias with a supplier scope shadows a global alias with the same key.
type ItemAliasRepository interface {
	Upsert(ctx context.Context, alias *domain.ItemAlias) error
	GetByKey(ctx context.Context, key string, supplierID *uuid.UUID) (*domain.ItemAlias, error)
	ListBySupplier(ctx context.Context, supplierID *uuid.UUID) ([]domain.ItemAlias, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceMappingRepository defines the contract for service mapping pattern
// persistence.
type ServiceMappingRepository interface {
	Upsert(ctx context.Context, mapping *domain.ServiceMappingPattern) error
	ListForSupplier(ctx context.Context, supplierID *uuid.UUID) ([]domain.ServiceMappingPattern, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
