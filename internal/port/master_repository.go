package port

import (
	"context"

	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// MasterRepository provides read access to master data (suppliers, items,
// accounts). Master records are owned by the accounting system; this side
// only reads them, except for seeding.
type MasterRepository interface {
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)

	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	GetItemByCode(ctx context.Context, code string) (*domain.Item, error)

	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByName(ctx context.Context, company, name string) (*domain.Account, error)
}

// PurchaseOrderRepository provides read access to purchase orders for linking.
type PurchaseOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	ListOpenBySupplier(ctx context.Context, supplierID uuid.UUID) ([]domain.PurchaseOrder, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.PurchaseOrderItem, error)
}

// PurchaseReceiptRepository provides read access to existing receipts a
// record may be linked against.
type PurchaseReceiptRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error)
	ListByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]domain.PurchaseReceipt, error)
}
