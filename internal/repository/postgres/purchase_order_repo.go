package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

type purchaseOrderRepo struct {
	db *sqlx.DB
}

// NewPurchaseOrderRepo creates a new PostgreSQL-backed PurchaseOrderRepository.
func NewPurchaseOrderRepo(db *sqlx.DB) port.PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var order domain.PurchaseOrder
	err := r.db.GetContext(ctx, &order, "SELECT * FROM purchase_orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("purchaseOrderRepo.GetByID: %w", err)
	}
	return &order, nil
}

func (r *purchaseOrderRepo) ListOpenBySupplier(ctx context.Context, supplierID uuid.UUID) ([]domain.PurchaseOrder, error) {
	var orders []domain.PurchaseOrder
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM purchase_orders
		WHERE supplier_id = $1 AND status = $2
		ORDER BY created_at DESC`,
		supplierID, domain.DocStatusSubmitted)
	if err != nil {
		return nil, fmt.Errorf("purchaseOrderRepo.ListOpenBySupplier: %w", err)
	}
	return orders, nil
}

func (r *purchaseOrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	var items []domain.PurchaseOrderItem
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM purchase_order_items WHERE purchase_order_id = $1", orderID)
	if err != nil {
		return nil, fmt.Errorf("purchaseOrderRepo.ListItems: %w", err)
	}
	return items, nil
}

type purchaseReceiptRepo struct {
	db *sqlx.DB
}

// NewPurchaseReceiptRepo creates a new PostgreSQL-backed PurchaseReceiptRepository.
func NewPurchaseReceiptRepo(db *sqlx.DB) port.PurchaseReceiptRepository {
	return &purchaseReceiptRepo{db: db}
}

func (r *purchaseReceiptRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error) {
	var receipt domain.PurchaseReceipt
	err := r.db.GetContext(ctx, &receipt, "SELECT * FROM purchase_receipts WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("purchaseReceiptRepo.GetByID: %w", err)
	}
	err = r.db.SelectContext(ctx, &receipt.Items,
		"SELECT * FROM purchase_receipt_items WHERE purchase_receipt_id = $1 ORDER BY position", receipt.ID)
	if err != nil {
		return nil, fmt.Errorf("purchaseReceiptRepo.GetByID items: %w", err)
	}
	return &receipt, nil
}

func (r *purchaseReceiptRepo) ListByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]domain.PurchaseReceipt, error) {
	var receipts []domain.PurchaseReceipt
	err := r.db.SelectContext(ctx, &receipts, `
		SELECT * FROM purchase_receipts
		WHERE purchase_order_id = $1
		ORDER BY posting_date DESC`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("purchaseReceiptRepo.ListByPurchaseOrder: %w", err)
	}
	return receipts, nil
}
