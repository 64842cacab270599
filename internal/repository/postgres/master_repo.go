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

type masterRepo struct {
	db *sqlx.DB
}

// NewMasterRepo creates a new PostgreSQL-backed MasterRepository.
func NewMasterRepo(db *sqlx.DB) port.MasterRepository {
	return &masterRepo{db: db}
}

func (r *masterRepo) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	err := r.db.SelectContext(ctx, &suppliers,
		"SELECT * FROM suppliers WHERE NOT disabled ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("masterRepo.ListSuppliers: %w", err)
	}
	return suppliers, nil
}

func (r *masterRepo) GetSupplier(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := r.db.GetContext(ctx, &supplier, "SELECT * FROM suppliers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetSupplier: %w", err)
	}
	return &supplier, nil
}

func (r *masterRepo) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM items WHERE NOT disabled ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("masterRepo.ListItems: %w", err)
	}
	return items, nil
}

func (r *masterRepo) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	err := r.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetItem: %w", err)
	}
	return &item, nil
}

func (r *masterRepo) GetItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	var item domain.Item
	err := r.db.GetContext(ctx, &item, "SELECT * FROM items WHERE code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetItemByCode: %w", err)
	}
	return &item, nil
}

func (r *masterRepo) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	err := r.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetAccount: %w", err)
	}
	return &account, nil
}

func (r *masterRepo) GetAccountByName(ctx context.Context, company, name string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.GetContext(ctx, &account,
		"SELECT * FROM accounts WHERE company = $1 AND name = $2", company, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetAccountByName: %w", err)
	}
	return &account, nil
}
