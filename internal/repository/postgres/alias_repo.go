package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

type supplierAliasRepo struct {
	db *sqlx.DB
}

// NewSupplierAliasRepo creates a new PostgreSQL-backed SupplierAliasRepository.
func NewSupplierAliasRepo(db *sqlx.DB) port.SupplierAliasRepository {
	return &supplierAliasRepo{db: db}
}

func (r *supplierAliasRepo) Upsert(ctx context.Context, alias *domain.SupplierAlias) error {
	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	now := time.Now().UTC()
	alias.CreatedAt = now
	alias.UpdatedAt = now

	query := `INSERT INTO supplier_aliases (id, key, supplier_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			supplier_id = EXCLUDED.supplier_id,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		alias.ID, alias.Key, alias.SupplierID, alias.CreatedBy, alias.CreatedAt, alias.UpdatedAt)
	if err != nil {
		return fmt.Errorf("supplierAliasRepo.Upsert: %w", err)
	}
	return nil
}

func (r *supplierAliasRepo) GetByKey(ctx context.Context, key string) (*domain.SupplierAlias, error) {
	var alias domain.SupplierAlias
	err := r.db.GetContext(ctx, &alias, "SELECT * FROM supplier_aliases WHERE key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("supplierAliasRepo.GetByKey: %w", err)
	}
	return &alias, nil
}

func (r *supplierAliasRepo) ListAll(ctx context.Context) ([]domain.SupplierAlias, error) {
	var aliases []domain.SupplierAlias
	err := r.db.SelectContext(ctx, &aliases, "SELECT * FROM supplier_aliases ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("supplierAliasRepo.ListAll: %w", err)
	}
	return aliases, nil
}

func (r *supplierAliasRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM supplier_aliases WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("supplierAliasRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type itemAliasRepo struct {
	db *sqlx.DB
}

// NewItemAliasRepo creates a new PostgreSQL-backed ItemAliasRepository.
func NewItemAliasRepo(db *sqlx.DB) port.ItemAliasRepository {
	return &itemAliasRepo{db: db}
}

func (r *itemAliasRepo) Upsert(ctx context.Context, alias *domain.ItemAlias) error {
	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	now := time.Now().UTC()
	alias.CreatedAt = now
	alias.UpdatedAt = now

	// Partial unique indexes cover the scoped and global cases, so the
	// conflict target is expressed through the coalesced expression index.
	query := `INSERT INTO item_aliases (id, key, supplier_id, item_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key, COALESCE(supplier_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		alias.ID, alias.Key, alias.SupplierID, alias.ItemID, alias.CreatedBy, alias.CreatedAt, alias.UpdatedAt)
	if err != nil {
		return fmt.Errorf("itemAliasRepo.Upsert: %w", err)
	}
	return nil
}

// GetByKey prefers an alias scoped to the given supplier, falling back to a
// global one.
func (r *itemAliasRepo) GetByKey(ctx context.Context, key string, supplierID *uuid.UUID) (*domain.ItemAlias, error) {
	var alias domain.ItemAlias
	err := r.db.GetContext(ctx, &alias, `
		SELECT * FROM item_aliases
		WHERE key = $1 AND (supplier_id = $2 OR supplier_id IS NULL)
		ORDER BY supplier_id NULLS LAST
		LIMIT 1`,
		key, supplierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("itemAliasRepo.GetByKey: %w", err)
	}
	return &alias, nil
}

func (r *itemAliasRepo) ListBySupplier(ctx context.Context, supplierID *uuid.UUID) ([]domain.ItemAlias, error) {
	var aliases []domain.ItemAlias
	err := r.db.SelectContext(ctx, &aliases, `
		SELECT * FROM item_aliases
		WHERE supplier_id = $1 OR supplier_id IS NULL
		ORDER BY supplier_id NULLS LAST, key`,
		supplierID)
	if err != nil {
		return nil, fmt.Errorf("itemAliasRepo.ListBySupplier: %w", err)
	}
	return aliases, nil
}

func (r *itemAliasRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM item_aliases WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("itemAliasRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type serviceMappingRepo struct {
	db *sqlx.DB
}

// NewServiceMappingRepo creates a new PostgreSQL-backed ServiceMappingRepository.
func NewServiceMappingRepo(db *sqlx.DB) port.ServiceMappingRepository {
	return &serviceMappingRepo{db: db}
}

func (r *serviceMappingRepo) Upsert(ctx context.Context, mapping *domain.ServiceMappingPattern) error {
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	now := time.Now().UTC()
	mapping.CreatedAt = now
	mapping.UpdatedAt = now

	query := `INSERT INTO service_mapping_patterns
		(id, pattern, supplier_id, item_id, expense_account_id, cost_center, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pattern, COALESCE(supplier_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			expense_account_id = EXCLUDED.expense_account_id,
			cost_center = EXCLUDED.cost_center,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		mapping.ID, mapping.Pattern, mapping.SupplierID, mapping.ItemID,
		mapping.ExpenseAccountID, mapping.CostCenter, mapping.CreatedBy,
		mapping.CreatedAt, mapping.UpdatedAt)
	if err != nil {
		return fmt.Errorf("serviceMappingRepo.Upsert: %w", err)
	}
	return nil
}

// ListForSupplier returns scoped patterns first so callers that scan in order
// honor supplier precedence.
func (r *serviceMappingRepo) ListForSupplier(ctx context.Context, supplierID *uuid.UUID) ([]domain.ServiceMappingPattern, error) {
	var mappings []domain.ServiceMappingPattern
	err := r.db.SelectContext(ctx, &mappings, `
		SELECT * FROM service_mapping_patterns
		WHERE supplier_id = $1 OR supplier_id IS NULL
		ORDER BY supplier_id NULLS LAST, length(pattern) DESC`,
		supplierID)
	if err != nil {
		return nil, fmt.Errorf("serviceMappingRepo.ListForSupplier: %w", err)
	}
	return mappings, nil
}

func (r *serviceMappingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM service_mapping_patterns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("serviceMappingRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
