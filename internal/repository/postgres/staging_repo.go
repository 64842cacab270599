package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

type stagingRepo struct {
	db *sqlx.DB
}

// NewStagingRepo creates a new PostgreSQL-backed StagingRepository.
func NewStagingRepo(db *sqlx.DB) port.StagingRepository {
	return &stagingRepo{db: db}
}

const stagingInsertColumns = `
	id, source_type, source_filename, content_hash, storage_key, company,
	supplier_name_ocr, invoice_number, invoice_date, due_date, currency,
	subtotal, tax_amount, total_amount, confidence,
	supplier_id, supplier_match_status, suggested_supplier_id, supplier_match_score,
	document_kind, tax_template, purchase_order_id, purchase_receipt_id,
	purchase_invoice_doc_id, purchase_receipt_doc_id, journal_entry_doc_id,
	status, no_action_reason, error_message, uploaded_by, created_at, updated_at`

func (r *stagingRepo) Create(ctx context.Context, record *domain.StagingRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `INSERT INTO staging_records (` + stagingInsertColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11,
		$12, $13, $14, $15,
		$16, $17, $18, $19,
		$20, $21, $22, $23,
		$24, $25, $26,
		$27, $28, $29, $30, $31, $32
	)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.SourceType, record.SourceFilename, record.ContentHash, record.StorageKey, record.Company,
		record.SupplierNameOCR, record.InvoiceNumber, record.InvoiceDate, record.DueDate, record.Currency,
		record.Subtotal, record.TaxAmount, record.TotalAmount, record.Confidence,
		record.SupplierID, record.SupplierMatchStatus, record.SuggestedSupplierID, record.SupplierMatchScore,
		record.DocumentKind, record.TaxTemplate, record.PurchaseOrderID, record.PurchaseReceiptID,
		record.PurchaseInvoiceDocID, record.PurchaseReceiptDocID, record.JournalEntryDocID,
		record.Status, record.NoActionReason, record.ErrorMessage, record.UploadedBy, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("stagingRepo.Create: %w", err)
	}
	return nil
}

func (r *stagingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.StagingRecord, error) {
	var record domain.StagingRecord
	err := r.db.GetContext(ctx, &record, "SELECT * FROM staging_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("stagingRepo.GetByID: %w", err)
	}
	return &record, nil
}

func (r *stagingRepo) GetByContentHash(ctx context.Context, hash string) (*domain.StagingRecord, error) {
	var record domain.StagingRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM staging_records WHERE content_hash = $1 ORDER BY created_at DESC LIMIT 1", hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("stagingRepo.GetByContentHash: %w", err)
	}
	return &record, nil
}

func (r *stagingRepo) List(ctx context.Context, filters port.StagingListFilters) ([]domain.StagingRecord, int, error) {
	where := []string{"1=1"}
	args := []any{}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filters.Status != nil {
		add("status = $%d", *filters.Status)
	}
	if filters.SupplierID != nil {
		add("supplier_id = $%d", *filters.SupplierID)
	}
	if filters.SourceType != nil {
		add("source_type = $%d", *filters.SourceType)
	}
	if filters.FromDate != nil {
		add("invoice_date >= $%d", *filters.FromDate)
	}
	if filters.ToDate != nil {
		add("invoice_date <= $%d", *filters.ToDate)
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM staging_records WHERE "+cond, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("stagingRepo.List count: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filters.Offset)
	query := fmt.Sprintf(
		"SELECT * FROM staging_records WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		cond, len(args)-1, len(args))

	var records []domain.StagingRecord
	err = r.db.SelectContext(ctx, &records, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("stagingRepo.List: %w", err)
	}
	return records, total, nil
}

func (r *stagingRepo) Update(ctx context.Context, record *domain.StagingRecord) error {
	record.UpdatedAt = time.Now().UTC()

	query := `UPDATE staging_records SET
		source_type = $1, source_filename = $2, content_hash = $3, storage_key = $4, company = $5,
		supplier_name_ocr = $6, invoice_number = $7, invoice_date = $8, due_date = $9, currency = $10,
		subtotal = $11, tax_amount = $12, total_amount = $13, confidence = $14,
		supplier_id = $15, supplier_match_status = $16, suggested_supplier_id = $17, supplier_match_score = $18,
		document_kind = $19, tax_template = $20, purchase_order_id = $21, purchase_receipt_id = $22,
		purchase_invoice_doc_id = $23, purchase_receipt_doc_id = $24, journal_entry_doc_id = $25,
		status = $26, no_action_reason = $27, error_message = $28, claimed_at = $29, updated_at = $30
	WHERE id = $31`

	result, err := r.db.ExecContext(ctx, query,
		record.SourceType, record.SourceFilename, record.ContentHash, record.StorageKey, record.Company,
		record.SupplierNameOCR, record.InvoiceNumber, record.InvoiceDate, record.DueDate, record.Currency,
		record.Subtotal, record.TaxAmount, record.TotalAmount, record.Confidence,
		record.SupplierID, record.SupplierMatchStatus, record.SuggestedSupplierID, record.SupplierMatchScore,
		record.DocumentKind, record.TaxTemplate, record.PurchaseOrderID, record.PurchaseReceiptID,
		record.PurchaseInvoiceDocID, record.PurchaseReceiptDocID, record.JournalEntryDocID,
		record.Status, record.NoActionReason, record.ErrorMessage, record.ClaimedAt, record.UpdatedAt,
		record.ID)
	if err != nil {
		return fmt.Errorf("stagingRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *stagingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM staging_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("stagingRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// ClaimPending stamps pending records as claimed under SKIP LOCKED so
// concurrent workers never pick up the same record twice. Claims older than
// ten minutes are treated as abandoned and handed out again.
func (r *stagingRepo) ClaimPending(ctx context.Context, limit int) ([]domain.StagingRecord, error) {
	var records []domain.StagingRecord
	err := r.db.SelectContext(ctx, &records, `
		UPDATE staging_records SET claimed_at = now(), updated_at = now()
		WHERE id IN (
			SELECT id FROM staging_records
			WHERE status = $1
			  AND (claimed_at IS NULL OR claimed_at < now() - interval '10 minutes')
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`,
		domain.ImportStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("stagingRepo.ClaimPending: %w", err)
	}
	return records, nil
}

func (r *stagingRepo) ListLines(ctx context.Context, recordID uuid.UUID) ([]domain.StagingLineItem, error) {
	var lines []domain.StagingLineItem
	err := r.db.SelectContext(ctx, &lines,
		"SELECT * FROM staging_line_items WHERE record_id = $1 ORDER BY position", recordID)
	if err != nil {
		return nil, fmt.Errorf("stagingRepo.ListLines: %w", err)
	}
	return lines, nil
}

func (r *stagingRepo) ReplaceLines(ctx context.Context, recordID uuid.UUID, lines []domain.StagingLineItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("stagingRepo.ReplaceLines begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM staging_line_items WHERE record_id = $1", recordID); err != nil {
		return fmt.Errorf("stagingRepo.ReplaceLines delete: %w", err)
	}

	now := time.Now().UTC()
	for i := range lines {
		l := &lines[i]
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.RecordID = recordID
		l.CreatedAt = now
		l.UpdatedAt = now
		if err := insertLine(ctx, tx, l); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("stagingRepo.ReplaceLines commit: %w", err)
	}
	return nil
}

func insertLine(ctx context.Context, tx *sqlx.Tx, l *domain.StagingLineItem) error {
	query := `INSERT INTO staging_line_items (
		id, record_id, position, description_ocr, product_code,
		qty, rate, amount,
		item_id, match_status, suggested_item_id, match_score,
		expense_account_id, cost_center,
		po_line_id, po_qty, po_rate, pr_line_id,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11, $12,
		$13, $14,
		$15, $16, $17, $18,
		$19, $20
	)`
	_, err := tx.ExecContext(ctx, query,
		l.ID, l.RecordID, l.Position, l.DescriptionOCR, l.ProductCode,
		l.Qty, l.Rate, l.Amount,
		l.ItemID, l.MatchStatus, l.SuggestedItemID, l.MatchScore,
		l.ExpenseAccountID, l.CostCenter,
		l.POLineID, l.POQty, l.PORate, l.PRLineID,
		l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("stagingRepo insertLine: %w", err)
	}
	return nil
}

func (r *stagingRepo) UpdateLine(ctx context.Context, line *domain.StagingLineItem) error {
	line.UpdatedAt = time.Now().UTC()

	query := `UPDATE staging_line_items SET
		description_ocr = $1, product_code = $2,
		qty = $3, rate = $4, amount = $5,
		item_id = $6, match_status = $7, suggested_item_id = $8, match_score = $9,
		expense_account_id = $10, cost_center = $11,
		po_line_id = $12, po_qty = $13, po_rate = $14, pr_line_id = $15,
		updated_at = $16
	WHERE id = $17`

	result, err := r.db.ExecContext(ctx, query,
		line.DescriptionOCR, line.ProductCode,
		line.Qty, line.Rate, line.Amount,
		line.ItemID, line.MatchStatus, line.SuggestedItemID, line.MatchScore,
		line.ExpenseAccountID, line.CostCenter,
		line.POLineID, line.POQty, line.PORate, line.PRLineID,
		line.UpdatedAt, line.ID)
	if err != nil {
		return fmt.Errorf("stagingRepo.UpdateLine: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrLineItemNotFound
	}
	return nil
}
