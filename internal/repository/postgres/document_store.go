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

type documentStore struct {
	db *sqlx.DB
}

// NewDocumentStore creates a new PostgreSQL-backed DocumentStore.
func NewDocumentStore(db *sqlx.DB) port.DocumentStore {
	return &documentStore{db: db}
}

type recordTx struct {
	tx     *sqlx.Tx
	record *domain.StagingRecord
}

// InRecordTx opens a transaction, re-reads the staging record under
// SELECT ... FOR UPDATE, and hands the locked view to fn. Concurrent calls
// for the same record serialize on the row lock, so fn's guard checks always
// see the latest committed state.
func (s *documentStore) InRecordTx(ctx context.Context, recordID uuid.UUID, fn func(tx port.RecordTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("documentStore.InRecordTx begin: %w", err)
	}
	defer tx.Rollback()

	var record domain.StagingRecord
	err = tx.GetContext(ctx, &record,
		"SELECT * FROM staging_records WHERE id = $1 FOR UPDATE", recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRecordNotFound
		}
		return fmt.Errorf("documentStore.InRecordTx lock: %w", err)
	}

	if err := fn(&recordTx{tx: tx, record: &record}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("documentStore.InRecordTx commit: %w", err)
	}
	return nil
}

func (t *recordTx) Record() *domain.StagingRecord {
	return t.record
}

func (t *recordTx) Lines(ctx context.Context) ([]domain.StagingLineItem, error) {
	var lines []domain.StagingLineItem
	err := t.tx.SelectContext(ctx, &lines,
		"SELECT * FROM staging_line_items WHERE record_id = $1 ORDER BY position", t.record.ID)
	if err != nil {
		return nil, fmt.Errorf("recordTx.Lines: %w", err)
	}
	return lines, nil
}

func (t *recordTx) InsertPurchaseInvoice(ctx context.Context, doc *domain.PurchaseInvoice) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := t.tx.ExecContext(ctx, `INSERT INTO purchase_invoices (
		id, supplier_id, company, posting_date, bill_no, bill_date, due_date,
		currency, tax_template, status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		doc.ID, doc.SupplierID, doc.Company, doc.PostingDate, doc.BillNo, doc.BillDate, doc.DueDate,
		doc.Currency, doc.TaxTemplate, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("recordTx.InsertPurchaseInvoice: %w", err)
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		_, err := t.tx.ExecContext(ctx, `INSERT INTO purchase_invoice_items (
			id, purchase_invoice_id, position, item_id, description,
			qty, rate, amount, expense_account_id, cost_center, po_line_id, pr_line_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			item.ID, item.PurchaseInvoiceID, item.Position, item.ItemID, item.Description,
			item.Qty, item.Rate, item.Amount, item.ExpenseAccountID, item.CostCenter,
			item.POLineID, item.PRLineID)
		if err != nil {
			return fmt.Errorf("recordTx.InsertPurchaseInvoice item %d: %w", item.Position, err)
		}
	}
	return nil
}

func (t *recordTx) InsertPurchaseReceipt(ctx context.Context, doc *domain.PurchaseReceipt) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := t.tx.ExecContext(ctx, `INSERT INTO purchase_receipts (
		id, supplier_id, company, purchase_order_id, posting_date,
		currency, status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.SupplierID, doc.Company, doc.PurchaseOrderID, doc.PostingDate,
		doc.Currency, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("recordTx.InsertPurchaseReceipt: %w", err)
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		_, err := t.tx.ExecContext(ctx, `INSERT INTO purchase_receipt_items (
			id, purchase_receipt_id, position, item_id, description,
			qty, rate, amount, po_line_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.PurchaseReceiptID, item.Position, item.ItemID, item.Description,
			item.Qty, item.Rate, item.Amount, item.POLineID)
		if err != nil {
			return fmt.Errorf("recordTx.InsertPurchaseReceipt item %d: %w", item.Position, err)
		}
	}
	return nil
}

func (t *recordTx) InsertJournalEntry(ctx context.Context, doc *domain.JournalEntry) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := t.tx.ExecContext(ctx, `INSERT INTO journal_entries (
		id, company, posting_date, currency, remark, status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.Company, doc.PostingDate, doc.Currency, doc.Remark, doc.Status,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("recordTx.InsertJournalEntry: %w", err)
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		_, err := t.tx.ExecContext(ctx, `INSERT INTO journal_entry_lines (
			id, journal_entry_id, position, account_id, debit, credit, cost_center, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			line.ID, line.JournalEntryID, line.Position, line.AccountID,
			line.Debit, line.Credit, line.CostCenter, line.Description)
		if err != nil {
			return fmt.Errorf("recordTx.InsertJournalEntry line %d: %w", line.Position, err)
		}
	}
	return nil
}

func (t *recordTx) DeleteDocument(ctx context.Context, kind domain.DocumentKind, docID uuid.UUID) error {
	var query string
	switch kind {
	case domain.KindPurchaseInvoice:
		query = "DELETE FROM purchase_invoices WHERE id = $1 AND status = 'draft'"
	case domain.KindPurchaseReceipt:
		query = "DELETE FROM purchase_receipts WHERE id = $1 AND status = 'draft'"
	case domain.KindJournalEntry:
		query = "DELETE FROM journal_entries WHERE id = $1 AND status = 'draft'"
	default:
		return fmt.Errorf("recordTx.DeleteDocument: unknown kind %q", kind)
	}
	result, err := t.tx.ExecContext(ctx, query, docID)
	if err != nil {
		return fmt.Errorf("recordTx.DeleteDocument: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *recordTx) UpdateRecord(ctx context.Context, record *domain.StagingRecord) error {
	record.UpdatedAt = time.Now().UTC()
	_, err := t.tx.ExecContext(ctx, `UPDATE staging_records SET
		document_kind = $1, tax_template = $2,
		purchase_invoice_doc_id = $3, purchase_receipt_doc_id = $4, journal_entry_doc_id = $5,
		status = $6, no_action_reason = $7, error_message = $8, updated_at = $9
	WHERE id = $10`,
		record.DocumentKind, record.TaxTemplate,
		record.PurchaseInvoiceDocID, record.PurchaseReceiptDocID, record.JournalEntryDocID,
		record.Status, record.NoActionReason, record.ErrorMessage, record.UpdatedAt,
		record.ID)
	if err != nil {
		return fmt.Errorf("recordTx.UpdateRecord: %w", err)
	}
	return nil
}

func (s *documentStore) GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*domain.PurchaseInvoice, error) {
	var doc domain.PurchaseInvoice
	err := s.db.GetContext(ctx, &doc, "SELECT * FROM purchase_invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentStore.GetPurchaseInvoice: %w", err)
	}
	err = s.db.SelectContext(ctx, &doc.Items,
		"SELECT * FROM purchase_invoice_items WHERE purchase_invoice_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("documentStore.GetPurchaseInvoice items: %w", err)
	}
	return &doc, nil
}

func (s *documentStore) GetPurchaseReceipt(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error) {
	var doc domain.PurchaseReceipt
	err := s.db.GetContext(ctx, &doc, "SELECT * FROM purchase_receipts WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentStore.GetPurchaseReceipt: %w", err)
	}
	err = s.db.SelectContext(ctx, &doc.Items,
		"SELECT * FROM purchase_receipt_items WHERE purchase_receipt_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("documentStore.GetPurchaseReceipt items: %w", err)
	}
	return &doc, nil
}

func (s *documentStore) GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	var doc domain.JournalEntry
	err := s.db.GetContext(ctx, &doc, "SELECT * FROM journal_entries WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentStore.GetJournalEntry: %w", err)
	}
	err = s.db.SelectContext(ctx, &doc.Lines,
		"SELECT * FROM journal_entry_lines WHERE journal_entry_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("documentStore.GetJournalEntry lines: %w", err)
	}
	return &doc, nil
}
