package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

type duplicateFinderRepo struct {
	db         *sqlx.DB
	tolerance  decimal.Decimal
	windowDays int
}

// NewDuplicateFinderRepo creates a new PostgreSQL-backed DuplicateFinder.
// tolerance bounds the absolute total difference for amount-based matches;
// windowDays bounds the invoice-date scan window.
func NewDuplicateFinderRepo(db *sqlx.DB, tolerance decimal.Decimal, windowDays int) port.DuplicateFinder {
	return &duplicateFinderRepo{db: db, tolerance: tolerance, windowDays: windowDays}
}

type duplicateRow struct {
	ID            uuid.UUID           `db:"id"`
	Status        domain.ImportStatus `db:"status"`
	InvoiceNumber string              `db:"invoice_number"`
	TotalAmount   decimal.Decimal     `db:"total_amount"`
	SameNumber    bool                `db:"same_number"`
}

// FindDuplicates flags other records from the same supplier with the same
// invoice number, or with a near-identical total in the surrounding date
// window. Comparison is restricted to the record's currency; totals in
// different currencies are not comparable.
func (r *duplicateFinderRepo) FindDuplicates(ctx context.Context, record *domain.StagingRecord) ([]domain.DuplicateCandidate, error) {
	if record.SupplierID == nil && record.SupplierNameOCR == "" {
		return nil, nil
	}

	from := time.Now().UTC().AddDate(0, 0, -r.windowDays)
	if record.InvoiceDate != nil {
		from = record.InvoiceDate.AddDate(0, 0, -r.windowDays)
	}

	var rows []duplicateRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, status, invoice_number, total_amount,
		       (invoice_number <> '' AND invoice_number = $4) AS same_number
		FROM staging_records
		WHERE id <> $1
		  AND currency = $2
		  AND status NOT IN ('error', 'no_action')
		  AND ((supplier_id IS NOT NULL AND supplier_id = $3)
		       OR (supplier_id IS NULL AND supplier_name_ocr = $5))
		  AND ((invoice_number <> '' AND invoice_number = $4)
		       OR (invoice_date IS NULL OR invoice_date >= $6))
		ORDER BY created_at DESC
		LIMIT 20`,
		record.ID, record.Currency, record.SupplierID, record.InvoiceNumber,
		record.SupplierNameOCR, from)
	if err != nil {
		return nil, fmt.Errorf("duplicateFinderRepo.FindDuplicates: %w", err)
	}

	var out []domain.DuplicateCandidate
	for _, row := range rows {
		if cand, ok := classifyDuplicate(record, row, r.tolerance); ok {
			out = append(out, cand)
		}
	}
	return out, nil
}

// classifyDuplicate turns a candidate row into a flagged duplicate with a
// human-readable reason. A shared invoice number outranks a similar total.
func classifyDuplicate(record *domain.StagingRecord, row duplicateRow, tolerance decimal.Decimal) (domain.DuplicateCandidate, bool) {
	switch {
	case row.SameNumber:
		return domain.DuplicateCandidate{
			RecordID: row.ID,
			Status:   row.Status,
			Reason:   fmt.Sprintf("same invoice number %s", row.InvoiceNumber),
		}, true
	case row.TotalAmount.Sub(record.TotalAmount).Abs().LessThanOrEqual(tolerance):
		return domain.DuplicateCandidate{
			RecordID: row.ID,
			Status:   row.Status,
			Reason:   fmt.Sprintf("similar total %s %s", record.Currency, row.TotalAmount),
		}, true
	}
	return domain.DuplicateCandidate{}, false
}
