package port

import (
	"context"

	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// RecordTx is the view inside one document-creation transaction. Record
// returns the staging record re-read under a row lock, so guard checks
// observe the latest committed state and concurrent submissions serialize.
type RecordTx interface {
	Record() *domain.StagingRecord
	Lines(ctx context.Context) ([]domain.StagingLineItem, error)

	InsertPurchaseInvoice(ctx context.Context, doc *domain.PurchaseInvoice) error
	InsertPurchaseReceipt(ctx context.Context, doc *domain.PurchaseReceipt) error
	InsertJournalEntry(ctx context.Context, doc *domain.JournalEntry) error
	DeleteDocument(ctx context.Context, kind domain.DocumentKind, docID uuid.UUID) error

	UpdateRecord(ctx context.Context, record *domain.StagingRecord) error
}

// DocumentStore runs document creation and unlinking transactionally against
// a single staging record.
type DocumentStore interface {
	// InRecordTx locks the staging record, runs fn, and commits on nil
	// error. Any error from fn rolls the whole transaction back.
	InRecordTx(ctx context.Context, recordID uuid.UUID, fn func(tx RecordTx) error) error

	GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*domain.PurchaseInvoice, error)
	GetPurchaseReceipt(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error)
	GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error)
}
