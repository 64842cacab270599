package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

// MockRecordTx is a mock implementation of port.RecordTx.
type MockRecordTx struct {
	mock.Mock
}

func (m *MockRecordTx) Record() *domain.StagingRecord {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.StagingRecord)
}

func (m *MockRecordTx) Lines(ctx context.Context) ([]domain.StagingLineItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StagingLineItem), args.Error(1)
}

func (m *MockRecordTx) InsertPurchaseInvoice(ctx context.Context, doc *domain.PurchaseInvoice) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRecordTx) InsertPurchaseReceipt(ctx context.Context, doc *domain.PurchaseReceipt) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRecordTx) InsertJournalEntry(ctx context.Context, doc *domain.JournalEntry) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRecordTx) DeleteDocument(ctx context.Context, kind domain.DocumentKind, docID uuid.UUID) error {
	args := m.Called(ctx, kind, docID)
	return args.Error(0)
}

func (m *MockRecordTx) UpdateRecord(ctx context.Context, record *domain.StagingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockDocumentStore is a mock implementation of port.DocumentStore. InRecordTx
// runs fn against the Tx field so tests can assert on the inner calls.
type MockDocumentStore struct {
	mock.Mock
	Tx *MockRecordTx
}

func (m *MockDocumentStore) InRecordTx(ctx context.Context, recordID uuid.UUID, fn func(tx port.RecordTx) error) error {
	args := m.Called(ctx, recordID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}

func (m *MockDocumentStore) GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*domain.PurchaseInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseInvoice), args.Error(1)
}

func (m *MockDocumentStore) GetPurchaseReceipt(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseReceipt), args.Error(1)
}

func (m *MockDocumentStore) GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
