package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ocrdesk/internal/assemble"
	"ocrdesk/internal/domain"
	"ocrdesk/internal/service"
	"ocrdesk/mocks"
)

type documentFixture struct {
	store       *mocks.MockDocumentStore
	masterRepo  *mocks.MockMasterRepo
	receiptRepo *mocks.MockPurchaseReceiptRepo
	settings    *service.AccountingSettings
	svc         service.DocumentService
}

func newDocumentFixture() *documentFixture {
	creditID := uuid.New()
	f := &documentFixture{
		store:       &mocks.MockDocumentStore{Tx: new(mocks.MockRecordTx)},
		masterRepo:  new(mocks.MockMasterRepo),
		receiptRepo: new(mocks.MockPurchaseReceiptRepo),
		settings: &service.AccountingSettings{
			Settings: assemble.Settings{
				Company:           "Test Co",
				FallbackItemID:    uuid.New(),
				DefaultCostCenter: "Main",
				VATTemplate:       "VAT 15%",
				NonVATTemplate:    "No VAT",
				TaxInputAccountID: uuid.New(),
				TaxNoiseTolerance: decimal.NewFromFloat(0.05),
			},
			CreditAccountID: &creditID,
		},
	}
	f.svc = service.NewDocumentService(f.store, f.masterRepo, f.receiptRepo, f.settings)
	return f
}

func matchedRecord(kind domain.DocumentKind) *domain.StagingRecord {
	supplierID := uuid.New()
	return &domain.StagingRecord{
		ID:                  uuid.New(),
		SupplierID:          &supplierID,
		SupplierMatchStatus: domain.MatchConfirmed,
		DocumentKind:        &kind,
		Status:              domain.ImportStatusMatched,
		Company:             "Test Co",
		Currency:            "ZAR",
	}
}

func confirmedLine(itemID uuid.UUID) domain.StagingLineItem {
	return domain.StagingLineItem{
		ID:             uuid.New(),
		Position:       0,
		DescriptionOCR: "Widgets",
		Qty:            decimal.NewFromInt(2),
		Rate:           decimal.NewFromInt(50),
		Amount:         decimal.NewFromInt(100),
		ItemID:         &itemID,
		MatchStatus:    domain.MatchConfirmed,
	}
}

func (f *documentFixture) expectItems(items ...*domain.Item) {
	f.masterRepo.On("GetItem", mock.Anything, f.settings.FallbackItemID).
		Return(&domain.Item{ID: f.settings.FallbackItemID, Code: "OCR-UNMATCHED"}, nil)
	for _, it := range items {
		f.masterRepo.On("GetItem", mock.Anything, it.ID).Return(it, nil)
	}
}

func TestCreateDocument_PurchaseInvoice(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)
	itemID := uuid.New()
	lines := []domain.StagingLineItem{confirmedLine(itemID)}

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return(lines, nil)
	f.expectItems(&domain.Item{ID: itemID, Name: "Widgets"})
	f.store.Tx.On("InsertPurchaseInvoice", mock.Anything, mock.MatchedBy(func(doc *domain.PurchaseInvoice) bool {
		return doc.SupplierID == *record.SupplierID && len(doc.Items) == 1 && doc.TaxTemplate == "No VAT"
	})).Return(nil)
	f.store.Tx.On("UpdateRecord", mock.Anything, record).Return(nil)

	got, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseInvoice,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ImportStatusDraftCreated, got.Status)
	assert.NotNil(t, got.PurchaseInvoiceDocID)
	f.store.Tx.AssertExpectations(t)
}

func TestCreateDocument_JournalEntryBalances(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindJournalEntry)
	record.TotalAmount = decimal.NewFromInt(100)
	itemID := uuid.New()
	accountID := uuid.New()
	line := confirmedLine(itemID)
	line.ExpenseAccountID = &accountID

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{line}, nil)
	f.expectItems(&domain.Item{ID: itemID, Name: "Widgets"})
	f.masterRepo.On("GetAccount", mock.Anything, accountID).
		Return(&domain.Account{ID: accountID, Name: "Sundry Expenses", Company: "Test Co"}, nil)
	f.store.Tx.On("InsertJournalEntry", mock.Anything, mock.MatchedBy(func(doc *domain.JournalEntry) bool {
		// one debit line plus the balancing credit
		return len(doc.Lines) == 2
	})).Return(nil)
	f.store.Tx.On("UpdateRecord", mock.Anything, record).Return(nil)

	got, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindJournalEntry,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ImportStatusDraftCreated, got.Status)
	assert.NotNil(t, got.JournalEntryDocID)
}

func TestCreateDocument_JournalEntryCreditOverride(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindJournalEntry)
	record.TotalAmount = decimal.NewFromInt(100)
	itemID := uuid.New()
	accountID := uuid.New()
	creditID := uuid.New()
	line := confirmedLine(itemID)
	line.ExpenseAccountID = &accountID

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{line}, nil)
	f.expectItems(&domain.Item{ID: itemID, Name: "Widgets"})
	f.masterRepo.On("GetAccount", mock.Anything, accountID).
		Return(&domain.Account{ID: accountID, Name: "Sundry Expenses", Company: "Test Co"}, nil)
	f.masterRepo.On("GetAccount", mock.Anything, creditID).
		Return(&domain.Account{ID: creditID, Name: "Director Loan", Company: "Test Co"}, nil)
	f.store.Tx.On("InsertJournalEntry", mock.Anything, mock.MatchedBy(func(doc *domain.JournalEntry) bool {
		last := doc.Lines[len(doc.Lines)-1]
		return last.AccountID == creditID && last.Credit.IsPositive()
	})).Return(nil)
	f.store.Tx.On("UpdateRecord", mock.Anything, record).Return(nil)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID:        record.ID,
		Kind:            domain.KindJournalEntry,
		CreditAccountID: &creditID,
	})
	require.NoError(t, err)
	f.store.Tx.AssertExpectations(t)
}

func TestCreateDocument_JournalEntryRejectsDisabledCreditAccount(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindJournalEntry)
	itemID := uuid.New()
	accountID := uuid.New()
	creditID := uuid.New()
	line := confirmedLine(itemID)
	line.ExpenseAccountID = &accountID

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{line}, nil)
	f.expectItems(&domain.Item{ID: itemID, Name: "Widgets"})
	f.masterRepo.On("GetAccount", mock.Anything, accountID).
		Return(&domain.Account{ID: accountID, Name: "Sundry Expenses", Company: "Test Co"}, nil)
	f.masterRepo.On("GetAccount", mock.Anything, creditID).
		Return(&domain.Account{ID: creditID, Name: "Old Payables", Company: "Test Co", Disabled: true}, nil)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID:        record.ID,
		Kind:            domain.KindJournalEntry,
		CreditAccountID: &creditID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
	f.store.Tx.AssertNotCalled(t, "InsertJournalEntry", mock.Anything, mock.Anything)
}

func TestCreateDocument_RejectsSecondDocument(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)
	docID := uuid.New()
	record.PurchaseInvoiceDocID = &docID

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseInvoice,
	})
	assert.ErrorIs(t, err, domain.ErrOutputAlreadyCreated)
	f.store.Tx.AssertNotCalled(t, "InsertPurchaseInvoice", mock.Anything, mock.Anything)
}

func TestCreateDocument_RequiresDeclaredKind(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)
	record.DocumentKind = nil

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseInvoice,
	})
	assert.ErrorIs(t, err, domain.ErrKindNotDeclared)
}

func TestCreateDocument_RejectsKindMismatch(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindJournalEntry,
	})
	assert.ErrorIs(t, err, domain.ErrKindMismatch)
}

func TestCreateDocument_RejectsInvalidKind(t *testing.T) {
	f := newDocumentFixture()

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: uuid.New(),
		Kind:     domain.DocumentKind("sales_invoice"),
	})
	assert.ErrorIs(t, err, domain.ErrMissingField)
	f.store.AssertNotCalled(t, "InRecordTx", mock.Anything, mock.Anything)
}

func TestCreateDocument_RejectsStaleReceiptLink(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)
	orderID := uuid.New()
	otherOrderID := uuid.New()
	receiptID := uuid.New()
	record.PurchaseOrderID = &orderID
	record.PurchaseReceiptID = &receiptID

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{confirmedLine(uuid.New())}, nil)
	f.receiptRepo.On("GetByID", mock.Anything, receiptID).
		Return(&domain.PurchaseReceipt{ID: receiptID, PurchaseOrderID: &otherOrderID}, nil)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseInvoice,
	})
	assert.ErrorIs(t, err, domain.ErrStaleReceiptLink)
}

func TestCreateDocument_RevalidatesLineAccounts(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)
	itemID := uuid.New()
	accountID := uuid.New()
	line := confirmedLine(itemID)
	line.ExpenseAccountID = &accountID

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{line}, nil)
	f.expectItems(&domain.Item{ID: itemID})
	f.masterRepo.On("GetAccount", mock.Anything, accountID).
		Return(&domain.Account{ID: accountID, Name: "Old Account", Company: "Test Co", Disabled: true}, nil)

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseInvoice,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
	f.store.Tx.AssertNotCalled(t, "InsertPurchaseInvoice", mock.Anything, mock.Anything)
}

func TestCreateDocument_ReceiptRequiresMatchedRecord(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseReceipt)
	record.Status = domain.ImportStatusNeedsReview
	itemID := uuid.New()

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{confirmedLine(itemID)}, nil)
	f.expectItems(&domain.Item{ID: itemID, IsStock: true})

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseReceipt,
	})
	assert.ErrorIs(t, err, domain.ErrReceiptNotMatched)
}

func TestCreateDocument_ReceiptRequiresStockItems(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseReceipt)
	itemID := uuid.New()

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{confirmedLine(itemID)}, nil)
	f.expectItems(&domain.Item{ID: itemID, Name: "Consulting", IsStock: false})

	_, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseReceipt,
	})
	assert.ErrorIs(t, err, domain.ErrUnresolvedStockItem)
}

func TestCreateDocument_PurchaseReceipt(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseReceipt)
	itemID := uuid.New()

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{confirmedLine(itemID)}, nil)
	f.expectItems(&domain.Item{ID: itemID, Name: "Widgets", IsStock: true})
	f.store.Tx.On("InsertPurchaseReceipt", mock.Anything, mock.MatchedBy(func(doc *domain.PurchaseReceipt) bool {
		return len(doc.Items) == 1 && doc.Items[0].ItemID == itemID
	})).Return(nil)
	f.store.Tx.On("UpdateRecord", mock.Anything, record).Return(nil)

	got, err := f.svc.CreateDocument(context.Background(), service.CreateDocumentInput{
		RecordID: record.ID,
		Kind:     domain.KindPurchaseReceipt,
	})
	require.NoError(t, err)
	assert.NotNil(t, got.PurchaseReceiptDocID)
}

func TestUnlink_DeletesDraftAndReopensRecord(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)
	docID := uuid.New()
	record.PurchaseInvoiceDocID = &docID
	record.Status = domain.ImportStatusDraftCreated

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)
	f.store.Tx.On("DeleteDocument", mock.Anything, domain.KindPurchaseInvoice, docID).Return(nil)
	f.store.Tx.On("Lines", mock.Anything).Return([]domain.StagingLineItem{confirmedLine(uuid.New())}, nil)
	f.store.Tx.On("UpdateRecord", mock.Anything, record).Return(nil)

	got, err := f.svc.Unlink(context.Background(), record.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportStatusMatched, got.Status)
	assert.Zero(t, got.OutputCount())
	f.store.Tx.AssertExpectations(t)
}

func TestUnlink_NothingToUnlink(t *testing.T) {
	f := newDocumentFixture()
	record := matchedRecord(domain.KindPurchaseInvoice)

	f.store.On("InRecordTx", mock.Anything, record.ID).Return(nil)
	f.store.Tx.On("Record").Return(record)

	_, err := f.svc.Unlink(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrNothingToUnlink)
	f.store.Tx.AssertNotCalled(t, "DeleteDocument", mock.Anything, mock.Anything, mock.Anything)
}
