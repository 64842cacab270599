package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/match"
	"ocrdesk/internal/service"
	"ocrdesk/mocks"
)

type resolutionFixture struct {
	stagingRepo  *mocks.MockStagingRepo
	supplierAlts *mocks.MockSupplierAliasRepo
	itemAlts     *mocks.MockItemAliasRepo
	mappings     *mocks.MockServiceMappingRepo
	masterRepo   *mocks.MockMasterRepo
	orderRepo    *mocks.MockPurchaseOrderRepo
	svc          service.ResolutionService
}

func newResolutionFixture() *resolutionFixture {
	f := &resolutionFixture{
		stagingRepo:  new(mocks.MockStagingRepo),
		supplierAlts: new(mocks.MockSupplierAliasRepo),
		itemAlts:     new(mocks.MockItemAliasRepo),
		mappings:     new(mocks.MockServiceMappingRepo),
		masterRepo:   new(mocks.MockMasterRepo),
		orderRepo:    new(mocks.MockPurchaseOrderRepo),
	}
	f.svc = service.NewResolutionService(
		f.stagingRepo, f.supplierAlts, f.itemAlts, f.mappings, f.masterRepo, f.orderRepo,
		match.NewResolver(80))
	return f
}

func reviewRecord() *domain.StagingRecord {
	return &domain.StagingRecord{
		ID:                  uuid.New(),
		SupplierNameOCR:     "ACME Supplies (Pty) Ltd",
		SupplierMatchStatus: domain.MatchUnmatched,
		Status:              domain.ImportStatusNeedsReview,
		Company:             "Test Co",
	}
}

func TestResolveRecord_ExactSupplierMatch(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()

	record.SupplierNameOCR = "ACME SUPPLIES PTY LTD"

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{}, nil)
	f.masterRepo.On("ListSuppliers", mock.Anything).Return([]domain.Supplier{
		{ID: supplierID, Name: "ACME Supplies Pty Ltd"},
	}, nil)
	f.supplierAlts.On("GetByKey", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	f.masterRepo.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)
	f.mappings.On("ListForSupplier", mock.Anything, mock.Anything).Return([]domain.ServiceMappingPattern{}, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ResolveRecord(context.Background(), record.ID)
	require.NoError(t, err)

	require.NotNil(t, got.SupplierID)
	assert.Equal(t, supplierID, *got.SupplierID)
	assert.Equal(t, domain.MatchAutoMatched, got.SupplierMatchStatus)
	assert.Equal(t, domain.ImportStatusMatched, got.Status)
}

func TestResolveRecord_AliasBeatsFuzzy(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	record.SupplierNameOCR = "ACNE Suplies Ltd" // OCR mangled
	aliasTarget := uuid.New()
	fuzzyTarget := uuid.New()

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{}, nil)
	f.masterRepo.On("ListSuppliers", mock.Anything).Return([]domain.Supplier{
		{ID: fuzzyTarget, Name: "ACME Supplies Ltd"},
	}, nil)
	f.supplierAlts.On("GetByKey", mock.Anything, match.NormalizeKey(record.SupplierNameOCR)).
		Return(&domain.SupplierAlias{Key: match.NormalizeKey(record.SupplierNameOCR), SupplierID: aliasTarget}, nil)
	f.masterRepo.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)
	f.mappings.On("ListForSupplier", mock.Anything, mock.Anything).Return([]domain.ServiceMappingPattern{}, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ResolveRecord(context.Background(), record.ID)
	require.NoError(t, err)

	require.NotNil(t, got.SupplierID)
	assert.Equal(t, aliasTarget, *got.SupplierID)
	assert.Equal(t, domain.MatchAutoMatched, got.SupplierMatchStatus)
}

func TestResolveRecord_SuggestionKeepsNeedsReview(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	record.SupplierNameOCR = "ACMA Suppliez Ltd"
	supplierID := uuid.New()

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{}, nil)
	f.masterRepo.On("ListSuppliers", mock.Anything).Return([]domain.Supplier{
		{ID: supplierID, Name: "ACME Supplies Ltd"},
	}, nil)
	f.supplierAlts.On("GetByKey", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	f.masterRepo.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)
	f.mappings.On("ListForSupplier", mock.Anything, mock.Anything).Return([]domain.ServiceMappingPattern{}, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ResolveRecord(context.Background(), record.ID)
	require.NoError(t, err)

	// A fuzzy hit is advisory: suggestion recorded, supplier left unset.
	assert.Nil(t, got.SupplierID)
	assert.Equal(t, domain.MatchSuggested, got.SupplierMatchStatus)
	require.NotNil(t, got.SuggestedSupplierID)
	assert.Equal(t, supplierID, *got.SuggestedSupplierID)
	assert.GreaterOrEqual(t, got.SupplierMatchScore, 80)
	assert.Equal(t, domain.ImportStatusNeedsReview, got.Status)
}

func TestResolveRecord_ServiceMappingSetsDefaults(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()
	record.SupplierID = &supplierID
	record.SupplierMatchStatus = domain.MatchConfirmed
	itemID := uuid.New()
	accountID := uuid.New()

	line := domain.StagingLineItem{
		ID:             uuid.New(),
		RecordID:       record.ID,
		DescriptionOCR: "Internet Service March 2026",
		MatchStatus:    domain.MatchUnmatched,
	}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{line}, nil)
	f.masterRepo.On("ListItems", mock.Anything).Return([]domain.Item{
		{ID: itemID, Code: "SVC-NET", Name: "Internet Connectivity", IsStock: false},
	}, nil)
	f.itemAlts.On("GetByKey", mock.Anything, mock.Anything, &supplierID).Return(nil, domain.ErrNotFound)
	f.mappings.On("ListForSupplier", mock.Anything, &supplierID).Return([]domain.ServiceMappingPattern{
		{Pattern: "internet service", SupplierID: &supplierID, ItemID: itemID, ExpenseAccountID: accountID, CostCenter: "Main"},
	}, nil)
	var updated *domain.StagingLineItem
	f.stagingRepo.On("UpdateLine", mock.Anything, mock.AnythingOfType("*domain.StagingLineItem")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*domain.StagingLineItem)
		}).Return(nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ResolveRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusMatched, got.Status)

	require.NotNil(t, updated)
	require.NotNil(t, updated.ItemID)
	assert.Equal(t, itemID, *updated.ItemID)
	assert.Equal(t, domain.MatchServiceMapped, updated.MatchStatus)
	require.NotNil(t, updated.ExpenseAccountID)
	assert.Equal(t, accountID, *updated.ExpenseAccountID)
	assert.Equal(t, "Main", updated.CostCenter)
}

func TestResolveRecord_TerminalRecordRejected(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	record.Status = domain.ImportStatusCompleted

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	_, err := f.svc.ResolveRecord(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestResolveRecord_PendingRecordRejected(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	record.Status = domain.ImportStatusPending

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	_, err := f.svc.ResolveRecord(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.stagingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestConfirmSupplier_LearnsAliasAndReResolves(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()
	userID := uuid.New()

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.masterRepo.On("GetSupplier", mock.Anything, supplierID).Return(&domain.Supplier{ID: supplierID, Name: "ACME"}, nil)
	f.supplierAlts.On("Upsert", mock.Anything, mock.MatchedBy(func(a *domain.SupplierAlias) bool {
		return a.Key == match.NormalizeKey(record.SupplierNameOCR) && a.SupplierID == supplierID
	})).Return(nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{}, nil)
	f.masterRepo.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)
	f.mappings.On("ListForSupplier", mock.Anything, mock.Anything).Return([]domain.ServiceMappingPattern{}, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ConfirmSupplier(context.Background(), service.ConfirmSupplierInput{
		RecordID:       record.ID,
		SupplierID:     supplierID,
		PersistAsAlias: true,
		UserID:         &userID,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MatchConfirmed, got.SupplierMatchStatus)
	assert.Equal(t, domain.ImportStatusMatched, got.Status)
	f.supplierAlts.AssertExpectations(t)
}

func TestConfirmSupplier_WithoutPersistSkipsAlias(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.masterRepo.On("GetSupplier", mock.Anything, supplierID).Return(&domain.Supplier{ID: supplierID, Name: "ACME"}, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{}, nil)
	f.masterRepo.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)
	f.mappings.On("ListForSupplier", mock.Anything, mock.Anything).Return([]domain.ServiceMappingPattern{}, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ConfirmSupplier(context.Background(), service.ConfirmSupplierInput{
		RecordID:   record.ID,
		SupplierID: supplierID,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MatchConfirmed, got.SupplierMatchStatus)
	f.supplierAlts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestConfirmSupplier_UnknownSupplierRejected(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.masterRepo.On("GetSupplier", mock.Anything, supplierID).Return(nil, domain.ErrNotFound)

	_, err := f.svc.ConfirmSupplier(context.Background(), service.ConfirmSupplierInput{
		RecordID:   record.ID,
		SupplierID: supplierID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.supplierAlts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestConfirmLine_SavesMappingForService(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()
	record.SupplierID = &supplierID
	record.SupplierMatchStatus = domain.MatchConfirmed
	itemID := uuid.New()
	accountID := uuid.New()
	userID := uuid.New()

	line := domain.StagingLineItem{
		ID:             uuid.New(),
		RecordID:       record.ID,
		DescriptionOCR: "Hosting Fee April 2026",
		MatchStatus:    domain.MatchUnmatched,
	}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{line}, nil)
	f.masterRepo.On("GetItem", mock.Anything, itemID).Return(&domain.Item{ID: itemID, Name: "Web Hosting", IsStock: false}, nil)
	f.masterRepo.On("GetAccount", mock.Anything, accountID).Return(&domain.Account{ID: accountID, Name: "Hosting Expense", Company: "Test Co"}, nil)
	f.itemAlts.On("Upsert", mock.Anything, mock.MatchedBy(func(a *domain.ItemAlias) bool {
		return a.ItemID == itemID && a.SupplierID != nil && *a.SupplierID == supplierID
	})).Return(nil)
	f.mappings.On("Upsert", mock.Anything, mock.MatchedBy(func(p *domain.ServiceMappingPattern) bool {
		return p.ItemID == itemID && p.ExpenseAccountID == accountID && p.Pattern == "hosting fee"
	})).Return(nil)
	f.stagingRepo.On("UpdateLine", mock.Anything, mock.AnythingOfType("*domain.StagingLineItem")).Return(nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.ConfirmLine(context.Background(), service.ConfirmLineInput{
		RecordID:         record.ID,
		LineID:           line.ID,
		ItemID:           itemID,
		ExpenseAccountID: &accountID,
		PersistAsAlias:   true,
		SaveMapping:      true,
		UserID:           &userID,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MatchConfirmed, got.MatchStatus)
	require.NotNil(t, got.ItemID)
	assert.Equal(t, itemID, *got.ItemID)
	f.mappings.AssertExpectations(t)
}

func TestConfirmLine_GroupAccountRejected(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	record.Status = domain.ImportStatusNeedsReview
	itemID := uuid.New()
	accountID := uuid.New()

	line := domain.StagingLineItem{ID: uuid.New(), RecordID: record.ID, DescriptionOCR: "Stuff"}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).Return([]domain.StagingLineItem{line}, nil)
	f.masterRepo.On("GetItem", mock.Anything, itemID).Return(&domain.Item{ID: itemID, Name: "Misc"}, nil)
	f.masterRepo.On("GetAccount", mock.Anything, accountID).Return(&domain.Account{ID: accountID, IsGroup: true, Company: "Test Co"}, nil)

	_, err := f.svc.ConfirmLine(context.Background(), service.ConfirmLineInput{
		RecordID:         record.ID,
		LineID:           line.ID,
		ItemID:           itemID,
		ExpenseAccountID: &accountID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
}

func TestSetLinks_RequiresMatchingSupplier(t *testing.T) {
	f := newResolutionFixture()
	record := reviewRecord()
	supplierID := uuid.New()
	record.SupplierID = &supplierID
	orderID := uuid.New()

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.orderRepo.On("GetByID", mock.Anything, orderID).Return(&domain.PurchaseOrder{
		ID: orderID, SupplierID: uuid.New(), // different supplier
	}, nil)

	_, err := f.svc.SetLinks(context.Background(), service.SetLinksInput{
		RecordID:        record.ID,
		PurchaseOrderID: &orderID,
	})
	assert.Error(t, err)
}

func TestSetDocumentKind_InvalidKind(t *testing.T) {
	f := newResolutionFixture()

	_, err := f.svc.SetDocumentKind(context.Background(), uuid.New(), domain.DocumentKind("sales_order"))
	assert.ErrorIs(t, err, domain.ErrMissingField)
}
