package service_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ocrdesk/internal/config"
	"ocrdesk/internal/domain"
	"ocrdesk/internal/extractor"
	"ocrdesk/internal/port"
	"ocrdesk/internal/service"
	"ocrdesk/mocks"
)

func testS3Config() *config.S3Config {
	return &config.S3Config{
		Bucket:        "test-bucket",
		MaxFileSizeMB: 50,
		PresignExpiry: 3600,
	}
}

func pdfContent() []byte {
	return []byte("%PDF-1.4 test invoice content for upload tests")
}

func pngContent() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 100)...)
}

func createMultipartFile(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 10240)
	require.NoError(t, err)

	header := form.File["file"][0]
	file, err := header.Open()
	require.NoError(t, err)
	return file, header
}

type stagingFixture struct {
	stagingRepo *mocks.MockStagingRepo
	finder      *mocks.MockDuplicateFinder
	storage     *mocks.MockObjectStorage
	extract     *mocks.MockInvoiceExtractor
	resolution  *mocks.MockResolutionService
	email       *mocks.MockEmailSender
	svc         service.StagingService
}

func newStagingFixture() *stagingFixture {
	f := &stagingFixture{
		stagingRepo: new(mocks.MockStagingRepo),
		finder:      new(mocks.MockDuplicateFinder),
		storage:     new(mocks.MockObjectStorage),
		extract:     new(mocks.MockInvoiceExtractor),
		resolution:  new(mocks.MockResolutionService),
		email:       new(mocks.MockEmailSender),
	}
	f.svc = service.NewStagingService(
		f.stagingRepo, f.finder, f.storage, f.extract, f.resolution, f.email,
		testS3Config(), "Test Co")
	return f
}

func TestUpload_StagesPendingRecord(t *testing.T) {
	f := newStagingFixture()
	file, header := createMultipartFile(t, "invoice.pdf", pdfContent())
	userID := uuid.New()

	f.stagingRepo.On("GetByContentHash", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordNotFound)
	f.stagingRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.StagingRecord")).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "test-bucket" && in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{Location: "s3://test-bucket/key"}, nil)

	result, err := f.svc.Upload(context.Background(), service.UploadInput{
		File:       file,
		Header:     header,
		UploadedBy: &userID,
	})
	require.NoError(t, err)

	assert.False(t, result.Duplicate)
	record := result.Record
	assert.Equal(t, domain.ImportStatusPending, record.Status)
	assert.Equal(t, domain.SourceManualUpload, record.SourceType)
	assert.Equal(t, "invoice.pdf", record.SourceFilename)
	assert.Equal(t, "Test Co", record.Company)
	assert.Len(t, record.ContentHash, 64)
	assert.Contains(t, record.StorageKey, "imports/"+record.ID.String())
	f.stagingRepo.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}

func TestUpload_DuplicateContentReturnsExisting(t *testing.T) {
	f := newStagingFixture()
	file, header := createMultipartFile(t, "invoice.pdf", pdfContent())
	existing := &domain.StagingRecord{ID: uuid.New(), Status: domain.ImportStatusNeedsReview}

	f.stagingRepo.On("GetByContentHash", mock.Anything, mock.Anything).Return(existing, nil)

	result, err := f.svc.Upload(context.Background(), service.UploadInput{File: file, Header: header})
	require.NoError(t, err)

	assert.True(t, result.Duplicate)
	assert.Equal(t, existing.ID, result.Record.ID)
	f.stagingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	f := newStagingFixture()
	file, header := createMultipartFile(t, "notes.txt", []byte("just some plain text, not an invoice"))

	_, err := f.svc.Upload(context.Background(), service.UploadInput{File: file, Header: header})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.stagingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	f := newStagingFixture()
	file, _ := createMultipartFile(t, "big.pdf", pdfContent())
	header := &multipart.FileHeader{Filename: "big.pdf", Size: 51 * 1024 * 1024}

	_, err := f.svc.Upload(context.Background(), service.UploadInput{File: file, Header: header})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestUpload_StorageFailureMarksRecordFailed(t *testing.T) {
	f := newStagingFixture()
	file, header := createMultipartFile(t, "scan.png", pngContent())

	f.stagingRepo.On("GetByContentHash", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordNotFound)
	f.stagingRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.StagingRecord")).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.Status == domain.ImportStatusError
	})).Return(nil)

	_, err := f.svc.Upload(context.Background(), service.UploadInput{File: file, Header: header})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.stagingRepo.AssertExpectations(t)
}

func TestRetry_RequeuesFailedRecord(t *testing.T) {
	f := newStagingFixture()
	claimed := time.Now()
	record := &domain.StagingRecord{
		ID:           uuid.New(),
		Status:       domain.ImportStatusError,
		ErrorMessage: "extraction failed: boom",
		ClaimedAt:    &claimed,
	}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.Retry(context.Background(), record.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportStatusPending, got.Status)
	assert.Empty(t, got.ErrorMessage)
	assert.Nil(t, got.ClaimedAt)
}

func TestRetry_OnlyFromErrorState(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{ID: uuid.New(), Status: domain.ImportStatusNeedsReview}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	_, err := f.svc.Retry(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrRetryNotFailed)
}

func TestNoAction_RequiresReason(t *testing.T) {
	f := newStagingFixture()

	_, err := f.svc.NoAction(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)
	f.stagingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestNoAction_ClosesRecord(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{ID: uuid.New(), Status: domain.ImportStatusNeedsReview}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("Update", mock.Anything, record).Return(nil)

	got, err := f.svc.NoAction(context.Background(), record.ID, "duplicate of a manually captured invoice")
	require.NoError(t, err)

	assert.Equal(t, domain.ImportStatusNoAction, got.Status)
	assert.Equal(t, "duplicate of a manually captured invoice", got.NoActionReason)
}

func TestNoAction_RejectsPendingRecord(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{ID: uuid.New(), Status: domain.ImportStatusPending}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	_, err := f.svc.NoAction(context.Background(), record.ID, "not an invoice")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.stagingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestNoAction_RejectsTerminalRecord(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{ID: uuid.New(), Status: domain.ImportStatusCompleted}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	_, err := f.svc.NoAction(context.Background(), record.ID, "wrong file")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestNoAction_RejectsRecordWithOutput(t *testing.T) {
	f := newStagingFixture()
	docID := uuid.New()
	record := &domain.StagingRecord{
		ID:                   uuid.New(),
		Status:               domain.ImportStatusDraftCreated,
		PurchaseInvoiceDocID: &docID,
	}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	_, err := f.svc.NoAction(context.Background(), record.ID, "changed my mind")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDelete_RefusesWhenOutputExists(t *testing.T) {
	f := newStagingFixture()
	docID := uuid.New()
	record := &domain.StagingRecord{
		ID:                   uuid.New(),
		Status:               domain.ImportStatusDraftCreated,
		PurchaseInvoiceDocID: &docID,
	}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)

	err := f.svc.Delete(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrOutputAlreadyCreated)
	f.stagingRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_RemovesStoredObjectWithLastRecord(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:          uuid.New(),
		Status:      domain.ImportStatusNeedsReview,
		ContentHash: "abc123",
		StorageKey:  "imports/x/invoice.pdf",
	}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("Delete", mock.Anything, record.ID).Return(nil)
	f.stagingRepo.On("GetByContentHash", mock.Anything, "abc123").Return(nil, domain.ErrRecordNotFound)
	f.storage.On("Delete", mock.Anything, "test-bucket", "imports/x/invoice.pdf").Return(nil)

	err := f.svc.Delete(context.Background(), record.ID)
	require.NoError(t, err)
	f.storage.AssertExpectations(t)
}

func TestDelete_KeepsObjectSharedByOtherRecords(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:          uuid.New(),
		Status:      domain.ImportStatusNeedsReview,
		ContentHash: "abc123",
		StorageKey:  "imports/x/invoice.pdf",
	}
	sibling := &domain.StagingRecord{ID: uuid.New(), ContentHash: "abc123"}

	f.stagingRepo.On("GetByID", mock.Anything, record.ID).Return(record, nil)
	f.stagingRepo.On("Delete", mock.Anything, record.ID).Return(nil)
	f.stagingRepo.On("GetByContentHash", mock.Anything, "abc123").Return(sibling, nil)

	err := f.svc.Delete(context.Background(), record.ID)
	require.NoError(t, err)
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func listFilterForStatus(status domain.ImportStatus) interface{} {
	return mock.MatchedBy(func(filters port.StagingListFilters) bool {
		return filters.Status != nil && *filters.Status == status
	})
}

func TestHandleDocumentEvent_SubmittedCompletesRecord(t *testing.T) {
	f := newStagingFixture()
	docID := uuid.New()
	record := domain.StagingRecord{
		ID:                   uuid.New(),
		Status:               domain.ImportStatusDraftCreated,
		PurchaseInvoiceDocID: &docID,
	}

	f.stagingRepo.On("List", mock.Anything, listFilterForStatus(domain.ImportStatusDraftCreated)).
		Return([]domain.StagingRecord{record}, 1, nil)
	f.stagingRepo.On("List", mock.Anything, listFilterForStatus(domain.ImportStatusCompleted)).
		Return([]domain.StagingRecord{}, 0, nil)
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.ID == record.ID && r.Status == domain.ImportStatusCompleted
	})).Return(nil)

	err := f.svc.HandleDocumentEvent(context.Background(), service.DocumentEventInput{
		DocID: docID,
		Kind:  domain.KindPurchaseInvoice,
		Event: domain.EventSubmitted,
	})
	require.NoError(t, err)
	f.stagingRepo.AssertExpectations(t)
}

func TestHandleDocumentEvent_SubmittedIsIdempotent(t *testing.T) {
	f := newStagingFixture()
	docID := uuid.New()
	record := domain.StagingRecord{
		ID:                   uuid.New(),
		Status:               domain.ImportStatusCompleted,
		PurchaseInvoiceDocID: &docID,
	}

	f.stagingRepo.On("List", mock.Anything, listFilterForStatus(domain.ImportStatusDraftCreated)).
		Return([]domain.StagingRecord{}, 0, nil)
	f.stagingRepo.On("List", mock.Anything, listFilterForStatus(domain.ImportStatusCompleted)).
		Return([]domain.StagingRecord{record}, 1, nil)

	err := f.svc.HandleDocumentEvent(context.Background(), service.DocumentEventInput{
		DocID: docID,
		Kind:  domain.KindPurchaseInvoice,
		Event: domain.EventSubmitted,
	})
	require.NoError(t, err)
	f.stagingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestHandleDocumentEvent_CancelledDetachesDocument(t *testing.T) {
	f := newStagingFixture()
	docID := uuid.New()
	supplierID := uuid.New()
	record := domain.StagingRecord{
		ID:                  uuid.New(),
		SupplierID:          &supplierID,
		SupplierMatchStatus: domain.MatchConfirmed,
		Status:              domain.ImportStatusDraftCreated,
		JournalEntryDocID:   &docID,
	}

	f.stagingRepo.On("List", mock.Anything, listFilterForStatus(domain.ImportStatusDraftCreated)).
		Return([]domain.StagingRecord{record}, 1, nil)
	f.stagingRepo.On("List", mock.Anything, listFilterForStatus(domain.ImportStatusCompleted)).
		Return([]domain.StagingRecord{}, 0, nil)
	f.stagingRepo.On("ListLines", mock.Anything, record.ID).
		Return([]domain.StagingLineItem{{MatchStatus: domain.MatchConfirmed}}, nil)
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.Status == domain.ImportStatusMatched && r.OutputCount() == 0
	})).Return(nil)

	err := f.svc.HandleDocumentEvent(context.Background(), service.DocumentEventInput{
		DocID: docID,
		Kind:  domain.KindJournalEntry,
		Event: domain.EventCancelled,
	})
	require.NoError(t, err)
	f.stagingRepo.AssertExpectations(t)
}

func TestHandleDocumentEvent_UnknownDocumentIgnored(t *testing.T) {
	f := newStagingFixture()

	f.stagingRepo.On("List", mock.Anything, mock.Anything).Return([]domain.StagingRecord{}, 0, nil)

	err := f.svc.HandleDocumentEvent(context.Background(), service.DocumentEventInput{
		DocID: uuid.New(),
		Kind:  domain.KindPurchaseInvoice,
		Event: domain.EventSubmitted,
	})
	require.NoError(t, err)
	f.stagingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProcessRecord_ExtractsAndResolves(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:             uuid.New(),
		Status:         domain.ImportStatusPending,
		SourceFilename: "invoice.pdf",
		StorageKey:     "imports/x/invoice.pdf",
	}
	resolved := &domain.StagingRecord{ID: record.ID, Status: domain.ImportStatusNeedsReview}

	f.storage.On("Download", mock.Anything, "test-bucket", record.StorageKey).Return(pdfContent(), nil)
	f.extract.On("Extract", mock.Anything, mock.Anything).Return([]port.ExtractedInvoice{
		{
			SupplierName:  "ACME Supplies",
			InvoiceNumber: "INV-100",
			TotalAmount:   decimal.NewFromInt(100),
			Lines:         []port.ExtractedLine{{Description: "Widgets"}},
		},
	}, nil)
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.ID == record.ID && r.Status == domain.ImportStatusNeedsReview &&
			r.SupplierNameOCR == "ACME Supplies" && r.InvoiceNumber == "INV-100"
	})).Return(nil)
	f.stagingRepo.On("ReplaceLines", mock.Anything, record.ID, mock.MatchedBy(func(lines []domain.StagingLineItem) bool {
		return len(lines) == 1 && lines[0].DescriptionOCR == "Widgets"
	})).Return(nil)
	f.resolution.On("ResolveRecord", mock.Anything, record.ID).Return(resolved, nil)
	f.email.On("SendReviewNeeded", mock.Anything, resolved).Return(nil)

	f.svc.ProcessRecord(context.Background(), record, 3)

	f.stagingRepo.AssertExpectations(t)
	f.resolution.AssertExpectations(t)
	f.email.AssertExpectations(t)
}

func TestProcessRecord_MultiInvoiceFileStagesExtraRecords(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:             uuid.New(),
		Status:         domain.ImportStatusPending,
		SourceFilename: "batch.pdf",
		ContentHash:    "abc123",
		StorageKey:     "imports/x/batch.pdf",
		Company:        "Test Co",
	}

	f.storage.On("Download", mock.Anything, "test-bucket", record.StorageKey).Return(pdfContent(), nil)
	f.extract.On("Extract", mock.Anything, mock.Anything).Return([]port.ExtractedInvoice{
		{SupplierName: "First Supplier", InvoiceNumber: "INV-1", TotalAmount: decimal.NewFromInt(10)},
		{SupplierName: "Second Supplier", InvoiceNumber: "INV-2", TotalAmount: decimal.NewFromInt(20)},
	}, nil)

	// The second invoice gets a fresh record sharing the source file.
	f.stagingRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.ID != record.ID && r.ContentHash == "abc123" && r.StorageKey == record.StorageKey
	})).Return(nil)
	f.stagingRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.StagingRecord")).Return(nil)
	f.stagingRepo.On("ReplaceLines", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.resolution.On("ResolveRecord", mock.Anything, mock.Anything).
		Return(&domain.StagingRecord{Status: domain.ImportStatusMatched}, nil)

	f.svc.ProcessRecord(context.Background(), record, 3)

	f.stagingRepo.AssertExpectations(t)
	f.resolution.AssertNumberOfCalls(t, "ResolveRecord", 2)
	f.email.AssertNotCalled(t, "SendReviewNeeded", mock.Anything, mock.Anything)
}

func TestProcessRecord_ExtractionFailureMarksError(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:         uuid.New(),
		Status:     domain.ImportStatusPending,
		StorageKey: "imports/x/invoice.pdf",
	}

	f.storage.On("Download", mock.Anything, "test-bucket", record.StorageKey).Return(pdfContent(), nil)
	f.extract.On("Extract", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.Status == domain.ImportStatusError && r.ErrorMessage != ""
	})).Return(nil)
	f.email.On("SendImportFailed", mock.Anything, record, mock.Anything).Return(nil)

	f.svc.ProcessRecord(context.Background(), record, 0)

	f.stagingRepo.AssertExpectations(t)
	f.email.AssertExpectations(t)
}

func TestProcessRecord_MissingTotalMarksError(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:         uuid.New(),
		Status:     domain.ImportStatusPending,
		StorageKey: "imports/x/invoice.pdf",
	}

	f.storage.On("Download", mock.Anything, "test-bucket", record.StorageKey).Return(pdfContent(), nil)
	f.extract.On("Extract", mock.Anything, mock.Anything).Return([]port.ExtractedInvoice{
		{SupplierName: "ACME Supplies"},
	}, nil)
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.Status == domain.ImportStatusError
	})).Return(nil)
	f.email.On("SendImportFailed", mock.Anything, record, mock.Anything).Return(nil)

	f.svc.ProcessRecord(context.Background(), record, 0)

	assert.Contains(t, record.ErrorMessage, "total")
	f.resolution.AssertNotCalled(t, "ResolveRecord", mock.Anything, mock.Anything)
}

func TestProcessRecord_RetriesAfterRateLimit(t *testing.T) {
	f := newStagingFixture()
	record := &domain.StagingRecord{
		ID:         uuid.New(),
		Status:     domain.ImportStatusPending,
		StorageKey: "imports/x/invoice.pdf",
	}
	rateLimited := &extractor.RateLimitError{
		Err:        assert.AnError,
		RetryAfter: time.Millisecond,
		Provider:   "gemini",
	}

	f.storage.On("Download", mock.Anything, "test-bucket", record.StorageKey).Return(pdfContent(), nil)
	f.extract.On("Extract", mock.Anything, mock.Anything).Return(nil, rateLimited).Once()
	f.extract.On("Extract", mock.Anything, mock.Anything).Return([]port.ExtractedInvoice{
		{SupplierName: "ACME Supplies", TotalAmount: decimal.NewFromInt(100)},
	}, nil).Once()
	f.stagingRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.StagingRecord) bool {
		return r.Status == domain.ImportStatusNeedsReview
	})).Return(nil)
	f.stagingRepo.On("ReplaceLines", mock.Anything, record.ID, mock.Anything).Return(nil)
	f.resolution.On("ResolveRecord", mock.Anything, record.ID).
		Return(&domain.StagingRecord{ID: record.ID, Status: domain.ImportStatusMatched}, nil)

	f.svc.ProcessRecord(context.Background(), record, 3)

	f.extract.AssertNumberOfCalls(t, "Extract", 2)
	f.stagingRepo.AssertExpectations(t)
}
