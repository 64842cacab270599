package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ocrdesk/internal/config"
	"ocrdesk/internal/domain"
	"ocrdesk/internal/extractor"
	"ocrdesk/internal/port"
)

// UploadInput is the DTO for invoice upload requests.
type UploadInput struct {
	File       multipart.File
	Header     *multipart.FileHeader
	SourceType domain.SourceType
	UploadedBy *uuid.UUID
}

// UploadResult reports the outcome of an upload. When the file content was
// already staged, Duplicate is true and Record points at the existing record.
type UploadResult struct {
	Record    *domain.StagingRecord `json:"record"`
	Duplicate bool                  `json:"duplicate"`
}

// DocumentEventInput is the DTO for an output document lifecycle webhook.
type DocumentEventInput struct {
	DocID uuid.UUID
	Kind  domain.DocumentKind
	Event domain.LifecycleEvent
}

// StagingService manages the staging record lifecycle from upload through
// extraction to closure.
type StagingService interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StagingRecord, error)
	GetLines(ctx context.Context, recordID uuid.UUID) ([]domain.StagingLineItem, error)
	List(ctx context.Context, filters port.StagingListFilters) ([]domain.StagingRecord, int, error)
	GetSourceURL(ctx context.Context, recordID uuid.UUID) (string, error)
	Delete(ctx context.Context, recordID uuid.UUID) error
	Retry(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error)
	NoAction(ctx context.Context, recordID uuid.UUID, reason string) (*domain.StagingRecord, error)
	Duplicates(ctx context.Context, recordID uuid.UUID) ([]domain.DuplicateCandidate, error)
	HandleDocumentEvent(ctx context.Context, input DocumentEventInput) error

	// ProcessRecord runs extraction for one claimed pending record. Invoked
	// by the extraction worker, never by handlers.
	ProcessRecord(ctx context.Context, record *domain.StagingRecord, maxRetries int)
}

type stagingService struct {
	stagingRepo port.StagingRepository
	finder      port.DuplicateFinder
	storage     port.ObjectStorage
	extract     port.InvoiceExtractor
	resolution  ResolutionService
	email       port.EmailSender
	s3cfg       *config.S3Config
	company     string
}

// NewStagingService creates a new StagingService implementation.
func NewStagingService(
	stagingRepo port.StagingRepository,
	finder port.DuplicateFinder,
	storage port.ObjectStorage,
	invoiceExtractor port.InvoiceExtractor,
	resolution ResolutionService,
	email port.EmailSender,
	s3cfg *config.S3Config,
	company string,
) StagingService {
	return &stagingService{
		stagingRepo: stagingRepo,
		finder:      finder,
		storage:     storage,
		extract:     invoiceExtractor,
		resolution:  resolution,
		email:       email,
		s3cfg:       s3cfg,
		company:     company,
	}
}

// Upload validates the file, dedupes on content hash, stores the bytes, and
// stages a pending record for the extraction worker.
func (s *stagingService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(input.File, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	if !domain.AllowedContentTypes[contentType] {
		return nil, domain.ErrUnsupportedFileType
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	// Same bytes staged before: hand back the existing record instead of
	// paying for a second extraction.
	if existing, err := s.stagingRepo.GetByContentHash(ctx, hash); err == nil {
		log.Printf("staging.Upload: duplicate content %s matches record %s", hash[:12], existing.ID)
		return &UploadResult{Record: existing, Duplicate: true}, nil
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	recordID := uuid.New()
	storageKey := fmt.Sprintf("imports/%s/%s", recordID, input.Header.Filename)

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManualUpload
	}

	record := &domain.StagingRecord{
		ID:                  recordID,
		SourceType:          sourceType,
		SourceFilename:      input.Header.Filename,
		ContentHash:         hash,
		StorageKey:          storageKey,
		Company:             s.company,
		SupplierMatchStatus: domain.MatchUnmatched,
		Status:              domain.ImportStatusPending,
		UploadedBy:          input.UploadedBy,
	}

	log.Printf("staging.Upload: staging %s (%s, %d bytes)", input.Header.Filename, contentType, len(data))

	if err := s.stagingRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("creating staging record: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         storageKey,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		log.Printf("staging.Upload: storage upload failed for record %s: %v", record.ID, err)
		record.Status = domain.ImportStatusError
		record.ErrorMessage = "storing source file failed"
		_ = s.stagingRepo.Update(ctx, record)
		return nil, domain.ErrUploadFailed
	}

	return &UploadResult{Record: record}, nil
}

func (s *stagingService) GetByID(ctx context.Context, id uuid.UUID) (*domain.StagingRecord, error) {
	return s.stagingRepo.GetByID(ctx, id)
}

func (s *stagingService) GetLines(ctx context.Context, recordID uuid.UUID) ([]domain.StagingLineItem, error) {
	if _, err := s.stagingRepo.GetByID(ctx, recordID); err != nil {
		return nil, err
	}
	return s.stagingRepo.ListLines(ctx, recordID)
}

func (s *stagingService) List(ctx context.Context, filters port.StagingListFilters) ([]domain.StagingRecord, int, error) {
	return s.stagingRepo.List(ctx, filters)
}

func (s *stagingService) GetSourceURL(ctx context.Context, recordID uuid.UUID) (string, error) {
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, s.s3cfg.Bucket, record.StorageKey, s.s3cfg.PresignExpiry)
}

// Delete removes a staging record and its stored source file. Records that
// already produced an output document cannot be deleted.
func (s *stagingService) Delete(ctx context.Context, recordID uuid.UUID) error {
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if record.OutputCount() > 0 {
		return domain.ErrOutputAlreadyCreated
	}
	if err := s.stagingRepo.Delete(ctx, recordID); err != nil {
		return err
	}
	// Records staged from a multi-invoice file share the stored object; only
	// remove it once the last of them is gone.
	if _, err := s.stagingRepo.GetByContentHash(ctx, record.ContentHash); errors.Is(err, domain.ErrRecordNotFound) {
		if err := s.storage.Delete(ctx, s.s3cfg.Bucket, record.StorageKey); err != nil {
			log.Printf("staging.Delete: removing stored file for %s: %v", recordID, err)
		}
	}
	return nil
}

// Retry requeues a failed extraction. Only records in the error state can be
// retried.
func (s *stagingService) Retry(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error) {
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.ImportStatusError {
		return nil, domain.ErrRetryNotFailed
	}
	record.Status = domain.ImportStatusPending
	record.ErrorMessage = ""
	record.ClaimedAt = nil
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	log.Printf("staging.Retry: record %s requeued", record.ID)
	return record, nil
}

// NoAction closes a record without producing a document. The reason is
// mandatory and the transition is final.
func (s *stagingService) NoAction(ctx context.Context, recordID uuid.UUID, reason string) (*domain.StagingRecord, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if domain.TerminalStatuses[record.Status] || !record.PostExtraction() || record.OutputCount() > 0 {
		return nil, domain.ErrInvalidTransition
	}
	record.Status = domain.ImportStatusNoAction
	record.NoActionReason = reason
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *stagingService) Duplicates(ctx context.Context, recordID uuid.UUID) ([]domain.DuplicateCandidate, error) {
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return s.finder.FindDuplicates(ctx, record)
}

// HandleDocumentEvent reacts to lifecycle notifications about created output
// documents. Submission completes the record; cancellation detaches the
// document so the record can be reworked. The handler is idempotent, a
// repeated notification is a no-op.
func (s *stagingService) HandleDocumentEvent(ctx context.Context, input DocumentEventInput) error {
	record, err := s.findByOutputDoc(ctx, input.DocID, input.Kind)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// Not a document we created; nothing to do.
			return nil
		}
		return err
	}

	switch input.Event {
	case domain.EventSubmitted:
		if record.Status == domain.ImportStatusCompleted {
			return nil
		}
		record.Status = domain.ImportStatusCompleted
	case domain.EventCancelled:
		lines, err := s.stagingRepo.ListLines(ctx, record.ID)
		if err != nil {
			return err
		}
		record.ClearOutputs()
		record.Status = domain.ImportStatusNeedsReview
		record.Status = recordStatus(record, lines)
	default:
		return fmt.Errorf("unknown document event %q", input.Event)
	}

	log.Printf("staging.HandleDocumentEvent: record %s %s after %s %s",
		record.ID, record.Status, input.Kind, input.Event)
	return s.stagingRepo.Update(ctx, record)
}

func (s *stagingService) findByOutputDoc(ctx context.Context, docID uuid.UUID, kind domain.DocumentKind) (*domain.StagingRecord, error) {
	status := domain.ImportStatusDraftCreated
	records, _, err := s.stagingRepo.List(ctx, port.StagingListFilters{Status: &status, Limit: 500})
	if err != nil {
		return nil, err
	}
	completed := domain.ImportStatusCompleted
	done, _, err := s.stagingRepo.List(ctx, port.StagingListFilters{Status: &completed, Limit: 500})
	if err != nil {
		return nil, err
	}
	for _, list := range [][]domain.StagingRecord{records, done} {
		for i := range list {
			ref, refKind := list[i].OutputDocID()
			if ref != nil && *ref == docID && refKind == kind {
				return &list[i], nil
			}
		}
	}
	return nil, domain.ErrRecordNotFound
}

// ProcessRecord downloads the source bytes, extracts the invoice(s), writes
// the results back, and runs first-pass resolution. A file holding several
// invoices keeps the original record for the first invoice and stages a new
// record for each additional one.
func (s *stagingService) ProcessRecord(ctx context.Context, record *domain.StagingRecord, maxRetries int) {
	data, err := s.storage.Download(ctx, s.s3cfg.Bucket, record.StorageKey)
	if err != nil {
		s.failRecord(ctx, record, fmt.Sprintf("downloading source file: %v", err))
		return
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	invoices, err := s.extractWithRetry(ctx, port.ExtractInput{
		FileBytes:   data,
		ContentType: http.DetectContentType(head),
		Filename:    record.SourceFilename,
	}, maxRetries)
	if err != nil {
		s.failRecord(ctx, record, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	for i, inv := range invoices {
		target := record
		if i > 0 {
			// Additional invoices in the same file get their own records
			// sharing the source file reference.
			target = &domain.StagingRecord{
				ID:                  uuid.New(),
				SourceType:          record.SourceType,
				SourceFilename:      record.SourceFilename,
				ContentHash:         record.ContentHash,
				StorageKey:          record.StorageKey,
				Company:             record.Company,
				SupplierMatchStatus: domain.MatchUnmatched,
				Status:              domain.ImportStatusPending,
				UploadedBy:          record.UploadedBy,
			}
			if err := s.stagingRepo.Create(ctx, target); err != nil {
				log.Printf("staging.ProcessRecord: creating record for invoice %d of %s: %v", i+1, record.ID, err)
				continue
			}
		}
		s.applyExtraction(ctx, target, &inv)
	}
}

func (s *stagingService) extractWithRetry(ctx context.Context, input port.ExtractInput, maxRetries int) ([]port.ExtractedInvoice, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		invoices, err := s.extract.Extract(ctx, input)
		if err == nil {
			return invoices, nil
		}
		lastErr = err

		var rateLimit *extractor.RateLimitError
		if errors.As(err, &rateLimit) && attempt < maxRetries {
			log.Printf("staging.extractWithRetry: rate limited, waiting %s (attempt %d/%d)",
				rateLimit.RetryAfter, attempt+1, maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(rateLimit.RetryAfter):
			}
			continue
		}
		break
	}
	return nil, lastErr
}

func (s *stagingService) applyExtraction(ctx context.Context, record *domain.StagingRecord, inv *port.ExtractedInvoice) {
	if err := extractor.ValidateInvoice(inv); err != nil {
		s.failRecord(ctx, record, err.Error())
		return
	}

	record.SupplierNameOCR = inv.SupplierName
	record.InvoiceNumber = inv.InvoiceNumber
	record.InvoiceDate = inv.InvoiceDate
	record.DueDate = inv.DueDate
	record.Currency = inv.Currency
	record.Subtotal = inv.Subtotal
	record.TaxAmount = inv.TaxAmount
	record.TotalAmount = inv.TotalAmount
	record.Confidence = inv.Confidence
	record.Status = domain.ImportStatusNeedsReview
	record.ErrorMessage = ""

	lines := make([]domain.StagingLineItem, 0, len(inv.Lines))
	for i, raw := range inv.Lines {
		lines = append(lines, domain.StagingLineItem{
			Position:       i,
			DescriptionOCR: raw.Description,
			ProductCode:    raw.ProductCode,
			Qty:            raw.Qty,
			Rate:           raw.Rate,
			Amount:         raw.Amount,
			MatchStatus:    domain.MatchUnmatched,
		})
	}

	if err := s.stagingRepo.Update(ctx, record); err != nil {
		log.Printf("staging.applyExtraction: updating record %s: %v", record.ID, err)
		return
	}
	if err := s.stagingRepo.ReplaceLines(ctx, record.ID, lines); err != nil {
		log.Printf("staging.applyExtraction: writing lines for %s: %v", record.ID, err)
		return
	}

	resolved, err := s.resolution.ResolveRecord(ctx, record.ID)
	if err != nil {
		log.Printf("staging.applyExtraction: resolving %s: %v", record.ID, err)
		return
	}

	if resolved.Status == domain.ImportStatusNeedsReview {
		if err := s.email.SendReviewNeeded(ctx, resolved); err != nil {
			log.Printf("staging.applyExtraction: review notification for %s: %v", resolved.ID, err)
		}
	}
	log.Printf("staging.applyExtraction: record %s extracted, status %s", resolved.ID, resolved.Status)
}

func (s *stagingService) failRecord(ctx context.Context, record *domain.StagingRecord, reason string) {
	log.Printf("staging.failRecord: record %s: %s", record.ID, reason)
	record.Status = domain.ImportStatusError
	record.ErrorMessage = reason
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		log.Printf("staging.failRecord: updating record %s: %v", record.ID, err)
		return
	}
	if err := s.email.SendImportFailed(ctx, record, reason); err != nil {
		log.Printf("staging.failRecord: failure notification for %s: %v", record.ID, err)
	}
}
