package noop

import (
	"context"
	"log"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs notifications to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendReviewNeeded(_ context.Context, record *domain.StagingRecord) error {
	log.Printf("[NOOP EMAIL] Review needed for import %s (%s)", record.ID, record.SourceFilename)
	return nil
}

func (s *noopSender) SendImportFailed(_ context.Context, record *domain.StagingRecord, reason string) error {
	log.Printf("[NOOP EMAIL] Import %s failed: %s", record.ID, reason)
	return nil
}
