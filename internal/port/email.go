package port

import (
	"context"

	"ocrdesk/internal/domain"
)

// EmailSender defines the contract for reviewer notifications.
type EmailSender interface {
	SendReviewNeeded(ctx context.Context, record *domain.StagingRecord) error
	SendImportFailed(ctx context.Context, record *domain.StagingRecord, reason string) error
}
