package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// StagingListFilters narrows a staging record listing.
type StagingListFilters struct {
	Status     *domain.ImportStatus
	SupplierID *uuid.UUID
	SourceType *domain.SourceType
	FromDate   *time.Time
	ToDate     *time.Time
	Offset     int
	Limit      int
}

// StagingRepository defines the contract for staging record persistence.
type StagingRepository interface {
	Create(ctx context.Context, record *domain.StagingRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StagingRecord, error)
	GetByContentHash(ctx context.Context, hash string) (*domain.StagingRecord, error)
	List(ctx context.Context, filters StagingListFilters) ([]domain.StagingRecord, int, error)
	Update(ctx context.Context, record *domain.StagingRecord) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ClaimPending atomically moves up to limit pending records into the
	// caller's hands so concurrent workers never extract the same record.
	ClaimPending(ctx context.Context, limit int) ([]domain.StagingRecord, error)

	ListLines(ctx context.Context, recordID uuid.UUID) ([]domain.StagingLineItem, error)
	ReplaceLines(ctx context.Context, recordID uuid.UUID, lines []domain.StagingLineItem) error
	UpdateLine(ctx context.Context, line *domain.StagingLineItem) error
}
