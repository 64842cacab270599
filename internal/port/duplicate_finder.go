package port

import (
	"context"

	"ocrdesk/internal/domain"
)

// DuplicateFinder scans other staging records for likely duplicates of the
// given record. Matches are advisory and never block conversion.
type DuplicateFinder interface {
	FindDuplicates(ctx context.Context, record *domain.StagingRecord) ([]domain.DuplicateCandidate, error)
}
