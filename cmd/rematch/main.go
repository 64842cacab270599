// Command rematch re-runs entity resolution over records still awaiting
// review. The alias and service mapping knowledge base grows with every
// confirmation, so records staged before a confirmation can often be matched
// afterwards without a reviewer touching them.
// Usage: go run ./cmd/rematch
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"ocrdesk/internal/config"
	"ocrdesk/internal/domain"
	"ocrdesk/internal/match"
	"ocrdesk/internal/repository/postgres"
	"ocrdesk/internal/service"
)

const batchSize = 100

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	resolution := service.NewResolutionService(
		postgres.NewStagingRepo(db),
		postgres.NewSupplierAliasRepo(db),
		postgres.NewItemAliasRepo(db),
		postgres.NewServiceMappingRepo(db),
		postgres.NewMasterRepo(db),
		postgres.NewPurchaseOrderRepo(db),
		match.NewResolver(cfg.Matching.FuzzyThreshold),
	)

	ctx := context.Background()
	offset := 0
	total := 0
	matched := 0

	for {
		var ids []uuid.UUID
		err := db.SelectContext(ctx, &ids,
			`SELECT id FROM staging_records
			 WHERE status = 'needs_review'
			 ORDER BY created_at
			 LIMIT $1 OFFSET $2`, batchSize, offset)
		if err != nil {
			return fmt.Errorf("querying records at offset %d: %w", offset, err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			record, err := resolution.ResolveRecord(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidTransition) {
					continue
				}
				log.Printf("WARN: resolving record %s: %v", id, err)
				continue
			}
			total++
			if record.Status == domain.ImportStatusMatched {
				matched++
				log.Printf("record %s now fully matched", id)
			}
		}

		if total > 0 && total%batchSize == 0 {
			log.Printf("Progress: %d records re-resolved", total)
		}

		offset += len(ids)
	}

	log.Printf("Rematch complete: %d records re-resolved, %d newly matched", total, matched)
	return nil
}
