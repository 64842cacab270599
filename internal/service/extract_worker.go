package service

import (
	"context"
	"log"
	"sync"
	"time"

	"ocrdesk/internal/port"
)

// ExtractWorkerConfig holds settings for the extraction worker.
type ExtractWorkerConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// ExtractWorker polls for pending staging records and dispatches them for
// OCR extraction.
type ExtractWorker struct {
	stagingRepo port.StagingRepository
	staging     StagingService
	cfg         ExtractWorkerConfig
	wg          sync.WaitGroup
}

// NewExtractWorker creates a new ExtractWorker.
func NewExtractWorker(stagingRepo port.StagingRepository, staging StagingService, cfg ExtractWorkerConfig) *ExtractWorker {
	return &ExtractWorker{
		stagingRepo: stagingRepo,
		staging:     staging,
		cfg:         cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *ExtractWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("extractWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			records, err := w.stagingRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit gracefully
					continue
				}
				log.Printf("extractWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range records {
				record := records[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight extractions complete even during shutdown.
					extractCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("extractWorker: dispatching record %s (%s)", record.ID, record.SourceFilename)
					w.staging.ProcessRecord(extractCtx, &record, w.cfg.MaxRetries)
				}()
			}
		}
	}
}
