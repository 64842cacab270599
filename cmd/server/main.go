package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ocrdesk/internal/config"
	"ocrdesk/internal/email/noop"
	"ocrdesk/internal/email/ses"
	"ocrdesk/internal/extractor"
	"ocrdesk/internal/extractor/gemini"
	"ocrdesk/internal/handler"
	"ocrdesk/internal/match"
	"ocrdesk/internal/port"
	"ocrdesk/internal/repository/postgres"
	"ocrdesk/internal/router"
	"ocrdesk/internal/service"
	s3storage "ocrdesk/internal/storage/s3"

	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	stagingRepo := postgres.NewStagingRepo(db)
	supplierAliasRepo := postgres.NewSupplierAliasRepo(db)
	itemAliasRepo := postgres.NewItemAliasRepo(db)
	mappingRepo := postgres.NewServiceMappingRepo(db)
	masterRepo := postgres.NewMasterRepo(db)
	orderRepo := postgres.NewPurchaseOrderRepo(db)
	receiptRepo := postgres.NewPurchaseReceiptRepo(db)
	documentStore := postgres.NewDocumentStore(db)
	duplicateFinder := postgres.NewDuplicateFinderRepo(db,
		decimal.NewFromFloat(cfg.Matching.DuplicateTolerance), cfg.Matching.DuplicateWindowDays)

	// Initialize storage and outbound adapters
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	emailSender, err := newEmailSender(&cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	extractor.RegisterProvider("gemini", func(ecfg *config.ExtractorConfig) (port.InvoiceExtractor, error) {
		return gemini.NewExtractor(ecfg), nil
	})
	invoiceExtractor, err := extractor.NewExtractor(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	settings, err := service.ResolveAccountingSettings(startupCtx, &cfg.Accounting, masterRepo)
	cancelStartup()
	if err != nil {
		return fmt.Errorf("failed to resolve accounting settings: %w", err)
	}

	// Initialize services
	resolver := match.NewResolver(cfg.Matching.FuzzyThreshold)
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	userSvc := service.NewUserService(userRepo)
	resolutionSvc := service.NewResolutionService(
		stagingRepo, supplierAliasRepo, itemAliasRepo, mappingRepo, masterRepo, orderRepo, resolver)
	stagingSvc := service.NewStagingService(
		stagingRepo, duplicateFinder, s3Client, invoiceExtractor, resolutionSvc, emailSender,
		&cfg.S3, cfg.Accounting.Company)
	documentSvc := service.NewDocumentService(documentStore, masterRepo, receiptRepo, settings)

	// Initialize handlers
	deps := router.Deps{
		AuthService:  authSvc,
		CORSOrigins:  cfg.CORS.AllowedOrigins,
		WebhookToken: cfg.Webhook.Token,
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		Import:       handler.NewImportHandler(stagingSvc, resolutionSvc),
		Document:     handler.NewDocumentHandler(documentSvc),
		Event:        handler.NewEventHandler(stagingSvc),
		Export:       handler.NewExportHandler(stagingSvc),
		Master:       handler.NewMasterHandler(masterRepo, orderRepo),
		User:         handler.NewUserHandler(userSvc),
		Health:       handler.NewHealthHandler(db),
	}
	r := router.Setup(deps)

	// Start the extraction worker alongside the HTTP server.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := service.NewExtractWorker(stagingRepo, stagingSvc, service.ExtractWorkerConfig{
		PollInterval: time.Duration(cfg.Worker.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Worker.MaxRetries,
		Concurrency:  cfg.Worker.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		errCh <- r.Run(cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Printf("Shutdown signal received")
		<-workerDone
		return nil
	}
}

func newEmailSender(cfg *config.EmailConfig) (port.EmailSender, error) {
	switch cfg.Provider {
	case "ses":
		return ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName, cfg.ReviewerTo, cfg.FrontendURL)
	default:
		return noop.NewNoopSender(), nil
	}
}
