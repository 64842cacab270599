package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ocrdesk/internal/assemble"
	"ocrdesk/internal/config"
	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

// AccountingSettings is the accounting configuration with every code and
// account name resolved against master data. Built once at startup so a
// misconfigured account fails the process instead of the first conversion.
type AccountingSettings struct {
	assemble.Settings
	CreditAccountID *uuid.UUID
}

// ResolveAccountingSettings translates the configured codes and account names
// into master-data references.
func ResolveAccountingSettings(ctx context.Context, cfg *config.AccountingConfig, master port.MasterRepository) (*AccountingSettings, error) {
	fallback, err := master.GetItemByCode(ctx, cfg.FallbackItemCode)
	if err != nil {
		return nil, fmt.Errorf("resolving fallback item %q: %w", cfg.FallbackItemCode, err)
	}

	settings := &AccountingSettings{
		Settings: assemble.Settings{
			Company:           cfg.Company,
			FallbackItemID:    fallback.ID,
			DefaultCostCenter: cfg.DefaultCostCenter,
			VATTemplate:       cfg.VATTemplate,
			NonVATTemplate:    cfg.NonVATTemplate,
			TaxNoiseTolerance: decimal.NewFromFloat(cfg.TaxNoiseTolerance),
		},
	}

	if cfg.DefaultExpenseAccnt != "" {
		acct, err := master.GetAccountByName(ctx, cfg.Company, cfg.DefaultExpenseAccnt)
		if err != nil {
			return nil, fmt.Errorf("resolving default expense account %q: %w", cfg.DefaultExpenseAccnt, err)
		}
		settings.DefaultExpenseAccountID = &acct.ID
	}
	if cfg.TaxInputAccount != "" {
		acct, err := master.GetAccountByName(ctx, cfg.Company, cfg.TaxInputAccount)
		if err != nil {
			return nil, fmt.Errorf("resolving tax input account %q: %w", cfg.TaxInputAccount, err)
		}
		settings.TaxInputAccountID = acct.ID
	}
	if cfg.DefaultCreditAccnt != "" {
		acct, err := master.GetAccountByName(ctx, cfg.Company, cfg.DefaultCreditAccnt)
		if err != nil {
			return nil, fmt.Errorf("resolving default credit account %q: %w", cfg.DefaultCreditAccnt, err)
		}
		settings.CreditAccountID = &acct.ID
	}
	return settings, nil
}

// CreateDocumentInput is the DTO for converting a staging record into a
// draft accounting document.
type CreateDocumentInput struct {
	RecordID uuid.UUID
	Kind     domain.DocumentKind
	// CreditAccountID overrides the configured credit account for journal
	// entries. Ignored for other kinds.
	CreditAccountID *uuid.UUID
	UserID          *uuid.UUID
}

// DocumentService converts reviewed staging records into draft accounting
// documents and detaches drafts that should not have been created.
type DocumentService interface {
	CreateDocument(ctx context.Context, input CreateDocumentInput) (*domain.StagingRecord, error)
	Unlink(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error)

	GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*domain.PurchaseInvoice, error)
	GetPurchaseReceipt(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error)
	GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error)
}

type documentService struct {
	store       port.DocumentStore
	masterRepo  port.MasterRepository
	receiptRepo port.PurchaseReceiptRepository
	settings    *AccountingSettings
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	store port.DocumentStore,
	masterRepo port.MasterRepository,
	receiptRepo port.PurchaseReceiptRepository,
	settings *AccountingSettings,
) DocumentService {
	return &documentService{
		store:       store,
		masterRepo:  masterRepo,
		receiptRepo: receiptRepo,
		settings:    settings,
	}
}

// CreateDocument runs the guard checks and document assembly inside one
// transaction holding a row lock on the staging record. Any guard violation
// rolls everything back, so a rejected conversion leaves no trace.
func (s *documentService) CreateDocument(ctx context.Context, input CreateDocumentInput) (*domain.StagingRecord, error) {
	if !domain.ValidDocumentKinds[input.Kind] {
		return nil, fmt.Errorf("%w: document kind %q", domain.ErrMissingField, input.Kind)
	}

	var result *domain.StagingRecord
	err := s.store.InRecordTx(ctx, input.RecordID, func(tx port.RecordTx) error {
		record := tx.Record()

		if record.OutputCount() > 0 {
			return domain.ErrOutputAlreadyCreated
		}
		if record.DocumentKind == nil {
			return domain.ErrKindNotDeclared
		}
		if *record.DocumentKind != input.Kind {
			return fmt.Errorf("%w: record declares %s, requested %s",
				domain.ErrKindMismatch, *record.DocumentKind, input.Kind)
		}

		lines, err := tx.Lines(ctx)
		if err != nil {
			return err
		}

		if err := s.checkReceiptLink(ctx, record); err != nil {
			return err
		}
		items, err := s.loadItems(ctx, lines)
		if err != nil {
			return err
		}
		if err := s.checkLineAccounts(ctx, lines); err != nil {
			return err
		}

		in := assemble.Input{
			Record:   record,
			Lines:    lines,
			Items:    items,
			Settings: s.settings.Settings,
			Now:      time.Now(),
		}

		switch input.Kind {
		case domain.KindPurchaseInvoice:
			doc, err := assemble.PurchaseInvoice(in)
			if err != nil {
				return err
			}
			if err := tx.InsertPurchaseInvoice(ctx, doc); err != nil {
				return err
			}
			record.PurchaseInvoiceDocID = &doc.ID

		case domain.KindPurchaseReceipt:
			if record.Status != domain.ImportStatusMatched {
				return domain.ErrReceiptNotMatched
			}
			doc, err := assemble.PurchaseReceipt(in)
			if err != nil {
				return err
			}
			if err := tx.InsertPurchaseReceipt(ctx, doc); err != nil {
				return err
			}
			record.PurchaseReceiptDocID = &doc.ID

		case domain.KindJournalEntry:
			credit := s.settings.CreditAccountID
			if input.CreditAccountID != nil {
				if _, err := s.checkPostingAccount(ctx, *input.CreditAccountID); err != nil {
					return err
				}
				credit = input.CreditAccountID
			}
			doc, err := assemble.JournalEntry(in, credit)
			if err != nil {
				return err
			}
			if err := tx.InsertJournalEntry(ctx, doc); err != nil {
				return err
			}
			record.JournalEntryDocID = &doc.ID
		}

		record.Status = domain.ImportStatusDraftCreated
		if err := tx.UpdateRecord(ctx, record); err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	docID, kind := result.OutputDocID()
	log.Printf("document.CreateDocument: record %s produced draft %s %s", result.ID, kind, *docID)
	return result, nil
}

// Unlink deletes the draft document created from a record and reopens the
// record for rework. Only drafts can be unlinked; a submitted document stays.
func (s *documentService) Unlink(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error) {
	var result *domain.StagingRecord
	err := s.store.InRecordTx(ctx, recordID, func(tx port.RecordTx) error {
		record := tx.Record()

		docID, kind := record.OutputDocID()
		if docID == nil {
			return domain.ErrNothingToUnlink
		}

		if err := tx.DeleteDocument(ctx, kind, *docID); err != nil {
			return err
		}
		lines, err := tx.Lines(ctx)
		if err != nil {
			return err
		}
		record.ClearOutputs()
		// Reopen at whatever the current resolution state supports.
		record.Status = domain.ImportStatusNeedsReview
		record.Status = recordStatus(record, lines)

		if err := tx.UpdateRecord(ctx, record); err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("document.Unlink: record %s reopened", result.ID)
	return result, nil
}

func (s *documentService) GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*domain.PurchaseInvoice, error) {
	return s.store.GetPurchaseInvoice(ctx, id)
}

func (s *documentService) GetPurchaseReceipt(ctx context.Context, id uuid.UUID) (*domain.PurchaseReceipt, error) {
	return s.store.GetPurchaseReceipt(ctx, id)
}

func (s *documentService) GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	return s.store.GetJournalEntry(ctx, id)
}

// checkReceiptLink verifies a linked receipt was actually created against the
// linked purchase order. Links are set independently, so they can drift.
func (s *documentService) checkReceiptLink(ctx context.Context, record *domain.StagingRecord) error {
	if record.PurchaseReceiptID == nil {
		return nil
	}
	receipt, err := s.receiptRepo.GetByID(ctx, *record.PurchaseReceiptID)
	if err != nil {
		return fmt.Errorf("loading linked receipt: %w", err)
	}
	if record.PurchaseOrderID == nil || receipt.PurchaseOrderID == nil ||
		*receipt.PurchaseOrderID != *record.PurchaseOrderID {
		return domain.ErrStaleReceiptLink
	}
	return nil
}

// loadItems fetches every item referenced by the lines plus the fallback item.
func (s *documentService) loadItems(ctx context.Context, lines []domain.StagingLineItem) (map[uuid.UUID]*domain.Item, error) {
	ids := map[uuid.UUID]bool{s.settings.FallbackItemID: true}
	for i := range lines {
		if lines[i].ItemID != nil {
			ids[*lines[i].ItemID] = true
		}
	}
	items := make(map[uuid.UUID]*domain.Item, len(ids))
	for id := range ids {
		item, err := s.masterRepo.GetItem(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading item %s: %w", id, err)
		}
		items[id] = item
	}
	return items, nil
}

// checkLineAccounts re-validates every expense account set on a line. The
// accounts were valid when confirmed but master data may have changed since.
func (s *documentService) checkLineAccounts(ctx context.Context, lines []domain.StagingLineItem) error {
	seen := map[uuid.UUID]bool{}
	for i := range lines {
		acctID := lines[i].ExpenseAccountID
		if acctID == nil || seen[*acctID] {
			continue
		}
		seen[*acctID] = true

		if _, err := s.checkPostingAccount(ctx, *acctID); err != nil {
			return err
		}
	}
	return nil
}

// checkPostingAccount verifies an account exists and can take postings.
func (s *documentService) checkPostingAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	acct, err := s.masterRepo.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s does not exist", domain.ErrInvalidAccount, id)
		}
		return nil, err
	}
	if acct.IsGroup {
		return nil, fmt.Errorf("%w: %s is a group account", domain.ErrInvalidAccount, acct.Name)
	}
	if acct.Disabled {
		return nil, fmt.Errorf("%w: %s is disabled", domain.ErrInvalidAccount, acct.Name)
	}
	if acct.Company != s.settings.Company {
		return nil, fmt.Errorf("%w: %s belongs to another company", domain.ErrInvalidAccount, acct.Name)
	}
	return acct, nil
}
