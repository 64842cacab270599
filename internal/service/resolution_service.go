package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/match"
	"ocrdesk/internal/port"
)

// ConfirmSupplierInput is the DTO for a supplier confirmation.
type ConfirmSupplierInput struct {
	RecordID   uuid.UUID
	SupplierID uuid.UUID
	// PersistAsAlias also records the raw OCR text as a learned alias.
	PersistAsAlias bool
	UserID         *uuid.UUID
}

// ConfirmLineInput is the DTO for a line item confirmation.
type ConfirmLineInput struct {
	RecordID         uuid.UUID
	LineID           uuid.UUID
	ItemID           uuid.UUID
	ExpenseAccountID *uuid.UUID
	CostCenter       string
	// PersistAsAlias also records the raw OCR description as a learned alias.
	PersistAsAlias bool
	// SaveMapping also records a service mapping pattern for non-stock
	// items, so the same recurring charge maps without review next time.
	SaveMapping bool
	UserID      *uuid.UUID
}

// SetLinksInput is the DTO for linking a record to an order or receipt.
type SetLinksInput struct {
	RecordID          uuid.UUID
	PurchaseOrderID   *uuid.UUID
	PurchaseReceiptID *uuid.UUID
}

// ResolutionService runs entity resolution over staging records and applies
// reviewer decisions. Confirmations are the only path that grows the learned
// knowledge base.
type ResolutionService interface {
	ResolveRecord(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error)
	ConfirmSupplier(ctx context.Context, input ConfirmSupplierInput) (*domain.StagingRecord, error)
	ConfirmLine(ctx context.Context, input ConfirmLineInput) (*domain.StagingLineItem, error)
	SetDocumentKind(ctx context.Context, recordID uuid.UUID, kind domain.DocumentKind) (*domain.StagingRecord, error)
	SetLinks(ctx context.Context, input SetLinksInput) (*domain.StagingRecord, error)
}

type resolutionService struct {
	stagingRepo  port.StagingRepository
	supplierAlts port.SupplierAliasRepository
	itemAlts     port.ItemAliasRepository
	mappings     port.ServiceMappingRepository
	masterRepo   port.MasterRepository
	orderRepo    port.PurchaseOrderRepository
	resolver     *match.Resolver
}

// NewResolutionService creates a new ResolutionService implementation.
func NewResolutionService(
	stagingRepo port.StagingRepository,
	supplierAlts port.SupplierAliasRepository,
	itemAlts port.ItemAliasRepository,
	mappings port.ServiceMappingRepository,
	masterRepo port.MasterRepository,
	orderRepo port.PurchaseOrderRepository,
	resolver *match.Resolver,
) ResolutionService {
	return &resolutionService{
		stagingRepo:  stagingRepo,
		supplierAlts: supplierAlts,
		itemAlts:     itemAlts,
		mappings:     mappings,
		masterRepo:   masterRepo,
		orderRepo:    orderRepo,
		resolver:     resolver,
	}
}

// ResolveRecord resolves the supplier and every line item, then recomputes
// the record status. Safe to call repeatedly; confirmed decisions are never
// overwritten.
func (s *resolutionService) ResolveRecord(ctx context.Context, recordID uuid.UUID) (*domain.StagingRecord, error) {
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if domain.TerminalStatuses[record.Status] || !record.PostExtraction() {
		return nil, domain.ErrInvalidTransition
	}

	lines, err := s.stagingRepo.ListLines(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if err := s.resolveSupplier(ctx, record); err != nil {
		return nil, err
	}
	if err := s.resolveLines(ctx, record, lines); err != nil {
		return nil, err
	}

	record.Status = recordStatus(record, lines)
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	for i := range lines {
		if err := s.stagingRepo.UpdateLine(ctx, &lines[i]); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// resolveSupplier runs the resolver over the raw supplier name unless a
// confirmed decision already stands.
func (s *resolutionService) resolveSupplier(ctx context.Context, record *domain.StagingRecord) error {
	if record.SupplierMatchStatus == domain.MatchConfirmed {
		return nil
	}

	suppliers, err := s.masterRepo.ListSuppliers(ctx)
	if err != nil {
		return fmt.Errorf("resolution.resolveSupplier: %w", err)
	}
	candidates := make([]match.Candidate, 0, len(suppliers))
	for _, sup := range suppliers {
		candidates = append(candidates, match.Candidate{Ref: sup.ID, Name: sup.Name})
	}

	res := s.resolver.Resolve(record.SupplierNameOCR, match.Lookup{
		Alias: func(key string) (uuid.UUID, bool) {
			alias, err := s.supplierAlts.GetByKey(ctx, key)
			if err != nil {
				return uuid.Nil, false
			}
			return alias.SupplierID, true
		},
		Candidates: candidates,
	})

	record.SupplierID = res.Ref
	record.SupplierMatchStatus = res.Status
	record.SuggestedSupplierID = nil
	record.SupplierMatchScore = 0
	if res.Suggestion != nil {
		record.SuggestedSupplierID = &res.Suggestion.Ref
		record.SupplierMatchScore = res.Suggestion.Score
	}
	return nil
}

// resolveLines resolves each unconfirmed line against the item knowledge
// base, scoped to the record's supplier when one is set.
func (s *resolutionService) resolveLines(ctx context.Context, record *domain.StagingRecord, lines []domain.StagingLineItem) error {
	items, err := s.masterRepo.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("resolution.resolveLines: %w", err)
	}
	itemsByID := make(map[uuid.UUID]*domain.Item, len(items))
	candidates := make([]match.Candidate, 0, len(items))
	for i := range items {
		it := &items[i]
		itemsByID[it.ID] = it
		candidates = append(candidates, match.Candidate{Ref: it.ID, Name: it.Name, Code: it.Code})
	}

	patterns, err := s.patternLookup(ctx, record.SupplierID, itemsByID)
	if err != nil {
		return err
	}

	lookup := match.Lookup{
		Alias: func(key string) (uuid.UUID, bool) {
			alias, err := s.itemAlts.GetByKey(ctx, key, record.SupplierID)
			if err != nil {
				return uuid.Nil, false
			}
			return alias.ItemID, true
		},
		Candidates: candidates,
		Patterns:   patterns,
	}

	for i := range lines {
		l := &lines[i]
		if l.MatchStatus == domain.MatchConfirmed {
			continue
		}
		raw := l.DescriptionOCR
		if raw == "" {
			raw = l.ProductCode
		}
		res := s.resolver.Resolve(raw, lookup)

		l.ItemID = res.Ref
		l.MatchStatus = res.Status
		l.SuggestedItemID = nil
		l.MatchScore = 0
		if res.Suggestion != nil {
			l.SuggestedItemID = &res.Suggestion.Ref
			l.MatchScore = res.Suggestion.Score
		}
		if res.Service != nil {
			l.ExpenseAccountID = &res.Service.ExpenseAccountID
			l.CostCenter = res.Service.CostCenter
		}
	}
	return nil
}

func (s *resolutionService) patternLookup(ctx context.Context, supplierID *uuid.UUID, itemsByID map[uuid.UUID]*domain.Item) ([]match.PatternMapping, error) {
	stored, err := s.mappings.ListForSupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("resolution.patternLookup: %w", err)
	}
	out := make([]match.PatternMapping, 0, len(stored))
	for _, m := range stored {
		name := ""
		if it, ok := itemsByID[m.ItemID]; ok {
			name = it.Name
		}
		out = append(out, match.PatternMapping{
			Pattern:          m.Pattern,
			ItemID:           m.ItemID,
			ItemName:         name,
			ExpenseAccountID: m.ExpenseAccountID,
			CostCenter:       m.CostCenter,
			SupplierScoped:   m.SupplierID != nil,
		})
	}
	return out, nil
}

// ConfirmSupplier applies a reviewer's supplier choice, optionally learns the
// alias, and re-resolves the lines under the new supplier scope. Lines the
// reviewer already confirmed are kept.
func (s *resolutionService) ConfirmSupplier(ctx context.Context, input ConfirmSupplierInput) (*domain.StagingRecord, error) {
	record, err := s.stagingRepo.GetByID(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	if domain.TerminalStatuses[record.Status] || !record.PostExtraction() {
		return nil, domain.ErrInvalidTransition
	}
	if _, err := s.masterRepo.GetSupplier(ctx, input.SupplierID); err != nil {
		return nil, err
	}

	supplierChanged := record.SupplierID == nil || *record.SupplierID != input.SupplierID

	record.SupplierID = &input.SupplierID
	record.SupplierMatchStatus = domain.MatchConfirmed
	record.SuggestedSupplierID = nil
	record.SupplierMatchScore = 0

	// Confirmation is the only path that writes a supplier alias.
	key := match.NormalizeKey(record.SupplierNameOCR)
	if input.PersistAsAlias && key != "" {
		err := s.supplierAlts.Upsert(ctx, &domain.SupplierAlias{
			Key:        key,
			SupplierID: input.SupplierID,
			CreatedBy:  input.UserID,
		})
		if err != nil {
			return nil, err
		}
	}

	lines, err := s.stagingRepo.ListLines(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	if supplierChanged {
		// Old line resolutions belonged to the previous supplier scope.
		for i := range lines {
			if lines[i].MatchStatus != domain.MatchConfirmed {
				lines[i].ClearResolution()
			}
		}
	}
	if err := s.resolveLines(ctx, record, lines); err != nil {
		return nil, err
	}

	record.Status = recordStatus(record, lines)
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	for i := range lines {
		if err := s.stagingRepo.UpdateLine(ctx, &lines[i]); err != nil {
			return nil, err
		}
	}
	log.Printf("resolution.ConfirmSupplier: record %s confirmed supplier %s", record.ID, input.SupplierID)
	return record, nil
}

// ConfirmLine applies a reviewer's item choice for one line and optionally
// learns the item alias and a service mapping pattern.
func (s *resolutionService) ConfirmLine(ctx context.Context, input ConfirmLineInput) (*domain.StagingLineItem, error) {
	record, err := s.stagingRepo.GetByID(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	if domain.TerminalStatuses[record.Status] || !record.PostExtraction() {
		return nil, domain.ErrInvalidTransition
	}

	lines, err := s.stagingRepo.ListLines(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	var line *domain.StagingLineItem
	for i := range lines {
		if lines[i].ID == input.LineID {
			line = &lines[i]
			break
		}
	}
	if line == nil {
		return nil, domain.ErrLineItemNotFound
	}

	item, err := s.masterRepo.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if input.ExpenseAccountID != nil {
		if err := s.checkAccount(ctx, record.Company, *input.ExpenseAccountID); err != nil {
			return nil, err
		}
	}

	line.ItemID = &input.ItemID
	line.MatchStatus = domain.MatchConfirmed
	line.SuggestedItemID = nil
	line.MatchScore = 0
	if input.ExpenseAccountID != nil {
		line.ExpenseAccountID = input.ExpenseAccountID
	}
	if input.CostCenter != "" {
		line.CostCenter = input.CostCenter
	}

	key := match.NormalizeKey(line.DescriptionOCR)
	if input.PersistAsAlias && key != "" {
		err := s.itemAlts.Upsert(ctx, &domain.ItemAlias{
			Key:        key,
			SupplierID: record.SupplierID,
			ItemID:     input.ItemID,
			CreatedBy:  input.UserID,
		})
		if err != nil {
			return nil, err
		}
	}

	// Non-stock confirmations can seed a service mapping so the recurring
	// charge resolves by pattern from now on.
	if input.SaveMapping && !item.IsStock && input.ExpenseAccountID != nil {
		pattern := match.ExtractPattern(line.DescriptionOCR)
		if pattern != "" {
			err := s.mappings.Upsert(ctx, &domain.ServiceMappingPattern{
				Pattern:          pattern,
				SupplierID:       record.SupplierID,
				ItemID:           input.ItemID,
				ExpenseAccountID: *input.ExpenseAccountID,
				CostCenter:       input.CostCenter,
				CreatedBy:        input.UserID,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if err := s.stagingRepo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}

	record.Status = recordStatus(record, lines)
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *resolutionService) SetDocumentKind(ctx context.Context, recordID uuid.UUID, kind domain.DocumentKind) (*domain.StagingRecord, error) {
	if !domain.ValidDocumentKinds[kind] {
		return nil, fmt.Errorf("%w: document_kind", domain.ErrMissingField)
	}
	record, err := s.stagingRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if domain.TerminalStatuses[record.Status] || !record.PostExtraction() {
		return nil, domain.ErrInvalidTransition
	}
	record.DocumentKind = &kind
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// SetLinks points the record at a purchase order and/or receipt. Changing a
// link invalidates the line-level cross references, which are then rebuilt
// from the new order's lines where items match.
func (s *resolutionService) SetLinks(ctx context.Context, input SetLinksInput) (*domain.StagingRecord, error) {
	record, err := s.stagingRepo.GetByID(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	if domain.TerminalStatuses[record.Status] || !record.PostExtraction() {
		return nil, domain.ErrInvalidTransition
	}
	if record.SupplierID == nil {
		return nil, domain.ErrSupplierNotSet
	}

	if input.PurchaseOrderID != nil {
		order, err := s.orderRepo.GetByID(ctx, *input.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		if order.SupplierID != *record.SupplierID {
			return nil, fmt.Errorf("%w: purchase order belongs to another supplier", domain.ErrMissingField)
		}
	}

	record.PurchaseOrderID = input.PurchaseOrderID
	record.PurchaseReceiptID = input.PurchaseReceiptID

	lines, err := s.stagingRepo.ListLines(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].ClearDocLinks()
	}

	if input.PurchaseOrderID != nil {
		orderItems, err := s.orderRepo.ListItems(ctx, *input.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		byItem := make(map[uuid.UUID]*domain.PurchaseOrderItem, len(orderItems))
		for i := range orderItems {
			byItem[orderItems[i].ItemID] = &orderItems[i]
		}
		for i := range lines {
			l := &lines[i]
			if l.ItemID == nil {
				continue
			}
			if poLine, ok := byItem[*l.ItemID]; ok {
				l.POLineID = &poLine.ID
				qty, rate := poLine.Qty, poLine.Rate
				l.POQty = &qty
				l.PORate = &rate
			}
		}
	}

	for i := range lines {
		if err := s.stagingRepo.UpdateLine(ctx, &lines[i]); err != nil {
			return nil, err
		}
	}
	if err := s.stagingRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *resolutionService) checkAccount(ctx context.Context, company string, accountID uuid.UUID) error {
	account, err := s.masterRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidAccount
		}
		return err
	}
	if account.IsGroup || account.Disabled {
		return domain.ErrInvalidAccount
	}
	if company != "" && account.Company != company {
		return domain.ErrInvalidAccount
	}
	return nil
}

// recordStatus computes the post-resolution status: Matched only when the
// supplier and every line stand in a confirmed-equivalent state.
func recordStatus(record *domain.StagingRecord, lines []domain.StagingLineItem) domain.ImportStatus {
	if domain.TerminalStatuses[record.Status] || record.Status == domain.ImportStatusDraftCreated {
		return record.Status
	}
	if record.SupplierID == nil || !domain.ConfirmedMatchStates[record.SupplierMatchStatus] {
		return domain.ImportStatusNeedsReview
	}
	for i := range lines {
		if !domain.ConfirmedMatchStates[lines[i].MatchStatus] {
			return domain.ImportStatusNeedsReview
		}
	}
	return domain.ImportStatusMatched
}
