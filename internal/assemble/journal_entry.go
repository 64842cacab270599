package assemble

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ocrdesk/internal/domain"
)

// currencyPrecision is the rounding precision for the balance check.
const currencyPrecision = 2

// JournalEntry builds a balanced draft journal entry: one debit per line item
// against its expense account, an extra debit for extracted tax, and a single
// credit for the invoice total. Lines without a resolved expense account must
// carry one set explicitly by the user; there is no silent default. An
// unbalanced entry is an error, never a document.
func JournalEntry(in Input, creditAccountID *uuid.UUID) (*domain.JournalEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if creditAccountID == nil || *creditAccountID == uuid.Nil {
		return nil, domain.ErrMissingCreditAccount
	}

	doc := &domain.JournalEntry{
		ID:          uuid.New(),
		Company:     in.Settings.Company,
		PostingDate: in.postingDate(),
		Currency:    in.Record.Currency,
		Remark:      journalRemark(in.Record),
		Status:      domain.DocStatusDraft,
	}

	pos := 0
	for i := range in.Lines {
		l := &in.Lines[i]
		account := expenseAccountFor(l, in.Items)
		if account == nil {
			return nil, positionErr(domain.ErrMissingExpenseAccount, l.Position, lineDescription(l))
		}
		doc.Lines = append(doc.Lines, domain.JournalEntryLine{
			ID:             uuid.New(),
			JournalEntryID: doc.ID,
			Position:       pos,
			AccountID:      *account,
			Debit:          lineAmount(l),
			Credit:         decimal.Zero,
			CostCenter:     l.CostCenter,
			Description:    lineDescription(l),
		})
		pos++
	}

	if in.taxPresent() {
		if in.Settings.TaxInputAccountID == uuid.Nil {
			return nil, domain.ErrMissingTaxAccount
		}
		doc.Lines = append(doc.Lines, domain.JournalEntryLine{
			ID:             uuid.New(),
			JournalEntryID: doc.ID,
			Position:       pos,
			AccountID:      in.Settings.TaxInputAccountID,
			Debit:          in.Record.TaxAmount,
			Credit:         decimal.Zero,
			Description:    "Input tax",
		})
		pos++
	}

	doc.Lines = append(doc.Lines, domain.JournalEntryLine{
		ID:             uuid.New(),
		JournalEntryID: doc.ID,
		Position:       pos,
		AccountID:      *creditAccountID,
		Debit:          decimal.Zero,
		Credit:         in.Record.TotalAmount,
		Description:    journalRemark(in.Record),
	})

	debit := doc.TotalDebit().Round(currencyPrecision)
	credit := doc.TotalCredit().Round(currencyPrecision)
	if !debit.Equal(credit) {
		return nil, fmt.Errorf("%w: debit %s vs credit %s", domain.ErrUnbalancedEntry, debit, credit)
	}

	return doc, nil
}

func journalRemark(r *domain.StagingRecord) string {
	if r.InvoiceNumber != "" {
		return fmt.Sprintf("Invoice %s (%s)", r.InvoiceNumber, r.SupplierNameOCR)
	}
	return fmt.Sprintf("Imported invoice (%s)", r.SupplierNameOCR)
}
