// Package assemble builds draft accounting documents from a reviewed staging
// record. Functions here are pure: they read a snapshot and either return a
// complete draft or an error, never mutating the snapshot and never touching
// storage. The transactional guard checks live in the document service.
package assemble

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ocrdesk/internal/domain"
)

// Settings is the accounting configuration the assembler works against.
// It is owned by the configuration surface and read-only here.
type Settings struct {
	Company                 string
	FallbackItemID          uuid.UUID
	DefaultExpenseAccountID *uuid.UUID
	DefaultCostCenter       string
	VATTemplate             string
	NonVATTemplate          string
	TaxInputAccountID       uuid.UUID
	// TaxNoiseTolerance separates a real extracted tax amount from OCR noise.
	TaxNoiseTolerance decimal.Decimal
}

// Input is the snapshot one assembly call works from.
type Input struct {
	Record   *domain.StagingRecord
	Lines    []domain.StagingLineItem
	Items    map[uuid.UUID]*domain.Item // resolved items referenced by lines
	Settings Settings
	Now      time.Time
}

// postingDate prefers the extracted invoice date, falling back to today.
func (in *Input) postingDate() time.Time {
	if in.Record.InvoiceDate != nil {
		return *in.Record.InvoiceDate
	}
	return in.Now
}

// dueDate returns the extracted due date only when it is not earlier than the
// posting date; a backdated due date is invalid and gets omitted.
func (in *Input) dueDate(posting time.Time) *time.Time {
	if in.Record.DueDate == nil || in.Record.DueDate.Before(posting) {
		return nil
	}
	return in.Record.DueDate
}

// taxTemplate applies the tax-amount-presence rule.
func (in *Input) taxTemplate() string {
	if in.taxPresent() {
		return in.Settings.VATTemplate
	}
	return in.Settings.NonVATTemplate
}

func (in *Input) taxPresent() bool {
	return in.Record.TaxAmount.Abs().GreaterThan(in.Settings.TaxNoiseTolerance)
}

func (in *Input) validate() error {
	if in.Record.SupplierID == nil {
		return domain.ErrSupplierNotSet
	}
	if len(in.Lines) == 0 {
		return domain.ErrNoLineItems
	}
	return nil
}

// lineQty defaults an unextracted quantity to one.
func lineQty(l *domain.StagingLineItem) decimal.Decimal {
	if l.Qty.IsZero() {
		return decimal.NewFromInt(1)
	}
	return l.Qty
}

// lineAmount prefers the extracted amount, deriving qty*rate when absent.
func lineAmount(l *domain.StagingLineItem) decimal.Decimal {
	if !l.Amount.IsZero() {
		return l.Amount
	}
	return lineQty(l).Mul(l.Rate)
}

func lineDescription(l *domain.StagingLineItem) string {
	if l.DescriptionOCR != "" {
		return l.DescriptionOCR
	}
	if l.ProductCode != "" {
		return l.ProductCode
	}
	return "Imported line item"
}

// expenseAccountFor picks the posting account for a line: an explicit account
// on the line first, then the resolved item's default. Returns nil when the
// line has no usable account.
func expenseAccountFor(l *domain.StagingLineItem, items map[uuid.UUID]*domain.Item) *uuid.UUID {
	if l.ExpenseAccountID != nil {
		return l.ExpenseAccountID
	}
	if l.ItemID != nil {
		if it, ok := items[*l.ItemID]; ok && it.DefaultExpenseAccountID != nil {
			return it.DefaultExpenseAccountID
		}
	}
	return nil
}

func positionErr(err error, pos int, desc string) error {
	return fmt.Errorf("%w: line %d (%s)", err, pos, desc)
}
