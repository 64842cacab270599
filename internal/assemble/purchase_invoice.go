package assemble

import (
	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// PurchaseInvoice builds a draft purchase invoice. Unresolved lines map to
// the configured fallback item with the raw description preserved; resolved
// lines inherit their PO/PR cross-references.
func PurchaseInvoice(in Input) (*domain.PurchaseInvoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	posting := in.postingDate()
	doc := &domain.PurchaseInvoice{
		ID:          uuid.New(),
		SupplierID:  *in.Record.SupplierID,
		Company:     in.Settings.Company,
		PostingDate: posting,
		BillNo:      in.Record.InvoiceNumber,
		BillDate:    in.Record.InvoiceDate,
		DueDate:     in.dueDate(posting),
		Currency:    in.Record.Currency,
		TaxTemplate: in.taxTemplate(),
		Status:      domain.DocStatusDraft,
	}

	for i := range in.Lines {
		l := &in.Lines[i]
		item := domain.PurchaseInvoiceItem{
			ID:                uuid.New(),
			PurchaseInvoiceID: doc.ID,
			Position:          l.Position,
			Description:       lineDescription(l),
			Qty:               lineQty(l),
			Rate:              l.Rate,
			Amount:            lineAmount(l),
			CostCenter:        l.CostCenter,
			POLineID:          l.POLineID,
			PRLineID:          l.PRLineID,
		}
		if l.ItemID != nil {
			item.ItemID = *l.ItemID
			item.ExpenseAccountID = l.ExpenseAccountID
		} else {
			item.ItemID = in.Settings.FallbackItemID
			item.ExpenseAccountID = expenseAccountFor(l, in.Items)
			if item.ExpenseAccountID == nil {
				item.ExpenseAccountID = in.Settings.DefaultExpenseAccountID
			}
		}
		if item.CostCenter == "" {
			item.CostCenter = in.Settings.DefaultCostCenter
		}
		doc.Items = append(doc.Items, item)
	}

	return doc, nil
}
