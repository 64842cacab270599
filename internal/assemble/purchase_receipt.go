package assemble

import (
	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// PurchaseReceipt builds a draft goods receipt. There is no fallback item
// here: every line must reference a resolved stock item, and only purchase
// order cross-references carry over.
func PurchaseReceipt(in Input) (*domain.PurchaseReceipt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	doc := &domain.PurchaseReceipt{
		ID:              uuid.New(),
		SupplierID:      *in.Record.SupplierID,
		Company:         in.Settings.Company,
		PurchaseOrderID: in.Record.PurchaseOrderID,
		PostingDate:     in.postingDate(),
		Currency:        in.Record.Currency,
		Status:          domain.DocStatusDraft,
	}

	for i := range in.Lines {
		l := &in.Lines[i]
		if l.ItemID == nil {
			return nil, positionErr(domain.ErrUnresolvedStockItem, l.Position, lineDescription(l))
		}
		item, ok := in.Items[*l.ItemID]
		if !ok || !item.IsStock {
			return nil, positionErr(domain.ErrUnresolvedStockItem, l.Position, lineDescription(l))
		}
		doc.Items = append(doc.Items, domain.PurchaseReceiptItem{
			ID:                uuid.New(),
			PurchaseReceiptID: doc.ID,
			Position:          l.Position,
			ItemID:            *l.ItemID,
			Description:       lineDescription(l),
			Qty:               lineQty(l),
			Rate:              l.Rate,
			Amount:            lineAmount(l),
			POLineID:          l.POLineID,
		})
	}

	return doc, nil
}
