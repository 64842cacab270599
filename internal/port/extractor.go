package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ExtractInput carries the data needed for invoice extraction.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
	Filename    string
}

// ExtractedLine is one line item as read off the document.
type ExtractedLine struct {
	Description string
	ProductCode string
	Qty         decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// ExtractedInvoice is the structured result for one invoice. A multi-invoice
// PDF yields several of these from a single extraction call.
type ExtractedInvoice struct {
	SupplierName  string
	InvoiceNumber string
	InvoiceDate   *time.Time
	DueDate       *time.Time
	Currency      string
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	Confidence    float64
	Lines         []ExtractedLine
	ModelUsed     string
}

// InvoiceExtractor abstracts LLM-based invoice extraction.
type InvoiceExtractor interface {
	Extract(ctx context.Context, input ExtractInput) ([]ExtractedInvoice, error)
}
