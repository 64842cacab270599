package extractor

import (
	"fmt"
	"strings"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

// ValidateInvoice checks that an extracted invoice carries the fields the
// review workflow cannot proceed without. The error names the offending field.
func ValidateInvoice(inv *port.ExtractedInvoice) error {
	if strings.TrimSpace(inv.SupplierName) == "" {
		return fmt.Errorf("%w: supplier_name", domain.ErrMissingField)
	}
	if inv.TotalAmount.IsZero() {
		return fmt.Errorf("%w: total", domain.ErrMissingField)
	}
	return nil
}
