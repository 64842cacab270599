package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an authenticated reviewer.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Supplier is a canonical master-data supplier.
type Supplier struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TaxID     string    `db:"tax_id" json:"tax_id"`
	Disabled  bool      `db:"disabled" json:"disabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Item is a canonical master-data item. Non-stock items are services and may
// carry a default expense account.
type Item struct {
	ID                      uuid.UUID  `db:"id" json:"id"`
	Code                    string     `db:"code" json:"code"`
	Name                    string     `db:"name" json:"name"`
	IsStock                 bool       `db:"is_stock" json:"is_stock"`
	DefaultExpenseAccountID *uuid.UUID `db:"default_expense_account_id" json:"default_expense_account_id"`
	Disabled                bool       `db:"disabled" json:"disabled"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
}

// Account is a ledger account. Group accounts are structural and not postable.
type Account struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Code     string    `db:"code" json:"code"`
	Name     string    `db:"name" json:"name"`
	Company  string    `db:"company" json:"company"`
	IsGroup  bool      `db:"is_group" json:"is_group"`
	Disabled bool      `db:"disabled" json:"disabled"`
}

// StagingRecord holds one extracted invoice pending review and conversion.
type StagingRecord struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	SourceType     SourceType `db:"source_type" json:"source_type"`
	SourceFilename string     `db:"source_filename" json:"source_filename"`
	ContentHash    string     `db:"content_hash" json:"content_hash"`
	StorageKey     string     `db:"storage_key" json:"storage_key"`
	Company        string     `db:"company" json:"company"`

	SupplierNameOCR string          `db:"supplier_name_ocr" json:"supplier_name_ocr"`
	InvoiceNumber   string          `db:"invoice_number" json:"invoice_number"`
	InvoiceDate     *time.Time      `db:"invoice_date" json:"invoice_date"`
	DueDate         *time.Time      `db:"due_date" json:"due_date"`
	Currency        string          `db:"currency" json:"currency"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount       decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Confidence      float64         `db:"confidence" json:"confidence"`

	SupplierID          *uuid.UUID  `db:"supplier_id" json:"supplier_id"`
	SupplierMatchStatus MatchStatus `db:"supplier_match_status" json:"supplier_match_status"`
	SuggestedSupplierID *uuid.UUID  `db:"suggested_supplier_id" json:"suggested_supplier_id"`
	SupplierMatchScore  int         `db:"supplier_match_score" json:"supplier_match_score"`

	DocumentKind      *DocumentKind `db:"document_kind" json:"document_kind"`
	TaxTemplate       string        `db:"tax_template" json:"tax_template"`
	PurchaseOrderID   *uuid.UUID    `db:"purchase_order_id" json:"purchase_order_id"`
	PurchaseReceiptID *uuid.UUID    `db:"purchase_receipt_id" json:"purchase_receipt_id"`

	// Output references. At most one is ever non-nil.
	PurchaseInvoiceDocID *uuid.UUID `db:"purchase_invoice_doc_id" json:"purchase_invoice_doc_id"`
	PurchaseReceiptDocID *uuid.UUID `db:"purchase_receipt_doc_id" json:"purchase_receipt_doc_id"`
	JournalEntryDocID    *uuid.UUID `db:"journal_entry_doc_id" json:"journal_entry_doc_id"`

	Status         ImportStatus `db:"status" json:"status"`
	NoActionReason string       `db:"no_action_reason" json:"no_action_reason"`
	ErrorMessage   string       `db:"error_message" json:"error_message"`
	ClaimedAt      *time.Time   `db:"claimed_at" json:"-"`
	UploadedBy     *uuid.UUID   `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// OutputCount returns how many output document references are set.
func (r *StagingRecord) OutputCount() int {
	n := 0
	for _, ref := range []*uuid.UUID{r.PurchaseInvoiceDocID, r.PurchaseReceiptDocID, r.JournalEntryDocID} {
		if ref != nil {
			n++
		}
	}
	return n
}

// OutputDocID returns the single created output document reference along with
// its kind, or nil when no document has been created.
func (r *StagingRecord) OutputDocID() (*uuid.UUID, DocumentKind) {
	switch {
	case r.PurchaseInvoiceDocID != nil:
		return r.PurchaseInvoiceDocID, KindPurchaseInvoice
	case r.PurchaseReceiptDocID != nil:
		return r.PurchaseReceiptDocID, KindPurchaseReceipt
	case r.JournalEntryDocID != nil:
		return r.JournalEntryDocID, KindJournalEntry
	}
	return nil, ""
}

// ClearOutputs drops all output document references.
func (r *StagingRecord) ClearOutputs() {
	r.PurchaseInvoiceDocID = nil
	r.PurchaseReceiptDocID = nil
	r.JournalEntryDocID = nil
}

// PostExtraction reports whether the record has passed the extraction phase.
func (r *StagingRecord) PostExtraction() bool {
	return r.Status != ImportStatusPending
}

// StagingLineItem is one extracted invoice line, ordered by extraction position.
type StagingLineItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	RecordID       uuid.UUID `db:"record_id" json:"record_id"`
	Position       int       `db:"position" json:"position"`
	DescriptionOCR string    `db:"description_ocr" json:"description_ocr"`
	ProductCode    string    `db:"product_code" json:"product_code"`

	Qty    decimal.Decimal `db:"qty" json:"qty"`
	Rate   decimal.Decimal `db:"rate" json:"rate"`
	Amount decimal.Decimal `db:"amount" json:"amount"`

	ItemID          *uuid.UUID  `db:"item_id" json:"item_id"`
	MatchStatus     MatchStatus `db:"match_status" json:"match_status"`
	SuggestedItemID *uuid.UUID  `db:"suggested_item_id" json:"suggested_item_id"`
	MatchScore      int         `db:"match_score" json:"match_score"`

	ExpenseAccountID *uuid.UUID `db:"expense_account_id" json:"expense_account_id"`
	CostCenter       string     `db:"cost_center" json:"cost_center"`

	POLineID *uuid.UUID       `db:"po_line_id" json:"po_line_id"`
	POQty    *decimal.Decimal `db:"po_qty" json:"po_qty"`
	PORate   *decimal.Decimal `db:"po_rate" json:"po_rate"`
	PRLineID *uuid.UUID       `db:"pr_line_id" json:"pr_line_id"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClearResolution resets everything resolution produced on the line. Called
// when the parent supplier changes so references never point at data that is
// inconsistent with the current selection.
func (l *StagingLineItem) ClearResolution() {
	l.ItemID = nil
	l.MatchStatus = MatchUnmatched
	l.SuggestedItemID = nil
	l.MatchScore = 0
	l.ExpenseAccountID = nil
	l.CostCenter = ""
	l.ClearDocLinks()
}

// ClearDocLinks drops PO/PR line references, used when the parent's linked
// purchase order or receipt changes.
func (l *StagingLineItem) ClearDocLinks() {
	l.POLineID = nil
	l.POQty = nil
	l.PORate = nil
	l.PRLineID = nil
}

// SupplierAlias maps normalized OCR text to a supplier. Created only on
// explicit user confirmation.
type SupplierAlias struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Key        string     `db:"key" json:"key"`
	SupplierID uuid.UUID  `db:"supplier_id" json:"supplier_id"`
	CreatedBy  *uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ItemAlias maps normalized OCR text to an item, optionally scoped to a
// supplier. Supplier-scoped aliases win over global ones.
type ItemAlias struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Key        string     `db:"key" json:"key"`
	SupplierID *uuid.UUID `db:"supplier_id" json:"supplier_id"`
	ItemID     uuid.UUID  `db:"item_id" json:"item_id"`
	CreatedBy  *uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ServiceMappingPattern maps a derived description pattern to a service item
// plus its accounting defaults, for recurring non-stock charges.
type ServiceMappingPattern struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Pattern          string     `db:"pattern" json:"pattern"`
	SupplierID       *uuid.UUID `db:"supplier_id" json:"supplier_id"`
	ItemID           uuid.UUID  `db:"item_id" json:"item_id"`
	ExpenseAccountID uuid.UUID  `db:"expense_account_id" json:"expense_account_id"`
	CostCenter       string     `db:"cost_center" json:"cost_center"`
	CreatedBy        *uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// PurchaseOrder is an existing order a staging record may be linked against.
type PurchaseOrder struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderNo    string    `db:"order_no" json:"order_no"`
	SupplierID uuid.UUID `db:"supplier_id" json:"supplier_id"`
	Company    string    `db:"company" json:"company"`
	Status     DocStatus `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PurchaseOrderItem is one line of a purchase order.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PurchaseOrderID uuid.UUID       `db:"purchase_order_id" json:"purchase_order_id"`
	ItemID          uuid.UUID       `db:"item_id" json:"item_id"`
	Qty             decimal.Decimal `db:"qty" json:"qty"`
	Rate            decimal.Decimal `db:"rate" json:"rate"`
}

// DuplicateCandidate is an advisory match from duplicate detection.
type DuplicateCandidate struct {
	RecordID uuid.UUID    `json:"record_id"`
	Status   ImportStatus `json:"status"`
	Reason   string       `json:"reason"`
}
