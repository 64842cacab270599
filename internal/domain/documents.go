package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseInvoice is a draft supplier invoice produced by the assembler.
type PurchaseInvoice struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	SupplierID  uuid.UUID  `db:"supplier_id" json:"supplier_id"`
	Company     string     `db:"company" json:"company"`
	PostingDate time.Time  `db:"posting_date" json:"posting_date"`
	BillNo      string     `db:"bill_no" json:"bill_no"`
	BillDate    *time.Time `db:"bill_date" json:"bill_date"`
	DueDate     *time.Time `db:"due_date" json:"due_date"`
	Currency    string     `db:"currency" json:"currency"`
	TaxTemplate string     `db:"tax_template" json:"tax_template"`
	Status      DocStatus  `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Items []PurchaseInvoiceItem `db:"-" json:"items"`
}

// PurchaseInvoiceItem is one line of a purchase invoice. Lines without a
// matched item carry the fallback item with the raw description preserved.
type PurchaseInvoiceItem struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	PurchaseInvoiceID uuid.UUID       `db:"purchase_invoice_id" json:"purchase_invoice_id"`
	Position          int             `db:"position" json:"position"`
	ItemID            uuid.UUID       `db:"item_id" json:"item_id"`
	Description       string          `db:"description" json:"description"`
	Qty               decimal.Decimal `db:"qty" json:"qty"`
	Rate              decimal.Decimal `db:"rate" json:"rate"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	ExpenseAccountID  *uuid.UUID      `db:"expense_account_id" json:"expense_account_id"`
	CostCenter        string          `db:"cost_center" json:"cost_center"`
	POLineID          *uuid.UUID      `db:"po_line_id" json:"po_line_id"`
	PRLineID          *uuid.UUID      `db:"pr_line_id" json:"pr_line_id"`
}

// PurchaseReceipt records goods received against a purchase order. Rows are
// either pre-existing receipts a record can be linked to, or drafts produced
// by the assembler.
type PurchaseReceipt struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SupplierID      uuid.UUID  `db:"supplier_id" json:"supplier_id"`
	Company         string     `db:"company" json:"company"`
	PurchaseOrderID *uuid.UUID `db:"purchase_order_id" json:"purchase_order_id"`
	PostingDate     time.Time  `db:"posting_date" json:"posting_date"`
	Currency        string     `db:"currency" json:"currency"`
	Status          DocStatus  `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	Items []PurchaseReceiptItem `db:"-" json:"items"`
}

// PurchaseReceiptItem is one received line. Only stock items are receivable.
type PurchaseReceiptItem struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	PurchaseReceiptID uuid.UUID       `db:"purchase_receipt_id" json:"purchase_receipt_id"`
	Position          int             `db:"position" json:"position"`
	ItemID            uuid.UUID       `db:"item_id" json:"item_id"`
	Description       string          `db:"description" json:"description"`
	Qty               decimal.Decimal `db:"qty" json:"qty"`
	Rate              decimal.Decimal `db:"rate" json:"rate"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	POLineID          *uuid.UUID      `db:"po_line_id" json:"po_line_id"`
}

// JournalEntry is a balanced draft journal voucher.
type JournalEntry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Company     string    `db:"company" json:"company"`
	PostingDate time.Time `db:"posting_date" json:"posting_date"`
	Currency    string    `db:"currency" json:"currency"`
	Remark      string    `db:"remark" json:"remark"`
	Status      DocStatus `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Lines []JournalEntryLine `db:"-" json:"lines"`
}

// JournalEntryLine posts a debit or credit to one account.
type JournalEntryLine struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	JournalEntryID uuid.UUID       `db:"journal_entry_id" json:"journal_entry_id"`
	Position       int             `db:"position" json:"position"`
	AccountID      uuid.UUID       `db:"account_id" json:"account_id"`
	Debit          decimal.Decimal `db:"debit" json:"debit"`
	Credit         decimal.Decimal `db:"credit" json:"credit"`
	CostCenter     string          `db:"cost_center" json:"cost_center"`
	Description    string          `db:"description" json:"description"`
}

// TotalDebit sums all debit lines.
func (j *JournalEntry) TotalDebit() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range j.Lines {
		sum = sum.Add(l.Debit)
	}
	return sum
}

// TotalCredit sums all credit lines.
func (j *JournalEntry) TotalCredit() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range j.Lines {
		sum = sum.Add(l.Credit)
	}
	return sum
}
