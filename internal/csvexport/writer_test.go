package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrdesk/internal/domain"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 18)
	assert.Equal(t, "Source File", row[0])
	assert.Equal(t, "Status", row[2])
	assert.Equal(t, "Created At", row[17])
}

func TestWriteRecords_Extracted(t *testing.T) {
	invDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	kind := domain.KindPurchaseInvoice
	docID := uuid.New()

	rec := domain.StagingRecord{
		ID:                   uuid.New(),
		SourceType:           domain.SourceManualUpload,
		SourceFilename:       "invoice-march.pdf",
		SupplierNameOCR:      "ACME Supplies (Pty) Ltd",
		SupplierMatchStatus:  domain.MatchConfirmed,
		InvoiceNumber:        "INV-2026-041",
		InvoiceDate:          &invDate,
		DueDate:              &dueDate,
		Currency:             "ZAR",
		Subtotal:             decimal.RequireFromString("1000.50"),
		TaxAmount:            decimal.RequireFromString("150.08"),
		TotalAmount:          decimal.RequireFromString("1150.58"),
		Confidence:           0.93,
		DocumentKind:         &kind,
		PurchaseInvoiceDocID: &docID,
		Status:               domain.ImportStatusDraftCreated,
		CreatedAt:            createdAt,
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecords([]domain.StagingRecord{rec}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 18)
	assert.Equal(t, "invoice-march.pdf", row[0])
	assert.Equal(t, "manual_upload", row[1])
	assert.Equal(t, "draft_created", row[2])
	assert.Equal(t, "ACME Supplies (Pty) Ltd", row[3])
	assert.Equal(t, "confirmed", row[4])
	assert.Equal(t, "INV-2026-041", row[5])
	assert.Equal(t, "2026-03-15", row[6])
	assert.Equal(t, "2026-04-15", row[7])
	assert.Equal(t, "ZAR", row[8])
	assert.Equal(t, "1000.50", row[9])
	assert.Equal(t, "150.08", row[10])
	assert.Equal(t, "1150.58", row[11])
	assert.Equal(t, "0.93", row[12])
	assert.Equal(t, "purchase_invoice", row[13])
	assert.Equal(t, "purchase_invoice:"+docID.String(), row[14])
	assert.Equal(t, "2026-03-14T08:00:00Z", row[17])
}

func TestWriteRecords_Pending(t *testing.T) {
	rec := domain.StagingRecord{
		ID:             uuid.New(),
		SourceType:     domain.SourceManualUpload,
		SourceFilename: "queued.pdf",
		Status:         domain.ImportStatusPending,
		CreatedAt:      time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecords([]domain.StagingRecord{rec}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 18)
	assert.Equal(t, "queued.pdf", row[0])
	assert.Equal(t, "pending", row[2])
	// Extraction columns should be empty until the record is processed
	for i := 3; i <= 12; i++ {
		assert.Empty(t, row[i], "column %d should be empty for pending record", i)
	}
	assert.Equal(t, "2026-03-14T08:00:00Z", row[17])
}

func TestWriteRecords_MonetaryFormatting(t *testing.T) {
	rec := domain.StagingRecord{
		SourceFilename: "money.pdf",
		Status:         domain.ImportStatusNeedsReview,
		Subtotal:       decimal.NewFromInt(1000),
		TaxAmount:      decimal.RequireFromString("0.1"),
		TotalAmount:    decimal.RequireFromString("1100.10"),
		CreatedAt:      time.Now(),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecords([]domain.StagingRecord{rec}))
	w.Flush()

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, "1000.00", row[9])
	assert.Equal(t, "0.10", row[10])
	assert.Equal(t, "1100.10", row[11])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "March Imports", "March_Imports"},
		{"special chars", "FY 2026-27 / Q1 (Mar–Apr)", "FY_2026-27_Q1_Mar_Apr"},
		{"hyphens and underscores preserved", "my-export_2026", "my-export_2026"},
		{"consecutive underscores collapsed", "test___export", "test_export"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{
			"long name truncated",
			"abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-extra",
			"abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrs",
		},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	filename := BuildFilename("March Imports")
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, "March_Imports_"+today+".csv", filename)
}
