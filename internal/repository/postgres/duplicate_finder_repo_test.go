package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrdesk/internal/domain"
)

func TestClassifyDuplicate(t *testing.T) {
	record := &domain.StagingRecord{
		ID:          uuid.New(),
		Currency:    "AUD",
		TotalAmount: decimal.RequireFromString("150.00"),
	}
	tolerance := decimal.RequireFromString("0.05")

	tests := []struct {
		name       string
		row        duplicateRow
		flagged    bool
		wantReason string
	}{
		{
			name: "same invoice number",
			row: duplicateRow{
				ID:            uuid.New(),
				Status:        domain.ImportStatusNeedsReview,
				InvoiceNumber: "INV-001",
				TotalAmount:   decimal.RequireFromString("999.00"),
				SameNumber:    true,
			},
			flagged:    true,
			wantReason: "same invoice number INV-001",
		},
		{
			name: "total within tolerance",
			row: duplicateRow{
				ID:          uuid.New(),
				Status:      domain.ImportStatusCompleted,
				TotalAmount: decimal.RequireFromString("150.04"),
			},
			flagged:    true,
			wantReason: "similar total AUD 150.04",
		},
		{
			name: "total exactly at tolerance",
			row: duplicateRow{
				ID:          uuid.New(),
				TotalAmount: decimal.RequireFromString("150.05"),
			},
			flagged:    true,
			wantReason: "similar total AUD 150.05",
		},
		{
			name: "total outside tolerance",
			row: duplicateRow{
				ID:          uuid.New(),
				TotalAmount: decimal.RequireFromString("150.06"),
			},
			flagged: false,
		},
		{
			name: "different number with distant total",
			row: duplicateRow{
				ID:            uuid.New(),
				InvoiceNumber: "INV-002",
				TotalAmount:   decimal.RequireFromString("75.00"),
			},
			flagged: false,
		},
		{
			name: "same number outranks total comparison",
			row: duplicateRow{
				ID:            uuid.New(),
				InvoiceNumber: "INV-001",
				TotalAmount:   decimal.RequireFromString("150.00"),
				SameNumber:    true,
			},
			flagged:    true,
			wantReason: "same invoice number INV-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, ok := classifyDuplicate(record, tt.row, tolerance)
			if !tt.flagged {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.row.ID, cand.RecordID)
			assert.Equal(t, tt.row.Status, cand.Status)
			assert.Equal(t, tt.wantReason, cand.Reason)
		})
	}
}
