package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ocrdesk/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (18 columns).
var columns = []string{
	"Source File",
	"Source Type",
	"Status",
	"Supplier (OCR)",
	"Supplier Match",
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Currency",
	"Subtotal",
	"Tax Amount",
	"Total",
	"Confidence",
	"Document Kind",
	"Output Document",
	"No Action Reason",
	"Error",
	"Created At",
}

// Writer wraps csv.Writer for exporting staging records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecords converts a batch of staging records to CSV rows and writes them.
func (w *Writer) WriteRecords(records []domain.StagingRecord) error {
	for i := range records {
		row := recordToRow(&records[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// recordToRow converts a single staging record to a row. Extraction columns
// are left empty for records that have not been extracted yet.
func recordToRow(r *domain.StagingRecord) []string {
	row := make([]string, len(columns))

	row[0] = r.SourceFilename
	row[1] = string(r.SourceType)
	row[2] = string(r.Status)
	row[13] = formatKind(r.DocumentKind)
	row[15] = r.NoActionReason
	row[16] = r.ErrorMessage
	row[17] = r.CreatedAt.Format(time.RFC3339)

	if docID, kind := r.OutputDocID(); docID != nil {
		row[14] = fmt.Sprintf("%s:%s", kind, docID)
	}

	if !r.PostExtraction() {
		return row
	}

	row[3] = r.SupplierNameOCR
	row[4] = string(r.SupplierMatchStatus)
	row[5] = r.InvoiceNumber
	row[6] = formatDate(r.InvoiceDate)
	row[7] = formatDate(r.DueDate)
	row[8] = r.Currency
	row[9] = formatMoney(r.Subtotal)
	row[10] = formatMoney(r.TaxAmount)
	row[11] = formatMoney(r.TotalAmount)
	row[12] = strconv.FormatFloat(r.Confidence, 'f', 2, 64)

	return row
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatKind(k *domain.DocumentKind) string {
	if k == nil {
		return ""
	}
	return string(*k)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an export name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
