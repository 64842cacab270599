// Command seedmaster converts a master data Excel workbook into a SQL seed
// file. Reads the Suppliers, Items, and Accounts sheets.
// Usage: go run ./cmd/seedmaster <workbook.xlsx>
// Output: db/seeds/master_data.sql
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

const batchSize = 500

type supplierRow struct {
	name  string
	taxID string
}

type itemRow struct {
	code           string
	name           string
	isStock        bool
	expenseAccount string // account name, empty = NULL
}

type accountRow struct {
	code    string
	name    string
	company string
	isGroup bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seedmaster <workbook.xlsx>")
	}
	xlsxPath := os.Args[1]
	outPath := "db/seeds/master_data.sql"

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	suppliers, err := parseSuppliers(f)
	if err != nil {
		return fmt.Errorf("parse Suppliers sheet: %w", err)
	}
	log.Printf("Suppliers sheet: %d entries", len(suppliers))

	items, err := parseItems(f)
	if err != nil {
		return fmt.Errorf("parse Items sheet: %w", err)
	}
	log.Printf("Items sheet: %d entries", len(items))

	accounts, err := parseAccounts(f)
	if err != nil {
		return fmt.Errorf("parse Accounts sheet: %w", err)
	}
	log.Printf("Accounts sheet: %d entries", len(accounts))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	w := func(s string) error { _, werr := fmt.Fprintln(out, s); return werr }

	for _, line := range []string{
		"-- Master data seed generated from Excel.",
		fmt.Sprintf("-- %d suppliers, %d items, %d accounts.", len(suppliers), len(items), len(accounts)),
		"-- Run: make seed-master",
		"BEGIN;",
		"",
	} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write header: %w", werr)
		}
	}

	if err := writeAccountBatches(out, accounts); err != nil {
		return err
	}
	if err := writeSupplierBatches(out, suppliers); err != nil {
		return err
	}
	if err := writeItemBatches(out, items); err != nil {
		return err
	}

	for _, line := range []string{"", "COMMIT;"} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write footer: %w", werr)
		}
	}

	log.Printf("Generated seed file %s", outPath)
	return nil
}

// parseSuppliers reads the Suppliers sheet.
// Columns: A(0)=name, B(1)=tax ID. Data starts at row index 1.
func parseSuppliers(f *excelize.File) ([]supplierRow, error) {
	rows, err := f.GetRows("Suppliers")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []supplierRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := strings.TrimSpace(cellVal(row, 0))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, supplierRow{
			name:  name,
			taxID: strings.TrimSpace(cellVal(row, 1)),
		})
	}
	return out, nil
}

// parseItems reads the Items sheet.
// Columns: A(0)=code, B(1)=name, C(2)=stock flag ("Yes"/"No"),
// D(3)=default expense account name. Data starts at row index 1.
func parseItems(f *excelize.File) ([]itemRow, error) {
	rows, err := f.GetRows("Items")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []itemRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		code := strings.TrimSpace(cellVal(row, 0))
		name := strings.TrimSpace(cellVal(row, 1))
		if code == "" || name == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, itemRow{
			code:           code,
			name:           name,
			isStock:        parseYesNo(cellVal(row, 2)),
			expenseAccount: strings.TrimSpace(cellVal(row, 3)),
		})
	}
	return out, nil
}

// parseAccounts reads the Accounts sheet.
// Columns: A(0)=code, B(1)=name, C(2)=company, D(3)=group flag ("Yes"/"No").
// Data starts at row index 1.
func parseAccounts(f *excelize.File) ([]accountRow, error) {
	rows, err := f.GetRows("Accounts")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []accountRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		code := strings.TrimSpace(cellVal(row, 0))
		name := strings.TrimSpace(cellVal(row, 1))
		company := strings.TrimSpace(cellVal(row, 2))
		if code == "" || name == "" || company == "" {
			continue
		}
		key := company + "|" + name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, accountRow{
			code:    code,
			name:    name,
			company: company,
			isGroup: parseYesNo(cellVal(row, 3)),
		})
	}
	return out, nil
}

func writeSupplierBatches(out *os.File, all []supplierRow) error {
	for start := 0; start < len(all); start += batchSize {
		batch := all[start:min(start+batchSize, len(all))]

		var b strings.Builder
		b.WriteString("INSERT INTO suppliers (id, name, tax_id) VALUES\n")
		for i := range batch {
			if i > 0 {
				b.WriteString(",\n")
			}
			fmt.Fprintf(&b, "  (gen_random_uuid(), '%s', '%s')",
				escapeSQL(batch[i].name), escapeSQL(batch[i].taxID))
		}
		b.WriteString("\nON CONFLICT (name) DO NOTHING;\n")

		if _, err := out.WriteString(b.String()); err != nil {
			return fmt.Errorf("write supplier batch at offset %d: %w", start, err)
		}
	}
	return nil
}

func writeItemBatches(out *os.File, all []itemRow) error {
	for start := 0; start < len(all); start += batchSize {
		batch := all[start:min(start+batchSize, len(all))]

		var b strings.Builder
		b.WriteString("INSERT INTO items (id, code, name, is_stock, default_expense_account_id) VALUES\n")
		for i := range batch {
			e := &batch[i]
			if i > 0 {
				b.WriteString(",\n")
			}

			accountVal := "NULL"
			if e.expenseAccount != "" {
				accountVal = fmt.Sprintf("(SELECT id FROM accounts WHERE name = '%s' LIMIT 1)",
					escapeSQL(e.expenseAccount))
			}
			fmt.Fprintf(&b, "  (gen_random_uuid(), '%s', '%s', %t, %s)",
				escapeSQL(e.code), escapeSQL(e.name), e.isStock, accountVal)
		}
		b.WriteString("\nON CONFLICT (code) DO NOTHING;\n")

		if _, err := out.WriteString(b.String()); err != nil {
			return fmt.Errorf("write item batch at offset %d: %w", start, err)
		}
	}
	return nil
}

func writeAccountBatches(out *os.File, all []accountRow) error {
	for start := 0; start < len(all); start += batchSize {
		batch := all[start:min(start+batchSize, len(all))]

		var b strings.Builder
		b.WriteString("INSERT INTO accounts (id, code, name, company, is_group) VALUES\n")
		for i := range batch {
			e := &batch[i]
			if i > 0 {
				b.WriteString(",\n")
			}
			fmt.Fprintf(&b, "  (gen_random_uuid(), '%s', '%s', '%s', %t)",
				escapeSQL(e.code), escapeSQL(e.name), escapeSQL(e.company), e.isGroup)
		}
		b.WriteString("\nON CONFLICT (company, name) DO NOTHING;\n")

		if _, err := out.WriteString(b.String()); err != nil {
			return fmt.Errorf("write account batch at offset %d: %w", start, err)
		}
	}
	return nil
}

func parseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
