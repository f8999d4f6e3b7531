// Package catalog parses supplier price lists into catalog entries and feeds
// them to the service. CSV and XLSX files are accepted; both carry a header
// row naming the code, desc, color and price columns.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"upvcerp/internal/core"
	"upvcerp/pkg/domain"
)

// Column names looked up in the header row.
const (
	ColumnCode  = "code"
	ColumnDesc  = "desc"
	ColumnColor = "color"
	ColumnPrice = "price"
)

var columns = []string{ColumnCode, ColumnDesc, ColumnColor, ColumnPrice}

// ErrTooFewLines is returned when a file has no data row after its header.
var ErrTooFewLines = errors.New("catalog file must have a header and at least one data row")

// MissingColumnError names a required column absent from the header.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("catalog header has no %q column", e.Column)
}

// Parsed is the outcome of reading a file. Skipped counts rows with a missing
// field or a price that is not a decimal; Duplicates counts rows repeating a
// code seen earlier in the same file.
type Parsed struct {
	Items      []domain.CatalogItem
	Skipped    int
	Duplicates int
}

// ImportReport summarises an import. Duplicates covers repeats inside the
// file and codes already present in the catalog.
type ImportReport struct {
	Added      int `json:"added"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// ParseCSV reads a comma separated price list.
func ParseCSV(r io.Reader) (Parsed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return Parsed{}, fmt.Errorf("read catalog csv: %w", err)
	}
	return parseRows(records)
}

// ParseXLSX reads the first sheet of an Excel workbook.
func ParseXLSX(r io.Reader) (Parsed, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Parsed{}, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Parsed{}, ErrTooFewLines
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Parsed{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// Parse picks the reader from the file extension; anything but .xlsx is read
// as CSV.
func Parse(name string, r io.Reader) (Parsed, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

func parseRows(rows [][]string) (Parsed, error) {
	rows = dropBlank(rows)
	if len(rows) < 2 {
		return Parsed{}, ErrTooFewLines
	}
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range columns {
		if _, ok := index[c]; !ok {
			return Parsed{}, &MissingColumnError{Column: c}
		}
	}

	out := Parsed{Items: []domain.CatalogItem{}}
	seen := map[string]struct{}{}
	for _, row := range rows[1:] {
		field := func(name string) string {
			if i := index[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		code, desc, color, raw := field(ColumnCode), field(ColumnDesc), field(ColumnColor), field(ColumnPrice)
		if code == "" || desc == "" || color == "" || raw == "" {
			out.Skipped++
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			out.Skipped++
			continue
		}
		key := strings.ToLower(code)
		if _, dup := seen[key]; dup {
			out.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		p, _ := price.Float64()
		out.Items = append(out.Items, domain.CatalogItem{Code: code, Desc: desc, Color: color, Price: p})
	}
	return out, nil
}

func dropBlank(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Importer adds catalog entries. *core.Service satisfies it.
type Importer interface {
	ImportCatalog(ctx context.Context, cmd core.ImportCatalog) ([]domain.CatalogItem, core.Result, error)
}

// Import sends the parsed entries to svc and reports what was added.
func Import(ctx context.Context, svc Importer, parsed Parsed) (ImportReport, error) {
	report := ImportReport{Skipped: parsed.Skipped, Duplicates: parsed.Duplicates}
	added, _, err := svc.ImportCatalog(ctx, core.ImportCatalog{Items: parsed.Items})
	if err != nil {
		return report, err
	}
	report.Added = len(added)
	report.Duplicates += len(parsed.Items) - len(added)
	return report, nil
}
