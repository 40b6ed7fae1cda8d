// Package ingest turns an uploaded sales file into a cleaned transaction table.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when a file has a header but no data rows.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNoValidRows is returned when cleaning drops every row.
	ErrNoValidRows = errors.New("no valid rows after cleaning")
)

// Load parses an uploaded CSV or xlsx file into a raw table.
// For workbooks only the first sheet is read.
func Load(content []byte, filename string) (*domain.RawTable, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(content)
	case ".xlsx":
		records, err = readWorkbook(content)
	case ".xls":
		return nil, fmt.Errorf("Load: %s: legacy .xls workbooks must be saved as .xlsx or CSV: %w", filename, ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("Load: %s: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("Load: %s: %w", filename, ErrEmptyFile)
	}

	columns := make([]string, len(records[0]))
	for i, h := range records[0] {
		columns[i] = strings.TrimSpace(h)
	}

	raw := &domain.RawTable{Filename: filename, Columns: columns}
	for _, row := range records[1:] {
		if blank(row) {
			continue
		}
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			row = padded
		}
		raw.Rows = append(raw.Rows, row[:len(columns)])
	}

	if len(raw.Rows) == 0 {
		return nil, fmt.Errorf("Load: %s: %w", filename, ErrEmptyFile)
	}

	return raw, nil
}

func readCSV(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(records) == 0 {
				return nil, fmt.Errorf("readCSV: reading headers: %w", err)
			}
			continue // skip malformed rows
		}
		records = append(records, row)
	}
	return records, nil
}

// readWorkbook returns the formatted cell values of the first sheet.
func readWorkbook(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("readWorkbook: opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("readWorkbook: reading sheet %q: %w", sheets[0], err)
	}

	// Leading blank rows are common above the header.
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ColumnMapping maps each canonical field to a raw column name. Empty means unmapped.
type ColumnMapping struct {
	Date      string `json:"date,omitempty"`
	Product   string `json:"product,omitempty"`
	Quantity  string `json:"quantity,omitempty"`
	Price     string `json:"price,omitempty"`
	Total     string `json:"total,omitempty"`
	InvoiceID string `json:"invoice_id,omitempty"`
}

// detectPatterns lists, per field and in priority order, the substrings
// searched for in lower-cased column names.
var detectPatterns = []struct {
	field    string
	patterns []string
}{
	{"date", []string{"date", "invoice_date", "sale_date", "transaction_date"}},
	{"product", []string{"product", "item", "item_description", "product_name", "description"}},
	{"quantity", []string{"qty", "quantity", "units", "sold_qty"}},
	{"price", []string{"price", "unit_price", "selling_price", "amount"}},
	{"total", []string{"total", "line_total", "amount", "revenue"}},
	{"invoice_id", []string{"invoice", "invoice_id", "transaction_id", "receipt"}},
}

// DetectColumns guesses a column mapping from the raw headers.
func DetectColumns(raw *domain.RawTable) ColumnMapping {
	var m ColumnMapping
	if raw == nil {
		return m
	}
	for _, d := range detectPatterns {
		col := findColumn(raw.Columns, d.patterns)
		switch d.field {
		case "date":
			m.Date = col
		case "product":
			m.Product = col
		case "quantity":
			m.Quantity = col
		case "price":
			m.Price = col
		case "total":
			m.Total = col
		case "invoice_id":
			m.InvoiceID = col
		}
	}
	return m
}

func findColumn(columns, patterns []string) string {
	for _, p := range patterns {
		for _, c := range columns {
			if strings.Contains(strings.ToLower(c), p) {
				return c
			}
		}
	}
	return ""
}
