package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pharmainsight/internal/classifier"
	"github.com/dvloznov/pharmainsight/internal/domain"
)

// MissingColumnsError reports required fields left unmapped.
type MissingColumnsError struct {
	Fields []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Fields, ", ")
}

// nullProducts are product values treated as absent after upper-casing.
var nullProducts = map[string]struct{}{
	"":     {},
	"NAN":  {},
	"NONE": {},
	"NULL": {},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01-02-06", // default xlsx date format
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Process applies the column mapping to raw rows and returns the cleaned table.
// Rows with an unparseable date, an empty product or a non-positive quantity are dropped.
func Process(raw *domain.RawTable, mapping ColumnMapping) (*domain.Table, error) {
	if raw == nil {
		return nil, fmt.Errorf("Process: nil raw table")
	}

	required := []struct{ field, col string }{
		{"date", mapping.Date},
		{"product", mapping.Product},
		{"quantity", mapping.Quantity},
	}
	var missing []string
	for _, r := range required {
		if columnIndex(raw.Columns, r.col) < 0 {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Process: %w", &MissingColumnsError{Fields: missing})
	}

	dateIdx := columnIndex(raw.Columns, mapping.Date)
	productIdx := columnIndex(raw.Columns, mapping.Product)
	qtyIdx := columnIndex(raw.Columns, mapping.Quantity)
	priceIdx := columnIndex(raw.Columns, mapping.Price)
	totalIdx := columnIndex(raw.Columns, mapping.Total)
	invoiceIdx := columnIndex(raw.Columns, mapping.InvoiceID)

	table := &domain.Table{
		Rows:       make([]domain.Transaction, 0, len(raw.Rows)),
		HasInvoice: invoiceIdx >= 0,
	}
	if invoiceIdx >= 0 {
		table.InvoiceColumn = mapping.InvoiceID
	}

	for _, row := range raw.Rows {
		date, ok := ParseDate(cell(row, dateIdx))
		if !ok {
			continue
		}

		product := strings.ToUpper(strings.TrimSpace(cell(row, productIdx)))
		if _, isNull := nullProducts[product]; isNull {
			continue
		}

		quantity, ok := ParseNumber(cell(row, qtyIdx))
		if !ok || quantity <= 0 {
			continue
		}

		price := 0.0
		if priceIdx >= 0 {
			if v, ok := ParseNumber(cell(row, priceIdx)); ok && v > 0 {
				price = v
			}
		}

		var total float64
		switch {
		case totalIdx >= 0:
			if v, ok := ParseNumber(cell(row, totalIdx)); ok && v > 0 {
				total = v
			}
		default:
			total = quantity * price
		}

		invoice := ""
		if invoiceIdx >= 0 {
			invoice = strings.TrimSpace(cell(row, invoiceIdx))
		}

		table.Rows = append(table.Rows, domain.NewTransaction(
			date, product, quantity, price, total, invoice, classifier.Classify(product),
		))
	}

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("Process: %d raw rows: %w", len(raw.Rows), ErrNoValidRows)
	}

	return table, nil
}

// ParseDate parses a cell with the accepted date layouts.
func ParseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// ParseNumber parses a numeric cell, tolerating thousands separators and currency symbols.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '$', '€', '£', '₦':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func columnIndex(columns []string, name string) int {
	if name == "" {
		return -1
	}
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
