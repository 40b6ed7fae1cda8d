package domain

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// Category is a customer purchase-behaviour class assigned at ingestion.
type Category string

const (
	CategoryAcute       Category = "acute"
	CategoryChronic     Category = "chronic"
	CategoryConvenience Category = "convenience"
	CategoryRecurring   Category = "recurring"
)

// Transaction represents one cleaned sale line item.
// Temporal fields are derived from Date once, at ingestion.
type Transaction struct {
	Date      civil.Date // required
	Product   string     // trimmed, upper-cased
	Quantity  float64    // always > 0
	Price     float64    // unit price, 0 when unparseable
	Total     float64    // line revenue, >= 0
	InvoiceID string     // empty when the source had no invoice column

	Category Category

	Year      int
	Month     int    // 1-12
	MonthYear string // "YYYY-MM"
	DayOfWeek string // "Monday"
	Week      int    // ISO week
}

// NewTransaction builds a transaction and materialises its derived temporal fields.
func NewTransaction(date civil.Date, product string, quantity, price, total float64, invoiceID string, category Category) Transaction {
	t := date.In(time.UTC)
	_, week := t.ISOWeek()
	return Transaction{
		Date:      date,
		Product:   product,
		Quantity:  quantity,
		Price:     price,
		Total:     total,
		InvoiceID: invoiceID,
		Category:  category,
		Year:      date.Year,
		Month:     int(date.Month),
		MonthYear: PeriodKey(date),
		DayOfWeek: t.Weekday().String(),
		Week:      week,
	}
}

// Table is the processed, read-only transaction table of a session.
type Table struct {
	Rows []Transaction

	// HasInvoice reports whether an invoice column was mapped at ingestion.
	// Without it every row counts as its own transaction.
	HasInvoice bool

	// InvoiceColumn is the raw header that supplied InvoiceID, if any.
	InvoiceColumn string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Filter returns a new table holding only rows whose date lies inside [start, end].
// A nil bound is open. The receiver is never modified.
func (t *Table) Filter(start, end *civil.Date) *Table {
	out := &Table{HasInvoice: t.HasInvoice, InvoiceColumn: t.InvoiceColumn}
	if start == nil && end == nil {
		out.Rows = append([]Transaction(nil), t.Rows...)
		return out
	}
	out.Rows = make([]Transaction, 0, len(t.Rows))
	for _, r := range t.Rows {
		if start != nil && r.Date.Before(*start) {
			continue
		}
		if end != nil && r.Date.After(*end) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// ProductRows returns the rows of one product, in table order.
func (t *Table) ProductRows(product string) *Table {
	out := &Table{HasInvoice: t.HasInvoice, InvoiceColumn: t.InvoiceColumn}
	for _, r := range t.Rows {
		if r.Product == product {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// DateBounds returns the earliest and latest sale dates. ok is false for an empty table.
func (t *Table) DateBounds() (min, max civil.Date, ok bool) {
	if t.Len() == 0 {
		return civil.Date{}, civil.Date{}, false
	}
	min, max = t.Rows[0].Date, t.Rows[0].Date
	for _, r := range t.Rows[1:] {
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max, true
}

// Months returns the distinct "YYYY-MM" periods present, ascending.
func (t *Table) Months() []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, r := range t.Rows {
		if _, ok := seen[r.MonthYear]; ok {
			continue
		}
		seen[r.MonthYear] = struct{}{}
		months = append(months, r.MonthYear)
	}
	sort.Strings(months)
	return months
}

// DateRange describes the calendar span of a table.
type DateRange struct {
	Min    string   `json:"min"`
	Max    string   `json:"max"`
	Months []string `json:"months"`
}

// Range returns the table's date range; an empty table yields an empty range.
func (t *Table) Range() DateRange {
	min, max, ok := t.DateBounds()
	if !ok {
		return DateRange{Months: []string{}}
	}
	return DateRange{Min: min.String(), Max: max.String(), Months: t.Months()}
}

// RawTable is an uploaded file before column mapping.
type RawTable struct {
	Filename string
	Columns  []string
	Rows     [][]string
}

// PeriodKey formats the month of d as "YYYY-MM".
func PeriodKey(d civil.Date) string {
	return d.In(time.UTC).Format("2006-01")
}

// ParsePeriod parses a "YYYY-MM" key into the first day of that month.
func ParsePeriod(period string) (civil.Date, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

// AddMonths shifts d by n calendar months, keeping the day of month at 1.
func AddMonths(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC)
	return civil.DateOf(first.AddDate(0, n, 0))
}
