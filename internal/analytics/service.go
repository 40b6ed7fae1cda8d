// Package analytics computes KPIs, rankings and inventory signals over a
// session's transaction table.
//
// Every operation reads a date-filtered copy of the table and never mutates
// the table it was given. Empty input produces zeroed or empty results.
package analytics

import (
	"errors"
	"math"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

// ErrProductNotFound is returned by ProductDetail when no row matches the product.
var ErrProductNotFound = errors.New("product not found")

// Service answers analytics queries for one table and date window.
type Service struct {
	full *domain.Table
	view *domain.Table
}

// NewService builds a service over table restricted to [start, end].
// Either bound may be nil. Search always uses the unfiltered table.
func NewService(table *domain.Table, start, end *civil.Date) *Service {
	if table == nil {
		table = &domain.Table{}
	}
	return &Service{
		full: table,
		view: table.Filter(start, end),
	}
}

// View returns the date-filtered table the service operates on.
func (s *Service) View() *domain.Table {
	return s.view
}

// PeriodTotals holds the sums of one month.
type PeriodTotals struct {
	Period       string  `json:"period"`
	Revenue      float64 `json:"revenue"`
	Units        float64 `json:"units"`
	Transactions int     `json:"transactions"`
}

// txCounter counts distinct invoices, or rows when the table has no invoice column.
type txCounter struct {
	byInvoice bool
	invoices  map[string]struct{}
	rows      int
}

func newTxCounter(byInvoice bool) *txCounter {
	c := &txCounter{byInvoice: byInvoice}
	if byInvoice {
		c.invoices = make(map[string]struct{})
	}
	return c
}

func (c *txCounter) add(r domain.Transaction) {
	c.rows++
	if c.byInvoice && r.InvoiceID != "" {
		c.invoices[r.InvoiceID] = struct{}{}
	}
}

func (c *txCounter) count() int {
	if c.byInvoice {
		return len(c.invoices)
	}
	return c.rows
}

// monthlyTotals groups rows by period, ascending.
func monthlyTotals(rows []domain.Transaction, byInvoice bool) []PeriodTotals {
	type acc struct {
		totals PeriodTotals
		tx     *txCounter
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		g, ok := groups[r.MonthYear]
		if !ok {
			g = &acc{totals: PeriodTotals{Period: r.MonthYear}, tx: newTxCounter(byInvoice)}
			groups[r.MonthYear] = g
		}
		g.totals.Revenue += r.Total
		g.totals.Units += r.Quantity
		g.tx.add(r)
	}

	out := make([]PeriodTotals, 0, len(groups))
	for _, g := range groups {
		g.totals.Transactions = g.tx.count()
		out = append(out, g.totals)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// productStats accumulates per-product totals.
type productStats struct {
	name      string
	category  domain.Category
	revenue   float64
	units     float64
	tx        *txCounter
	firstSale civil.Date
	lastSale  civil.Date
}

// aggregateProducts groups rows by product, ordered by product name.
func aggregateProducts(t *domain.Table) []*productStats {
	groups := make(map[string]*productStats)
	for _, r := range t.Rows {
		p, ok := groups[r.Product]
		if !ok {
			p = &productStats{
				name:      r.Product,
				category:  r.Category,
				tx:        newTxCounter(t.HasInvoice),
				firstSale: r.Date,
				lastSale:  r.Date,
			}
			groups[r.Product] = p
		}
		p.revenue += r.Total
		p.units += r.Quantity
		p.tx.add(r)
		if r.Date.Before(p.firstSale) {
			p.firstSale = r.Date
		}
		if r.Date.After(p.lastSale) {
			p.lastSale = r.Date
		}
	}

	out := make([]*productStats, 0, len(groups))
	for _, p := range groups {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// byRevenueDesc sorts products by revenue, keeping name order for ties.
func byRevenueDesc(products []*productStats) {
	sort.SliceStable(products, func(i, j int) bool { return products[i].revenue > products[j].revenue })
}

// elapsedMonths is the span of the table in 30-day months, never below 1.
func elapsedMonths(t *domain.Table) float64 {
	min, max, ok := t.DateBounds()
	if !ok {
		return 1
	}
	return math.Max(float64(max.DaysSince(min))/30, 1)
}

func divide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// growthPercent returns (current-previous)/previous*100, or 0 when previous is not positive.
func growthPercent(previous, current float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// quantile returns the q-th quantile of values using linear interpolation.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
