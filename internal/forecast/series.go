// Package forecast builds monthly time series from a transaction table and
// projects them forward with simple closed-form methods.
package forecast

import (
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

// Metric selects the value a series forecasts.
type Metric string

const (
	MetricRevenue      Metric = "revenue"
	MetricUnits        Metric = "units"
	MetricTransactions Metric = "transactions"
)

// NormalizeMetric maps a metric name or legacy alias to a Metric.
// Unknown names fall back to revenue.
func NormalizeMetric(s string) Metric {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "units", "quantity", "qty":
		return MetricUnits
	case "transactions", "txns", "transaction", "orders":
		return MetricTransactions
	default:
		return MetricRevenue
	}
}

// invoiceAliases are the invoice column names whose distinct values count as transactions.
var invoiceAliases = map[string]struct{}{
	"transaction_id": {},
	"invoice":        {},
	"invoice_no":     {},
	"receipt":        {},
	"receipt_no":     {},
	"bill_no":        {},
}

// ErrNoTable is returned when Prepare is given no table.
var ErrNoTable = errors.New("no transaction table")

// Point is one month of a series.
type Point struct {
	Period       string     `json:"period"`
	Date         civil.Date `json:"-"`
	Value        float64    `json:"value"`
	Revenue      float64    `json:"revenue"`
	Units        float64    `json:"units"`
	Transactions float64    `json:"transactions"`
}

// Series is a monthly series ordered by date, one point per month with sales.
// Months without sales are not filled.
type Series []Point

// Len returns the number of months.
func (s Series) Len() int { return len(s) }

// Last returns the most recent point. It panics on an empty series.
func (s Series) Last() Point { return s[len(s)-1] }

// Values returns the selected values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Prepare aggregates the table (or one product of it) into a monthly series of metric.
func Prepare(table *domain.Table, product string, metric Metric) (Series, error) {
	if table == nil {
		return nil, ErrNoTable
	}

	byInvoice := countsInvoices(table)

	type acc struct {
		point    Point
		invoices map[string]struct{}
		rows     int
	}
	groups := make(map[string]*acc)
	for _, r := range table.Rows {
		if product != "" && r.Product != product {
			continue
		}
		g, ok := groups[r.MonthYear]
		if !ok {
			g = &acc{point: Point{Period: r.MonthYear}, invoices: make(map[string]struct{})}
			groups[r.MonthYear] = g
		}
		g.point.Revenue += r.Total
		g.point.Units += r.Quantity
		g.rows++
		if r.InvoiceID != "" {
			g.invoices[r.InvoiceID] = struct{}{}
		}
	}

	series := make(Series, 0, len(groups))
	for period, g := range groups {
		date, err := domain.ParsePeriod(period)
		if err != nil {
			continue
		}
		p := g.point
		p.Date = date
		if byInvoice {
			p.Transactions = float64(len(g.invoices))
		} else {
			p.Transactions = float64(g.rows)
		}
		switch metric {
		case MetricUnits:
			p.Value = p.Units
		case MetricTransactions:
			p.Value = p.Transactions
		default:
			p.Value = p.Revenue
		}
		series = append(series, p)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

func countsInvoices(t *domain.Table) bool {
	if !t.HasInvoice {
		return false
	}
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t.InvoiceColumn)), " ", "_")
	_, ok := invoiceAliases[name]
	return ok
}
