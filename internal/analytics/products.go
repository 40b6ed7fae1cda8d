package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/pharmainsight/internal/classifier"
	"github.com/dvloznov/pharmainsight/internal/domain"
)

const (
	defaultSearchLimit = 20
	abcDetailLimit     = 100
)

// ProductSummary ranks one product by revenue.
type ProductSummary struct {
	Name         string  `json:"name"`
	Revenue      float64 `json:"revenue"`
	Units        float64 `json:"units"`
	Transactions int     `json:"transactions"`
	AvgQtyPerTxn float64 `json:"avgQtyPerTxn"`
}

// TopProducts returns the n highest-revenue products of the view.
func (s *Service) TopProducts(n int) []ProductSummary {
	products := aggregateProducts(s.view)
	byRevenueDesc(products)
	if n >= 0 && len(products) > n {
		products = products[:n]
	}

	out := make([]ProductSummary, len(products))
	for i, p := range products {
		txns := p.tx.count()
		out[i] = ProductSummary{
			Name:         p.name,
			Revenue:      p.revenue,
			Units:        p.units,
			Transactions: txns,
			AvgQtyPerTxn: divide(p.units, float64(txns)),
		}
	}
	return out
}

// CategoryPerformance is the revenue share of one behaviour category.
type CategoryPerformance struct {
	Category        domain.Category `json:"category"`
	Revenue         float64         `json:"revenue"`
	Units           float64         `json:"units"`
	Products        int             `json:"products"`
	Percentage      float64         `json:"percentage"`
	Label           string          `json:"label"`
	SuggestedMarkup float64         `json:"suggestedMarkup"`
}

// CategoryPerformance groups the view by behaviour category, highest revenue first.
func (s *Service) CategoryPerformance() []CategoryPerformance {
	type acc struct {
		perf     CategoryPerformance
		products map[string]struct{}
	}
	groups := make(map[domain.Category]*acc)
	var total float64
	for _, r := range s.view.Rows {
		g, ok := groups[r.Category]
		if !ok {
			g = &acc{perf: CategoryPerformance{Category: r.Category}, products: make(map[string]struct{})}
			groups[r.Category] = g
		}
		g.perf.Revenue += r.Total
		g.perf.Units += r.Quantity
		g.products[r.Product] = struct{}{}
		total += r.Total
	}

	out := make([]CategoryPerformance, 0, len(groups))
	for _, c := range classifier.Categories() {
		g, ok := groups[c]
		if !ok {
			continue
		}
		g.perf.Products = len(g.products)
		g.perf.Percentage = round1(divide(g.perf.Revenue, total) * 100)
		if p, ok := classifier.Lookup(c); ok {
			g.perf.Label = p.Label
			g.perf.SuggestedMarkup = p.Markup
		}
		out = append(out, g.perf)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}

// ABC classes.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
)

// ABCProduct is one product with its ABC class.
type ABCProduct struct {
	Product       string  `json:"product"`
	Revenue       float64 `json:"revenue"`
	Units         float64 `json:"units"`
	CumulativePct float64 `json:"cumulative_pct"`
	Class         string  `json:"class"`
}

// ABCClassSummary aggregates one ABC class.
type ABCClassSummary struct {
	Class      string  `json:"class"`
	Count      int     `json:"count"`
	Revenue    float64 `json:"revenue"`
	Percentage float64 `json:"percentage"`
}

// ABCResult is the ABC classification of the view.
type ABCResult struct {
	Summary []ABCClassSummary `json:"summary"`
	Details []ABCProduct      `json:"details"`
}

// Counts returns the number of products in each class.
func (r ABCResult) Counts() (a, b, c int) {
	for _, s := range r.Summary {
		switch s.Class {
		case ClassA:
			a = s.Count
		case ClassB:
			b = s.Count
		case ClassC:
			c = s.Count
		}
	}
	return a, b, c
}

// abcClass assigns a class from a cumulative revenue fraction. Boundaries are inclusive.
func abcClass(cumulative float64) string {
	switch {
	case cumulative <= 0.80:
		return ClassA
	case cumulative <= 0.95:
		return ClassB
	default:
		return ClassC
	}
}

// classify ranks every product of the view and assigns its ABC class.
func (s *Service) classify() []ABCProduct {
	products := aggregateProducts(s.view)
	byRevenueDesc(products)

	var total float64
	for _, p := range products {
		total += p.revenue
	}

	out := make([]ABCProduct, len(products))
	var running float64
	for i, p := range products {
		running += p.revenue
		cumulative := divide(running, total)
		out[i] = ABCProduct{
			Product:       p.name,
			Revenue:       p.revenue,
			Units:         p.units,
			CumulativePct: cumulative,
			Class:         abcClass(cumulative),
		}
	}
	return out
}

// ABC classifies products by cumulative revenue share: A up to 80%, B up to 95%, C beyond.
// Details hold the top 100 products.
func (s *Service) ABC() ABCResult {
	ranked := s.classify()
	result := ABCResult{Summary: []ABCClassSummary{}, Details: []ABCProduct{}}
	if len(ranked) == 0 {
		return result
	}

	var total float64
	sums := make(map[string]*ABCClassSummary)
	for _, p := range ranked {
		total += p.Revenue
		sum, ok := sums[p.Class]
		if !ok {
			sum = &ABCClassSummary{Class: p.Class}
			sums[p.Class] = sum
		}
		sum.Count++
		sum.Revenue += p.Revenue
	}
	for _, class := range []string{ClassA, ClassB, ClassC} {
		if sum, ok := sums[class]; ok {
			sum.Percentage = round1(divide(sum.Revenue, total) * 100)
			result.Summary = append(result.Summary, *sum)
		}
	}

	if len(ranked) > abcDetailLimit {
		ranked = ranked[:abcDetailLimit]
	}
	result.Details = ranked
	return result
}

// ProductDetail describes one product over the view.
type ProductDetail struct {
	Name                 string          `json:"name"`
	TotalRevenue         float64         `json:"totalRevenue"`
	TotalUnits           float64         `json:"totalUnits"`
	TotalTransactions    int             `json:"totalTransactions"`
	AvgQtyPerTransaction float64         `json:"avgQtyPerTransaction"`
	Category             domain.Category `json:"category"`
	CategoryLabel        string          `json:"categoryLabel"`
	SuggestedMarkup      float64         `json:"suggestedMarkup"`
	MonthlyTrend         []PeriodTotals  `json:"monthlyTrend"`
}

// ProductDetail returns totals and the monthly trend of an exact product name.
func (s *Service) ProductDetail(name string) (*ProductDetail, error) {
	rows := s.view.ProductRows(name)
	if rows.Len() == 0 {
		return nil, fmt.Errorf("ProductDetail: %q: %w", name, ErrProductNotFound)
	}

	detail := &ProductDetail{
		Name:         name,
		Category:     rows.Rows[0].Category,
		MonthlyTrend: monthlyTotals(rows.Rows, rows.HasInvoice),
	}
	tx := newTxCounter(rows.HasInvoice)
	for _, r := range rows.Rows {
		detail.TotalRevenue += r.Total
		detail.TotalUnits += r.Quantity
		tx.add(r)
	}
	detail.TotalTransactions = tx.count()
	detail.AvgQtyPerTransaction = divide(detail.TotalUnits, float64(detail.TotalTransactions))

	if p, ok := classifier.Lookup(detail.Category); ok {
		detail.CategoryLabel = p.Label
		detail.SuggestedMarkup = p.Markup
	} else {
		detail.CategoryLabel = "Unknown"
	}

	return detail, nil
}

// SearchResult is a product name with its all-time revenue.
type SearchResult struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

// Search finds products in the unfiltered table whose name contains query.
// When nothing matches the whole query, any whitespace-separated token may match.
// Results are ordered by revenue; limit <= 0 means 20.
func (s *Service) Search(query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := strings.ToUpper(strings.TrimSpace(query))

	products := aggregateProducts(s.full)
	matches := make([]*productStats, 0)
	for _, p := range products {
		if strings.Contains(p.name, q) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		tokens := strings.Fields(q)
		for _, p := range products {
			for _, tok := range tokens {
				if strings.Contains(p.name, tok) {
					matches = append(matches, p)
					break
				}
			}
		}
	}

	byRevenueDesc(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]SearchResult, len(matches))
	for i, p := range matches {
		out[i] = SearchResult{Name: p.name, Revenue: p.revenue}
	}
	return out
}

// ProductComparison is one entry of a comparison.
type ProductComparison struct {
	Name         string         `json:"name"`
	TotalRevenue float64        `json:"totalRevenue"`
	TotalUnits   float64        `json:"totalUnits"`
	AvgQtyPerTxn float64        `json:"avgQtyPerTxn"`
	MonthlyTrend []PeriodTotals `json:"monthlyTrend"`
}

// Comparison holds the compared products in request order.
type Comparison struct {
	Products []ProductComparison `json:"products"`
}

// Compare returns totals and monthly trends for each named product.
// Names without rows in the view are left out.
func (s *Service) Compare(names []string) Comparison {
	out := Comparison{Products: make([]ProductComparison, 0, len(names))}
	for _, name := range names {
		rows := s.view.ProductRows(name)
		if rows.Len() == 0 {
			continue
		}
		c := ProductComparison{Name: name, MonthlyTrend: monthlyTotals(rows.Rows, rows.HasInvoice)}
		tx := newTxCounter(rows.HasInvoice)
		for _, r := range rows.Rows {
			c.TotalRevenue += r.Total
			c.TotalUnits += r.Quantity
			tx.add(r)
		}
		c.AvgQtyPerTxn = divide(c.TotalUnits, float64(tx.count()))
		out.Products = append(out.Products, c)
	}
	return out
}
