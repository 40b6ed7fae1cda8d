package analytics

import (
	"fmt"
	"math"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

const (
	declineThreshold   = -10.0
	deadStockThreshold = 50
	classCShareLimit   = 0.5
	preliminaryTopN    = 10
)

// Overall trend labels.
const (
	TrendGrowing   = "growing"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// PreliminarySummary holds the headline numbers of the diagnostic summary.
type PreliminarySummary struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalTransactions int     `json:"totalTransactions"`
	UniqueProducts    int     `json:"uniqueProducts"`
	PeriodDays        int     `json:"periodDays"`
	RecentGrowth      float64 `json:"recentGrowth"`
	OverallTrend      string  `json:"overallTrend"`
}

// ABCCounts is the number of products per ABC class.
type ABCCounts struct {
	ClassA int `json:"classA"`
	ClassB int `json:"classB"`
	ClassC int `json:"classC"`
}

// Preliminary is a rule-based diagnostic summary of the view.
type Preliminary struct {
	Error             string                      `json:"error,omitempty"`
	Summary           PreliminarySummary          `json:"summary"`
	TopProducts       []SearchResult              `json:"topProducts"`
	CategoryBreakdown map[domain.Category]float64 `json:"categoryBreakdown"`
	ABCSummary        ABCCounts                   `json:"abcSummary"`
	DeadStockCount    int                         `json:"deadStockCount"`
	Issues            []string                    `json:"issues"`
	Recommendations   []string                    `json:"recommendations"`
}

// PreliminaryAnalysis flags revenue decline, dead stock and long-tail
// assortments, and always recommends focusing on Class A products.
func (s *Service) PreliminaryAnalysis() Preliminary {
	p := Preliminary{
		TopProducts:       []SearchResult{},
		CategoryBreakdown: map[domain.Category]float64{},
		Issues:            []string{},
		Recommendations:   []string{},
	}
	if s.view.Len() == 0 {
		p.Error = "No data available"
		return p
	}

	kpis := s.KPIs()
	min, max, _ := s.view.DateBounds()
	p.Summary = PreliminarySummary{
		TotalRevenue:      kpis.TotalRevenue,
		TotalTransactions: kpis.TotalTransactions,
		UniqueProducts:    kpis.UniqueProducts,
		PeriodDays:        max.DaysSince(min),
		RecentGrowth:      kpis.MoMGrowth,
		OverallTrend:      overallTrend(monthlyTotals(s.view.Rows, s.view.HasInvoice)),
	}

	for _, top := range s.TopProducts(preliminaryTopN) {
		p.TopProducts = append(p.TopProducts, SearchResult{Name: top.Name, Revenue: top.Revenue})
	}
	for _, c := range s.CategoryPerformance() {
		p.CategoryBreakdown[c.Category] = c.Revenue
	}

	a, b, c := s.ABC().Counts()
	p.ABCSummary = ABCCounts{ClassA: a, ClassB: b, ClassC: c}
	p.DeadStockCount = s.AllInventoryAlerts().DeadStockCount

	if p.Summary.RecentGrowth < declineThreshold {
		p.Issues = append(p.Issues, fmt.Sprintf("Revenue declined by %.1f%% last month - needs attention", math.Abs(p.Summary.RecentGrowth)))
	}
	if p.DeadStockCount > deadStockThreshold {
		p.Issues = append(p.Issues, fmt.Sprintf("%d products haven't sold in 60+ days - review for clearance", p.DeadStockCount))
	}
	if float64(c) > float64(kpis.UniqueProducts)*classCShareLimit {
		p.Issues = append(p.Issues, "Over 50% of products are Class C (low revenue) - consider SKU rationalization")
	}

	p.Recommendations = append(p.Recommendations, fmt.Sprintf("Focus on your top %d products (Class A) - they drive 80%% of revenue", a))
	if p.DeadStockCount > 0 {
		p.Recommendations = append(p.Recommendations, fmt.Sprintf("Review %d dead stock items for clearance or return", p.DeadStockCount))
	}

	return p
}

func overallTrend(months []PeriodTotals) string {
	if len(months) < 2 {
		return TrendStable
	}
	if months[len(months)-1].Revenue > months[0].Revenue {
		return TrendGrowing
	}
	return TrendDeclining
}
