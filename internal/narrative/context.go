package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/pharmainsight/internal/analytics"
	"github.com/dvloznov/pharmainsight/internal/domain"
)

// currency labels money amounts in prompts.
const currency = "GHS"

// Context is the analytics snapshot handed to the model. It is always computed on the unfiltered table.
type Context struct {
	KPIs         analytics.KPIs                  `json:"kpis"`
	Categories   []analytics.CategoryPerformance `json:"categories"`
	ABC          analytics.ABCResult             `json:"abc"`
	RevenueTrend []analytics.TrendPoint          `json:"revenueTrend"`
	TopProducts  []analytics.ProductSummary      `json:"topProducts"`
	Inventory    analytics.InventoryAlerts       `json:"inventory"`
	Seasonality  analytics.Seasonality           `json:"seasonality"`
	Preliminary  analytics.Preliminary           `json:"preliminary"`
}

// ContextSections names the parts of Context reported back with every answer.
var ContextSections = []string{"kpis", "categories", "abc", "revenue_trend", "top_products", "inventory", "seasonality"}

// BuildContext gathers the snapshot for a processed table.
func BuildContext(table *domain.Table) *Context {
	svc := analytics.NewService(table, nil, nil)
	return &Context{
		KPIs:         svc.KPIs(),
		Categories:   svc.CategoryPerformance(),
		ABC:          svc.ABC(),
		RevenueTrend: svc.RevenueTrend(),
		TopProducts:  svc.TopProducts(20),
		Inventory:    svc.InventoryAlerts(),
		Seasonality:  svc.Seasonality(),
		Preliminary:  svc.PreliminaryAnalysis(),
	}
}

// Summary renders the snapshot as the markdown block embedded in prompts.
func (c *Context) Summary() string {
	var b strings.Builder
	a, bb, cc := c.ABC.Counts()

	b.WriteString("## Current Data Summary\n\n")

	b.WriteString("**Key Performance Indicators:**\n")
	fmt.Fprintf(&b, "- Total Revenue: %s %.2f\n", currency, c.KPIs.TotalRevenue)
	fmt.Fprintf(&b, "- Total Transactions: %d\n", c.KPIs.TotalTransactions)
	fmt.Fprintf(&b, "- Average Transaction: %s %.2f\n", currency, c.KPIs.AvgTransactionValue)
	fmt.Fprintf(&b, "- Unique Products: %d\n", c.KPIs.UniqueProducts)
	fmt.Fprintf(&b, "- Month-over-Month Growth: %.1f%%\n\n", c.KPIs.MoMGrowth)

	b.WriteString("**Category Performance:**\n")
	b.WriteString(indentJSON(c.Categories))
	b.WriteString("\n\n")

	b.WriteString("**ABC Analysis:**\n")
	fmt.Fprintf(&b, "- Class A Products: %d\n", a)
	fmt.Fprintf(&b, "- Class B Products: %d\n", bb)
	fmt.Fprintf(&b, "- Class C Products: %d\n\n", cc)

	top := c.TopProducts
	if len(top) > 10 {
		top = top[:10]
	}
	b.WriteString("**Top 10 Products:**\n")
	b.WriteString(indentJSON(top))
	b.WriteString("\n\n")

	b.WriteString("**Monthly Revenue Trend:**\n")
	b.WriteString(indentJSON(c.RevenueTrend))
	b.WriteString("\n\n")

	b.WriteString("**Inventory Alerts:**\n")
	fmt.Fprintf(&b, "- Fast Movers: %d\n", c.Inventory.FastMoversCount)
	fmt.Fprintf(&b, "- Dead Stock (60+ days): %d\n\n", c.Inventory.DeadStockCount)

	b.WriteString("**Seasonality:**\n")
	b.WriteString(indentJSON(c.Seasonality))
	b.WriteString("\n\n")

	b.WriteString("**Preliminary Analysis:**\n")
	fmt.Fprintf(&b, "Issues Identified: %s\n", strings.Join(c.Preliminary.Issues, "; "))
	fmt.Fprintf(&b, "Recommendations: %s\n", strings.Join(c.Preliminary.Recommendations, "; "))

	return b.String()
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}
