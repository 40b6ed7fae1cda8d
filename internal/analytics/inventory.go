package analytics

import (
	"math"
	"sort"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

const (
	deadStockDays      = 60
	fastMoverQuantile  = 0.9
	alertDisplayLimit  = 10
	reorderLimit       = 50
	reorderSafetyRatio = 1.2
)

// FastMover is a product in the top decile of monthly revenue velocity.
type FastMover struct {
	Product        string  `json:"product"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	MonthlyUnits   float64 `json:"monthly_units"`
}

// DeadStockItem is a product without a sale in the last 60 days of the view.
type DeadStockItem struct {
	Product           string  `json:"product"`
	DaysSinceLastSale int     `json:"days_since_last_sale"`
	Revenue           float64 `json:"revenue"`
}

// InventoryAlerts lists fast movers and dead stock. Counts cover every
// qualifying product even when the lists are capped.
type InventoryAlerts struct {
	FastMovers      []FastMover     `json:"fastMovers"`
	DeadStock       []DeadStockItem `json:"deadStock"`
	FastMoversCount int             `json:"fastMoversCount"`
	DeadStockCount  int             `json:"deadStockCount"`
}

// InventoryAlerts returns alerts with each list capped at 10 entries.
func (s *Service) InventoryAlerts() InventoryAlerts {
	return s.inventoryAlerts(alertDisplayLimit)
}

// AllInventoryAlerts returns alerts without capping the lists.
func (s *Service) AllInventoryAlerts() InventoryAlerts {
	return s.inventoryAlerts(-1)
}

func (s *Service) inventoryAlerts(limit int) InventoryAlerts {
	alerts := InventoryAlerts{FastMovers: []FastMover{}, DeadStock: []DeadStockItem{}}
	_, latest, ok := s.view.DateBounds()
	if !ok {
		return alerts
	}

	months := elapsedMonths(s.view)
	products := aggregateProducts(s.view)

	velocities := make([]float64, len(products))
	for i, p := range products {
		velocities[i] = p.revenue / months
	}
	threshold := quantile(velocities, fastMoverQuantile)

	for i, p := range products {
		if velocities[i] >= threshold {
			alerts.FastMovers = append(alerts.FastMovers, FastMover{
				Product:        p.name,
				MonthlyRevenue: velocities[i],
				MonthlyUnits:   p.units / months,
			})
		}
		if days := latest.DaysSince(p.lastSale); days >= deadStockDays {
			alerts.DeadStock = append(alerts.DeadStock, DeadStockItem{
				Product:           p.name,
				DaysSinceLastSale: days,
				Revenue:           p.revenue,
			})
		}
	}

	sort.SliceStable(alerts.FastMovers, func(i, j int) bool {
		return alerts.FastMovers[i].MonthlyRevenue > alerts.FastMovers[j].MonthlyRevenue
	})
	sort.SliceStable(alerts.DeadStock, func(i, j int) bool {
		return alerts.DeadStock[i].DaysSinceLastSale > alerts.DeadStock[j].DaysSinceLastSale
	})

	alerts.FastMoversCount = len(alerts.FastMovers)
	alerts.DeadStockCount = len(alerts.DeadStock)
	if limit >= 0 {
		if len(alerts.FastMovers) > limit {
			alerts.FastMovers = alerts.FastMovers[:limit]
		}
		if len(alerts.DeadStock) > limit {
			alerts.DeadStock = alerts.DeadStock[:limit]
		}
	}
	return alerts
}

// ReorderSuggestion is the suggested stock order for one product.
type ReorderSuggestion struct {
	Product          string          `json:"product"`
	MonthlyUnits     float64         `json:"monthly_units"`
	MonthlyRevenue   float64         `json:"monthly_revenue"`
	Category         domain.Category `json:"category"`
	SuggestedReorder float64         `json:"suggested_reorder"`
}

// ReorderSuggestions sizes an order covering forecastMonths of velocity plus a 20% buffer,
// for the 50 products with the highest monthly revenue.
func (s *Service) ReorderSuggestions(forecastMonths int) []ReorderSuggestion {
	if s.view.Len() == 0 {
		return []ReorderSuggestion{}
	}

	months := elapsedMonths(s.view)
	products := aggregateProducts(s.view)
	byRevenueDesc(products)
	if len(products) > reorderLimit {
		products = products[:reorderLimit]
	}

	out := make([]ReorderSuggestion, len(products))
	for i, p := range products {
		monthlyUnits := p.units / months
		out[i] = ReorderSuggestion{
			Product:          p.name,
			MonthlyUnits:     monthlyUnits,
			MonthlyRevenue:   p.revenue / months,
			Category:         p.category,
			SuggestedReorder: math.RoundToEven(monthlyUnits * float64(forecastMonths) * reorderSafetyRatio),
		}
	}
	return out
}
