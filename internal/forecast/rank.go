package forecast

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

// ProductForecast is the next-month forecast of one product.
type ProductForecast struct {
	Product           string  `json:"product"`
	Metric            Metric  `json:"metric"`
	LastMonthValue    float64 `json:"lastMonthValue"`
	NextMonthForecast float64 `json:"nextMonthForecast"`
	Trend             string  `json:"trend"`
	Method            string  `json:"method"`
}

// Skip records why a product has no forecast.
type Skip struct {
	Product string `json:"product"`
	Reason  string `json:"reason"`
}

// Ranking holds product forecasts in revenue order plus the products left out.
type Ranking struct {
	Forecasts []ProductForecast
	Skipped   []Skip
}

// RankProducts forecasts the next month for the limit highest-revenue products.
// Products with too little history are skipped; any other failure aborts the ranking.
func RankProducts(table *domain.Table, limit int, metric Metric, kind Kind) (*Ranking, error) {
	if table == nil {
		return nil, fmt.Errorf("RankProducts: %w", ErrNoTable)
	}

	ranking := &Ranking{Forecasts: []ProductForecast{}, Skipped: []Skip{}}
	for _, product := range topByRevenue(table, limit) {
		s, err := Prepare(table, product, metric)
		if err != nil {
			return nil, fmt.Errorf("RankProducts: preparing %q: %w", product, err)
		}
		if s.Len() < MinMonths {
			ranking.Skipped = append(ranking.Skipped, Skip{Product: product, Reason: insufficient(MinMonths, s.Len()).Error()})
			continue
		}

		p, err := runMethod(s, kind, 1)
		if errors.Is(err, ErrInsufficientData) {
			ranking.Skipped = append(ranking.Skipped, Skip{Product: product, Reason: err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("RankProducts: forecasting %q: %w", product, err)
		}

		ranking.Forecasts = append(ranking.Forecasts, ProductForecast{
			Product:           product,
			Metric:            metric,
			LastMonthValue:    s.Last().Value,
			NextMonthForecast: p.Points[0].Forecast,
			Trend:             TrendLabel(p.Trend),
			Method:            p.Method,
		})
	}
	return ranking, nil
}

// topByRevenue returns up to limit product names ordered by total revenue.
func topByRevenue(table *domain.Table, limit int) []string {
	revenue := make(map[string]float64)
	for _, r := range table.Rows {
		revenue[r.Product] += r.Total
	}

	names := make([]string, 0, len(revenue))
	for name := range revenue {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool { return revenue[names[i]] > revenue[names[j]] })

	if limit >= 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}
