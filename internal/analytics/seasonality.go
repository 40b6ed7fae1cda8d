package analytics

import (
	"time"
)

const minSeasonalityMonths = 3

// SeasonalPattern is the seasonal index of one calendar month.
type SeasonalPattern struct {
	Month      int     `json:"month"`
	MonthName  string  `json:"month_name"`
	Revenue    float64 `json:"revenue"`
	AvgRevenue float64 `json:"avg_revenue"`
	Index      float64 `json:"index"`
}

// Seasonality is the calendar-month revenue profile of the view.
type Seasonality struct {
	HasSeasonality bool              `json:"hasSeasonality"`
	Patterns       []SeasonalPattern `json:"patterns"`
	PeakMonth      string            `json:"peakMonth,omitempty"`
	PeakIndex      float64           `json:"peakIndex"`
	LowMonth       string            `json:"lowMonth,omitempty"`
	LowIndex       float64           `json:"lowIndex"`
}

// Seasonality indexes each calendar month's average monthly revenue against the
// mean of those averages. It needs at least three distinct months.
func (s *Service) Seasonality() Seasonality {
	months := monthlyTotals(s.view.Rows, s.view.HasInvoice)
	if len(months) < minSeasonalityMonths {
		return Seasonality{Patterns: []SeasonalPattern{}}
	}

	type acc struct {
		sum   float64
		count int
	}
	var byMonth [13]acc
	for _, m := range months {
		month := calendarMonth(m.Period)
		if month == 0 {
			continue
		}
		byMonth[month].sum += m.Revenue
		byMonth[month].count++
	}

	patterns := make([]SeasonalPattern, 0, 12)
	var overall float64
	for month := 1; month <= 12; month++ {
		a := byMonth[month]
		if a.count == 0 {
			continue
		}
		avg := a.sum / float64(a.count)
		overall += avg
		patterns = append(patterns, SeasonalPattern{
			Month:      month,
			MonthName:  time.Month(month).String(),
			Revenue:    a.sum,
			AvgRevenue: avg,
		})
	}
	overall /= float64(len(patterns))

	result := Seasonality{HasSeasonality: true, Patterns: patterns}
	for i := range patterns {
		patterns[i].Index = round1(divide(patterns[i].AvgRevenue, overall) * 100)
		if i == 0 || patterns[i].Index > result.PeakIndex {
			result.PeakMonth, result.PeakIndex = patterns[i].MonthName, patterns[i].Index
		}
		if i == 0 || patterns[i].Index < result.LowIndex {
			result.LowMonth, result.LowIndex = patterns[i].MonthName, patterns[i].Index
		}
	}
	return result
}

// calendarMonth extracts the month number of a "YYYY-MM" period, or 0.
func calendarMonth(period string) int {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return 0
	}
	return int(t.Month())
}
