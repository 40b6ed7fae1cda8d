package analytics

// KPIs are the headline figures of a view.
type KPIs struct {
	TotalRevenue           float64 `json:"totalRevenue"`
	TotalTransactions      int     `json:"totalTransactions"`
	TotalUnits             float64 `json:"totalUnits"`
	UniqueProducts         int     `json:"uniqueProducts"`
	AvgTransactionValue    float64 `json:"avgTransactionValue"`
	AvgUnitsPerTransaction float64 `json:"avgUnitsPerTransaction"`
	MoMGrowth              float64 `json:"momGrowth"`
}

// KPIs computes the headline figures of the view.
func (s *Service) KPIs() KPIs {
	var k KPIs
	if s.view.Len() == 0 {
		return k
	}

	tx := newTxCounter(s.view.HasInvoice)
	products := make(map[string]struct{})
	for _, r := range s.view.Rows {
		k.TotalRevenue += r.Total
		k.TotalUnits += r.Quantity
		tx.add(r)
		products[r.Product] = struct{}{}
	}

	k.TotalTransactions = tx.count()
	k.UniqueProducts = len(products)
	k.AvgTransactionValue = divide(k.TotalRevenue, float64(k.TotalTransactions))
	k.AvgUnitsPerTransaction = divide(k.TotalUnits, float64(k.TotalTransactions))
	k.MoMGrowth = s.recentGrowth()

	return k
}

// recentGrowth is the revenue growth of the last month over the one before it.
func (s *Service) recentGrowth() float64 {
	months := monthlyTotals(s.view.Rows, s.view.HasInvoice)
	if len(months) < 2 {
		return 0
	}
	return growthPercent(months[len(months)-2].Revenue, months[len(months)-1].Revenue)
}

// TrendPoint is one month of the revenue trend.
type TrendPoint struct {
	PeriodTotals
	Growth float64 `json:"growth"`
}

// RevenueTrend returns monthly totals ascending, with revenue growth against the prior month.
func (s *Service) RevenueTrend() []TrendPoint {
	months := monthlyTotals(s.view.Rows, s.view.HasInvoice)
	out := make([]TrendPoint, len(months))
	for i, m := range months {
		out[i] = TrendPoint{PeriodTotals: m}
		if i > 0 {
			out[i].Growth = growthPercent(months[i-1].Revenue, m.Revenue)
		}
	}
	return out
}

// DayRevenue is the total of one weekday.
type DayRevenue struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
	Units   float64 `json:"units"`
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayOfWeek sums revenue and units per weekday, Monday first. Days without sales are omitted.
func (s *Service) DayOfWeek() []DayRevenue {
	sums := make(map[string]*DayRevenue)
	for _, r := range s.view.Rows {
		d, ok := sums[r.DayOfWeek]
		if !ok {
			d = &DayRevenue{Day: r.DayOfWeek}
			sums[r.DayOfWeek] = d
		}
		d.Revenue += r.Total
		d.Units += r.Quantity
	}

	out := make([]DayRevenue, 0, len(sums))
	for _, day := range weekdays {
		if d, ok := sums[day]; ok {
			out = append(out, *d)
		}
	}
	return out
}
