package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pharmainsight/internal/classifier"
	"github.com/dvloznov/pharmainsight/internal/domain"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("civil.ParseDate(%q): %v", s, err)
	}
	return d
}

func sale(t *testing.T, date, product string, qty, total float64, invoice string) domain.Transaction {
	t.Helper()
	return domain.NewTransaction(mustDate(t, date), product, qty, 0, total, invoice, classifier.Classify(product))
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestKPIs(t *testing.T) {
	table := &domain.Table{
		HasInvoice: true,
		Rows: []domain.Transaction{
			sale(t, "2024-01-10", "PARACETAMOL 500MG", 2, 60, "INV1"),
			sale(t, "2024-01-10", "VITAMIN C", 1, 40, "INV1"),
			sale(t, "2024-02-03", "PARACETAMOL 500MG", 3, 150, "INV2"),
		},
	}

	k := NewService(table, nil, nil).KPIs()

	if k.TotalRevenue != 250 {
		t.Errorf("TotalRevenue = %v, want 250", k.TotalRevenue)
	}
	if k.TotalTransactions != 2 {
		t.Errorf("TotalTransactions = %d, want 2", k.TotalTransactions)
	}
	if k.TotalUnits != 6 {
		t.Errorf("TotalUnits = %v, want 6", k.TotalUnits)
	}
	if k.UniqueProducts != 2 {
		t.Errorf("UniqueProducts = %d, want 2", k.UniqueProducts)
	}
	if k.AvgTransactionValue != 125 {
		t.Errorf("AvgTransactionValue = %v, want 125", k.AvgTransactionValue)
	}
	if k.AvgUnitsPerTransaction != 3 {
		t.Errorf("AvgUnitsPerTransaction = %v, want 3", k.AvgUnitsPerTransaction)
	}
	if k.MoMGrowth != 50 {
		t.Errorf("MoMGrowth = %v, want 50", k.MoMGrowth)
	}
}

func TestKPIs_MoMGrowthEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.Transaction
		want float64
	}{
		{
			name: "single month",
			rows: []domain.Transaction{sale(t, "2024-01-10", "A", 1, 100, "")},
			want: 0,
		},
		{
			name: "previous month zero",
			rows: []domain.Transaction{
				sale(t, "2024-01-10", "A", 1, 0, ""),
				sale(t, "2024-02-10", "A", 1, 100, ""),
			},
			want: 0,
		},
		{
			name: "decline",
			rows: []domain.Transaction{
				sale(t, "2024-01-10", "A", 1, 200, ""),
				sale(t, "2024-02-10", "A", 1, 50, ""),
			},
			want: -75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewService(&domain.Table{Rows: tt.rows}, nil, nil).KPIs().MoMGrowth
			if got != tt.want {
				t.Errorf("MoMGrowth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyView(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{sale(t, "2024-01-10", "A", 1, 100, "")}}
	start := mustDate(t, "2025-01-01")
	svc := NewService(table, &start, nil)

	if k := svc.KPIs(); k != (KPIs{}) {
		t.Errorf("KPIs() = %+v, want zero value", k)
	}
	if got := svc.RevenueTrend(); len(got) != 0 {
		t.Errorf("RevenueTrend() len = %d, want 0", len(got))
	}
	if got := svc.ABC(); len(got.Summary) != 0 || len(got.Details) != 0 {
		t.Errorf("ABC() = %+v, want empty", got)
	}
	if got := svc.InventoryAlerts(); got.FastMoversCount != 0 || got.DeadStockCount != 0 {
		t.Errorf("InventoryAlerts() = %+v, want empty", got)
	}
	if got := svc.Seasonality(); got.HasSeasonality {
		t.Error("Seasonality().HasSeasonality = true, want false")
	}
	if got := svc.PreliminaryAnalysis(); got.Error == "" {
		t.Error("PreliminaryAnalysis().Error is empty, want a no-data message")
	}
	// Search ignores the date filter.
	if got := svc.Search("A", 0); len(got) != 1 {
		t.Errorf("Search() len = %d, want 1", len(got))
	}
}

func TestRevenueTrend(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-03-01", "A", 1, 300, ""),
		sale(t, "2024-01-05", "A", 2, 100, ""),
		sale(t, "2024-02-05", "A", 1, 200, ""),
		sale(t, "2024-02-06", "B", 1, 0, ""),
	}}

	trend := NewService(table, nil, nil).RevenueTrend()

	if len(trend) != 3 {
		t.Fatalf("RevenueTrend() len = %d, want 3", len(trend))
	}
	wantPeriods := []string{"2024-01", "2024-02", "2024-03"}
	wantGrowth := []float64{0, 100, 50}
	for i := range trend {
		if trend[i].Period != wantPeriods[i] {
			t.Errorf("trend[%d].Period = %q, want %q", i, trend[i].Period, wantPeriods[i])
		}
		if trend[i].Growth != wantGrowth[i] {
			t.Errorf("trend[%d].Growth = %v, want %v", i, trend[i].Growth, wantGrowth[i])
		}
	}
	if trend[1].Transactions != 2 {
		t.Errorf("trend[1].Transactions = %d, want 2 (row count without invoices)", trend[1].Transactions)
	}
}

func TestCategoryPerformance_SumsToTotal(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "PARACETAMOL 500MG", 1, 123.45, ""),
		sale(t, "2024-01-02", "METFORMIN 850MG", 1, 310.10, ""),
		sale(t, "2024-01-03", "VOLTIC WATER", 1, 77.70, ""),
		sale(t, "2024-01-04", "PAMPERS SIZE 3", 1, 501.33, ""),
		sale(t, "2024-01-05", "IBUPROFEN 400MG", 1, 10, ""),
	}}

	perf := NewService(table, nil, nil).CategoryPerformance()

	if len(perf) != 4 {
		t.Fatalf("CategoryPerformance() len = %d, want 4", len(perf))
	}
	var revenue, pct float64
	for i, c := range perf {
		revenue += c.Revenue
		pct += c.Percentage
		if i > 0 && c.Revenue > perf[i-1].Revenue {
			t.Errorf("categories not sorted by revenue at %d", i)
		}
		if c.Label == "" || c.SuggestedMarkup == 0 {
			t.Errorf("category %q missing label or markup", c.Category)
		}
	}
	if math.Abs(revenue-1022.58) > 1e-6 {
		t.Errorf("category revenue sum = %v, want 1022.58", revenue)
	}
	if math.Abs(pct-100) > 0.1+1e-9 {
		t.Errorf("category percentage sum = %v, want 100 +/- 0.1", pct)
	}
	if perf[0].Category != domain.CategoryRecurring {
		t.Errorf("top category = %q, want recurring", perf[0].Category)
	}
}

func TestABC_BoundariesInclusive(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "Z", 1, 50, ""),
		sale(t, "2024-01-01", "X", 1, 800, ""),
		sale(t, "2024-01-01", "Y", 1, 150, ""),
	}}

	abc := NewService(table, nil, nil).ABC()

	wantClass := map[string]string{"X": ClassA, "Y": ClassB, "Z": ClassC}
	if len(abc.Details) != 3 {
		t.Fatalf("Details len = %d, want 3", len(abc.Details))
	}
	for _, d := range abc.Details {
		if d.Class != wantClass[d.Product] {
			t.Errorf("product %s class = %s, want %s", d.Product, d.Class, wantClass[d.Product])
		}
	}
	if abc.Details[0].Product != "X" || abc.Details[0].CumulativePct != 0.8 {
		t.Errorf("first detail = %+v, want X at 0.8", abc.Details[0])
	}

	a, b, c := abc.Counts()
	if a != 1 || b != 1 || c != 1 {
		t.Errorf("Counts() = %d/%d/%d, want 1/1/1", a, b, c)
	}
	wantPct := map[string]float64{ClassA: 80, ClassB: 15, ClassC: 5}
	for _, s := range abc.Summary {
		if s.Percentage != wantPct[s.Class] {
			t.Errorf("class %s percentage = %v, want %v", s.Class, s.Percentage, wantPct[s.Class])
		}
	}
}

func TestABC_ZeroRevenue(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "X", 1, 0, ""),
		sale(t, "2024-01-01", "Y", 1, 0, ""),
	}}

	a, b, c := NewService(table, nil, nil).ABC().Counts()
	if a+b+c != 2 {
		t.Errorf("class counts sum = %d, want 2", a+b+c)
	}
}

func TestDayOfWeek_Order(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-07", "A", 1, 70, ""), // Sunday
		sale(t, "2024-01-03", "A", 1, 30, ""), // Wednesday
		sale(t, "2024-01-01", "A", 1, 10, ""), // Monday
		sale(t, "2024-01-08", "A", 1, 5, ""),  // Monday
	}}

	days := NewService(table, nil, nil).DayOfWeek()

	want := []DayRevenue{
		{Day: "Monday", Revenue: 15, Units: 2},
		{Day: "Wednesday", Revenue: 30, Units: 1},
		{Day: "Sunday", Revenue: 70, Units: 1},
	}
	if len(days) != len(want) {
		t.Fatalf("DayOfWeek() len = %d, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %+v, want %+v", i, days[i], want[i])
		}
	}
}

func TestTopProducts(t *testing.T) {
	table := &domain.Table{HasInvoice: true, Rows: []domain.Transaction{
		sale(t, "2024-01-01", "A", 4, 40, "1"),
		sale(t, "2024-01-02", "A", 2, 20, "2"),
		sale(t, "2024-01-01", "B", 1, 100, "1"),
		sale(t, "2024-01-01", "C", 1, 5, "3"),
	}}

	top := NewService(table, nil, nil).TopProducts(2)

	if len(top) != 2 {
		t.Fatalf("TopProducts(2) len = %d, want 2", len(top))
	}
	if top[0].Name != "B" || top[1].Name != "A" {
		t.Errorf("TopProducts order = %s,%s; want B,A", top[0].Name, top[1].Name)
	}
	if top[1].Transactions != 2 || top[1].AvgQtyPerTxn != 3 {
		t.Errorf("A transactions/avg = %d/%v, want 2/3", top[1].Transactions, top[1].AvgQtyPerTxn)
	}
}

func TestProductDetail(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "PARACETAMOL 500MG", 2, 20, ""),
		sale(t, "2024-02-01", "PARACETAMOL 500MG", 4, 40, ""),
		sale(t, "2024-02-01", "VITAMIN C", 1, 10, ""),
	}}
	svc := NewService(table, nil, nil)

	detail, err := svc.ProductDetail("PARACETAMOL 500MG")
	if err != nil {
		t.Fatalf("ProductDetail() unexpected error: %v", err)
	}
	if detail.TotalRevenue != 60 || detail.TotalUnits != 6 || detail.TotalTransactions != 2 {
		t.Errorf("detail totals = %+v", detail)
	}
	if detail.AvgQtyPerTransaction != 3 {
		t.Errorf("AvgQtyPerTransaction = %v, want 3", detail.AvgQtyPerTransaction)
	}
	if detail.Category != domain.CategoryAcute || detail.SuggestedMarkup != 45 {
		t.Errorf("category/markup = %s/%v, want acute/45", detail.Category, detail.SuggestedMarkup)
	}
	if len(detail.MonthlyTrend) != 2 {
		t.Errorf("MonthlyTrend len = %d, want 2", len(detail.MonthlyTrend))
	}

	if _, err := svc.ProductDetail("paracetamol 500mg"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("ProductDetail(lower case) error = %v, want ErrProductNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "PARASOL CREAM", 1, 50, ""),
		sale(t, "2024-01-01", "PARACETAMOL 500MG", 1, 500, ""),
		sale(t, "2024-01-01", "VITAMIN C", 1, 20, ""),
		sale(t, "2024-01-01", "COUGH SYRUP", 1, 30, ""),
	}}
	svc := NewService(table, nil, nil)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"substring ranked by revenue", "PARA", 0, []string{"PARACETAMOL 500MG", "PARASOL CREAM"}},
		{"case insensitive", "  para ", 0, []string{"PARACETAMOL 500MG", "PARASOL CREAM"}},
		{"limit", "PARA", 1, []string{"PARACETAMOL 500MG"}},
		{"token fallback", "vitamin syrup", 0, []string{"COUGH SYRUP", "VITAMIN C"}},
		{"no match", "insulin", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Search(tt.query, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) len = %d, want %d", tt.query, len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].Name != tt.want[i] {
					t.Errorf("Search(%q)[%d] = %s, want %s", tt.query, i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestCompare_SkipsUnknown(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "A", 2, 20, ""),
		sale(t, "2024-01-01", "B", 1, 10, ""),
	}}

	got := NewService(table, nil, nil).Compare([]string{"B", "MISSING", "A"})

	if len(got.Products) != 2 {
		t.Fatalf("Compare() len = %d, want 2", len(got.Products))
	}
	if got.Products[0].Name != "B" || got.Products[1].Name != "A" {
		t.Errorf("Compare() order = %s,%s; want B,A", got.Products[0].Name, got.Products[1].Name)
	}
}

func TestInventoryAlerts_DeadStock(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-30", "STALE", 1, 10, ""),  // 61 days before 2024-03-31
		sale(t, "2024-02-01", "RECENT", 1, 10, ""), // 59 days before
		sale(t, "2024-03-31", "FRESH", 1, 10, ""),
	}}

	alerts := NewService(table, nil, nil).InventoryAlerts()

	if alerts.DeadStockCount != 1 || len(alerts.DeadStock) != 1 {
		t.Fatalf("dead stock = %+v, want exactly STALE", alerts.DeadStock)
	}
	if alerts.DeadStock[0].Product != "STALE" || alerts.DeadStock[0].DaysSinceLastSale != 61 {
		t.Errorf("dead stock[0] = %+v, want STALE at 61 days", alerts.DeadStock[0])
	}
}

func TestInventoryAlerts_FastMoversCapped(t *testing.T) {
	var rows []domain.Transaction
	names := []string{"P01", "P02", "P03", "P04", "P05", "P06", "P07", "P08", "P09", "P10",
		"P11", "P12", "P13", "P14", "P15", "P16", "P17", "P18", "P19", "P20"}
	for i, name := range names {
		rows = append(rows, sale(t, "2024-01-01", name, 1, float64(i+1), ""))
	}
	// 120 identical top sellers push more than ten products over the threshold.
	for i := 0; i < 120; i++ {
		name := "TOP" + string(rune('A'+i%26)) + string(rune('A'+i/26))
		rows = append(rows, sale(t, "2024-01-01", name, 1, 1000, ""))
	}
	svc := NewService(&domain.Table{Rows: rows}, nil, nil)

	capped := svc.InventoryAlerts()
	all := svc.AllInventoryAlerts()

	if len(capped.FastMovers) != 10 {
		t.Errorf("capped fast movers = %d, want 10", len(capped.FastMovers))
	}
	if capped.FastMoversCount != 120 || all.FastMoversCount != 120 {
		t.Errorf("fast mover counts = %d/%d, want 120/120", capped.FastMoversCount, all.FastMoversCount)
	}
	if len(all.FastMovers) != 120 {
		t.Errorf("uncapped fast movers = %d, want 120", len(all.FastMovers))
	}
}

func TestInventoryAlerts_SingleTopDecile(t *testing.T) {
	var rows []domain.Transaction
	for i := 1; i <= 10; i++ {
		rows = append(rows, sale(t, "2024-01-01", string(rune('A'+i-1)), 1, float64(i), ""))
	}

	alerts := NewService(&domain.Table{Rows: rows}, nil, nil).InventoryAlerts()

	if alerts.FastMoversCount != 1 || alerts.FastMovers[0].Product != "J" {
		t.Errorf("fast movers = %+v, want only J", alerts.FastMovers)
	}
}

func TestReorderSuggestions(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-01", "A", 10, 100, ""),
		sale(t, "2024-01-31", "A", 20, 200, ""), // 30 days: one elapsed month
		sale(t, "2024-01-15", "B", 5, 500, ""),
	}}

	got := NewService(table, nil, nil).ReorderSuggestions(2)

	if len(got) != 2 {
		t.Fatalf("ReorderSuggestions() len = %d, want 2", len(got))
	}
	if got[0].Product != "B" {
		t.Errorf("first suggestion = %s, want B (highest monthly revenue)", got[0].Product)
	}
	// A: 30 units/month * 2 months * 1.2 = 72.
	if got[1].SuggestedReorder != 72 {
		t.Errorf("A reorder = %v, want 72", got[1].SuggestedReorder)
	}
	// B: 5 * 2 * 1.2 = 12.
	if got[0].SuggestedReorder != 12 {
		t.Errorf("B reorder = %v, want 12", got[0].SuggestedReorder)
	}
}

func TestSeasonality(t *testing.T) {
	t.Run("too few months", func(t *testing.T) {
		table := &domain.Table{Rows: []domain.Transaction{
			sale(t, "2024-01-01", "A", 1, 100, ""),
			sale(t, "2024-02-01", "A", 1, 100, ""),
		}}
		got := NewService(table, nil, nil).Seasonality()
		if got.HasSeasonality || len(got.Patterns) != 0 {
			t.Errorf("Seasonality() = %+v, want unavailable", got)
		}
	})

	t.Run("flat year", func(t *testing.T) {
		var rows []domain.Transaction
		for m := 1; m <= 12; m++ {
			d := civil.Date{Year: 2024, Month: time.Month(m), Day: 15}
			rows = append(rows, domain.NewTransaction(d, "A", 1, 0, 1000, "", domain.CategoryConvenience))
		}
		got := NewService(&domain.Table{Rows: rows}, nil, nil).Seasonality()
		if !got.HasSeasonality || len(got.Patterns) != 12 {
			t.Fatalf("Seasonality() = %+v, want 12 patterns", got)
		}
		for _, p := range got.Patterns {
			if p.Index != 100 {
				t.Errorf("%s index = %v, want 100", p.MonthName, p.Index)
			}
		}
	})

	t.Run("peak and low", func(t *testing.T) {
		table := &domain.Table{Rows: []domain.Transaction{
			sale(t, "2023-12-10", "A", 1, 300, ""),
			sale(t, "2024-01-10", "A", 1, 100, ""),
			sale(t, "2024-02-10", "A", 1, 200, ""),
			sale(t, "2024-12-10", "A", 1, 300, ""),
		}}
		got := NewService(table, nil, nil).Seasonality()
		if got.PeakMonth != "December" || got.LowMonth != "January" {
			t.Errorf("peak/low = %s/%s, want December/January", got.PeakMonth, got.LowMonth)
		}
		// December averages 300 across two years; the mean of monthly averages is 200.
		if got.PeakIndex != 150 || got.LowIndex != 50 {
			t.Errorf("peak/low index = %v/%v, want 150/50", got.PeakIndex, got.LowIndex)
		}
	})
}

func TestPreliminaryAnalysis(t *testing.T) {
	table := &domain.Table{Rows: []domain.Transaction{
		sale(t, "2024-01-10", "X", 1, 800, ""),
		sale(t, "2024-01-10", "Y", 1, 150, ""),
		sale(t, "2024-01-10", "Z", 1, 50, ""),
		sale(t, "2024-04-10", "X", 1, 100, ""),
	}}

	p := NewService(table, nil, nil).PreliminaryAnalysis()

	if p.Summary.OverallTrend != TrendDeclining {
		t.Errorf("OverallTrend = %s, want declining", p.Summary.OverallTrend)
	}
	if !approxEqual(p.Summary.RecentGrowth, -90) {
		t.Errorf("RecentGrowth = %v, want -90", p.Summary.RecentGrowth)
	}
	if p.DeadStockCount != 2 {
		t.Errorf("DeadStockCount = %d, want 2", p.DeadStockCount)
	}
	// X alone is 82% of revenue, so it is Class B and the two others are Class C.
	if len(p.Issues) != 2 {
		t.Errorf("Issues = %v, want revenue decline and Class C share", p.Issues)
	}
	if len(p.Recommendations) != 2 {
		t.Errorf("Recommendations = %v, want Class A focus and dead stock review", p.Recommendations)
	}
	if p.ABCSummary != (ABCCounts{ClassA: 0, ClassB: 1, ClassC: 2}) {
		t.Errorf("ABCSummary = %+v, want 0/1/2", p.ABCSummary)
	}
}
