package domain

import (
	"testing"

	"cloud.google.com/go/civil"
)

func TestNewTransaction_DerivedFields(t *testing.T) {
	d := civil.Date{Year: 2024, Month: 1, Day: 1}
	tx := NewTransaction(d, "PARACETAMOL", 2, 5, 10, "INV-1", CategoryAcute)

	if tx.Year != 2024 || tx.Month != 1 {
		t.Errorf("year/month = %d/%d, want 2024/1", tx.Year, tx.Month)
	}
	if tx.MonthYear != "2024-01" {
		t.Errorf("MonthYear = %q, want 2024-01", tx.MonthYear)
	}
	if tx.DayOfWeek != "Monday" {
		t.Errorf("DayOfWeek = %q, want Monday", tx.DayOfWeek)
	}
	if tx.Week != 1 {
		t.Errorf("Week = %d, want 1", tx.Week)
	}
}

func TestTable_Filter(t *testing.T) {
	table := &Table{Rows: []Transaction{
		NewTransaction(civil.Date{Year: 2024, Month: 1, Day: 1}, "A", 1, 1, 1, "", CategoryAcute),
		NewTransaction(civil.Date{Year: 2024, Month: 1, Day: 15}, "B", 1, 1, 1, "", CategoryAcute),
		NewTransaction(civil.Date{Year: 2024, Month: 2, Day: 1}, "C", 1, 1, 1, "", CategoryAcute),
	}}

	start := civil.Date{Year: 2024, Month: 1, Day: 15}
	end := civil.Date{Year: 2024, Month: 2, Day: 1}

	tests := []struct {
		name  string
		start *civil.Date
		end   *civil.Date
		want  int
	}{
		{"no bounds", nil, nil, 3},
		{"inclusive both", &start, &end, 2},
		{"start only", &start, nil, 2},
		{"end only", nil, &start, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Filter(tt.start, tt.end)
			if got.Len() != tt.want {
				t.Errorf("Filter() len = %d, want %d", got.Len(), tt.want)
			}
		})
	}

	if table.Len() != 3 {
		t.Errorf("base table mutated: len = %d", table.Len())
	}
}

func TestTable_Range(t *testing.T) {
	table := &Table{Rows: []Transaction{
		NewTransaction(civil.Date{Year: 2024, Month: 3, Day: 5}, "A", 1, 1, 1, "", CategoryAcute),
		NewTransaction(civil.Date{Year: 2023, Month: 12, Day: 31}, "B", 1, 1, 1, "", CategoryAcute),
		NewTransaction(civil.Date{Year: 2024, Month: 3, Day: 1}, "C", 1, 1, 1, "", CategoryAcute),
	}}

	r := table.Range()
	if r.Min != "2023-12-31" || r.Max != "2024-03-05" {
		t.Errorf("Range() = %s..%s", r.Min, r.Max)
	}
	if len(r.Months) != 2 || r.Months[0] != "2023-12" || r.Months[1] != "2024-03" {
		t.Errorf("Range().Months = %v", r.Months)
	}

	empty := &Table{}
	if got := empty.Range(); got.Min != "" || len(got.Months) != 0 {
		t.Errorf("empty Range() = %+v", got)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from civil.Date
		n    int
		want string
	}{
		{civil.Date{Year: 2024, Month: 11, Day: 1}, 1, "2024-12"},
		{civil.Date{Year: 2024, Month: 12, Day: 1}, 1, "2025-01"},
		{civil.Date{Year: 2024, Month: 1, Day: 31}, 1, "2024-02"},
		{civil.Date{Year: 2024, Month: 6, Day: 1}, 6, "2024-12"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := PeriodKey(AddMonths(tt.from, tt.n)); got != tt.want {
				t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.from, tt.n, got, tt.want)
			}
		})
	}
}
