package classifier

import (
	"testing"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		product string
		want    domain.Category
	}{
		{"acute keyword", "PARACETAMOL 500MG", domain.CategoryAcute},
		{"chronic keyword", "METFORMIN 850MG TABS", domain.CategoryChronic},
		{"convenience keyword", "VOLTIC WATER 500ML", domain.CategoryConvenience},
		{"recurring keyword", "PAMPERS SIZE 3", domain.CategoryRecurring},
		{"recurring keyword with space", "NAN 1 INFANT FORMULA", domain.CategoryRecurring},
		{"lower case input", "augmentin 625", domain.CategoryAcute},
		{"no keyword defaults to convenience", "MYSTERY ITEM", domain.CategoryConvenience},
		{"empty name", "", domain.CategoryConvenience},
		// "diclo" (acute) and "water" (convenience) both match; acute is tested first.
		{"priority order wins", "DICLO WATER GEL", domain.CategoryAcute},
		// "insulin" (chronic) and "cotton" (convenience) both match.
		{"chronic before convenience", "INSULIN COTTON SWABS", domain.CategoryChronic},
		// "sure" (convenience) is a substring of "ensure" (recurring).
		{"convenience before recurring", "ENSURE VANILLA 400G", domain.CategoryConvenience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.product); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.product, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	p, ok := Lookup(domain.CategoryAcute)
	if !ok {
		t.Fatal("Lookup(acute) not found")
	}
	if p.Markup != 45 {
		t.Errorf("acute markup = %v, want 45", p.Markup)
	}
	if p.Label != "I need it NOW" {
		t.Errorf("acute label = %q", p.Label)
	}

	if _, ok := Lookup("unknown"); ok {
		t.Error("Lookup(unknown) should not be found")
	}
}

func TestCategories_Order(t *testing.T) {
	got := Categories()
	want := []domain.Category{domain.CategoryAcute, domain.CategoryChronic, domain.CategoryConvenience, domain.CategoryRecurring}
	if len(got) != len(want) {
		t.Fatalf("Categories() len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
