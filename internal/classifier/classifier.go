// Package classifier assigns a behaviour category to a product name by
// keyword matching.
package classifier

import (
	"strings"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

// Profile is the static display metadata of a category.
type Profile struct {
	Category    domain.Category `json:"category"`
	Markup      float64         `json:"markup"` // percent
	Margin      float64         `json:"margin"` // percent
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Keywords    []string        `json:"-"`
}

// MarkupRate returns the suggested markup as a fraction of cost.
func (p Profile) MarkupRate() float64 {
	return p.Markup / 100
}

// priority is the order in which keyword lists are tested.
var priority = []domain.Category{
	domain.CategoryAcute,
	domain.CategoryChronic,
	domain.CategoryConvenience,
	domain.CategoryRecurring,
}

var profiles = map[domain.Category]Profile{
	domain.CategoryAcute: {
		Category:    domain.CategoryAcute,
		Markup:      45,
		Margin:      31,
		Label:       "I need it NOW",
		Description: "Urgent, one-time purchases",
		Keywords: []string{
			"coartem", "lonart", "lufart", "lariam", "malar", "artesunate", "amatem",
			"amoksiklav", "augmentin", "zithromax", "zinnat", "cipro", "azithro", "flagyl",
			"doreta", "celebrex", "voltfast", "diclo", "ibuprofen", "paracetamol", "tramadol",
			"postpill", "postinor", "klovinal", "fluconazole",
			"vermox", "zentel", "albendazole",
			"calpol", "wellbaby", "abidec", "bonnisan", "infacol",
			"ventolin", "benylin", "piriton", "strepsils", "tixylix",
		},
	},
	domain.CategoryChronic: {
		Category:    domain.CategoryChronic,
		Markup:      30,
		Margin:      23.1,
		Label:       "I buy EVERY month",
		Description: "Long-term conditions, price sensitive",
		Keywords: []string{
			"metformin", "galvus", "diamicron", "glimepiride", "insulin", "mixtard", "forxiga",
			"amlodipine", "nifecard", "exforge", "lisinopril", "losartan", "atenolol", "crestor",
			"combigan", "xalatan", "timolol", "blusopt", "bluprost",
			"lyrica", "carbamazepine", "epilim",
			"onetouch", "glucometer", "accu-chek",
			"omeprazole", "nexium", "pantoprazole",
		},
	},
	domain.CategoryConvenience: {
		Category:    domain.CategoryConvenience,
		Markup:      40,
		Margin:      28.6,
		Label:       "I just grabbed it",
		Description: "Impulse, convenience purchases",
		Keywords: []string{
			"water", "cola", "malt", "drink", "juice",
			"dove", "nivea", "vaseline", "sure", "rexona",
			"always", "sanitary", "pad",
			"toothpaste", "toothbrush", "mouthwash",
			"cotton", "bandage", "plaster",
			"snack", "biscuit", "cookie",
			"condom", "durex",
		},
	},
	domain.CategoryRecurring: {
		Category:    domain.CategoryRecurring,
		Markup:      35,
		Margin:      25.9,
		Label:       "I buy this regularly",
		Description: "Regular for a period (baby, pregnancy)",
		Keywords: []string{
			"aptamil", "nan ", "sma ", "lactogen", "cerelac", "similac",
			"pregnacare", "pregna", "folic acid", "ferrous",
			"cocoon", "diaper", "pampers", "huggies",
			"ensure", "glucerna",
		},
	},
}

// Default is the category of products no keyword matches.
const Default = domain.CategoryConvenience

// Classify returns the first category, in priority order, with a keyword
// contained in the lower-cased product name.
func Classify(product string) domain.Category {
	name := strings.ToLower(product)
	for _, c := range priority {
		for _, kw := range profiles[c].Keywords {
			if strings.Contains(name, kw) {
				return c
			}
		}
	}
	return Default
}

// Lookup returns the profile of a category. ok is false for unknown categories.
func Lookup(c domain.Category) (Profile, bool) {
	p, ok := profiles[c]
	return p, ok
}

// Categories returns every category in priority order.
func Categories() []domain.Category {
	return append([]domain.Category(nil), priority...)
}
