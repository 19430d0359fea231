package report

import (
	"sort"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

// Company is one brand listed under a category.
type Company struct {
	BrandName string `json:"brand_name"`
	BrandKey  string `json:"brand_key"`
	Color     string `json:"color"`
}

// Category groups the brands discovered for one category.
type Category struct {
	Category  string    `json:"category"`
	Companies []Company `json:"companies"`
}

// Categories groups sources by category, both levels sorted by name.
func Categories(sources []dataset.Source, m *dataset.Manifest) []Category {
	byCat := make(map[string][]Company)
	for _, src := range sources {
		byCat[src.Category] = append(byCat[src.Category], Company{
			BrandName: src.Brand,
			BrandKey:  src.BrandKey,
			Color:     m.Color(src.BrandKey),
		})
	}

	out := make([]Category, 0, len(byCat))
	for name, companies := range byCat {
		sort.SliceStable(companies, func(i, j int) bool {
			return companies[i].BrandName < companies[j].BrandName
		})
		out = append(out, Category{Category: name, Companies: companies})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
