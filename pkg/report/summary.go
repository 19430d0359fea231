// Package report builds the counting and validation summaries served next
// to the map data.
package report

import (
	"sort"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

const topCities = 10

// Summary is the location overview of a loaded dataset.
type Summary struct {
	TotalLocations int            `json:"total_locations"`
	Cities         map[string]int `json:"cities"`
	States         map[string]int `json:"states"`
	Brands         map[string]int `json:"brands"`
	DataColumns    []string       `json:"data_columns"`
}

// Count is one ranked value.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize counts stores per city (top ten), state and brand. Only rows
// with both a city and a state are counted; the total covers every row.
func Summarize(ds *dataset.Dataset) *Summary {
	s := &Summary{
		TotalLocations: len(ds.Stores),
		Cities:         map[string]int{},
		States:         map[string]int{},
		Brands:         map[string]int{},
		DataColumns:    ds.Columns,
	}
	if s.DataColumns == nil {
		s.DataColumns = []string{}
	}

	cities := map[string]int{}
	for _, st := range ds.Stores {
		if blank(st.City) || blank(st.State) {
			continue
		}
		cities[st.City]++
		s.States[st.State]++
		brand := st.Brand
		if brand == "" {
			brand = "Unknown"
		}
		s.Brands[brand]++
	}
	for _, c := range Rank(cities, topCities) {
		s.Cities[c.Value] = c.Count
	}
	return s
}

// Rank orders counts descending, ties by value, keeping at most n (n <= 0
// keeps all).
func Rank(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for v, c := range m {
		out = append(out, Count{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}
