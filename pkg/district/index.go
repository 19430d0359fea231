// Package district attaches district statistics to boundary polygons by
// reconciling free-text state and district names.
package district

import (
	"math"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/names"
)

// Stats are the numeric attributes carried from a statistics row onto a
// polygon. A nil field means "no value".
type Stats struct {
	PopulationK     *float64 `json:"population_k"`
	IncomePerCapita *float64 `json:"income_pc"`
	IncomeTotal     *float64 `json:"income_total"`
}

// StatRow is one row of the district statistics table. State and District
// may be transposed in the source data.
type StatRow struct {
	State    string `json:"state"`
	District string `json:"district"`
	Stats
}

// Index holds the lookup maps built from one statistics table.
type Index struct {
	primary   map[string]Stats
	order     []string
	territory map[string]Stats
	collided  []string
}

// NewIndex builds the primary map (last row wins on key collision) and the
// territory index (first row wins). Rows are never modified.
func NewIndex(rows []StatRow) *Index {
	ix := &Index{
		primary:   make(map[string]Stats, len(rows)),
		territory: make(map[string]Stats),
	}
	for _, row := range rows {
		key := names.JoinKey(row.State, row.District)
		if _, exists := ix.primary[key]; !exists {
			ix.order = append(ix.order, key)
		} else {
			ix.collided = append(ix.collided, key)
		}
		ix.primary[key] = row.Stats
	}

	for _, row := range rows {
		state := strings.TrimSpace(row.State)
		dist := strings.TrimSpace(row.District)
		if !names.IsTerritory(state) && !names.IsTerritory(dist) {
			continue
		}
		nd := names.Display(dist)
		if nd == "" {
			continue
		}
		key := names.JoinKey("", nd)
		if _, exists := ix.territory[key]; !exists {
			ix.territory[key] = row.Stats
		}
	}
	return ix
}

// Lookup returns the primary-map entry for a join key.
func (ix *Index) Lookup(key string) (Stats, bool) {
	s, ok := ix.primary[key]
	return s, ok
}

// LookupTerritory returns the territory-index entry for a join key.
func (ix *Index) LookupTerritory(key string) (Stats, bool) {
	s, ok := ix.territory[key]
	return s, ok
}

// Len is the number of distinct primary keys.
func (ix *Index) Len() int { return len(ix.order) }

// Collisions lists the primary keys that a later row overwrote, once per
// overwrite.
func (ix *Index) Collisions() []string { return ix.collided }

// TerritoryLen is the number of territory-index keys.
func (ix *Index) TerritoryLen() int { return len(ix.territory) }

// Keys returns primary keys in first-insertion order.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// emit converts an optional stat value to a JSON-ready value: nil for
// missing or non-finite numbers.
func emit(v *float64) any {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return *v
}
