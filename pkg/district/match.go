package district

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/retailmap/pkg/names"
)

// Query is a polygon's resolved (state, district) pair.
type Query struct {
	State    string
	District string
}

// Matcher is one named step of the fallback cascade.
type Matcher struct {
	Name  string
	Match func(ix *Index, q Query) (Stats, bool)
}

// Strategy names, in cascade order.
const (
	StrategyDirect        = "direct"
	StrategyTerritorySelf = "territory_self"
	StrategyTerritoryName = "territory_district"
	StrategyFullSwap      = "full_swap"
	StrategyPrefixStrip   = "prefix_stripped"
	StrategyConcatenation = "concatenation"
	StrategySubstring     = "substring"
)

// minSubstringLen suppresses substring matches on short district names.
const minSubstringLen = 4

// DefaultMatchers returns the cascade in the order it must be tried.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{StrategyDirect, matchDirect},
		{StrategyTerritorySelf, matchTerritorySelf},
		{StrategyTerritoryName, matchTerritoryDistrict},
		{StrategyFullSwap, matchFullSwap},
		{StrategyPrefixStrip, matchPrefixStripped},
		{StrategyConcatenation, matchConcatenation},
		{StrategySubstring, matchSubstring},
	}
}

// ResolveState translates a 3-letter all-uppercase polygon state code
// through codes. Anything else is returned unchanged.
func ResolveState(raw string, codes map[string]string) string {
	if utf8.RuneCountInString(raw) != 3 || !isUpper(raw) {
		return raw
	}
	if full, ok := codes[raw]; ok {
		return full
	}
	return raw
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func matchDirect(ix *Index, q Query) (Stats, bool) {
	return ix.Lookup(names.JoinKey(q.State, q.District))
}

// matchTerritorySelf covers territories whose district shares the
// territory's own name.
func matchTerritorySelf(ix *Index, q Query) (Stats, bool) {
	if q.State == "" || !names.IsTerritory(q.State) {
		return Stats{}, false
	}
	bare := strings.TrimSpace(strings.ReplaceAll(q.State, names.TerritoryPrefix, ""))
	if s, ok := ix.Lookup(names.JoinKey(q.State, bare)); ok {
		return s, true
	}
	variants := []string{
		q.State,
		strings.ReplaceAll(q.State, names.TerritoryPrefix, "W.P. "),
		strings.ReplaceAll(q.State, names.TerritoryPrefix, "WP "),
	}
	for _, v := range variants {
		if s, ok := ix.Lookup(names.JoinKey(v, q.District)); ok {
			return s, true
		}
	}
	return Stats{}, false
}

// matchTerritoryDistrict covers territory rows with swapped or blank
// columns by looking at the district name alone.
func matchTerritoryDistrict(ix *Index, q Query) (Stats, bool) {
	if q.District == "" || !(names.IsTerritory(q.State) || names.IsTerritory(q.District)) {
		return Stats{}, false
	}
	nd := names.Display(q.District)
	if s, ok := ix.LookupTerritory(names.JoinKey("", nd)); ok {
		return s, true
	}
	return ix.Lookup(names.JoinKey(nd, nd))
}

func matchFullSwap(ix *Index, q Query) (Stats, bool) {
	if q.State == "" || q.District == "" {
		return Stats{}, false
	}
	if s, ok := ix.Lookup(names.JoinKey(q.District, q.State)); ok {
		return s, true
	}
	return ix.Lookup(names.JoinKey(names.Display(q.District), names.Display(q.State)))
}

func matchPrefixStripped(ix *Index, q Query) (Stats, bool) {
	if q.District == "" {
		return Stats{}, false
	}
	alt := names.StripTerritoryPrefix(q.District)
	if alt == q.District {
		return Stats{}, false
	}
	return ix.Lookup(names.JoinKey(q.State, alt))
}

// matchConcatenation covers rows where one column holds "District State".
func matchConcatenation(ix *Index, q Query) (Stats, bool) {
	if q.State == "" || q.District == "" {
		return Stats{}, false
	}
	combined := strings.TrimSpace(q.District + " " + q.State)
	if s, ok := ix.Lookup(names.JoinKey(q.State, combined)); ok {
		return s, true
	}
	if s, ok := ix.Lookup(names.JoinKey("", combined)); ok {
		return s, true
	}
	reversed := strings.TrimSpace(q.State + " " + q.District)
	return ix.Lookup(names.JoinKey(q.State, reversed))
}

// matchSubstring scans the primary map in insertion order. It is linear in
// the number of statistics rows.
func matchSubstring(ix *Index, q Query) (Stats, bool) {
	if q.State == "" || q.District == "" {
		return Stats{}, false
	}
	nd := names.Key(q.District)
	ns := names.Key(q.State)
	if nd == "" || utf8.RuneCountInString(nd) < minSubstringLen {
		return Stats{}, false
	}
	for _, key := range ix.order {
		es, ed := names.SplitKey(key)
		if ed == "" {
			continue
		}
		districtHit := strings.Contains(ed, nd) || strings.Contains(nd, ed)
		stateHit := es == "" || strings.Contains(es, ns) || strings.Contains(ns, es)
		if districtHit && stateHit {
			return ix.primary[key], true
		}
	}
	return Stats{}, false
}
