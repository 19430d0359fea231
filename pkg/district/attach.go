package district

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hazyhaar/retailmap/pkg/names"
)

// Property names written onto every polygon.
const (
	PropPopulation   = "population_k"
	PropIncomePC     = "income_pc"
	PropIncomeTotal  = "income_total"
	maxUnmatchedLogs = 10
)

var (
	defaultStateKeys    = []string{"state", "State", "STATE"}
	defaultDistrictKeys = []string{"district", "District", "DISTRICT", "name"}
)

// Unmatched is a polygon for which no statistics row was found.
type Unmatched struct {
	State    string `json:"state"`
	District string `json:"district"`
}

func (u Unmatched) String() string { return u.State + "|" + u.District }

// Result summarizes one attach pass.
type Result struct {
	Features   int            `json:"features"`
	Matched    int            `json:"matched"`
	ByStrategy map[string]int `json:"by_strategy"`
	Unmatched  []Unmatched    `json:"unmatched"`
}

// Match is the outcome of matching a single (state, district) pair.
type Match struct {
	Query    Query  `json:"query"`
	Strategy string `json:"strategy,omitempty"`
	Stats    Stats  `json:"stats"`
	Found    bool   `json:"found"`
}

// Engine runs the matcher cascade against polygon features.
type Engine struct {
	// StateCodes maps polygon state codes (e.g. "JHR") to statistics-table
	// state names.
	StateCodes   map[string]string
	Matchers     []Matcher
	StateKeys    []string
	DistrictKeys []string
	Logger       *slog.Logger
}

// NewEngine returns an engine with the default cascade and property keys.
func NewEngine(codes map[string]string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		StateCodes:   codes,
		Matchers:     DefaultMatchers(),
		StateKeys:    defaultStateKeys,
		DistrictKeys: defaultDistrictKeys,
		Logger:       logger,
	}
}

// Resolve turns raw polygon names into the query used by the cascade.
func (e *Engine) Resolve(rawState, rawDistrict string) Query {
	return Query{
		State:    ResolveState(rawState, e.StateCodes),
		District: names.Display(rawDistrict),
	}
}

// MatchQuery walks the cascade and stops at the first hit.
func (e *Engine) MatchQuery(ix *Index, q Query) Match {
	for _, m := range e.Matchers {
		if s, ok := m.Match(ix, q); ok {
			return Match{Query: q, Strategy: m.Name, Stats: s, Found: true}
		}
	}
	return Match{Query: q}
}

// Attach builds an index from rows and writes population_k, income_pc and
// income_total onto every feature's properties. Unmatched features get
// explicit nulls. Geometry is left untouched.
func (e *Engine) Attach(fc *FeatureCollection, rows []StatRow) *Result {
	ix := NewIndex(rows)
	if c := ix.Collisions(); len(c) > 0 {
		sample := c
		if len(sample) > maxUnmatchedLogs {
			sample = sample[:maxUnmatchedLogs]
		}
		e.Logger.Warn("duplicate district rows, later rows win", "count", len(c), "sample", sample)
	}
	res := &Result{ByStrategy: make(map[string]int), Unmatched: []Unmatched{}}

	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		res.Features++
		if f.Properties == nil {
			f.Properties = make(map[string]any)
		}
		m := e.matchFeature(ix, f)
		if m.Found {
			res.Matched++
			res.ByStrategy[m.Strategy]++
			f.Properties[PropPopulation] = emit(m.Stats.PopulationK)
			f.Properties[PropIncomePC] = emit(m.Stats.IncomePerCapita)
			f.Properties[PropIncomeTotal] = emit(m.Stats.IncomeTotal)
			continue
		}
		res.Unmatched = append(res.Unmatched, Unmatched{State: m.Query.State, District: m.Query.District})
		f.Properties[PropPopulation] = nil
		f.Properties[PropIncomePC] = nil
		f.Properties[PropIncomeTotal] = nil
	}

	if n := len(res.Unmatched); n > 0 {
		sample := res.Unmatched
		if n > maxUnmatchedLogs {
			sample = sample[:maxUnmatchedLogs]
		}
		pairs := make([]string, len(sample))
		for i, u := range sample {
			pairs[i] = u.String()
		}
		e.Logger.Warn("districts could not be matched", "count", n, "sample", pairs)
	}
	e.Logger.Debug("district stats attached",
		"features", res.Features, "matched", res.Matched,
		"rows", len(rows), "keys", ix.Len(), "territory_keys", ix.TerritoryLen())
	return res
}

// matchFeature never panics; an unexpected failure takes the unmatched path.
func (e *Engine) matchFeature(ix *Index, f *Feature) (m Match) {
	rawState := firstProp(f.Properties, e.StateKeys)
	rawDistrict := firstProp(f.Properties, e.DistrictKeys)
	q := e.Resolve(rawState, rawDistrict)
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Warn("district match failed", "state", q.State, "district", q.District, "panic", fmt.Sprint(r))
			m = Match{Query: q}
		}
	}()
	return e.MatchQuery(ix, q)
}

// firstProp returns the first non-empty value among keys, as text.
func firstProp(props map[string]any, keys []string) string {
	for _, k := range keys {
		if s := propText(props[k]); s != "" {
			return s
		}
	}
	return ""
}

func propText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
	}
	return ""
}
