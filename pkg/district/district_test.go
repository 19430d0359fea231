package district

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
)

var testCodes = map[string]string{
	"JHR": "Johor",
	"SGR": "Selangor",
	"WPK": "Wp Kuala Lumpur",
	"KUL": "Wp Kuala Lumpur",
	"LBN": "Wp Labuan",
	"PJY": "Wp Putrajaya",
}

func num(v float64) *float64 { return &v }

func quietEngine() *Engine {
	return NewEngine(testCodes, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func row(state, district string, pop float64) StatRow {
	return StatRow{State: state, District: district, Stats: Stats{PopulationK: num(pop), IncomePerCapita: num(pop / 10), IncomeTotal: num(pop * 10)}}
}

func feature(props map[string]any) *Feature {
	return &Feature{Type: "Feature", Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[]}`), Properties: props}
}

func TestResolveState(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"JHR", "Johor"},
		{"WPK", "Wp Kuala Lumpur"},
		{"KUL", "Wp Kuala Lumpur"},
		{"XYZ", "XYZ"},
		{"Jhr", "Jhr"},
		{"Johor", "Johor"},
		{"123", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveState(tt.raw, testCodes); got != tt.want {
			t.Errorf("ResolveState(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewIndex_PrimaryLastWriteWins(t *testing.T) {
	ix := NewIndex([]StatRow{
		row("Selangor", "Petaling", 1),
		row("Johor", "Muar", 5),
		row("SELANGOR", "petaling.", 2),
	})
	if ix.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ix.Len())
	}
	s, ok := ix.Lookup("selangor|petaling")
	if !ok || *s.PopulationK != 2 {
		t.Errorf("collision winner = %v, want later row (2)", s.PopulationK)
	}
	keys := ix.Keys()
	if keys[0] != "selangor|petaling" || keys[1] != "johor|muar" {
		t.Errorf("Keys = %v, want first-insertion order", keys)
	}
	if c := ix.Collisions(); len(c) != 1 || c[0] != "selangor|petaling" {
		t.Errorf("Collisions = %v", c)
	}
}

func TestNewIndex_TerritoryFirstWriteWins(t *testing.T) {
	a := row("Wp Labuan", "Labuan", 1)
	b := row("W.P. Labuan", "Labuan", 2)

	ix := NewIndex([]StatRow{a, b})
	s, ok := ix.LookupTerritory("|labuan")
	if !ok || *s.PopulationK != 1 {
		t.Errorf("territory winner = %v, want first row (1)", s.PopulationK)
	}
	p, _ := ix.Lookup("wplabuan|labuan")
	if *p.PopulationK != 2 {
		t.Errorf("primary winner = %v, want last row (2)", *p.PopulationK)
	}

	again := NewIndex([]StatRow{a, b})
	s2, _ := again.LookupTerritory("|labuan")
	if *s2.PopulationK != *s.PopulationK {
		t.Error("rebuilding from the same rows changed the territory winner")
	}

	reordered := NewIndex([]StatRow{b, a})
	s3, _ := reordered.LookupTerritory("|labuan")
	if *s3.PopulationK != 2 {
		t.Errorf("reordered territory winner = %v, want 2", *s3.PopulationK)
	}
}

func TestNewIndex_TerritoryOnlyMarkedRows(t *testing.T) {
	ix := NewIndex([]StatRow{
		row("Selangor", "Petaling", 1),
		row("Kuala Lumpur", "WP Kuala Lumpur", 2),
		row("Wp Putrajaya", "", 3),
	})
	if ix.TerritoryLen() != 1 {
		t.Fatalf("TerritoryLen = %d, want 1", ix.TerritoryLen())
	}
	if _, ok := ix.LookupTerritory("|wpkualalumpur"); !ok {
		t.Error("expected territory key for display-normalized district")
	}
}

func TestMatchQuery_Strategies(t *testing.T) {
	rows := []StatRow{
		row("Wp Kuala Lumpur", "Kuala Lumpur", 1800),
		row("Selangor", "Petaling Selangor", 2300),
		row("Putrajaya", "W.P. Putrajaya", 110),
		row("", "Wp Labuan", 95),
		row("Sabah", "Tawau", 410),
		row("Sarawak", "Kuching", 700),
		row("Perak", "Ipoh Barat", 750),
		row("Johor", "Johor Bahru", 1700),
	}
	e := quietEngine()
	ix := NewIndex(rows)

	tests := []struct {
		name, state, district string
		strategy              string
		pop                   float64
	}{
		{"code translation then direct", "WPK", "Kuala Lumpur", StrategyDirect, 1800},
		{"territory self name", "KUL", "Kuala Lumpur Bandar", StrategyTerritorySelf, 1800},
		{"territory district index", "LBN", "WP Labuan", StrategyTerritoryName, 95},
		{"swapped territory columns", "PJY", "Putrajaya", StrategyFullSwap, 110},
		{"plain swap", "Tawau", "Sabah", StrategyFullSwap, 410},
		{"territory prefix on district", "Sarawak", "Wp Kuching", StrategyPrefixStrip, 700},
		{"district state concatenation", "Selangor", "Petaling", StrategyConcatenation, 2300},
		{"state district concatenation", "JHR", "Bahru", StrategyConcatenation, 1700},
		{"substring", "Perak", "Ipoh", StrategySubstring, 750},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := e.MatchQuery(ix, e.Resolve(tt.state, tt.district))
			if !m.Found {
				t.Fatalf("no match for %s|%s", tt.state, tt.district)
			}
			if m.Strategy != tt.strategy {
				t.Errorf("strategy = %s, want %s", m.Strategy, tt.strategy)
			}
			if *m.Stats.PopulationK != tt.pop {
				t.Errorf("population_k = %v, want %v", *m.Stats.PopulationK, tt.pop)
			}
		})
	}
}

func TestMatchQuery_DirectWinsOverLaterStrategies(t *testing.T) {
	ix := NewIndex([]StatRow{
		row("Selangor", "Petaling Selangor", 1),
		row("Selangor", "Petaling", 2),
	})
	e := quietEngine()
	m := e.MatchQuery(ix, e.Resolve("SGR", "Petaling"))
	if m.Strategy != StrategyDirect || *m.Stats.PopulationK != 2 {
		t.Errorf("got %s/%v, want direct/2", m.Strategy, *m.Stats.PopulationK)
	}
}

func TestMatchQuery_SubstringMinLength(t *testing.T) {
	ix := NewIndex([]StatRow{row("Perak", "Ipoh Barat", 750)})
	e := quietEngine()

	if m := e.MatchQuery(ix, e.Resolve("Perak", "Ipo")); m.Found {
		t.Errorf("3-char district matched via %s", m.Strategy)
	}
	if m := e.MatchQuery(ix, e.Resolve("Perak", "I.p.o")); m.Found {
		t.Errorf("3-char normalized district matched via %s", m.Strategy)
	}
	if m := e.MatchQuery(ix, e.Resolve("Perak", "Ipoh")); !m.Found {
		t.Error("4-char district should match by substring")
	}
}

func TestMatchQuery_SubstringFirstInsertedWins(t *testing.T) {
	ix := NewIndex([]StatRow{
		row("Kedah", "Kota Setar Utara", 1),
		row("Kedah", "Kota Setar Selatan", 2),
	})
	e := quietEngine()
	m := e.MatchQuery(ix, e.Resolve("Kedah", "Kota Setar"))
	if m.Strategy != StrategySubstring || *m.Stats.PopulationK != 1 {
		t.Errorf("got %s/%v, want substring/1", m.Strategy, m.Stats.PopulationK)
	}
}

func TestMatchQuery_SubstringEmptyEntryState(t *testing.T) {
	ix := NewIndex([]StatRow{row("", "Kinabatangan", 150)})
	e := quietEngine()
	m := e.MatchQuery(ix, e.Resolve("Sabah", "Kinabatang"))
	if !m.Found || m.Strategy != StrategySubstring {
		t.Errorf("got %+v, want substring match against blank-state row", m)
	}
}

func TestAttach(t *testing.T) {
	fc := NewFeatureCollection()
	fc.Features = append(fc.Features,
		feature(map[string]any{"state": "WPK", "name": "Kuala Lumpur"}),
		feature(map[string]any{"State": "Selangor", "District": "Petaling"}),
		feature(map[string]any{"STATE": "Kelantan", "DISTRICT": "Gua Musang", PropPopulation: 42.0}),
		feature(nil),
	)
	rows := []StatRow{
		row("Wp Kuala Lumpur", "Kuala Lumpur", 1800),
		row("Selangor", "Petaling Selangor", 2300),
	}

	res := quietEngine().Attach(fc, rows)

	if res.Features != 4 || res.Matched != 2 {
		t.Fatalf("features/matched = %d/%d, want 4/2", res.Features, res.Matched)
	}
	if got := fc.Features[0].Properties[PropPopulation]; got != 1800.0 {
		t.Errorf("KL population_k = %v, want 1800", got)
	}
	if got := fc.Features[1].Properties[PropIncomeTotal]; got != 23000.0 {
		t.Errorf("Petaling income_total = %v, want 23000", got)
	}
	if res.ByStrategy[StrategyDirect] != 1 || res.ByStrategy[StrategyConcatenation] != 1 {
		t.Errorf("ByStrategy = %v", res.ByStrategy)
	}

	for _, i := range []int{2, 3} {
		props := fc.Features[i].Properties
		for _, k := range []string{PropPopulation, PropIncomePC, PropIncomeTotal} {
			v, ok := props[k]
			if !ok {
				t.Errorf("feature %d: %s absent, want explicit null", i, k)
			}
			if v != nil {
				t.Errorf("feature %d: %s = %v, want nil", i, k, v)
			}
		}
	}
	if len(res.Unmatched) != 2 {
		t.Fatalf("unmatched = %v, want 2 entries", res.Unmatched)
	}
	if res.Unmatched[0] != (Unmatched{State: "Kelantan", District: "Gua Musang"}) {
		t.Errorf("unmatched[0] = %+v", res.Unmatched[0])
	}
}

func TestAttach_NonFiniteEmittedAsNull(t *testing.T) {
	fc := NewFeatureCollection()
	fc.Features = append(fc.Features, feature(map[string]any{"state": "Johor", "district": "Muar"}))
	rows := []StatRow{{State: "Johor", District: "Muar", Stats: Stats{
		PopulationK:     num(math.NaN()),
		IncomePerCapita: num(math.Inf(1)),
		IncomeTotal:     nil,
	}}}

	res := quietEngine().Attach(fc, rows)
	if res.Matched != 1 {
		t.Fatalf("matched = %d, want 1", res.Matched)
	}
	for _, k := range []string{PropPopulation, PropIncomePC, PropIncomeTotal} {
		if v := fc.Features[0].Properties[k]; v != nil {
			t.Errorf("%s = %v, want nil", k, v)
		}
	}
	if _, err := json.Marshal(fc); err != nil {
		t.Errorf("marshal: %v", err)
	}
}

func TestAttach_PanicFallsBackToUnmatched(t *testing.T) {
	e := quietEngine()
	e.Matchers = []Matcher{
		{Name: "boom", Match: func(*Index, Query) (Stats, bool) { panic("bad value") }},
	}
	fc := NewFeatureCollection()
	fc.Features = append(fc.Features,
		feature(map[string]any{"state": "Johor", "district": "Muar"}),
		feature(map[string]any{"state": "Johor", "district": "Batu Pahat"}),
	)

	res := e.Attach(fc, []StatRow{row("Johor", "Muar", 1)})
	if res.Features != 2 || len(res.Unmatched) != 2 {
		t.Errorf("result = %+v, want both features unmatched", res)
	}
}

func TestAttach_Deterministic(t *testing.T) {
	src := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[101.5,3.1],[101.7,3.1],[101.7,3.2],[101.5,3.1]]]},"properties":{"state":"WPK","name":"Kuala Lumpur","code":12}},` +
		`{"type":"Feature","geometry":null,"properties":{"state":"Perak","name":"Kinta"}},` +
		`{"type":"Feature","geometry":{"type":"Point","coordinates":[100.1,4.6]},"properties":{"state":"Perak","name":"Ipoh"}}]}`
	rows := []StatRow{
		row("Wp Kuala Lumpur", "Kuala Lumpur", 1800),
		row("Perak", "Ipoh Barat", 750),
		row("Perak", "Ipoh Timur", 760),
	}

	run := func() []byte {
		fc, err := ReadFeatureCollection(strings.NewReader(src))
		if err != nil {
			t.Fatalf("ReadFeatureCollection: %v", err)
		}
		quietEngine().Attach(fc, rows)
		out, err := json.Marshal(fc)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return out
	}

	first := run()
	for i := 0; i < 5; i++ {
		if !bytes.Equal(first, run()) {
			t.Fatal("attach output differs between runs")
		}
	}
	if !bytes.Contains(first, []byte(`[[[101.5,3.1],[101.7,3.1],[101.7,3.2],[101.5,3.1]]]`)) {
		t.Error("geometry was modified")
	}
	if !bytes.Contains(first, []byte(`"code":12`)) {
		t.Error("existing numeric property was not kept verbatim")
	}
	if !bytes.Contains(first, []byte(`"geometry":null`)) {
		t.Error("null geometry not preserved")
	}
}

func TestAttach_CollisionLogIsCapped(t *testing.T) {
	var rows []StatRow
	for i := 1; i <= 15; i++ {
		d := fmt.Sprintf("D%02d", i)
		rows = append(rows, row("Perak", d, 1), row("Perak", d, 2))
	}
	var buf bytes.Buffer
	e := NewEngine(testCodes, slog.New(slog.NewTextHandler(&buf, nil)))
	e.Attach(NewFeatureCollection(), rows)

	out := buf.String()
	if !strings.Contains(out, "count=15") {
		t.Errorf("log missing collision count: %s", out)
	}
	if !strings.Contains(out, "perak|d10") || strings.Contains(out, "perak|d11") {
		t.Errorf("collision sample not capped at ten keys: %s", out)
	}
}
