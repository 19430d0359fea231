package report

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

func store(brand, city, state string) dataset.Store {
	return dataset.Store{Brand: brand, City: city, District: city, State: state}
}

func TestSummarize(t *testing.T) {
	ds := &dataset.Dataset{
		Stores: []dataset.Store{
			store("MR DIY", "Ipoh", "Perak"),
			store("MR DIY", "Ipoh", "Perak"),
			store("Eco-Shop", "Muar", "Johor"),
			store("Eco-Shop", "", "Johor"),
			store("Eco-Shop", "nan", "Johor"),
			store("", "Kulim", "Kedah"),
		},
		Columns: []string{"Name", "State"},
	}

	s := Summarize(ds)
	if s.TotalLocations != 6 {
		t.Errorf("TotalLocations = %d, want 6", s.TotalLocations)
	}
	if !reflect.DeepEqual(s.Cities, map[string]int{"Ipoh": 2, "Muar": 1, "Kulim": 1}) {
		t.Errorf("Cities = %v", s.Cities)
	}
	if !reflect.DeepEqual(s.States, map[string]int{"Perak": 2, "Johor": 1, "Kedah": 1}) {
		t.Errorf("States = %v", s.States)
	}
	if !reflect.DeepEqual(s.Brands, map[string]int{"MR DIY": 2, "Eco-Shop": 1, "Unknown": 1}) {
		t.Errorf("Brands = %v", s.Brands)
	}
	if len(s.DataColumns) != 2 {
		t.Errorf("DataColumns = %v", s.DataColumns)
	}
}

func TestSummarize_TopTenCities(t *testing.T) {
	ds := &dataset.Dataset{}
	for i := 0; i < 12; i++ {
		city := string(rune('A' + i))
		for j := 0; j <= i; j++ {
			ds.Stores = append(ds.Stores, store("B", city, "Sabah"))
		}
	}
	s := Summarize(ds)
	if len(s.Cities) != 10 {
		t.Fatalf("cities = %d, want 10", len(s.Cities))
	}
	if _, ok := s.Cities["A"]; ok {
		t.Error("least frequent city should be cut")
	}
	if s.Cities["L"] != 12 {
		t.Errorf("L = %d, want 12", s.Cities["L"])
	}
	if s.States["Sabah"] != 78 {
		t.Errorf("state count = %d, want every row", s.States["Sabah"])
	}
}

func TestRank(t *testing.T) {
	got := Rank(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	want := []Count{{"c", 5}, {"a", 2}, {"b", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
	if all := Rank(map[string]int{"x": 1, "y": 1}, 0); len(all) != 2 {
		t.Errorf("Rank n=0 = %v", all)
	}
}

func TestCategories(t *testing.T) {
	m := dataset.DefaultManifest()
	sources := []dataset.Source{
		{Category: "Fast Fashion", Brand: "Uniqlo", BrandKey: "uniqlo"},
		{Category: "MR DIY + MR TOY", Brand: "MR Toy", BrandKey: "mrtoy"},
		{Category: "Fast Fashion", Brand: "H&M", BrandKey: "hnm"},
		{Category: "MR DIY + MR TOY", Brand: "MR DIY", BrandKey: "mrdiy"},
		{Category: "Fast Fashion", Brand: "Brand X", BrandKey: "brandx"},
	}

	got := Categories(sources, m)
	if len(got) != 2 || got[0].Category != "Fast Fashion" || got[1].Category != "MR DIY + MR TOY" {
		t.Fatalf("categories = %+v", got)
	}
	ff := got[0].Companies
	names := []string{ff[0].BrandName, ff[1].BrandName, ff[2].BrandName}
	if !reflect.DeepEqual(names, []string{"Brand X", "H&M", "Uniqlo"}) {
		t.Errorf("companies = %v", names)
	}
	if ff[0].Color != "#666666" || ff[1].Color != "#E74C3C" {
		t.Errorf("colors = %s, %s", ff[0].Color, ff[1].Color)
	}
	if got[1].Companies[0].BrandName != "MR DIY" {
		t.Errorf("group order = %+v", got[1].Companies)
	}
}

type fakeSource struct {
	sources []dataset.Source
	tables  map[string][]dataset.Store
	scanErr error
}

func (f *fakeSource) Scan() ([]dataset.Source, error) { return f.sources, f.scanErr }

func (f *fakeSource) LoadBrand(s dataset.Source) (*dataset.BrandTable, error) {
	stores, ok := f.tables[s.Path]
	if !ok {
		return nil, errors.New("unreadable")
	}
	return &dataset.BrandTable{Source: s, Stores: stores, Rows: len(stores)}, nil
}

func newFake() *fakeSource {
	return &fakeSource{
		sources: []dataset.Source{
			{Path: "/d/Eco-Shop/EcoShop.xlsx", Category: "Eco-Shop", Brand: "Eco-Shop"},
			{Path: "/d/Convenience Stores/711.xlsx", Category: "Convenience Stores", Brand: "7-Eleven"},
			{Path: "/d/Convenience Stores/broken.xlsx", Category: "Convenience Stores", Brand: "Broken"},
			{Path: "/d/Jewellery/Habib.xlsx", Category: "Jewellery", Brand: "Habib Jewels"},
		},
		tables: map[string][]dataset.Store{
			"/d/Eco-Shop/EcoShop.xlsx": {
				{Name: "E1", State: "Johor"},
				{Name: "E2", State: "Kuala Lumpur", Address: strings.Repeat("x", 150)},
				{Name: "E3", State: " Johor "},
			},
			"/d/Convenience Stores/711.xlsx": {
				{Name: "S1", State: "Kuala Lumpur"},
				{Name: "S2", State: ""},
			},
			"/d/Jewellery/Habib.xlsx": {
				{Name: "H1", State: "Nowhere"},
			},
		},
	}
}

func TestValidateStates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v, err := ValidateStates(newFake(), dataset.DefaultManifest(), logger)
	if err != nil {
		t.Fatalf("ValidateStates: %v", err)
	}
	if v.Files != 2 || v.Rows != 5 {
		t.Errorf("files/rows = %d/%d, want 2/5", v.Files, v.Rows)
	}
	if !reflect.DeepEqual(v.Failed, []string{"broken.xlsx"}) {
		t.Errorf("Failed = %v", v.Failed)
	}
	if len(v.Issues) != 3 {
		t.Fatalf("issues = %+v, want 3", v.Issues)
	}
	if v.Issues[0].StoreName != "E2" || len(v.Issues[0].Address) != maxAddressLen {
		t.Errorf("issue 0 = %+v", v.Issues[0])
	}
	if v.Issues[2].State != "" || v.Issues[2].File != "711.xlsx" {
		t.Errorf("blank state should be flagged: %+v", v.Issues[2])
	}

	if v.States[0].Value != "Johor" || v.States[0].Count != 2 || !v.States[0].Valid {
		t.Errorf("top state = %+v", v.States[0])
	}
	invalid := v.InvalidStates()
	if len(invalid) != 2 || invalid[0].Value != "Kuala Lumpur" || invalid[0].Count != 2 {
		t.Errorf("invalid = %+v", invalid)
	}
	if !reflect.DeepEqual(invalid[0].Files, []string{"711.xlsx", "EcoShop.xlsx"}) {
		t.Errorf("files = %v", invalid[0].Files)
	}
	for _, s := range v.States {
		if s.Value == "Nowhere" {
			t.Error("non-target category was validated")
		}
	}
	if len(v.ValidStates) != 16 || v.ValidStates[0] != "Johor" {
		t.Errorf("ValidStates = %v", v.ValidStates)
	}
}

func TestValidateStates_ScanError(t *testing.T) {
	f := &fakeSource{scanErr: dataset.ErrNoData}
	if _, err := ValidateStates(f, dataset.DefaultManifest(), nil); !errors.Is(err, dataset.ErrNoData) {
		t.Errorf("err = %v", err)
	}
}

func TestValidation_WriteXLSX(t *testing.T) {
	v, err := ValidateStates(newFake(), dataset.DefaultManifest(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "state_validation_report.xlsx")
	if err := v.WriteXLSX(path); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Problematic Entries", "State Summary", "Valid States Reference"}) {
		t.Errorf("sheets = %v", got)
	}
	rows, err := f.GetRows("Problematic Entries")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][4] != "Current State" || rows[1][3] != "E2" {
		t.Errorf("issue rows = %q", rows)
	}
	ref, _ := f.GetRows("Valid States Reference")
	if len(ref) != 17 {
		t.Errorf("reference rows = %d, want header + 16", len(ref))
	}
}
