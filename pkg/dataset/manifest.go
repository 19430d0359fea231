// Package dataset reads brand location tables, the district statistics
// table and the static polygon files, and turns them into uniform rows.
package dataset

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/retailmap/pkg/geo"
)

//go:embed default_manifest.yaml
var defaultManifest []byte

// Manifest holds the lookup tables injected into loaders and reporters.
type Manifest struct {
	StateCodes        map[string]string   `yaml:"state_codes" json:"state_codes"`
	ValidStates       []string            `yaml:"valid_states" json:"valid_states"`
	ValidationTargets []string            `yaml:"validation_targets" json:"validation_targets"`
	DefaultColor      string              `yaml:"default_color" json:"default_color"`
	BrandColors       map[string]string   `yaml:"brand_colors" json:"brand_colors"`
	NameStrip         []string            `yaml:"name_strip" json:"-"`
	BrandNames        []NameRule          `yaml:"brand_names" json:"-"`
	BrandKeys         []NameRule          `yaml:"brand_keys" json:"-"`
	CategoryGroups    map[string][]string `yaml:"category_groups" json:"category_groups"`
	TypeColumnBrands  []string            `yaml:"type_column_brands" json:"-"`
	Columns           ColumnSpec          `yaml:"columns" json:"-"`
	CoordinateWindow  geo.Window          `yaml:"coordinate_window" json:"-"`
	StatsFiles        []string            `yaml:"stats_files" json:"-"`
	StatsColumns      map[string]string   `yaml:"stats_columns" json:"-"`
	PolygonFiles      map[string]string   `yaml:"polygon_files" json:"-"`
	Centers           map[string]string   `yaml:"distribution_centers" json:"-"`
	SkipDirs          []string            `yaml:"skip_dirs" json:"-"`
}

// NameRule rewrites a name to To when it matches. Every Requires substring
// must be present, and one of Contains, Prefix or Equals (case-insensitive)
// must hit. A rule with only Requires matches on Requires alone.
type NameRule struct {
	To       string   `yaml:"to"`
	Requires []string `yaml:"requires"`
	Contains []string `yaml:"contains"`
	Prefix   []string `yaml:"prefix"`
	Equals   []string `yaml:"equals"`
}

// Match reports whether s satisfies the rule.
func (r NameRule) Match(s string) bool {
	for _, req := range r.Requires {
		if !strings.Contains(s, req) {
			return false
		}
	}
	if len(r.Contains) == 0 && len(r.Prefix) == 0 && len(r.Equals) == 0 {
		return len(r.Requires) > 0
	}
	for _, c := range r.Contains {
		if strings.Contains(s, c) {
			return true
		}
	}
	for _, p := range r.Prefix {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	for _, e := range r.Equals {
		if strings.EqualFold(s, e) {
			return true
		}
	}
	return false
}

// ColumnSpec names the brand-table columns, after header trimming.
type ColumnSpec struct {
	Coordinates []string `yaml:"coordinates"`
	Address     string   `yaml:"address"`
	Name        []string `yaml:"name"`
	Postcode    string   `yaml:"postcode"`
	State       string   `yaml:"state"`
	District    string   `yaml:"district"`
	City        string   `yaml:"city"`
	Type        string   `yaml:"type"`
}

// DefaultManifest returns a fresh copy of the embedded manifest.
func DefaultManifest() *Manifest {
	var m Manifest
	if err := yaml.Unmarshal(defaultManifest, &m); err != nil {
		panic(fmt.Sprintf("embedded manifest: %v", err))
	}
	return &m
}

// LoadManifest reads a manifest file over the embedded defaults. An empty
// path returns the defaults.
func LoadManifest(path string) (*Manifest, error) {
	m := DefaultManifest()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.StatsFiles) == 0 {
		return nil, fmt.Errorf("manifest %s: no stats_files", path)
	}
	if m.DefaultColor == "" {
		m.DefaultColor = "#666666"
	}
	return m, nil
}

// Color returns the marker color for a brand key.
func (m *Manifest) Color(brandKey string) string {
	if c, ok := m.BrandColors[strings.ToLower(brandKey)]; ok {
		return c
	}
	return m.DefaultColor
}

// IsValidState reports whether s is one of the configured state names.
func (m *Manifest) IsValidState(s string) bool {
	for _, v := range m.ValidStates {
		if v == s {
			return true
		}
	}
	return false
}

// GroupFor returns the category group a root-level brand belongs to.
func (m *Manifest) GroupFor(brandKey string) (string, bool) {
	groups := make([]string, 0, len(m.CategoryGroups))
	for g := range m.CategoryGroups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	key := strings.ToLower(brandKey)
	for _, g := range groups {
		for _, k := range m.CategoryGroups[g] {
			if k == key {
				return g, true
			}
		}
	}
	return "", false
}

// HasTypeColumn reports whether a brand's tables carry a store-type column.
func (m *Manifest) HasTypeColumn(brandKey string) bool {
	key := strings.ToLower(brandKey)
	for _, b := range m.TypeColumnBrands {
		if strings.Contains(key, b) {
			return true
		}
	}
	return false
}
