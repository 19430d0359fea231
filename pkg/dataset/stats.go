package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/district"
)

// Statistics fields produced by the column renaming.
const (
	FieldState       = "state"
	FieldDistrict    = "district"
	FieldPopulation  = "population_k"
	FieldIncomePC    = "income_pc"
	FieldIncomeTotal = "income_total"
)

// StatsPath returns the first statistics candidate that exists.
func (l *Loader) StatsPath() (string, error) {
	tried := make([]string, 0, len(l.Manifest.StatsFiles))
	for _, name := range l.Manifest.StatsFiles {
		p := filepath.Join(l.opts.DistrictDir, name)
		tried = append(tried, p)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", &NotFoundError{What: "district statistics table", Tried: tried}
}

// StatsTable reads the statistics table with every original column.
func (l *Loader) StatsTable() (*Table, string, error) {
	path, err := l.StatsPath()
	if err != nil {
		return nil, "", err
	}
	t, err := cached(l.opts.Cache, "stats-table:"+path, []string{path}, func() (*Table, error) {
		return ReadTable(path, l.opts.Encoding)
	})
	if err != nil {
		return nil, path, err
	}
	return t, path, nil
}

// LoadStats reads the statistics table and renames its columns into rows.
// The returned slice is shared when caching is on and must not be modified.
func (l *Loader) LoadStats() ([]district.StatRow, error) {
	path, err := l.StatsPath()
	if err != nil {
		return nil, err
	}
	return cached(l.opts.Cache, "stats:"+path, []string{path}, func() ([]district.StatRow, error) {
		t, err := ReadTable(path, l.opts.Encoding)
		if err != nil {
			return nil, err
		}
		rows := StatRows(t, l.Manifest.StatsColumns)
		l.logger.Info("district stats loaded", "path", path, "rows", len(rows))
		return rows, nil
	})
}

// StatRows maps table rows through columns (source header to field name).
// A field whose column is absent is "no value" on every row.
func StatRows(t *Table, columns map[string]string) []district.StatRow {
	idx := map[string]int{
		FieldState: -1, FieldDistrict: -1,
		FieldPopulation: -1, FieldIncomePC: -1, FieldIncomeTotal: -1,
	}
	for header, field := range columns {
		if _, known := idx[field]; !known {
			continue
		}
		if i := t.Col(header); i >= 0 {
			idx[field] = i
		}
	}

	cell := func(row []string, field string) string {
		if i := idx[field]; i >= 0 {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rows := make([]district.StatRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, district.StatRow{
			State:    cell(r, FieldState),
			District: cell(r, FieldDistrict),
			Stats: district.Stats{
				PopulationK:     ParseNumber(cell(r, FieldPopulation)),
				IncomePerCapita: ParseNumber(cell(r, FieldIncomePC)),
				IncomeTotal:     ParseNumber(cell(r, FieldIncomeTotal)),
			},
		})
	}
	return rows
}

// ParseNumber coerces a cell to a finite number. Blank, unparsable, NaN and
// infinite cells are nil.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// CellValue types a raw cell for JSON output: nil when blank, an integer or
// float when numeric, else the trimmed text.
func CellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Zero-padded codes such as postcodes stay text.
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f := ParseNumber(s); f != nil {
		return *f
	}
	return s
}
