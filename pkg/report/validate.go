package report

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

const maxAddressLen = 100

// BrandSource discovers and loads brand tables.
type BrandSource interface {
	Scan() ([]dataset.Source, error)
	LoadBrand(dataset.Source) (*dataset.BrandTable, error)
}

// Issue is a store whose state is not one of the valid names.
type Issue struct {
	File      string `json:"file"`
	Category  string `json:"category"`
	Brand     string `json:"brand"`
	StoreName string `json:"store_name"`
	State     string `json:"state"`
	City      string `json:"city"`
	District  string `json:"district"`
	Address   string `json:"address"`
}

// StateCount summarizes one distinct state value.
type StateCount struct {
	Value      string   `json:"value"`
	Count      int      `json:"count"`
	Valid      bool     `json:"valid"`
	Files      []string `json:"files"`
	Categories []string `json:"categories"`
}

// Validation is the state check over the target categories.
type Validation struct {
	Files       int          `json:"files"`
	Rows        int          `json:"rows"`
	Issues      []Issue      `json:"issues"`
	States      []StateCount `json:"states"`
	ValidStates []string     `json:"valid_states"`
	Failed      []string     `json:"failed,omitempty"`
}

// InvalidStates returns the summary entries that are not valid.
func (v *Validation) InvalidStates() []StateCount {
	var out []StateCount
	for _, s := range v.States {
		if !s.Valid {
			out = append(out, s)
		}
	}
	return out
}

// ValidateStates loads every table in the manifest's target categories and
// flags stores whose state is not in the valid set. Tables that fail to load
// are listed in Failed and skipped.
func ValidateStates(src BrandSource, m *dataset.Manifest, logger *slog.Logger) (*Validation, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sources, err := src.Scan()
	if err != nil {
		return nil, err
	}
	targets := make(map[string]bool, len(m.ValidationTargets))
	for _, c := range m.ValidationTargets {
		targets[c] = true
	}

	type acc struct {
		count      int
		files      map[string]bool
		categories map[string]bool
	}
	seen := make(map[string]*acc)
	v := &Validation{Issues: []Issue{}}

	for _, s := range sources {
		if !targets[s.Category] {
			continue
		}
		file := filepath.Base(s.Path)
		bt, err := src.LoadBrand(s)
		if err != nil {
			logger.Warn("failed to load brand table", "file", s.Path, "error", err)
			v.Failed = append(v.Failed, file)
			continue
		}
		v.Files++
		for _, st := range bt.Stores {
			v.Rows++
			state := strings.TrimSpace(st.State)
			a := seen[state]
			if a == nil {
				a = &acc{files: map[string]bool{}, categories: map[string]bool{}}
				seen[state] = a
			}
			a.count++
			a.files[file] = true
			a.categories[s.Category] = true

			if m.IsValidState(state) {
				continue
			}
			v.Issues = append(v.Issues, Issue{
				File:      file,
				Category:  s.Category,
				Brand:     s.Brand,
				StoreName: st.Name,
				State:     state,
				City:      st.City,
				District:  st.District,
				Address:   truncate(strings.TrimSpace(st.Address), maxAddressLen),
			})
		}
	}

	for value, a := range seen {
		v.States = append(v.States, StateCount{
			Value:      value,
			Count:      a.count,
			Valid:      m.IsValidState(value),
			Files:      sortedKeys(a.files),
			Categories: sortedKeys(a.categories),
		})
	}
	sort.Slice(v.States, func(i, j int) bool {
		if v.States[i].Count != v.States[j].Count {
			return v.States[i].Count > v.States[j].Count
		}
		return v.States[i].Value < v.States[j].Value
	})
	v.ValidStates = append([]string(nil), m.ValidStates...)
	sort.Strings(v.ValidStates)
	return v, nil
}

// WriteXLSX saves the validation as a three-sheet workbook: the flagged
// rows, the per-value summary and the valid-state reference.
func (v *Validation) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	issues := [][]any{{"Filename", "Category", "Brand", "Store Name", "Current State", "City", "District", "Address"}}
	for _, is := range v.Issues {
		issues = append(issues, []any{is.File, is.Category, is.Brand, is.StoreName, is.State, is.City, is.District, is.Address})
	}
	summary := [][]any{{"State Value", "Count", "Is Valid", "Files", "Categories"}}
	for _, s := range v.States {
		valid := "No"
		if s.Valid {
			valid = "Yes"
		}
		summary = append(summary, []any{s.Value, s.Count, valid, strings.Join(s.Files, ", "), strings.Join(s.Categories, ", ")})
	}
	reference := [][]any{{"Valid State"}}
	for _, s := range v.ValidStates {
		reference = append(reference, []any{s})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{"Problematic Entries", issues},
		{"State Summary", summary},
		{"Valid States Reference", reference},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeRows(f, sh.name, sh.rows, header); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(rows[0]))
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
