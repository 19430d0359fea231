package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source is one discovered brand table.
type Source struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	BrandKey string `json:"brand_key"`
	HasType  bool   `json:"has_type"`
}

// Scan discovers brand tables. Root-level workbooks form their own category
// (or a configured group); each sub-folder is a category of its workbooks.
func (l *Loader) Scan() ([]Source, error) {
	root := l.opts.DataDir
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{What: "data folder", Tried: []string{root}}
	}
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", root, err)
	}

	var sources []Source
	for _, e := range entries {
		if e.IsDir() || !isWorkbook(e.Name()) {
			continue
		}
		src := l.source(filepath.Join(root, e.Name()), "")
		if g, ok := l.Manifest.GroupFor(src.BrandKey); ok {
			src.Category = g
		} else {
			src.Category = src.Brand
		}
		sources = append(sources, src)
	}

	for _, e := range entries {
		if !e.IsDir() || l.skipDir(e.Name()) {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			l.logger.Warn("skipping category folder", "dir", dir, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() || !isWorkbook(f.Name()) {
				continue
			}
			sources = append(sources, l.source(filepath.Join(dir, f.Name()), e.Name()))
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoData, root)
	}
	return sources, nil
}

func (l *Loader) source(path, category string) Source {
	name := filepath.Base(path)
	key := l.Manifest.BrandKey(name)
	return Source{
		Path:     path,
		Category: category,
		Brand:    l.Manifest.BrandName(name),
		BrandKey: key,
		HasType:  l.Manifest.HasTypeColumn(key),
	}
}

func (l *Loader) skipDir(name string) bool {
	for _, s := range l.Manifest.SkipDirs {
		if s == name {
			return true
		}
	}
	return false
}

// isWorkbook accepts .xlsx files and rejects office lock files ("~$...").
func isWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx") && !strings.HasPrefix(name, "~$")
}
