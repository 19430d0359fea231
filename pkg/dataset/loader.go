package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/retailmap/pkg/district"
	"github.com/hazyhaar/retailmap/pkg/geo"
)

// Options locates the source folders.
type Options struct {
	DataDir     string // brand tables, one sub-folder per category
	DistrictDir string // district statistics table
	StaticDir   string // polygon files
	Encoding    string // CSV encoding, empty for UTF-8
	Cache       *Cache // nil disables caching
	Logger      *slog.Logger
}

// Loader reads every source the service needs. It holds no per-request
// state and is safe for concurrent use.
type Loader struct {
	Manifest *Manifest
	opts     Options
	parser   *geo.Parser
	logger   *slog.Logger
}

// NewLoader returns a loader for the given manifest and folders.
func NewLoader(m *Manifest, opts Options) *Loader {
	if m == nil {
		m = DefaultManifest()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Manifest: m,
		opts:     opts,
		parser:   geo.NewParser(m.CoordinateWindow),
		logger:   logger,
	}
}

// DataDir returns the brand-table root.
func (l *Loader) DataDir() string { return l.opts.DataDir }

// Cache returns the load-once cache, or nil.
func (l *Loader) Cache() *Cache { return l.opts.Cache }

// Polygons reads one of the static polygon files ("districts" or "states").
// Each call returns a fresh collection that the caller may mutate.
func (l *Loader) Polygons(kind string) (*district.FeatureCollection, error) {
	path, ok := l.PolygonPath(kind)
	if !ok {
		return nil, &NotFoundError{What: kind + " polygons"}
	}
	data, err := cached(l.opts.Cache, "polygons:"+path, []string{path}, func() ([]byte, error) {
		return os.ReadFile(path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{What: kind + " polygons", Tried: []string{path}}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := district.ReadFeatureCollection(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// PolygonPath is where the polygon file of the given kind is expected.
func (l *Loader) PolygonPath(kind string) (string, bool) {
	name, ok := l.Manifest.PolygonFiles[kind]
	if !ok {
		return "", false
	}
	return filepath.Join(l.opts.StaticDir, name), true
}

// CenterPath is where a brand's distribution-center file is expected.
func (l *Loader) CenterPath(brand string) (string, bool) {
	name, ok := l.Manifest.Centers[brand]
	if !ok {
		return "", false
	}
	return filepath.Join(l.opts.DataDir, name), true
}
