// Package catalog keeps a SQLite record of the source files the service
// reads: what was discovered, what loaded, and whether each file is still
// there.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

// Kinds of catalogued files.
const (
	KindBrand    = "brand"
	KindStats    = "stats"
	KindPolygons = "polygons"
	KindCenters  = "centers"
)

// Check statuses.
const (
	StatusOK      = "ok"
	StatusMissing = "missing"
	StatusError   = "error"
)

// Entry is one row of the source_files table.
type Entry struct {
	Path       string  `json:"path"`
	Kind       string  `json:"kind"`
	Category   string  `json:"category,omitempty"`
	Brand      string  `json:"brand,omitempty"`
	BrandKey   string  `json:"brand_key,omitempty"`
	Rows       *int    `json:"rows,omitempty"`
	Valid      *int    `json:"valid,omitempty"`
	LastLoad   *int64  `json:"last_load,omitempty"`
	LoadError  *string `json:"load_error,omitempty"`
	LastCheck  *int64  `json:"last_check,omitempty"`
	LastStatus *string `json:"last_status,omitempty"`
	LastError  *string `json:"last_error,omitempty"`
	ModTime    *int64  `json:"mod_time,omitempty"`
	Size       *int64  `json:"size,omitempty"`
	UpdatedAt  int64   `json:"updated_at"`
}

// FromSource builds a brand entry for a discovered table.
func FromSource(s dataset.Source) Entry {
	return Entry{Path: s.Path, Kind: KindBrand, Category: s.Category, Brand: s.Brand, BrandKey: s.BrandKey}
}

// DB manages the source_files SQLite table.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS source_files (
		path        TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT '',
		brand       TEXT NOT NULL DEFAULT '',
		brand_key   TEXT NOT NULL DEFAULT '',
		row_count   INTEGER,
		valid_count INTEGER,
		last_load   INTEGER,
		load_error  TEXT,
		last_check  INTEGER,
		last_status TEXT,
		last_error  TEXT,
		mod_time    INTEGER,
		size        INTEGER,
		updated_at  INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create source_files table: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (c *DB) Close() error {
	return c.db.Close()
}

// Seed inserts entries that are not yet catalogued. Existing rows are left
// untouched.
func (c *DB) Seed(entries []Entry) error {
	const q = `INSERT OR IGNORE INTO source_files
		(path, kind, category, brand, brand_key, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, e := range entries {
		if _, err := c.db.Exec(q, e.Path, e.Kind, e.Category, e.Brand, e.BrandKey, now); err != nil {
			return fmt.Errorf("seed %s: %w", e.Path, err)
		}
	}
	return nil
}

// RecordLoad stores the outcome of loading brand tables, cataloguing any
// table seen for the first time.
func (c *DB) RecordLoad(results []dataset.LoadResult) error {
	const q = `INSERT INTO source_files
		(path, kind, category, brand, brand_key, row_count, valid_count, last_load, load_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			category = excluded.category,
			brand = excluded.brand,
			brand_key = excluded.brand_key,
			row_count = excluded.row_count,
			valid_count = excluded.valid_count,
			last_load = excluded.last_load,
			load_error = excluded.load_error,
			updated_at = excluded.updated_at`

	now := time.Now().Unix()
	for _, r := range results {
		var loadErr *string
		var rows, valid *int
		if r.Err != nil {
			msg := r.Err.Error()
			loadErr = &msg
		} else {
			rows, valid = &r.Rows, &r.Valid
		}
		s := r.Source
		if _, err := c.db.Exec(q, s.Path, KindBrand, s.Category, s.Brand, s.BrandKey, rows, valid, now, loadErr, now); err != nil {
			return fmt.Errorf("record load for %s: %w", s.Path, err)
		}
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (c *DB) UpdateCheck(path, status, checkErr string, modTime, size int64) error {
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	var mod, sz *int64
	if status == StatusOK {
		mod, sz = &modTime, &size
	}
	_, err := c.db.Exec(
		`UPDATE source_files SET last_check = ?, last_status = ?, last_error = ?, mod_time = ?, size = ? WHERE path = ?`,
		time.Now().Unix(), status, errPtr, mod, sz, path,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", path, err)
	}
	return nil
}

// List returns every catalogued file ordered by kind then path.
func (c *DB) List() ([]Entry, error) {
	rows, err := c.db.Query(`SELECT path, kind, category, brand, brand_key, row_count, valid_count,
		last_load, load_error, last_check, last_status, last_error, mod_time, size, updated_at
		FROM source_files ORDER BY kind, path`)
	if err != nil {
		return nil, fmt.Errorf("list source files: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Kind, &e.Category, &e.Brand, &e.BrandKey, &e.Rows, &e.Valid,
			&e.LastLoad, &e.LoadError, &e.LastCheck, &e.LastStatus, &e.LastError,
			&e.ModTime, &e.Size, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source file: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
