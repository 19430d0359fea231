package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/geo"
)

// Store is one outlet row in the uniform schema.
type Store struct {
	Name     string  `json:"store_name"`
	Address  string  `json:"address"`
	Postcode string  `json:"postcode"`
	State    string  `json:"state"`
	District string  `json:"district"`
	City     string  `json:"city"`
	Type     string  `json:"type"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Brand    string  `json:"brand"`
	BrandKey string  `json:"brand_key"`
	Category string  `json:"category"`
	File     string  `json:"file"`
}

// BrandTable is the result of loading one brand workbook.
type BrandTable struct {
	Source      Source
	Header      []string
	CoordColumn string // column that produced the coordinates, "" if none
	Rows        int    // data rows before coordinate filtering
	Stores      []Store
}

// LoadBrand reads one brand workbook into stores. Rows without a valid
// coordinate are dropped.
func (l *Loader) LoadBrand(src Source) (*BrandTable, error) {
	t, err := cached(l.opts.Cache, "table:"+src.Path, []string{src.Path}, func() (*Table, error) {
		return ReadTable(src.Path, l.opts.Encoding)
	})
	if err != nil {
		return nil, err
	}
	bt := &BrandTable{Source: src, Header: t.Header, Rows: len(t.Rows)}
	cols := l.Manifest.Columns
	log := l.logger.With("file", src.Path)

	points, coordCol := l.locate(t, log)
	bt.CoordColumn = coordCol

	names := make([]string, len(t.Rows))
	for _, c := range cols.Name {
		if v := t.Column(c); v != nil {
			names = v
			break
		}
	}
	address := orBlank(t.Column(cols.Address), len(t.Rows))
	postcode := orBlank(t.Column(cols.Postcode), len(t.Rows))
	state := orBlank(t.Column(cols.State), len(t.Rows))
	dist := orBlank(t.Column(cols.District), len(t.Rows))
	if city := t.Column(cols.City); city != nil && allBlank(dist) {
		dist = city
	}
	var typ []string
	if src.HasType {
		typ = t.Column(cols.Type)
	}

	for i, pt := range points {
		if pt == nil {
			continue
		}
		s := Store{
			Name:     strings.TrimSpace(names[i]),
			Address:  address[i],
			Postcode: strings.TrimSpace(postcode[i]),
			State:    strings.TrimSpace(state[i]),
			District: strings.TrimSpace(dist[i]),
			Lat:      pt.Lat,
			Lon:      pt.Lon,
			Brand:    src.Brand,
			BrandKey: src.BrandKey,
			Category: src.Category,
			File:     src.Path,
		}
		s.City = s.District
		if typ != nil {
			s.Type = strings.TrimSpace(typ[i])
		}
		bt.Stores = append(bt.Stores, s)
	}
	return bt, nil
}

// locate parses the first configured coordinate column present, falling
// back to the address column when it yields nothing. The slice holds nil
// for rows without a valid point.
func (l *Loader) locate(t *Table, log *slog.Logger) ([]*geo.Point, string) {
	cols := l.Manifest.Columns
	var tried []string
	for _, c := range cols.Coordinates {
		if t.Has(c) {
			tried = append(tried, c)
			break
		}
	}
	if cols.Address != "" && t.Has(cols.Address) && (len(tried) == 0 || tried[0] != cols.Address) {
		tried = append(tried, cols.Address)
	}

	for i, col := range tried {
		fallback := i > 0
		points, valid, rejected := l.parseColumn(t.Column(col), fallback, log)
		if valid > 0 {
			log.Debug("coordinates parsed", "column", col, "valid", valid, "rejected", rejected)
			return points, col
		}
		log.Warn("column yielded no valid coordinates", "column", col, "rejected", rejected)
	}
	if len(tried) == 0 {
		log.Warn("no coordinate column", "columns", t.Header)
	}
	return make([]*geo.Point, len(t.Rows)), ""
}

func (l *Loader) parseColumn(values []string, fallback bool, log *slog.Logger) (points []*geo.Point, valid, rejected int) {
	points = make([]*geo.Point, len(values))
	for i, v := range values {
		pt, err := l.parser.Parse(v)
		switch {
		case err == nil:
			points[i] = &pt
			valid++
		case errors.Is(err, geo.ErrEmpty):
		case errors.Is(err, geo.ErrOutOfRange) && !fallback:
			rejected++
			log.Warn("coordinate out of range", "row", i+2, "error", err)
		case fallback:
			rejected++
		default:
			rejected++
			log.Warn("unparsable coordinate", "row", i+2, "error", err)
		}
	}
	return points, valid, rejected
}

func orBlank(col []string, n int) []string {
	if col != nil {
		return col
	}
	return make([]string, n)
}

func allBlank(col []string) bool {
	for _, v := range col {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// LoadResult records the outcome of loading one source.
type LoadResult struct {
	Source Source `json:"source"`
	Rows   int    `json:"rows"`
	Valid  int    `json:"valid"`
	Err    error  `json:"-"`
}

// Dataset is every brand table that loaded, in scan order.
type Dataset struct {
	Stores  []Store
	Columns []string
	Results []LoadResult
}

// derivedColumns are the uniform fields every loaded table gains.
var derivedColumns = []string{
	"latitude", "longitude", "brand", "brand_key", "Store Name",
	"Address", "Postcode", "State", "District", "City", "Type", "category", "sector",
}

// LoadAll scans and loads every brand table. Failing files are logged and
// skipped; it fails only when nothing loads.
func (l *Loader) LoadAll() (*Dataset, error) {
	sources, err := l.Scan()
	if err != nil {
		return nil, err
	}
	ds := &Dataset{}
	seen := make(map[string]bool)
	addCol := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			ds.Columns = append(ds.Columns, c)
		}
	}

	loaded := 0
	for _, src := range sources {
		bt, err := l.LoadBrand(src)
		if err != nil {
			l.logger.Warn("failed to load brand table", "file", src.Path, "error", err)
			ds.Results = append(ds.Results, LoadResult{Source: src, Err: err})
			continue
		}
		loaded++
		ds.Stores = append(ds.Stores, bt.Stores...)
		ds.Results = append(ds.Results, LoadResult{Source: src, Rows: bt.Rows, Valid: len(bt.Stores)})
		for _, h := range bt.Header {
			addCol(h)
		}
	}
	if loaded == 0 {
		return nil, fmt.Errorf("%w: all %d brand tables failed to load", ErrNoData, len(sources))
	}
	for _, c := range derivedColumns {
		addCol(c)
	}
	l.logger.Info("brand tables loaded", "files", loaded, "stores", len(ds.Stores))
	return ds, nil
}
