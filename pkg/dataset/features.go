package dataset

import (
	"fmt"
	"sort"

	"github.com/hazyhaar/retailmap/pkg/district"
)

// BrandFeatures converts one brand workbook to point features carrying
// every original column as a property. Rows without a valid coordinate are
// dropped; a table with no coordinate column at all is an error.
func (l *Loader) BrandFeatures(src Source) (*district.FeatureCollection, error) {
	t, err := cached(l.opts.Cache, "table:"+src.Path, []string{src.Path}, func() (*Table, error) {
		return ReadTable(src.Path, l.opts.Encoding)
	})
	if err != nil {
		return nil, err
	}
	points, col := l.locate(t, l.logger.With("file", src.Path))
	if col == "" && !l.hasCoordinateColumn(t) {
		return nil, fmt.Errorf("%s: no coordinate column, have %v", src.Path, t.Header)
	}

	fc := district.NewFeatureCollection()
	for i, pt := range points {
		if pt == nil {
			continue
		}
		props := make(map[string]any, len(t.Header))
		for c, h := range t.Header {
			if h == "" {
				continue
			}
			props[h] = CellValue(t.Rows[i][c])
		}
		fc.Features = append(fc.Features, district.PointFeature(pt.Lat, pt.Lon, props))
	}
	return fc, nil
}

func (l *Loader) hasCoordinateColumn(t *Table) bool {
	for _, c := range l.Manifest.Columns.Coordinates {
		if t.Has(c) {
			return true
		}
	}
	return false
}

// StatsDocument is the statistics table as a collection of features with
// null geometry, for use alongside the district polygons.
type StatsDocument struct {
	Type     string              `json:"type"`
	Features []*district.Feature `json:"features"`
	Metadata StatsMetadata       `json:"metadata"`
}

type StatsMetadata struct {
	Description string   `json:"description"`
	Note        string   `json:"note"`
	Source      string   `json:"source"`
	Columns     []string `json:"columns"`
	Missing     []string `json:"missing_columns,omitempty"`
}

// StatsFeatures converts the statistics table, keeping its original
// column names.
func (l *Loader) StatsFeatures() (*StatsDocument, error) {
	t, path, err := l.StatsTable()
	if err != nil {
		return nil, err
	}
	doc := &StatsDocument{
		Type:     "FeatureCollection",
		Features: make([]*district.Feature, 0, len(t.Rows)),
		Metadata: StatsMetadata{
			Description: "District-level statistics for Malaysia",
			Note:        "No geometry. Join with the district polygons for spatial display.",
			Source:      path,
			Columns:     t.Header,
		},
	}
	for src := range l.Manifest.StatsColumns {
		if !t.Has(src) {
			doc.Metadata.Missing = append(doc.Metadata.Missing, src)
		}
	}
	sort.Strings(doc.Metadata.Missing)
	for _, row := range t.Rows {
		props := make(map[string]any, len(t.Header))
		for c, h := range t.Header {
			if h != "" {
				props[h] = CellValue(row[c])
			}
		}
		doc.Features = append(doc.Features, &district.Feature{
			Type:       "Feature",
			Geometry:   []byte("null"),
			Properties: props,
		})
	}
	return doc, nil
}
