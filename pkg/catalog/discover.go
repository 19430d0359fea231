package catalog

import (
	"errors"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

// Discover lists every file the loader would read: brand tables from the
// folder scan, the statistics table, polygon files and distribution-center
// files. A failed scan still returns the other files.
func Discover(l *dataset.Loader) DiscoverFunc {
	return func() ([]Entry, error) {
		var entries []Entry
		sources, scanErr := l.Scan()
		for _, s := range sources {
			entries = append(entries, FromSource(s))
		}

		if p, err := l.StatsPath(); err == nil {
			entries = append(entries, Entry{Path: p, Kind: KindStats})
		} else {
			var nf *dataset.NotFoundError
			if errors.As(err, &nf) && len(nf.Tried) > 0 {
				entries = append(entries, Entry{Path: nf.Tried[0], Kind: KindStats})
			}
		}
		for _, kind := range []string{"districts", "states"} {
			if p, ok := l.PolygonPath(kind); ok {
				entries = append(entries, Entry{Path: p, Kind: KindPolygons, Category: kind})
			}
		}
		for _, b := range l.CenterBrands() {
			if p, ok := l.CenterPath(b); ok {
				entries = append(entries, Entry{Path: p, Kind: KindCenters, BrandKey: b})
			}
		}
		if scanErr != nil && !errors.Is(scanErr, dataset.ErrNoData) {
			return entries, scanErr
		}
		return entries, nil
	}
}
