package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/hazyhaar/retailmap/pkg/district"
	"github.com/hazyhaar/retailmap/pkg/geo"
)

type centerGroup struct {
	State     string           `json:"state"`
	Locations []map[string]any `json:"locations"`
}

// CenterBrands lists the brands with a configured distribution-center file.
func (l *Loader) CenterBrands() []string {
	out := make([]string, 0, len(l.Manifest.Centers))
	for b := range l.Manifest.Centers {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Centers converts a brand's distribution-center file into point features.
// A missing file yields an empty collection; an unknown brand is a
// NotFoundError.
func (l *Loader) Centers(brand string) (*district.FeatureCollection, error) {
	path, ok := l.CenterPath(brand)
	if !ok {
		return nil, &NotFoundError{What: "distribution centers for " + brand, Tried: l.CenterBrands()}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("no distribution center file", "brand", brand, "path", path)
		return district.NewFeatureCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var groups []centerGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	unbounded := &geo.Parser{}
	fc := district.NewFeatureCollection()
	for _, g := range groups {
		for _, loc := range g.Locations {
			gps := text(loc["gps"])
			if gps == "" {
				continue
			}
			pt, err := unbounded.Parse(gps)
			if err != nil {
				l.logger.Warn("could not parse distribution center gps", "brand", brand, "gps", gps, "error", err)
				continue
			}
			props := map[string]any{
				"code":            text(loc["code"]),
				"name":            text(loc["name"]),
				"address":         text(loc["address"]),
				"state":           g.State,
				"gps":             gps,
				"google_maps_url": text(loc["google_maps_url"]),
				"type":            "distribution_center",
			}
			if d, ok := loc["district"]; ok {
				props["district"] = text(d)
			}
			fc.Features = append(fc.Features, district.PointFeature(pt.Lat, pt.Lon, props))
		}
	}
	return fc, nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
