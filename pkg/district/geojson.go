package district

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FeatureCollection is a GeoJSON feature collection. Geometry is carried as
// raw JSON and never inspected.
type FeatureCollection struct {
	Type     string          `json:"type"`
	Features []*Feature      `json:"features"`
	BBox     json.RawMessage `json:"bbox,omitempty"`
}

// Feature is one GeoJSON feature.
type Feature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// NewFeatureCollection returns an empty, well-formed collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []*Feature{}}
}

// ReadFeatureCollection decodes a collection, keeping numbers verbatim.
func ReadFeatureCollection(r io.Reader) (*FeatureCollection, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var fc FeatureCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type == "" {
		fc.Type = "FeatureCollection"
	}
	if fc.Features == nil {
		fc.Features = []*Feature{}
	}
	return &fc, nil
}

// LoadFeatureCollection reads a collection from disk. A missing file is
// returned as an error satisfying errors.Is(err, fs.ErrNotExist).
func LoadFeatureCollection(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := ReadFeatureCollection(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// PointFeature builds a Point feature; GeoJSON orders coordinates lon, lat.
func PointFeature(lat, lon float64, props map[string]any) *Feature {
	geom, _ := json.Marshal(map[string]any{
		"type":        "Point",
		"coordinates": []float64{lon, lat},
	})
	return &Feature{Type: "Feature", Geometry: geom, Properties: props}
}
