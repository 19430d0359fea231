// Package geo parses loosely formatted "lat, lon" spreadsheet cells.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmpty      = errors.New("empty coordinate")
	ErrMalformed  = errors.New("malformed coordinate")
	ErrOutOfRange = errors.New("coordinate out of range")
)

// Point is a WGS84 position.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Window is an inclusive latitude/longitude validity box.
type Window struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// MalaysiaWindow is the default country bounding box.
var MalaysiaWindow = Window{MinLat: 0, MaxLat: 10, MinLon: 95, MaxLon: 125}

// Contains reports whether p lies inside w. NaN never does.
func (w Window) Contains(p Point) bool {
	return p.Lat >= w.MinLat && p.Lat <= w.MaxLat && p.Lon >= w.MinLon && p.Lon <= w.MaxLon
}

// Parser turns cell text into a Point, optionally restricted to a window.
type Parser struct {
	// Window limits accepted points. Nil accepts any parsable pair.
	Window *Window
}

// NewParser returns a parser bounded by w.
func NewParser(w Window) *Parser {
	return &Parser{Window: &w}
}

// Parse is the package-level parser bounded by MalaysiaWindow.
func Parse(raw string) (Point, error) {
	return NewParser(MalaysiaWindow).Parse(raw)
}

// Parse extracts the first two comma-separated tokens of raw as lat and lon.
// Literal "\n" escapes and real newlines count as spaces.
func (p *Parser) Parse(raw string) (Point, error) {
	s := strings.ReplaceAll(raw, `\n`, " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return Point{}, ErrEmpty
	}

	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return Point{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}

	pt := Point{Lat: lat, Lon: lon}
	if p.Window != nil && !p.Window.Contains(pt) {
		return Point{}, fmt.Errorf("%w: %v, %v", ErrOutOfRange, lat, lon)
	}
	return pt, nil
}
