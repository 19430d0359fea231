package geo

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		lat     float64
		lon     float64
		wantErr error
	}{
		{"3.1390, 101.6869", 3.1390, 101.6869, nil},
		{"3.1390,101.6869", 3.1390, 101.6869, nil},
		{"  5.4, \n100.3 ", 5.4, 100.3, nil},
		{`5.4, \n100.3`, 5.4, 100.3, nil},
		{"1.5, 110.3, extra", 1.5, 110.3, nil},
		{"0, 95", 0, 95, nil},
		{"10, 125", 10, 125, nil},
		{"", 0, 0, ErrEmpty},
		{"   ", 0, 0, ErrEmpty},
		{"3.1390", 0, 0, ErrMalformed},
		{"abc, 101.6", 0, 0, ErrMalformed},
		{"3.1, east", 0, 0, ErrMalformed},
		{"-0.5, 101", 0, 0, ErrOutOfRange},
		{"10.01, 101", 0, 0, ErrOutOfRange},
		{"3.1, 94.9", 0, 0, ErrOutOfRange},
		{"3.1, 125.5", 0, 0, ErrOutOfRange},
		{"51.5, -0.12", 0, 0, ErrOutOfRange},
		{"NaN, 101", 0, 0, ErrOutOfRange},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) err = %v, want %v", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.input, err)
			continue
		}
		if got.Lat != tt.lat || got.Lon != tt.lon {
			t.Errorf("Parse(%q) = %v, want (%v, %v)", tt.input, got, tt.lat, tt.lon)
		}
	}
}

func TestParse_WindowGrid(t *testing.T) {
	for lat := -2.0; lat <= 12; lat += 0.5 {
		for lon := 90.0; lon <= 130; lon += 2.5 {
			raw := formatPair(lat, lon)
			got, err := Parse(raw)
			inside := lat >= 0 && lat <= 10 && lon >= 95 && lon <= 125
			if inside {
				if err != nil {
					t.Fatalf("Parse(%q): %v", raw, err)
				}
				if math.Abs(got.Lat-lat) > 1e-9 || math.Abs(got.Lon-lon) > 1e-9 {
					t.Fatalf("Parse(%q) = %v", raw, got)
				}
			} else if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("Parse(%q) err = %v, want out of range", raw, err)
			}
		}
	}
}

func TestParser_Unbounded(t *testing.T) {
	p := &Parser{}
	got, err := p.Parse("51.5074, -0.1278")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Lat != 51.5074 || got.Lon != -0.1278 {
		t.Errorf("got %v", got)
	}
}

func formatPair(lat, lon float64) string {
	return ftoa(lat) + ", " + ftoa(lon)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
