package names

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Kuala Lumpur", "kualalumpur"},
		{"W.P. Kuala Lumpur", "wpkualalumpur"},
		{"Pulau  Pinang", "pulaupinang"},
		{"Kota Bharu (Bandar)", "kotabharubandar"},
		{"Seberang Perai Utara-1", "seberangperaiutara1"},
		{"Élodie", "élodie"},
		{"Se\u0301gamat", "ségamat"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.input); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestJoinKey(t *testing.T) {
	if got := JoinKey("Selangor", "Petaling"); got != "selangor|petaling" {
		t.Errorf("JoinKey = %q", got)
	}
	if got := JoinKey("", "Wp Labuan"); got != "|wplabuan" {
		t.Errorf("JoinKey empty state = %q", got)
	}
	s, d := SplitKey("selangor|petaling")
	if s != "selangor" || d != "petaling" {
		t.Errorf("SplitKey = %q, %q", s, d)
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"W.P. Kuala Lumpur", "Wp Kuala Lumpur"},
		{"WP Labuan", "Wp Labuan"},
		{"wp putrajaya", "Wp putrajaya"},
		{"W P Putrajaya", "Wp Putrajaya"},
		{"WPKuala Lumpur", "Wp Kuala Lumpur"},
		{"  Wp Labuan  ", "Wp Labuan"},
		{"Petaling", "Petaling"},
		{"Kota St. Anne", "Kota St Anne"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Display(tt.input); got != tt.want {
			t.Errorf("Display(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestKeyOfDisplayIsKey(t *testing.T) {
	inputs := []string{
		"W.P. Kuala Lumpur", "WP Labuan", "W P Putrajaya", "wp. putrajaya",
		"Petaling Selangor", "Kota St. Anne", "  ", "", "Wp", "W.P.", "Hulu-Langat",
	}
	for _, in := range inputs {
		if Key(Display(in)) != Key(in) {
			t.Errorf("Key(Display(%q)) = %q, want %q", in, Key(Display(in)), Key(in))
		}
	}
}

func TestIsTerritory(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Wp Kuala Lumpur", true},
		{"W.P. Labuan", true},
		{"WP Putrajaya", true},
		{"w.p. putrajaya", true},
		{"Selangor", false},
		{"Kuala Lumpur", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTerritory(tt.input); got != tt.want {
			t.Errorf("IsTerritory(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStripTerritoryPrefix(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Wp Labuan", "Labuan"},
		{"W.P. Labuan", "Labuan"},
		{"WP Labuan", "Labuan"},
		{"Labuan", "Labuan"},
	}
	for _, tt := range tests {
		if got := StripTerritoryPrefix(tt.input); got != tt.want {
			t.Errorf("StripTerritoryPrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestKeyKeepsAccents(t *testing.T) {
	if Key("Ségamat") == Key("Segamat") {
		t.Errorf("accented and plain names share key %q", Key("Segamat"))
	}
	if got := JoinKey("Johor", "Se\u0301gamat"); got != JoinKey("Johor", "Ségamat") {
		t.Errorf("decomposed form = %q, want the precomposed key", got)
	}
}
