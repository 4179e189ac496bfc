package tz

import "testing"

func TestDefaultCities(t *testing.T) {
	r := NewResolver()
	defaults := DefaultCities()
	if len(defaults) != 10 {
		t.Errorf("DefaultCities() returned %d cities, want 10", len(defaults))
	}
	for _, c := range defaults {
		if c.Name == "" {
			t.Error("DefaultCities() contains a city with empty name")
		}
		if !r.IsValid(c.Timezone) {
			t.Errorf("DefaultCities() city %q has invalid timezone %q", c.Name, c.Timezone)
		}
	}
}

func TestCityAliasesValid(t *testing.T) {
	r := NewResolver()
	for city, id := range cityMap {
		if !r.IsValid(id) {
			t.Errorf("city %q maps to invalid zone %q", city, id)
		}
	}
}

func TestCityName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"hong kong", "Hong Kong", true},
		{"  NEW YORK ", "New York", true},
		{"atlantis", "", false},
	}
	for _, tt := range tests {
		got, ok := CityName(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CityName(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"America/New_York", "New York"},
		{"America/Argentina/Buenos_Aires", "Buenos Aires"},
		{"tokyo", "Tokyo"},
		{"PST", "PST"},
		{"Trailing/", "Trailing/"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
