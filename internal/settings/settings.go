// Package settings holds display preferences.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTheme is returned for a theme outside light, dark, system.
var ErrInvalidTheme = errors.New("invalid theme")

// Theme selects the color scheme of the presentation layers.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// ParseTheme parses a theme name case-insensitively.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q (expected light, dark or system)", ErrInvalidTheme, s)
	}
	return t, nil
}

// Settings is the flat preference record.
type Settings struct {
	ShowSeconds              bool  `json:"showSeconds"`
	Use24HourFormat          bool  `json:"use24HourFormat"`
	ShowTimezoneAbbreviation bool  `json:"showTimezoneAbbreviation"`
	Theme                    Theme `json:"theme"`
}

// Default returns seconds off, 24-hour on, abbreviations shown, system theme.
func Default() Settings {
	return Settings{
		ShowSeconds:              false,
		Use24HourFormat:          true,
		ShowTimezoneAbbreviation: true,
		Theme:                    ThemeSystem,
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	ShowSeconds              *bool  `json:"showSeconds,omitempty"`
	Use24HourFormat          *bool  `json:"use24HourFormat,omitempty"`
	ShowTimezoneAbbreviation *bool  `json:"showTimezoneAbbreviation,omitempty"`
	Theme                    *Theme `json:"theme,omitempty"`
}

// Validate rejects an unknown theme.
func (p Patch) Validate() error {
	if p.Theme != nil && !p.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, *p.Theme)
	}
	return nil
}

// Apply merges p into s and reports whether anything changed.
// An invalid theme in p is ignored.
func (s Settings) Apply(p Patch) (Settings, bool) {
	next := s
	if p.ShowSeconds != nil {
		next.ShowSeconds = *p.ShowSeconds
	}
	if p.Use24HourFormat != nil {
		next.Use24HourFormat = *p.Use24HourFormat
	}
	if p.ShowTimezoneAbbreviation != nil {
		next.ShowTimezoneAbbreviation = *p.ShowTimezoneAbbreviation
	}
	if p.Theme != nil && p.Theme.Valid() {
		next.Theme = *p.Theme
	}
	return next, next != s
}

// Normalize replaces an unknown theme with the default.
func (s Settings) Normalize() Settings {
	if !s.Theme.Valid() {
		s.Theme = ThemeSystem
	}
	return s
}

// Keys lists the names accepted by ParseAssignment, in display order.
var Keys = []string{"seconds", "24h", "abbreviation", "theme"}

// ParseAssignment turns "key=value" into a Patch. Keys are the short names in
// Keys or the JSON field names.
func ParseAssignment(kv string) (Patch, error) {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return Patch{}, fmt.Errorf("expected key=value, got %q", kv)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	var p Patch
	switch key {
	case "theme":
		t, err := ParseTheme(value)
		if err != nil {
			return Patch{}, err
		}
		p.Theme = &t
		return p, nil
	case "seconds", "showseconds":
		b, err := parseBool(key, value)
		if err != nil {
			return Patch{}, err
		}
		p.ShowSeconds = &b
	case "24h", "use24hourformat":
		b, err := parseBool(key, value)
		if err != nil {
			return Patch{}, err
		}
		p.Use24HourFormat = &b
	case "abbreviation", "showtimezoneabbreviation":
		b, err := parseBool(key, value)
		if err != nil {
			return Patch{}, err
		}
		p.ShowTimezoneAbbreviation = &b
	default:
		return Patch{}, fmt.Errorf("unknown setting %q (expected one of: %s)", key, strings.Join(Keys, ", "))
	}
	return p, nil
}

func parseBool(key, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("setting %s: %q is not a boolean", key, value)
	}
	return b, nil
}

// Merge combines patches left to right.
func Merge(patches ...Patch) Patch {
	var out Patch
	for _, p := range patches {
		if p.ShowSeconds != nil {
			out.ShowSeconds = p.ShowSeconds
		}
		if p.Use24HourFormat != nil {
			out.Use24HourFormat = p.Use24HourFormat
		}
		if p.ShowTimezoneAbbreviation != nil {
			out.ShowTimezoneAbbreviation = p.ShowTimezoneAbbreviation
		}
		if p.Theme != nil {
			out.Theme = p.Theme
		}
	}
	return out
}
