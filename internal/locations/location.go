// Package locations keeps the ordered list of compared places and the
// display settings, persisted as one snapshot in a key-value store.
package locations

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agent-platform/tools/tzcompare/internal/settings"
)

const (
	// StorageKey is the key the snapshot is persisted under.
	StorageKey = "time-zone-storage"
	// HomeName is the name given to a synthesized home entry.
	HomeName = "Current Location"

	MaxNameLength  = 50
	MaxLabelLength = 100
)

var (
	ErrMalformedRecord  = errors.New("malformed location record")
	ErrDuplicateLabel   = errors.New("a location with this label already exists")
	ErrHomeNotRemovable = errors.New("the home location cannot be removed")
	ErrNotFound         = errors.New("location not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// Location is one compared place. Offset is derived from Label at the
// current instant and is never trusted from storage.
type Location struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Label           string   `json:"label"`
	Offset          float64  `json:"offset"`
	IsCurrent       bool     `json:"isCurrent"`
	SecondaryLabels []string `json:"secondaryLabels"`
}

// Clone returns a deep copy of l.
func (l Location) Clone() Location {
	l.SecondaryLabels = append([]string{}, l.SecondaryLabels...)
	return l
}

func (l Location) equal(o Location) bool {
	return l.ID == o.ID &&
		l.Name == o.Name &&
		l.Label == o.Label &&
		l.Offset == o.Offset &&
		l.IsCurrent == o.IsCurrent &&
		slices.Equal(l.SecondaryLabels, o.SecondaryLabels)
}

// Snapshot is the persisted state.
type Snapshot struct {
	Locations []Location        `json:"locations"`
	Settings  settings.Settings `json:"settings"`
}

// SanitizeName trims, strips angle brackets and truncates to MaxNameLength
// characters.
func SanitizeName(s string) string {
	return sanitize(s, MaxNameLength)
}

// SanitizeLabel is SanitizeName for labels and secondary labels.
func SanitizeLabel(s string) string {
	return sanitize(s, MaxLabelLength)
}

func sanitize(s string, max int) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		s = strings.TrimSpace(string([]rune(s)[:max]))
	}
	return s
}

// ValidName reports whether name is non-empty and within bounds once trimmed.
func ValidName(name string) bool {
	return validText(name, MaxNameLength)
}

// ValidLabel reports whether label is non-empty and within bounds once trimmed.
func ValidLabel(label string) bool {
	return validText(label, MaxLabelLength)
}

func validText(s string, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n > 0 && n <= max
}

// record mirrors Location with pointers so missing fields and wrong types
// can be told apart from zero values.
type record struct {
	ID              *string  `json:"id"`
	Name            *string  `json:"name"`
	Label           *string  `json:"label"`
	Offset          *float64 `json:"offset"`
	IsCurrent       *bool    `json:"isCurrent"`
	SecondaryLabels []string `json:"secondaryLabels"`
}

// DecodeLocation validates one persisted entry. The offset is reset to 0.
func DecodeLocation(raw json.RawMessage) (Location, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	switch {
	case r.ID == nil || strings.TrimSpace(*r.ID) == "":
		return Location{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	case r.Name == nil || !ValidName(*r.Name):
		return Location{}, fmt.Errorf("%w: bad name", ErrMalformedRecord)
	case r.Label == nil || !ValidLabel(*r.Label):
		return Location{}, fmt.Errorf("%w: bad label", ErrMalformedRecord)
	}

	loc := Location{
		ID:              *r.ID,
		Name:            SanitizeName(*r.Name),
		Label:           SanitizeLabel(*r.Label),
		IsCurrent:       r.IsCurrent != nil && *r.IsCurrent,
		SecondaryLabels: []string{},
	}
	if loc.Name == "" || loc.Label == "" {
		return Location{}, fmt.Errorf("%w: empty after sanitizing", ErrMalformedRecord)
	}
	for i, text := range r.SecondaryLabels {
		if !ValidLabel(text) {
			return Location{}, fmt.Errorf("%w: bad secondary label %d", ErrMalformedRecord, i)
		}
		loc.SecondaryLabels = append(loc.SecondaryLabels, SanitizeLabel(text))
	}
	return loc, nil
}

// DecodeSnapshot parses a persisted snapshot. Malformed entries are dropped
// and counted; entries repeating an earlier id are dropped too; only the
// first home entry keeps its flag. Missing or malformed settings fall back
// to defaults field by field.
func DecodeSnapshot(data []byte) (snap Snapshot, dropped int, err error) {
	var raw struct {
		Locations []json.RawMessage `json:"locations"`
		Settings  json.RawMessage   `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, 0, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	snap.Locations = []Location{}
	seen := make(map[string]bool, len(raw.Locations))
	home := false
	for _, entry := range raw.Locations {
		loc, err := DecodeLocation(entry)
		if err != nil || seen[loc.ID] {
			dropped++
			continue
		}
		seen[loc.ID] = true
		if loc.IsCurrent {
			if home {
				loc.IsCurrent = false
			}
			home = true
		}
		snap.Locations = append(snap.Locations, loc)
	}

	snap.Settings = decodeSettings(raw.Settings)
	return snap, dropped, nil
}

func decodeSettings(raw json.RawMessage) settings.Settings {
	s := settings.Default()
	if len(raw) == 0 {
		return s
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return settings.Default()
	}
	return s.Normalize()
}

// EncodeSnapshot serializes snap with every offset forced to 0.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	out := Snapshot{
		Locations: make([]Location, len(snap.Locations)),
		Settings:  snap.Settings,
	}
	for i, loc := range snap.Locations {
		loc = loc.Clone()
		loc.Offset = 0
		out.Locations[i] = loc
	}
	return json.Marshal(out)
}
