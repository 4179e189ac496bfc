// Package tz normalizes free-form time zone labels (display names,
// abbreviations, city names, IANA ids) to IANA zone ids and answers
// offset and abbreviation questions about them.
package tz

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/maypok86/otter/v2"
)

// ErrInvalidTimeZone is returned when a label does not resolve to a loadable zone.
var ErrInvalidTimeZone = errors.New("invalid time zone")

// zoneMapping maps common display names and abbreviations to IANA ids.
// Labels not listed here are assumed to already be IANA ids.
var zoneMapping = map[string]string{
	"Hawaiian Standard Time":         "Pacific/Honolulu",
	"Alaskan Standard Time":          "America/Anchorage",
	"Pacific Standard Time":          "America/Los_Angeles",
	"Mountain Standard Time":         "America/Denver",
	"Central Standard Time":          "America/Chicago",
	"Eastern Standard Time":          "America/New_York",
	"Atlantic Standard Time":         "America/Halifax",
	"E. South America Standard Time": "America/Sao_Paulo",
	"GMT Standard Time":              "Europe/London",
	"W. Europe Standard Time":        "Europe/Berlin",
	"Romance Standard Time":          "Europe/Paris",
	"Central Europe Standard Time":   "Europe/Budapest",
	"Russian Standard Time":          "Europe/Moscow",
	"Arabian Standard Time":          "Asia/Dubai",
	"India Standard Time":            "Asia/Kolkata",
	"China Standard Time":            "Asia/Shanghai",
	"Singapore Standard Time":        "Asia/Singapore",
	"Tokyo Standard Time":            "Asia/Tokyo",
	"Korea Standard Time":            "Asia/Seoul",
	"AUS Eastern Standard Time":      "Australia/Sydney",
	"New Zealand Standard Time":      "Pacific/Auckland",

	"HST":  "Pacific/Honolulu",
	"AKST": "America/Anchorage",
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"MST":  "America/Denver",
	"CST":  "America/Chicago",
	"EST":  "America/New_York",
	"BST":  "Europe/London",
	"CET":  "Europe/Paris",
	"JST":  "Asia/Tokyo",
	"KST":  "Asia/Seoul",
	"AEST": "Australia/Sydney",
	"NZST": "Pacific/Auckland",
}

// Zone is one entry of the mapping table.
type Zone struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Zones returns the mapping table sorted by name.
func Zones() []Zone {
	zones := make([]Zone, 0, len(zoneMapping))
	for name, id := range zoneMapping {
		zones = append(zones, Zone{Name: name, ID: id})
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones
}

// Resolver resolves labels and caches loaded locations.
// It is safe for concurrent use.
type Resolver struct {
	folded map[string]string
	cache  *otter.Cache[string, *time.Location]
	warned sync.Map
}

// NewResolver builds a Resolver over the static mapping table and city aliases.
func NewResolver() *Resolver {
	folded := make(map[string]string, len(zoneMapping)+len(cityMap))
	for city, id := range cityMap {
		folded[city] = id
	}
	for name, id := range zoneMapping {
		folded[strings.ToLower(name)] = id
	}
	return &Resolver{
		folded: folded,
		cache: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize: 1024,
		}),
	}
}

// Resolve maps label to an IANA id. Exact table matches win, then
// case-insensitive table and city matches; anything else is returned unchanged.
func (r *Resolver) Resolve(label string) string {
	key := strings.TrimSpace(label)
	if id, ok := zoneMapping[key]; ok {
		return id
	}
	if id, ok := r.folded[strings.ToLower(key)]; ok {
		return id
	}
	return label
}

// Location loads the zone for label.
func (r *Resolver) Location(label string) (*time.Location, error) {
	id := r.Resolve(label)
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty label", ErrInvalidTimeZone)
	}
	if loc, ok := r.cache.GetIfPresent(id); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimeZone, label, err)
	}
	r.cache.Set(id, loc)
	return loc, nil
}

// IsValid reports whether label resolves to a loadable zone.
func (r *Resolver) IsValid(label string) bool {
	_, err := r.Location(label)
	return err == nil
}

// LocationOrLocal loads the zone for label, falling back to the system's
// local zone with a warning.
func (r *Resolver) LocationOrLocal(label string) *time.Location {
	loc, err := r.Location(label)
	if err != nil {
		r.warn(label, "using local time instead")
		return time.Local
	}
	return loc
}

// Abbreviation returns the short zone name for label at the instant, e.g.
// "PDT", or "" when the label is invalid.
func (r *Resolver) Abbreviation(label string, at time.Time) string {
	loc, err := r.Location(label)
	if err != nil {
		r.warn(label, "no abbreviation available")
		return ""
	}
	name, _ := at.In(loc).Zone()
	return name
}

// OffsetHours returns the UTC offset of label at the instant in hours.
// Invalid labels fall back to the local offset.
func (r *Resolver) OffsetHours(label string, at time.Time) float64 {
	_, secs := at.In(r.LocationOrLocal(label)).Zone()
	return float64(secs) / 3600
}

// warn logs once per label so periodic redraws do not flood the log.
func (r *Resolver) warn(label, fallback string) {
	if _, seen := r.warned.LoadOrStore(label, struct{}{}); seen {
		return
	}
	log.Printf("WARN: invalid time zone %q, %s", label, fallback)
}

var (
	getenv   = os.Getenv
	readlink = os.Readlink
)

// Detect returns the IANA id of the runtime's zone: $TZ, then the target of
// /etc/localtime, then time.Local's name, else "UTC".
func (r *Resolver) Detect() string {
	if name := strings.TrimPrefix(getenv("TZ"), ":"); name != "" && name != "Local" && r.IsValid(name) {
		return name
	}
	if target, err := readlink("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			if name := target[i+len("zoneinfo/"):]; r.IsValid(name) {
				return name
			}
		}
	}
	if name := time.Local.String(); name != "Local" && r.IsValid(name) {
		return name
	}
	return "UTC"
}
