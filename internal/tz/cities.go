package tz

import "strings"

// City is a named place with its IANA time zone identifier.
type City struct {
	Name     string `yaml:"name" json:"name"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// cityMap maps lowercase city names to their IANA timezone identifiers.
var cityMap = map[string]string{
	// Americas
	"new york":     "America/New_York",
	"los angeles":  "America/Los_Angeles",
	"chicago":      "America/Chicago",
	"toronto":      "America/Toronto",
	"vancouver":    "America/Vancouver",
	"mexico city":  "America/Mexico_City",
	"sao paulo":    "America/Sao_Paulo",
	"buenos aires": "America/Argentina/Buenos_Aires",
	"lima":         "America/Lima",
	"bogota":       "America/Bogota",
	// Europe
	"london":    "Europe/London",
	"paris":     "Europe/Paris",
	"berlin":    "Europe/Berlin",
	"madrid":    "Europe/Madrid",
	"rome":      "Europe/Rome",
	"amsterdam": "Europe/Amsterdam",
	"moscow":    "Europe/Moscow",
	"istanbul":  "Europe/Istanbul",
	"zurich":    "Europe/Zurich",
	"warsaw":    "Europe/Warsaw",
	// Asia
	"tokyo":     "Asia/Tokyo",
	"shanghai":  "Asia/Shanghai",
	"beijing":   "Asia/Shanghai",
	"hong kong": "Asia/Hong_Kong",
	"singapore": "Asia/Singapore",
	"seoul":     "Asia/Seoul",
	"mumbai":    "Asia/Kolkata",
	"delhi":     "Asia/Kolkata",
	"bangkok":   "Asia/Bangkok",
	"jakarta":   "Asia/Jakarta",
	"taipei":    "Asia/Taipei",
	// Middle East
	"dubai":  "Asia/Dubai",
	"doha":   "Asia/Qatar",
	"riyadh": "Asia/Riyadh",
	// Oceania
	"sydney":    "Australia/Sydney",
	"melbourne": "Australia/Melbourne",
	"auckland":  "Pacific/Auckland",
	// Africa
	"cairo":        "Africa/Cairo",
	"johannesburg": "Africa/Johannesburg",
	"nairobi":      "Africa/Nairobi",
}

// DefaultCities returns 10 major cities from around the world.
func DefaultCities() []City {
	return []City{
		{Name: "New York", Timezone: "America/New_York"},
		{Name: "London", Timezone: "Europe/London"},
		{Name: "Tokyo", Timezone: "Asia/Tokyo"},
		{Name: "Sydney", Timezone: "Australia/Sydney"},
		{Name: "Paris", Timezone: "Europe/Paris"},
		{Name: "Dubai", Timezone: "Asia/Dubai"},
		{Name: "Singapore", Timezone: "Asia/Singapore"},
		{Name: "Hong Kong", Timezone: "Asia/Hong_Kong"},
		{Name: "Berlin", Timezone: "Europe/Berlin"},
		{Name: "São Paulo", Timezone: "America/Sao_Paulo"},
	}
}

// CityName returns a display name for a city alias, e.g. "hong kong" -> "Hong Kong".
// ok is false when s is not a known city.
func CityName(s string) (name string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, found := cityMap[key]; !found {
		return "", false
	}
	return titleCase(key), true
}

// DisplayName derives a human-readable name from a label: the city of an
// IANA id ("America/New_York" -> "New York"), a title-cased city alias, or
// the label itself.
func DisplayName(label string) string {
	label = strings.TrimSpace(label)
	if name, ok := CityName(label); ok {
		return name
	}
	if i := strings.LastIndex(label, "/"); i >= 0 && i < len(label)-1 {
		return strings.ReplaceAll(label[i+1:], "_", " ")
	}
	return label
}

// titleCase converts a string to title case (first letter of each word capitalized).
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
