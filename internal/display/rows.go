// Package display turns locations into rows and draws them in a terminal.
package display

import (
	"time"

	"github.com/agent-platform/tools/tzcompare/internal/clock"
	"github.com/agent-platform/tools/tzcompare/internal/gradient"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/settings"
	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

// Row is one location as shown at one instant.
type Row struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Label           string   `json:"label"`
	Zone            string   `json:"zone"`
	Time            string   `json:"time"`
	Date            string   `json:"date"`
	Abbreviation    string   `json:"abbreviation,omitempty"`
	Offset          string   `json:"offset"`
	OffsetHours     float64  `json:"offsetHours"`
	Relative        string   `json:"relative"`
	RelativeHours   float64  `json:"relativeHours"`
	Hour            float64  `json:"hour"`
	Background      string   `json:"background"`
	Foreground      string   `json:"foreground"`
	IsHome          bool     `json:"isCurrent"`
	SecondaryLabels []string `json:"secondaryLabels"`
}

// Rows builds a row per location at the instant. Invalid labels render in
// local time.
func Rows(locs []locations.Location, r *tz.Resolver, at time.Time, s settings.Settings) []Row {
	var home locations.Location
	for _, loc := range locs {
		if loc.IsCurrent {
			home = loc
			break
		}
	}
	homeOffset := 0.0
	if home.IsCurrent {
		homeOffset = r.OffsetHours(home.Label, at)
	}

	rows := make([]Row, 0, len(locs))
	for _, loc := range locs {
		local := at.In(r.LocationOrLocal(loc.Label))
		offset := r.OffsetHours(loc.Label, at)
		bg := gradient.ForTime(local)

		row := Row{
			ID:              loc.ID,
			Name:            loc.Name,
			Label:           loc.Label,
			Zone:            r.Resolve(loc.Label),
			Time:            clock.FormatTime(local, s),
			Date:            clock.FormatDate(local),
			Offset:          clock.FormatOffset(offset),
			OffsetHours:     offset,
			Relative:        clock.FormatRelative(offset - homeOffset),
			RelativeHours:   offset - homeOffset,
			Hour:            gradient.HourOf(local),
			Background:      bg.Hex(),
			Foreground:      gradient.Foreground(bg).Hex(),
			IsHome:          loc.IsCurrent,
			SecondaryLabels: append([]string{}, loc.SecondaryLabels...),
		}
		if s.ShowTimezoneAbbreviation {
			row.Abbreviation = r.Abbreviation(loc.Label, at)
		}
		rows = append(rows, row)
	}
	return rows
}

// FrameOf captures the store's state at the instant.
func FrameOf(st *locations.Store, at time.Time, manual bool) Frame {
	s := st.Settings()
	return Frame{
		Rows:     Rows(st.Locations(), st.Resolver(), at, s),
		At:       at,
		Manual:   manual,
		Settings: s,
	}
}
