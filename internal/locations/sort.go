package locations

import (
	"sort"
	"time"

	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

// SortLocations returns a copy of locs ordered by UTC offset relative to the
// home entry at the instant, ascending. Entries with equal offsets keep their
// order. Offsets are recomputed into the result. Without a home entry the
// input order and offsets are returned unchanged.
func SortLocations(locs []Location, at time.Time, resolver *tz.Resolver) []Location {
	out := make([]Location, len(locs))
	for i, loc := range locs {
		out[i] = loc.Clone()
	}

	home := -1
	for i, loc := range out {
		if loc.IsCurrent {
			home = i
			break
		}
	}
	if home < 0 {
		return out
	}

	for i := range out {
		out[i].Offset = resolver.OffsetHours(out[i].Label, at)
	}
	base := out[home]
	sort.SliceStable(out, func(i, j int) bool {
		return RelativeOffset(out[i], base) < RelativeOffset(out[j], base)
	})
	return out
}

// RelativeOffset returns loc's offset minus home's.
func RelativeOffset(loc, home Location) float64 {
	return loc.Offset - home.Offset
}
