package track

import (
	"sort"
	"time"

	"github.com/woozymasta/kestrelgpx/internal/geo"
)

// Locate computes the position on the track at the given instant by linear
// interpolation between the two points bracketing it. It reports ok=false
// when the instant cannot be bracketed: before the first point, at or past
// the last point with nothing beyond it, or between points less than one
// second apart.
func (t Track) Locate(at time.Time) (geo.Position, bool) {
	// First point strictly after the instant. Points ascend in time, so a
	// binary search finds the same point a forward scan would.
	idx := sort.Search(len(t), func(i int) bool { return t[i].Time.After(at) })
	if idx == 0 || idx == len(t) {
		return geo.Position{}, false
	}

	before, after := t[idx-1], t[idx]

	if before.Time.Equal(at) {
		return before.Position(), true
	}

	// Durations count in whole seconds, the granularity of the source logs.
	span := wholeSeconds(after.Time.Sub(before.Time))
	if span == 0 {
		return geo.Position{}, false
	}

	frac := float64(wholeSeconds(at.Sub(before.Time))) / float64(span)

	return geo.LerpPosition(before.Position(), after.Position(), frac), true
}

func wholeSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
