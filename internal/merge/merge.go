// Package merge annotates weather-log observations with positions computed
// from a GPS track recorded alongside them.
package merge

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/woozymasta/kestrelgpx/internal/kestrel"
	"github.com/woozymasta/kestrelgpx/internal/track"
)

// ErrBadTime reports a data row whose time cell cannot be parsed.
var ErrBadTime = errors.New("unparseable observation time")

// Options control how observation times are interpreted and how the three
// appended location columns are named.
type Options struct {
	// Location is the zone the log's civil timestamps are recorded in.
	Location *time.Location

	TimeField  string
	TimeLayout string

	PreambleLines int

	LatitudeColumn  string
	LongitudeColumn string
	ElevationColumn string
}

// Stats summarizes one merged log.
type Stats struct {
	Rows    int // data rows written
	Located int // rows annotated with a position
}

// Merge streams the weather log from in to out, appending latitude,
// longitude and elevation columns interpolated on tr. Every data row
// produces exactly one output row in input order; rows whose instant has no
// position on the track keep the three columns empty.
func Merge(tr track.Track, in io.Reader, out io.Writer, opts Options) (Stats, error) {
	var stats Stats

	r, err := kestrel.NewReader(in, opts.PreambleLines, opts.TimeField)
	if err != nil {
		return stats, err
	}

	fields := append(append([]string{}, r.Fields()...),
		opts.LatitudeColumn, opts.LongitudeColumn, opts.ElevationColumn)

	w, err := kestrel.NewWriter(out, r.Preamble(), fields, r.Units())
	if err != nil {
		return stats, err
	}

	timeIdx := r.TimeIndex()
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}

		at, err := time.ParseInLocation(opts.TimeLayout, row.Values[timeIdx], opts.Location)
		if err != nil {
			return stats, fmt.Errorf("%w: line %d: %q", ErrBadTime, row.Line, row.Values[timeIdx])
		}

		values := append(row.Values, "", "", "")
		if pos, ok := tr.Locate(at.UTC()); ok {
			values[len(values)-3] = formatCoord(pos.Latitude)
			values[len(values)-2] = formatCoord(pos.Longitude)
			values[len(values)-1] = formatCoord(pos.Elevation)
			stats.Located++
		}

		if err := w.WriteRow(values); err != nil {
			return stats, err
		}
		stats.Rows++
	}

	return stats, w.Flush()
}

// formatCoord renders a coordinate with the fewest digits that survive a
// float64 round trip.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
