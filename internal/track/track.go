// Package track loads GPS tracks and answers time-based position lookups
// against them.
package track

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/woozymasta/kestrelgpx/internal/geo"

	"github.com/tkrajina/gpxgo/gpx"
)

// ErrNoPoints reports a well-formed track source without a single track point.
var ErrNoPoints = errors.New("track contains no points")

// Point is one timestamped position sample, normalized to UTC.
type Point struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Elevation float64
}

// Position returns the point's coordinates as a geo.Position.
func (p Point) Position() geo.Position {
	return geo.Position{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Elevation: p.Elevation,
	}
}

// Track is the flattened point sequence of a GPX document in document order.
// Recorded tracks ascend in time; lookups rely on that order.
type Track []Point

// Load parses a GPX document from r and flattens all tracks and segments
// into a single point sequence. Timestamps are normalized to UTC and
// missing elevations load as zero.
func Load(r io.Reader) (Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}

	var points Track
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				points = append(points, Point{
					Time:      p.Timestamp.In(time.UTC),
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
					Elevation: p.Elevation.Value(),
				})
			}
		}
	}

	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	return points, nil
}

// LoadFile reads and parses the GPX file at path.
func LoadFile(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Bounds returns the timestamps of the first and last points, zero values
// for an empty track.
func (t Track) Bounds() (start, end time.Time) {
	if len(t) == 0 {
		return
	}

	return t[0].Time, t[len(t)-1].Time
}

// Length2D returns the cumulative great-circle distance over consecutive
// points in meters, ignoring elevation.
func (t Track) Length2D() float64 {
	var total float64
	for i := 1; i < len(t); i++ {
		total += geo.Haversine(t[i-1].Latitude, t[i-1].Longitude, t[i].Latitude, t[i].Longitude)
	}

	return total
}
