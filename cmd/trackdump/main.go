package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/kestrelgpx/internal/geo"
	"github.com/woozymasta/kestrelgpx/internal/track"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string `short:"i" long:"in" description:"Input GPX file path. Reads from stdin if empty"`
	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" choice:"geojson" default:"json"`
}

type dumpPoint struct {
	Time      string  `json:"time" yaml:"time"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Read Input
	var tr track.Track
	var err error

	if opts.Input != "" {
		tr, err = track.LoadFile(opts.Input)
	} else {
		tr, err = track.Load(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading track: %v\n", err)
		os.Exit(1)
	}

	// marshal
	var outputData []byte
	switch opts.Format {
	case "geojson":
		outputData, err = json.MarshalIndent(featureCollection(tr), "", "  ")
	case "yaml":
		outputData, err = yaml.Marshal(dumpPoints(tr))
	default:
		outputData, err = json.MarshalIndent(dumpPoints(tr), "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling track: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}

		start, end := tr.Bounds()
		fmt.Fprintf(os.Stderr, "Successfully dumped %d points to %s (%.1f km, %s to %s)\n",
			len(tr), opts.Output, tr.Length2D()/1000,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	} else {
		fmt.Println(string(outputData))
	}
}

func dumpPoints(tr track.Track) []dumpPoint {
	points := make([]dumpPoint, 0, len(tr))
	for _, p := range tr {
		points = append(points, dumpPoint{
			Time:      p.Time.Format(time.RFC3339),
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Elevation: p.Elevation,
		})
	}

	return points
}

func featureCollection(tr track.Track) geo.FeatureCollection {
	fc := geo.FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]geo.Feature, 0, len(tr)),
	}

	for _, p := range tr {
		fc.Features = append(fc.Features, geo.Feature{
			Type: "Feature",
			Geometry: geo.Geometry{
				Type:        "Point",
				Coordinates: []float64{p.Longitude, p.Latitude, p.Elevation},
			},
			Properties: map[string]interface{}{
				"time": p.Time.Format(time.RFC3339),
			},
		})
	}

	return fc
}
