package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/kestrelgpx/internal/config"
)

const testGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1" version="1.1" creator="eTrex 30">
 <trk><trkseg>
  <trkpt lat="46.5" lon="8.0"><ele>2000</ele><time>2021-06-12T06:00:00Z</time></trkpt>
  <trkpt lat="46.75" lon="8.5"><ele>2040</ele><time>2021-06-12T06:00:10Z</time></trkpt>
  <trkpt lat="47.0" lon="9.0"><ele>2080</ele><time>2021-06-12T06:00:20Z</time></trkpt>
 </trkseg></trk>
</gpx>`

const testLog = `Device Name,KESTREL 5500
Device Model,K5500
Serial Number,2481790
FW Version,1.03
Station Name,field kit
Export Date,2021-06-14 10:12:44
Log Interval,10 seconds
Units,Metric

Time,Temperature,Wind Speed
,°C,m/s
2021-06-12 06:00:05,21.5,3.2
2021-06-12 06:00:15,21.6,2.8
`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timezone = "UTC"

	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writePair(t *testing.T, dir, name string) {
	t.Helper()

	writeFile(t, filepath.Join(dir, name+".gpx"), testGPX)
	writeFile(t, filepath.Join(dir, name+".csv"), testLog)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPairs(t *testing.T) {
	dir := t.TempDir()

	writePair(t, dir, "walk1")
	writePair(t, dir, "walk2")
	writeFile(t, filepath.Join(dir, "lonely.gpx"), testGPX)
	writeFile(t, filepath.Join(dir, "notes.txt"), "nothing to see")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	pairs, err := Pairs(dir, testConfig())
	if err != nil {
		t.Fatalf("Pairs() error: %v", err)
	}

	if len(pairs) != 2 {
		t.Fatalf("Pairs() = %d pairs, want 2", len(pairs))
	}
	if pairs[0].Name != "walk1" || pairs[1].Name != "walk2" {
		t.Errorf("pair names = %s, %s", pairs[0].Name, pairs[1].Name)
	}
	if pairs[0].Track != filepath.Join(dir, "walk1.gpx") || pairs[0].Log != filepath.Join(dir, "walk1.csv") {
		t.Errorf("pair paths = %+v", pairs[0])
	}
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "walk1")
	writePair(t, dir, "walk2")

	sum, err := Process(dir, testConfig(), 2)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := Summary{Pairs: 2, Merged: 2, Rows: 4, Located: 4}
	if sum != want {
		t.Errorf("Summary = %+v, want %+v", sum, want)
	}

	outPath := filepath.Join(dir, "located_data", "walk1-located.csv")
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 13 {
		t.Fatalf("output has %d lines, want 13", len(lines))
	}
	if lines[9] != "Time,Temperature,Wind Speed,latitude,longitude,elevation" {
		t.Errorf("header = %q", lines[9])
	}
	if lines[11] != "2021-06-12 06:00:05,21.5,3.2,46.625,8.25,2020" {
		t.Errorf("first row = %q", lines[11])
	}
	if lines[12] != "2021-06-12 06:00:15,21.6,2.8,46.875,8.75,2060" {
		t.Errorf("second row = %q", lines[12])
	}

	// Sources move into the originals directory.
	for _, name := range []string{"walk1.gpx", "walk1.csv", "walk2.gpx", "walk2.csv"} {
		if exists(filepath.Join(dir, name)) {
			t.Errorf("%s still in the work directory", name)
		}
		if !exists(filepath.Join(dir, "original_data", name)) {
			t.Errorf("%s not moved to original_data", name)
		}
	}
}

func TestProcessZeroConcurrency(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "walk1")

	// Neither the argument nor the config names a worker count.
	cfg := testConfig()
	cfg.Concurrency = 0

	sum, err := Process(dir, cfg, 0)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if sum.Merged != 1 {
		t.Errorf("Summary = %+v, want 1 merged", sum)
	}
	if !exists(filepath.Join(dir, "located_data", "walk1-located.csv")) {
		t.Error("merged output missing")
	}
}

func TestProcessKeepOriginals(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "walk1")

	cfg := testConfig()
	cfg.KeepOriginals = true

	if _, err := Process(dir, cfg, 1); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if !exists(filepath.Join(dir, "walk1.gpx")) || !exists(filepath.Join(dir, "walk1.csv")) {
		t.Error("sources moved despite keep_originals")
	}
	if exists(filepath.Join(dir, "original_data")) {
		t.Error("original_data created despite keep_originals")
	}
	if !exists(filepath.Join(dir, "located_data", "walk1-located.csv")) {
		t.Error("merged output missing")
	}
}

func TestProcessFailedPair(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "good")

	// A log without the time column fails its merge.
	writeFile(t, filepath.Join(dir, "bad.gpx"), testGPX)
	writeFile(t, filepath.Join(dir, "bad.csv"), strings.Replace(testLog, "Time,Temperature", "Timestamp,Temperature", 1))

	sum, err := Process(dir, testConfig(), 2)
	if err == nil {
		t.Fatal("Process() with a failing pair reported no error")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error = %v, want failure count", err)
	}
	if sum.Merged != 1 || sum.Failed != 1 {
		t.Errorf("Summary = %+v, want 1 merged, 1 failed", sum)
	}

	// The failed pair keeps its sources and leaves no partial output.
	if !exists(filepath.Join(dir, "bad.gpx")) || !exists(filepath.Join(dir, "bad.csv")) {
		t.Error("failed pair's sources were moved")
	}
	if exists(filepath.Join(dir, "located_data", "bad-located.csv")) {
		t.Error("partial output left behind")
	}

	if !exists(filepath.Join(dir, "located_data", "good-located.csv")) {
		t.Error("good pair's output missing")
	}
	if !exists(filepath.Join(dir, "original_data", "good.gpx")) {
		t.Error("good pair's sources not moved")
	}
}

func TestProcessEmptyDir(t *testing.T) {
	dir := t.TempDir()

	sum, err := Process(dir, testConfig(), 2)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if sum != (Summary{}) {
		t.Errorf("Summary = %+v, want zero", sum)
	}

	if exists(filepath.Join(dir, "located_data")) || exists(filepath.Join(dir, "original_data")) {
		t.Error("subdirectories created for an empty directory")
	}
}

func TestProcessMissingDir(t *testing.T) {
	if _, err := Process(filepath.Join(t.TempDir(), "nope"), testConfig(), 1); err == nil {
		t.Error("Process() on a missing directory did not fail")
	}
}
