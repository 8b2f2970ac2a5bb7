// Package processor pairs track files with weather logs and merges them.
package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/woozymasta/kestrelgpx/internal/config"
	"github.com/woozymasta/kestrelgpx/internal/merge"
	"github.com/woozymasta/kestrelgpx/internal/track"

	"github.com/rs/zerolog/log"
)

// Pair is one track file with the weather log sharing its base name.
type Pair struct {
	Name  string // shared base name without extension
	Track string
	Log   string
}

type result struct {
	stats merge.Stats
	err   error
}

// Summary aggregates the outcome of one directory run.
type Summary struct {
	Pairs   int
	Merged  int
	Failed  int
	Rows    int
	Located int
}

// Pairs scans dir for track files and matches each with the weather log of
// the same base name. Tracks without a log are skipped with a warning.
func Pairs(dir string, cfg *config.Config) ([]Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != cfg.TrackExt {
			continue
		}

		name := strings.TrimSuffix(e.Name(), cfg.TrackExt)
		logPath := filepath.Join(dir, name+cfg.LogExt)
		if _, err := os.Stat(logPath); err != nil {
			log.Warn().Str("track", e.Name()).Msg("No matching weather log, skipping")
			continue
		}

		pairs = append(pairs, Pair{
			Name:  name,
			Track: filepath.Join(dir, e.Name()),
			Log:   logPath,
		})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })

	return pairs, nil
}

// Process merges every pair found in dir with a bounded worker pool, then
// moves the processed sources aside unless the configuration keeps them.
// The returned error reports how many pairs failed; per-pair details are
// logged as they happen.
func Process(dir string, cfg *config.Config, concurrency int) (Summary, error) {
	pairs, err := Pairs(dir, cfg)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Pairs: len(pairs)}
	if len(pairs) == 0 {
		log.Info().Str("dir", dir).Msg("No track files to merge")
		return sum, nil
	}

	loc, err := cfg.Location()
	if err != nil {
		return sum, err
	}

	if err := setupDirs(dir, cfg); err != nil {
		return sum, err
	}

	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}

	jobs := make(chan Pair, len(pairs))
	results := make(chan result, len(pairs))

	go func() {
		for _, p := range pairs {
			jobs <- p
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				stats, err := mergePair(dir, p, cfg, loc)
				if err != nil {
					log.Error().
						Err(err).
						Str("track", p.Track).
						Str("log", p.Log).
						Msg("Failed to merge pair")
				}
				results <- result{stats: stats, err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			sum.Failed++
			continue
		}
		sum.Merged++
		sum.Rows += res.stats.Rows
		sum.Located += res.stats.Located
	}

	if sum.Failed > 0 {
		return sum, fmt.Errorf("%d of %d pairs failed", sum.Failed, sum.Pairs)
	}

	return sum, nil
}

// mergePair runs one track/log pair end to end: load, merge, and either
// move the sources aside or leave them in place.
func mergePair(dir string, p Pair, cfg *config.Config, loc *time.Location) (merge.Stats, error) {
	tr, err := track.LoadFile(p.Track)
	if err != nil {
		return merge.Stats{}, err
	}

	start, end := tr.Bounds()
	log.Debug().
		Str("track", p.Track).
		Int("points", len(tr)).
		Time("start", start).
		Time("end", end).
		Msg("Track loaded")

	outPath := filepath.Join(dir, cfg.LocatedDir, p.Name+cfg.LocatedSuffix+cfg.LogExt)

	stats, err := mergeFiles(tr, p.Log, outPath, cfg, loc)
	if err != nil {
		// Drop the partial output, leave the sources where they are.
		_ = os.Remove(outPath)
		return stats, err
	}

	if !cfg.KeepOriginals {
		if err := moveOriginals(dir, p, cfg); err != nil {
			return stats, err
		}
	}

	log.Info().
		Str("track", filepath.Base(p.Track)).
		Str("log", filepath.Base(p.Log)).
		Str("output", outPath).
		Int("rows", stats.Rows).
		Int("located", stats.Located).
		Msg("Merged")

	return stats, nil
}

func mergeFiles(tr track.Track, logPath, outPath string, cfg *config.Config, loc *time.Location) (merge.Stats, error) {
	in, err := os.Open(logPath)
	if err != nil {
		return merge.Stats{}, err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(outPath)
	if err != nil {
		return merge.Stats{}, err
	}

	stats, err := merge.Merge(tr, in, out, merge.Options{
		Location:        loc,
		TimeField:       cfg.TimeField,
		TimeLayout:      cfg.TimeLayout,
		PreambleLines:   cfg.PreambleLines,
		LatitudeColumn:  cfg.Columns.Latitude,
		LongitudeColumn: cfg.Columns.Longitude,
		ElevationColumn: cfg.Columns.Elevation,
	})

	// We care about write errors on close
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	return stats, err
}

func setupDirs(dir string, cfg *config.Config) error {
	subs := []string{cfg.LocatedDir}
	if !cfg.KeepOriginals {
		subs = append(subs, cfg.OriginalsDir)
	}

	for _, sub := range subs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return err
		}
	}

	return nil
}

func moveOriginals(dir string, p Pair, cfg *config.Config) error {
	dest := filepath.Join(dir, cfg.OriginalsDir)

	for _, src := range []string{p.Track, p.Log} {
		if err := os.Rename(src, filepath.Join(dest, filepath.Base(src))); err != nil {
			return err
		}
	}

	return nil
}
