package main

import (
	"os"
	"path/filepath"

	// Kestrel logs carry civil times, so zone lookups must work even on
	// hosts without a system tzdata.
	_ "time/tzdata"

	"github.com/woozymasta/kestrelgpx/internal/config"
	"github.com/woozymasta/kestrelgpx/internal/logger"
	"github.com/woozymasta/kestrelgpx/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string `short:"c" long:"config"         env:"CONFIG_FILE" description:"Path to configuration file"`
	Timezone      string `short:"z" long:"timezone"       env:"SOURCE_TZ"   description:"Zone the weather-log times are recorded in"`
	Concurrency   int    `short:"p" long:"concurrency"    env:"CONCURRENCY" description:"File pairs merged in parallel"`
	KeepOriginals bool   `short:"k" long:"keep-originals" description:"Leave processed source files in place"`

	Args struct {
		Directory string `positional-arg-name:"directory" description:"Directory with track and weather-log files, current if empty"`
	} `positional-args:"yes"`
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

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Timezone != "" {
		cfg.Timezone = opts.Timezone
	}
	if opts.KeepOriginals {
		cfg.KeepOriginals = true
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.Concurrency
	}

	if _, err := cfg.Location(); err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Unknown source time zone")
	}

	target, err := targetDir(opts.Args.Directory)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve target directory")
	}

	log.Info().
		Str("dir", target).
		Str("timezone", cfg.Timezone).
		Int("concurrency", opts.Concurrency).
		Msg("Merging tracks into weather logs")

	sum, err := processor.Process(target, cfg, opts.Concurrency)
	if err != nil {
		log.Fatal().Err(err).Msg("Merge run failed")
	}

	log.Info().
		Int("pairs", sum.Pairs).
		Int("merged", sum.Merged).
		Int("rows", sum.Rows).
		Int("located", sum.Located).
		Msg("Merge run finished successfully")
}

// targetDir resolves the positional argument: empty means the current
// directory, a file means the directory it sits in.
func targetDir(arg string) (string, error) {
	if arg == "" {
		return os.Getwd()
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return abs, nil
	}

	return filepath.Dir(abs), nil
}
