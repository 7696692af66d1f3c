package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/tilesource"
)

// config holds settings shared by the subcommands. Values come from an optional TOML
// file and are overridden by flags given on the command line.
type config struct {
	Workers         int     `toml:"workers"`
	LocalFallback   bool    `toml:"local_fallback"`
	NoDataHeight    float32 `toml:"no_data_height"`
	ElevationOffset float64 `toml:"elevation_offset"`
	Verbose         bool    `toml:"verbose"`
}

func defaultConfig() config {
	return config{
		Workers:         runtime.NumCPU(),
		NoDataHeight:    tilesource.DefaultNoDataHeight,
		ElevationOffset: 32768,
	}
}

func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	return c, nil
}

// configFlags are the flags that override config file values.
type configFlags struct {
	path          string
	workers       int
	localFallback bool
	verbose       bool
}

func (c *configFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.path, "c", "", "Config file path (TOML)")
	f.IntVar(&c.workers, "j", runtime.NumCPU(), "Number of parallel readers")
	f.BoolVar(&c.localFallback, "fallback", false, "Read the local copy when the container is missing")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

// load reads the config file and applies the flags that were set explicitly.
func (c *configFlags) load(f *flag.FlagSet) (config, error) {
	cfg, err := loadConfig(c.path)
	if err != nil {
		return cfg, err
	}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "j":
			cfg.Workers = c.workers
		case "fallback":
			cfg.LocalFallback = c.localFallback
		case "v":
			cfg.Verbose = c.verbose
		}
	})
	cfg.Workers = max(1, min(cfg.Workers, db.MaxReaders))
	return cfg, nil
}

func (c config) logger() *slog.Logger {
	if !c.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (c config) storeOptions() []db.Option {
	opts := []db.Option{db.WithLogger(c.logger())}
	if c.LocalFallback {
		opts = append(opts, db.WithLocalFallback())
	}
	return opts
}

func (c config) sourceOptions() []tilesource.Option {
	opts := []tilesource.Option{
		tilesource.WithLogger(c.logger()),
		tilesource.WithNoDataHeight(c.NoDataHeight),
	}
	if c.LocalFallback {
		opts = append(opts, tilesource.WithLocalFallback())
	}
	return opts
}
