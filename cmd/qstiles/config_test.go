package main

import (
	"flag"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/tilesource"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qstiles.toml")
	err := os.WriteFile(path, []byte(`
workers = 4
local_fallback = true
no_data_height = -9999.0
elevation_offset = 1000.0
`), 0644)
	require.NoError(t, err)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, config{
		Workers:         4,
		LocalFallback:   true,
		NoDataHeight:    -9999,
		ElevationOffset: 1000,
	}, cfg)

	require.NoError(t, os.WriteFile(path, []byte("wrokers = 4\n"), 0644))
	_, err = loadConfig(path)
	require.Error(t, err)
}

func TestConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qstiles.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 4\nverbose = true\n"), 0644))

	var flags configFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.register(fs)
	require.NoError(t, fs.Parse([]string{"-c", path, "-j", "1000", "-fallback"}))

	cfg, err := flags.load(fs)
	require.NoError(t, err)
	require.Equal(t, db.MaxReaders, cfg.Workers)
	require.True(t, cfg.LocalFallback)
	require.True(t, cfg.Verbose)
	require.Equal(t, float32(tilesource.DefaultNoDataHeight), cfg.NoDataHeight)
}

func TestElevationImage(t *testing.T) {
	h := &tilesource.HeightField{
		Width:   2,
		Height:  2,
		Heights: []float32{-9999, 0, 12.4, -40000},
	}
	img := elevationImage(h, -9999, 32768)
	require.Equal(t, color.Gray16{Y: 0}, img.Gray16At(0, 0))
	require.Equal(t, color.Gray16{Y: 32768}, img.Gray16At(1, 0))
	require.Equal(t, color.Gray16{Y: 32780}, img.Gray16At(0, 1))
	require.Equal(t, color.Gray16{Y: 0}, img.Gray16At(1, 1))
}
