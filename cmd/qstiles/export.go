package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/tile"
	"github.com/eak1mov/go-qstiles/tilesource"
	"github.com/eak1mov/go-qstiles/xyz"
)

type exportCmd struct {
	inputPath     string
	textureSet    string
	outputPattern string
	flags         configFlags
}

func (c *exportCmd) Name() string     { return "export" }
func (c *exportCmd) Synopsis() string { return "decode every stored tile of a texture set into files" }
func (c *exportCmd) Usage() string {
	return "qstiles export -i <path> -s <name> -o <pattern> [-c <config> -j <workers>]\n" +
		"  pattern must contain {f}, {z}, {x} and {y}, e.g. out/{f}/{z}/{x}/{y}.png;\n" +
		"  imagery is written as PNG, elevation as 16-bit TIFF.\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Container file path")
	f.StringVar(&c.textureSet, "s", "", "Texture set name")
	f.StringVar(&c.outputPattern, "o", "", "Output file pattern")
	c.flags.register(f)
}

// storedKeys returns the keys of all non-empty blobs of the texture set within its
// level band, in tile.SortKeys order.
func storedKeys(path, table string, cfg config) ([]tile.Key, error) {
	store, err := db.Open(path, cfg.storeOptions()...)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ts, err := store.ReadTextureSet(table)
	if err != nil {
		return nil, err
	}

	var keys []tile.Key
	err = store.Table(table, cfg.LocalFallback).VisitBlobs(func(key tile.Key, data []byte) error {
		if len(data) > 0 && ts.ContainsLevel(key.Level) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	tile.SortKeys(keys)
	return keys, nil
}

// elevationImage maps heights to 16-bit samples shifted by offset. No-data and
// out-of-range heights become 0.
func elevationImage(h *tilesource.HeightField, noData float32, offset float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, h.Width, h.Height))
	for row := range h.Height {
		for col := range h.Width {
			v := h.At(col, row)
			if v == noData {
				continue
			}
			s := math.Round(float64(v) + offset)
			if s < 1 || s > math.MaxUint16 {
				continue
			}
			img.SetGray16(col, row, color.Gray16{Y: uint16(s)})
		}
	}
	return img
}

func encodeTile(t *tilesource.Tile, cfg config) ([]byte, error) {
	if t.Heights != nil {
		img := elevationImage(t.Heights, cfg.NoDataHeight, cfg.ElevationOffset)
		return codec.Encode(codec.FormatTIFF, codec.Raster{Width: img.Rect.Dx(), Height: img.Rect.Dy(), Image: img})
	}
	return codec.Encode(codec.FormatPNG, codec.Raster{Width: t.Image.Rect.Dx(), Height: t.Image.Rect.Dy(), Image: t.Image})
}

func (c *exportCmd) export(ctx context.Context, cfg config, keys []tile.Key, writer *xyz.Writer) error {
	bar := progressbar.NewOptions(len(keys), progressbar.OptionShowIts(), progressbar.OptionShowCount())
	defer func() {
		bar.Finish()
		fmt.Println()
	}()

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan tile.Key)

	g.Go(func() error {
		defer close(jobs)
		for _, key := range keys {
			select {
			case jobs <- key:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range cfg.Workers {
		g.Go(func() error {
			source, err := tilesource.Open(c.inputPath, c.textureSet, cfg.sourceOptions()...)
			if err != nil {
				return err
			}
			defer source.Close()

			for key := range jobs {
				t, err := source.FetchTile(key)
				if err != nil {
					return err
				}
				if t != nil {
					data, err := encodeTile(t, cfg)
					if err != nil {
						return fmt.Errorf("tile %v: %w", key, err)
					}
					if err := writer.WriteBlob(key, data); err != nil {
						return err
					}
				}
				bar.Add(1)
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := c.flags.load(f)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	writer, err := xyz.NewWriter(c.outputPattern)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}

	keys, err := storedKeys(c.inputPath, c.textureSet, cfg)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	log.Printf("exporting %d tiles with %d readers", len(keys), cfg.Workers)

	if err := c.export(ctx, cfg, keys, writer); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
