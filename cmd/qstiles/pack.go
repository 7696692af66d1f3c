package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/internal/container"
	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
	"github.com/eak1mov/go-qstiles/xyz"
)

// packCmd is offline tooling that builds a new container with package container.
// Serving tiles never writes; db and tilesource open containers read-only.
type packCmd struct {
	inputPattern   string
	outputPath     string
	textureSet     string
	format         string
	pixelLength    int
	source         string
	classification string
	description    string
	timeStamp      string
	flags          configFlags
}

func (c *packCmd) Name() string     { return "pack" }
func (c *packCmd) Synopsis() string { return "build a new container from a directory tree of encoded blobs (offline tooling)" }
func (c *packCmd) Usage() string {
	return "qstiles pack -i <pattern> -o <path> -s <name> -format <format> -pixels <n>\n" +
		"  pattern must contain {f}, {z}, {x} and {y}, e.g. in/{f}/{z}/{x}/{y}.bin\n"
}
func (c *packCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPattern, "i", "", "Input file pattern")
	f.StringVar(&c.outputPath, "o", "", "Output container path")
	f.StringVar(&c.textureSet, "s", "", "Texture set name")
	f.StringVar(&c.format, "format", "", "Raster format name or code of the blobs")
	f.IntVar(&c.pixelLength, "pixels", 256, "Tile edge in texels")
	f.StringVar(&c.source, "source", "", "Source attribution")
	f.StringVar(&c.classification, "class", "", "Classification")
	f.StringVar(&c.description, "about", "", "Description")
	f.StringVar(&c.timeStamp, "time", "", "Acquisition time (RFC 3339)")
	c.flags.register(f)
}

func (c *packCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := c.flags.load(f)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	format, err := codec.ParseFormat(c.format)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	if c.textureSet == "" {
		log.Println("texture set name is required")
		return subcommands.ExitUsageError
	}

	reader, err := xyz.NewReader(c.inputPattern)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}

	writer, err := container.NewWriter(c.outputPath, container.WithLogger(cfg.logger()))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer writer.Close()

	ts := container.NewTextureSet(c.textureSet, format, c.pixelLength, qs.MaxLevel, 0)
	ts.Source, ts.Classification, ts.Description = c.source, c.classification, c.description
	if c.timeStamp != "" {
		if ts.TimeStamp, err = time.Parse(time.RFC3339, c.timeStamp); err != nil {
			log.Println(err)
			return subcommands.ExitUsageError
		}
		ts.TimeSpecified = true
	}

	if err := writer.CreateTable(ts.Name); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())

	err = reader.VisitBlobs(func(key tile.Key, data []byte) error {
		if err := writer.WriteTile(ts.Name, key, data); err != nil {
			return err
		}
		ts.ShallowestLevel = min(ts.ShallowestLevel, key.Level)
		ts.DeepestLevel = max(ts.DeepestLevel, key.Level)
		ts.Extents[key.Face] = ts.Extents[key.Face].Union(key.Extents())
		bar.Add(1)
		return nil
	})

	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if ts.ShallowestLevel > ts.DeepestLevel {
		log.Printf("no blobs match %s", c.inputPattern)
		return subcommands.ExitFailure
	}

	if err := writer.InsertTextureSet(ts); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
