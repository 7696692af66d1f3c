package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/geodesy"
	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
)

type infoCmd struct {
	inputPath string
	count     bool
	flags     configFlags
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print texture sets of a container" }
func (c *infoCmd) Usage() string {
	return "qstiles info -i <path> [-count]\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Container file path")
	f.BoolVar(&c.count, "count", false, "Count stored blobs of every texture set")
	c.flags.register(f)
}

func printBox(w io.Writer, b geodesy.Box) {
	fmt.Fprintf(w, "lon [%.6f, %.6f] lat [%.6f, %.6f]", b.West, b.East, b.South, b.North)
}

func printTextureSet(w io.Writer, ts db.TextureSet) {
	fmt.Fprintf(w, "%s\n", ts.Name)
	fmt.Fprintf(w, "  format:  %v\n", ts.RasterFormat)
	fmt.Fprintf(w, "  pixels:  %d\n", ts.PixelLength)
	fmt.Fprintf(w, "  levels:  %d-%d\n", ts.ShallowestLevel, ts.DeepestLevel)
	if ts.Source != "" {
		fmt.Fprintf(w, "  source:  %s\n", ts.Source)
	}
	if ts.Classification != "" {
		fmt.Fprintf(w, "  class:   %s\n", ts.Classification)
	}
	if ts.Description != "" {
		fmt.Fprintf(w, "  about:   %s\n", ts.Description)
	}
	if ts.TimeSpecified {
		fmt.Fprintf(w, "  time:    %v\n", ts.TimeStamp)
	}
	for _, face := range qs.Faces() {
		bounds, ok := geodesy.ExtentsToGeodetic(face, ts.Extents[face])
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  face %-2v: ", face)
		printBox(w, bounds.Box)
		if bounds.SpansAntimeridian {
			fmt.Fprint(w, " + ")
			printBox(w, bounds.Secondary)
		}
		fmt.Fprintln(w)
	}
}

// countBlobs panics if the table cannot be read.
func countBlobs(t tile.Visitor) map[qs.Face]int {
	counts := make(map[qs.Face]int)
	for key, data := range tile.IterBlobs(t) {
		if len(data) > 0 {
			counts[key.Face]++
		}
	}
	return counts
}

func (c *infoCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := c.flags.load(f)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	store, err := db.Open(c.inputPath, cfg.storeOptions()...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	names, err := store.TextureSets()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	for _, name := range names {
		ts, err := store.ReadTextureSet(name)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		printTextureSet(os.Stdout, ts)

		if !c.count {
			continue
		}
		counts := countBlobs(store.Table(name, cfg.LocalFallback))
		for _, face := range qs.Faces() {
			if counts[face] > 0 {
				fmt.Printf("  blobs %-2v: %d\n", face, counts[face])
			}
		}
	}

	return subcommands.ExitSuccess
}
