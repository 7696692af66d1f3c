package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/golang/geo/s2"
	"github.com/google/subcommands"

	"github.com/eak1mov/go-qstiles/geodesy"
	"github.com/eak1mov/go-qstiles/tilesource"
)

type lookupCmd struct {
	lat, lon   float64
	level      int
	inputPath  string
	textureSet string
	flags      configFlags
}

func (c *lookupCmd) Name() string     { return "lookup" }
func (c *lookupCmd) Synopsis() string { return "resolve a location to a tile key and node id" }
func (c *lookupCmd) Usage() string {
	return "qstiles lookup -lat <deg> -lon <deg> -z <level> [-i <path> -s <name>]\n"
}
func (c *lookupCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.lat, "lat", 0, "Latitude in degrees")
	f.Float64Var(&c.lon, "lon", 0, "Longitude in degrees")
	f.IntVar(&c.level, "z", 0, "Level")
	f.StringVar(&c.inputPath, "i", "", "Container file path (optional)")
	f.StringVar(&c.textureSet, "s", "", "Texture set name")
	c.flags.register(f)
}

func (c *lookupCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.level < 0 || c.level > 32 || c.lat < -90 || c.lat > 90 {
		log.Printf("invalid location %v,%v at level %d", c.lat, c.lon, c.level)
		return subcommands.ExitUsageError
	}

	pos := geodesy.PositionFromLatLng(s2.LatLngFromDegrees(c.lat, c.lon))
	id, key := geodesy.NodeIDForPosition(pos, c.level)
	fmt.Printf("face: %v\nxy:   %d %d\ntile: %v\nnode: %v\n", pos.Face, pos.X, pos.Y, key, id)

	if c.inputPath == "" {
		return subcommands.ExitSuccess
	}

	cfg, err := c.flags.load(f)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	source, err := tilesource.Open(c.inputPath, c.textureSet, cfg.sourceOptions()...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer source.Close()

	t, err := source.FetchTile(key)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	switch {
	case t == nil:
		fmt.Println("data: none")
	case t.Image != nil:
		fmt.Printf("data: image %v\n", t.Image.Bounds().Size())
	default:
		fmt.Printf("data: heights %dx%d\n", t.Heights.Width, t.Heights.Height)
	}

	return subcommands.ExitSuccess
}
