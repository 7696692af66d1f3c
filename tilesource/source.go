// Package tilesource serves decoded tiles of one texture set by tile key.
//
// A Source resolves the key to a quadtree node, fetches its blob from a container,
// decodes it and marks the texels that fall outside the data extents of the face.
// Absence of data is never an error: FetchTile returns a nil tile instead.
package tilesource

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/zeebo/errs"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
)

// TileError is the error class of FetchTile. Errors from the store and the codec are
// wrapped in it and keep their own class and sentinel.
var TileError = errs.Class("qstiles tile")

var (
	ErrInvalidKey      = errors.New("invalid tile key")
	ErrLevelOutOfRange = errors.New("level out of range")
)

// DefaultNoDataHeight marks heights outside the data extents.
const DefaultNoDataHeight = -math.MaxFloat32

// BlobReader is the part of db.Store a Source reads from.
type BlobReader interface {
	ReadTextureSet(name string) (db.TextureSet, error)
	FetchBlob(table string, face qs.Face, id qs.NodeID, allowLocalFallback bool) ([]byte, error)
}

// HeightField is a row-major grid of heights, row 0 northernmost.
type HeightField struct {
	Width   int
	Height  int
	Heights []float32
}

func (h *HeightField) At(col, row int) float32 {
	return h.Heights[row*h.Width+col]
}

// Tile is one decoded tile. Exactly one of Image and Heights is set.
type Tile struct {
	Key     tile.Key
	Extents qs.Extents
	Image   *image.NRGBA
	Heights *HeightField
}

type sourceConfig struct {
	Logger             *slog.Logger
	Registry           *codec.Registry
	NoDataHeight       float32
	AllowLocalFallback bool
}

type Option func(*sourceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *sourceConfig) { c.Logger = logger }
}

// WithRegistry sets the decoders used for delegated image formats.
func WithRegistry(registry *codec.Registry) Option {
	return func(c *sourceConfig) { c.Registry = registry }
}

func WithNoDataHeight(h float32) Option {
	return func(c *sourceConfig) { c.NoDataHeight = h }
}

// WithLocalFallback lets fetches read the local copy of a missing container.
func WithLocalFallback() Option {
	return func(c *sourceConfig) { c.AllowLocalFallback = true }
}

// Source serves the tiles of one texture set. Like the store it reads from, a Source
// is not safe for concurrent use.
type Source struct {
	store  BlobReader
	closer io.Closer
	meta   db.TextureSet
	config sourceConfig
}

// New reads the metadata of the texture set table from store.
func New(store BlobReader, table string, opts ...Option) (*Source, error) {
	config := sourceConfig{
		Logger:       slog.New(slog.DiscardHandler),
		NoDataHeight: DefaultNoDataHeight,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = codec.DefaultRegistry()
	}

	meta, err := store.ReadTextureSet(table)
	if err != nil {
		return nil, TileError.Wrap(err)
	}
	config.Logger.Debug("qstiles: texture set loaded",
		"name", meta.Name, "format", meta.RasterFormat,
		"levels", fmt.Sprintf("%d-%d", meta.ShallowestLevel, meta.DeepestLevel))

	return &Source{store: store, meta: meta, config: config}, nil
}

// Open opens the container at path and serves its texture set table. Closing the
// Source closes the container.
func Open(path, table string, opts ...Option) (*Source, error) {
	config := sourceConfig{Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&config)
	}

	storeOpts := []db.Option{db.WithLogger(config.Logger)}
	if config.AllowLocalFallback {
		storeOpts = append(storeOpts, db.WithLocalFallback())
	}
	store, err := db.Open(path, storeOpts...)
	if err != nil {
		return nil, TileError.Wrap(err)
	}

	source, err := New(store, table, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	source.closer = store
	return source, nil
}

func (s *Source) Metadata() db.TextureSet {
	return s.meta
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// FetchTile returns the decoded tile for key, or nil when no data is stored for it.
func (s *Source) FetchTile(key tile.Key) (*Tile, error) {
	if !key.Valid() {
		return nil, TileError.Wrap(fmt.Errorf("%w: %v", ErrInvalidKey, key))
	}
	if !s.meta.ContainsLevel(key.Level) {
		return nil, TileError.Wrap(fmt.Errorf("%w: %d not in [%d, %d]",
			ErrLevelOutOfRange, key.Level, s.meta.ShallowestLevel, s.meta.DeepestLevel))
	}

	faceExtents := s.meta.Extents[key.Face]
	if !faceExtents.Valid() {
		return nil, nil
	}

	blob, err := s.store.FetchBlob(s.meta.Name, key.Face, key.NodeID(), s.config.AllowLocalFallback)
	if err != nil {
		return nil, TileError.Wrap(err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	raster, err := s.config.Registry.Decode(s.meta.RasterFormat, blob)
	if err != nil {
		return nil, TileError.Wrap(fmt.Errorf("tile %v: %w", key, err))
	}

	side := s.meta.PixelLength
	if raster.Width != side || raster.Height != side {
		return nil, TileError.Wrap(codec.Error.Wrap(fmt.Errorf("%w: tile %v is %dx%d, texture set has %d texels per edge",
			codec.ErrCorruptStream, key, raster.Width, raster.Height, side)))
	}

	t := &Tile{Key: key, Extents: key.Extents()}
	noData := noDataFunc(t.Extents, faceExtents, side)

	if raster.IsElevation() {
		codec.FlipVertical(raster.Heights, raster.Width, raster.Height)
		codec.MarkNoDataHeights(raster.Heights, raster.Width, s.config.NoDataHeight, noData)
		t.Heights = &HeightField{Width: raster.Width, Height: raster.Height, Heights: raster.Heights}
	} else {
		t.Image = codec.ToNRGBA(raster.Image)
		codec.MarkNoData(t.Image, noData)
	}

	s.config.Logger.Debug("qstiles: tile decoded", "key", key, "size", len(blob))
	return t, nil
}

// noDataFunc reports the texels of a side x side raster over tileExtents whose centre
// lies outside faceExtents shrunk by one texel on each side.
func noDataFunc(tileExtents, faceExtents qs.Extents, side int) func(col, row int) bool {
	n := uint64(side)
	texelW := tileExtents.Width() / n
	texelH := tileExtents.Height() / n

	if faceExtents.Width() <= 2*texelW || faceExtents.Height() <= 2*texelH {
		return func(int, int) bool { return true }
	}
	valid := qs.Extents{
		MinX: faceExtents.MinX + texelW,
		MaxX: faceExtents.MaxX - texelW,
		MinY: faceExtents.MinY + texelH,
		MaxY: faceExtents.MaxY - texelH,
	}

	return func(col, row int) bool {
		return !valid.ContainsPoint(qs.TexelCenter(tileExtents, n, uint64(col), uint64(row)))
	}
}
