// Package tile provides the tile request key and common tile interfaces.
package tile

import (
	"fmt"

	"github.com/eak1mov/go-qstiles/qs"
)

// Key identifies a tile in the power-of-two quadtree grid of one cube face.
// Columns (X) count from the west edge of the face and rows (Y) from the north edge.
type Key struct {
	Face  qs.Face
	Level int
	X     uint32
	Y     uint32
}

func (k Key) Valid() bool {
	if !k.Face.Valid() || k.Level < 0 || k.Level > qs.MaxLevel {
		return false
	}
	if k.Level == qs.MaxLevel {
		return true
	}
	return uint64(k.X) < 1<<k.Level && uint64(k.Y) < 1<<k.Level
}

// NodeID returns the quadtree address of k. It panics if k is not valid.
func (k Key) NodeID() qs.NodeID {
	return qs.NodeIDForTile(k.Level, k.X, k.Y)
}

// Extents returns the face rectangle covered by k.
func (k Key) Extents() qs.Extents {
	return qs.TileExtents(k.Level, k.X, k.Y)
}

func (k Key) String() string {
	return fmt.Sprintf("%v/%d/%d/%d", k.Face, k.Level, k.X, k.Y)
}

// KeyFromNodeID returns the key of the node id on the given face.
func KeyFromNodeID(face qs.Face, id qs.NodeID) Key {
	level, x, y := id.TileXY()
	return Key{Face: face, Level: level, X: x, Y: y}
}

type BlobReader interface {
	// ReadBlob reads the raw blob stored for a single tile.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadBlob(key Key) ([]byte, error)
}

type Visitor interface {
	// VisitBlobs visits all stored tiles, calling the visitor for each.
	// Order of tiles is implementation-defined.
	VisitBlobs(visitor func(Key, []byte) error) error
}
