package db

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/qs"
)

// TextureSetsTable lists every texture set stored in a container.
const TextureSetsTable = "ListOfTextureSets"

// ExtentsBlobLength is the size of a persisted face extents column.
const ExtentsBlobLength = 32

// TextureSet describes one layer of tiles: its raster format, level band and the
// part of each face that holds data.
type TextureSet struct {
	Name            string
	RasterFormat    codec.Format
	PixelLength     int
	ShallowestLevel int
	DeepestLevel    int
	Extents         [qs.NumFaces]qs.Extents

	Source         string
	Classification string
	Description    string
	TimeSpecified  bool
	TimeStamp      time.Time
}

// ContainsLevel reports whether tiles of the given level may be stored in the set.
func (ts TextureSet) ContainsLevel(level int) bool {
	return ts.ShallowestLevel <= level && level <= ts.DeepestLevel
}

func (ts TextureSet) validate() error {
	if ts.PixelLength <= 0 {
		return fmt.Errorf("pixel length %d", ts.PixelLength)
	}
	if ts.ShallowestLevel < 0 || ts.DeepestLevel > qs.MaxLevel || ts.ShallowestLevel > ts.DeepestLevel {
		return fmt.Errorf("level band [%d, %d]", ts.ShallowestLevel, ts.DeepestLevel)
	}
	return nil
}

// EncodeExtents returns the persisted form of e: MinX, MaxX, MinY and MaxY as
// big-endian uint64 values.
func EncodeExtents(e qs.Extents) []byte {
	b := make([]byte, 0, ExtentsBlobLength)
	b = binary.BigEndian.AppendUint64(b, e.MinX)
	b = binary.BigEndian.AppendUint64(b, e.MaxX)
	b = binary.BigEndian.AppendUint64(b, e.MinY)
	b = binary.BigEndian.AppendUint64(b, e.MaxY)
	return b
}

func DecodeExtents(b []byte) (qs.Extents, error) {
	if len(b) != ExtentsBlobLength {
		return qs.Extents{}, fmt.Errorf("extents blob of %d bytes", len(b))
	}
	return qs.Extents{
		MinX: binary.BigEndian.Uint64(b[0:]),
		MaxX: binary.BigEndian.Uint64(b[8:]),
		MinY: binary.BigEndian.Uint64(b[16:]),
		MaxY: binary.BigEndian.Uint64(b[24:]),
	}, nil
}

// NodeKeyLength is the size of a per-node table key.
const NodeKeyLength = 1 + qs.NodeIDLength

// NodeKey returns the primary key of a node row: the face byte followed by the node id.
func NodeKey(face qs.Face, id qs.NodeID) []byte {
	key := make([]byte, 0, NodeKeyLength)
	key = append(key, byte(face))
	return append(key, id[:]...)
}

func ParseNodeKey(key []byte) (qs.Face, qs.NodeID, error) {
	if len(key) != NodeKeyLength {
		return 0, qs.NodeID{}, fmt.Errorf("node key of %d bytes", len(key))
	}
	face := qs.Face(key[0])
	if !face.Valid() {
		return 0, qs.NodeID{}, fmt.Errorf("face %d", key[0])
	}
	return face, qs.NodeID(key[1:]), nil
}
