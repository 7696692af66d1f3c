package qs

import (
	"encoding/hex"
	"fmt"
)

// Quadrant is the 3-bit code stored for one level of a NodeID.
//
// The codes are persisted as part of blob keys and must not change.
type Quadrant uint8

const (
	QuadrantNE Quadrant = 0b010
	QuadrantNW Quadrant = 0b001
	QuadrantSW Quadrant = 0b011
	QuadrantSE Quadrant = 0b100
)

// Quadrants returns the four quadrants in NE, NW, SW, SE order.
func Quadrants() [4]Quadrant {
	return [4]Quadrant{QuadrantNE, QuadrantNW, QuadrantSW, QuadrantSE}
}

func (q Quadrant) Valid() bool {
	switch q {
	case QuadrantNE, QuadrantNW, QuadrantSW, QuadrantSE:
		return true
	}
	return false
}

func (q Quadrant) East() bool  { return q == QuadrantNE || q == QuadrantSE }
func (q Quadrant) North() bool { return q == QuadrantNE || q == QuadrantNW }

// QuadrantOf returns the quadrant for the given half-plane choice.
func QuadrantOf(east, north bool) Quadrant {
	switch {
	case east && north:
		return QuadrantNE
	case north:
		return QuadrantNW
	case east:
		return QuadrantSE
	default:
		return QuadrantSW
	}
}

func (q Quadrant) String() string {
	switch q {
	case QuadrantNE:
		return "NE"
	case QuadrantNW:
		return "NW"
	case QuadrantSW:
		return "SW"
	case QuadrantSE:
		return "SE"
	}
	return fmt.Sprintf("Quadrant(%#03b)", uint8(q))
}

const (
	// NodeIDLength is the size of a packed node id in bytes (3 bits x 32 levels).
	NodeIDLength = 12

	bitsPerLevel = 3
)

// NodeID is a face-relative quadtree address. The quadrant chosen when descending from
// level L to L+1 is stored in bits 3L..3L+2, where bit 0 is the least significant bit of
// the last byte (big-endian layout). The zero value is the root of a face.
type NodeID [NodeIDLength]byte

func (id NodeID) bit(i int) uint8 {
	return id[NodeIDLength-1-i/8] >> (i % 8) & 1
}

func (id *NodeID) setBit(i int, v uint8) {
	mask := byte(1) << (i % 8)
	if v != 0 {
		id[NodeIDLength-1-i/8] |= mask
	} else {
		id[NodeIDLength-1-i/8] &^= mask
	}
}

func checkLevel(level int) {
	if level < 0 || level > MaxLevel {
		panic(fmt.Sprintf("qs: level %d out of range [0, %d]", level, MaxLevel))
	}
}

// Quadrant returns the quadrant taken below the given level, or zero if the node does
// not extend that deep.
func (id NodeID) Quadrant(level int) Quadrant {
	if level < 0 || level >= MaxLevel {
		panic(fmt.Sprintf("qs: level %d out of range [0, %d)", level, MaxLevel))
	}
	var q uint8
	for b := range bitsPerLevel {
		q |= id.bit(bitsPerLevel*level+b) << b
	}
	return Quadrant(q)
}

// Descend returns the child of id in quadrant q, where level is the level of id.
func (id NodeID) Descend(level int, q Quadrant) NodeID {
	if level < 0 || level >= MaxLevel {
		panic(fmt.Sprintf("qs: cannot descend below level %d", level))
	}
	if !q.Valid() {
		panic(fmt.Sprintf("qs: invalid quadrant %#03b", uint8(q)))
	}
	for b := range bitsPerLevel {
		id.setBit(bitsPerLevel*level+b, uint8(q)>>b&1)
	}
	return id
}

// Level returns the depth of id. Quadrant codes are never zero, so the depth is the
// number of leading non-zero 3-bit groups.
func (id NodeID) Level() int {
	level := 0
	for level < MaxLevel && id.Quadrant(level) != 0 {
		level++
	}
	return level
}

// Parent returns the parent of id. The root is its own parent.
func (id NodeID) Parent() NodeID {
	level := id.Level()
	if level == 0 {
		return id
	}
	for b := range bitsPerLevel {
		id.setBit(bitsPerLevel*(level-1)+b, 0)
	}
	return id
}

// Children returns the four children of id in NE, NW, SW, SE order.
func (id NodeID) Children() [4]NodeID {
	level := id.Level()
	var children [4]NodeID
	for i, q := range Quadrants() {
		children[i] = id.Descend(level, q)
	}
	return children
}

// ExtentsAt halves root once per level following the quadrants stored in id.
func (id NodeID) ExtentsAt(root Extents, level int) Extents {
	checkLevel(level)
	e := root
	for l := range level {
		q := id.Quadrant(l)
		if !q.Valid() {
			panic(fmt.Sprintf("qs: node %v has no quadrant at level %d", id, l))
		}
		e = e.SplitAtHalf(q)
	}
	return e
}

// TileXY returns the tile grid position of id: columns count from the west edge and
// rows from the north edge of the face.
func (id NodeID) TileXY() (level int, x, y uint32) {
	level = id.Level()
	for l := range level {
		q := id.Quadrant(l)
		x <<= 1
		y <<= 1
		if q.East() {
			x |= 1
		}
		if !q.North() {
			y |= 1
		}
	}
	return level, x, y
}

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// NodeIDForTile returns the node addressing tile (x, y) at the given level. Row 0 is the
// northernmost row of the face.
func NodeIDForTile(level int, x, y uint32) NodeID {
	checkLevel(level)
	if level < MaxLevel && (uint64(x) >= 1<<level || uint64(y) >= 1<<level) {
		panic(fmt.Sprintf("qs: tile (%d, %d) out of range at level %d", x, y, level))
	}
	var id NodeID
	for l := range level {
		shift := level - 1 - l
		east := x>>shift&1 == 1
		north := y>>shift&1 == 0
		id = id.Descend(l, QuadrantOf(east, north))
	}
	return id
}

// TileExtents returns the face rectangle covered by tile (x, y) at the given level.
func TileExtents(level int, x, y uint32) Extents {
	w := SpacingAt(level).Whole
	return Extents{
		MinX: uint64(x) * w,
		MaxX: (uint64(x) + 1) * w,
		MinY: MaxLength - (uint64(y)+1)*w,
		MaxY: MaxLength - uint64(y)*w,
	}
}

// Spacing holds the node edge length at a level and its fractions.
type Spacing struct {
	Whole   uint64
	Half    uint64
	Quarter uint64
}

var spacings = func() (table [MaxLevel + 1]Spacing) {
	for level := range table {
		whole := MaxLength >> level
		table[level] = Spacing{Whole: whole, Half: whole >> 1, Quarter: whole >> 2}
	}
	return table
}()

// SpacingAt returns the node spacing at level.
func SpacingAt(level int) Spacing {
	checkLevel(level)
	return spacings[level]
}

// TexelCenter returns the centre of texel (col, row) of e split into n x n texels.
// Row 0 is the northernmost row. Coordinates round down to whole units.
func TexelCenter(e Extents, n, col, row uint64) (x, y uint64) {
	x = e.MinX + (2*col+1)*e.Width()/(2*n)
	y = e.MaxY - (2*row+1)*e.Height()/(2*n)
	return x, y
}
