package qs_test

import (
	"math/rand/v2"
	"testing"

	"github.com/eak1mov/go-qstiles/qs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func randomNode(r *rand.Rand, level int) qs.NodeID {
	var id qs.NodeID
	quadrants := qs.Quadrants()
	for l := range level {
		id = id.Descend(l, quadrants[r.IntN(len(quadrants))])
	}
	return id
}

func TestDescendBitLayout(t *testing.T) {
	var root qs.NodeID

	id := root.Descend(0, qs.QuadrantNE)
	require.Equal(t, qs.NodeID{11: 0b010}, id)

	id = id.Descend(1, qs.QuadrantNW)
	require.Equal(t, qs.NodeID{11: 0b001_010}, id)

	id = id.Descend(2, qs.QuadrantSE)
	require.Equal(t, qs.NodeID{10: 0b1, 11: 0b00_001_010}, id)

	deepest := root.Descend(31, qs.QuadrantSE)
	require.Equal(t, qs.NodeID{0: 0b1000_0000}, deepest)

	deepest = root.Descend(31, qs.QuadrantSW)
	require.Equal(t, qs.NodeID{0: 0b0110_0000}, deepest)
}

func TestLevelParentChildren(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for level := range qs.MaxLevel + 1 {
		id := randomNode(r, level)
		require.Equal(t, level, id.Level())
		if level > 0 {
			parent := id.Parent()
			require.Equal(t, level-1, parent.Level())
			children := parent.Children()
			require.Contains(t, children[:], id)
		}
	}
	var root qs.NodeID
	require.Equal(t, root, root.Parent())
}

func TestLevelOutOfRangePanics(t *testing.T) {
	var id qs.NodeID
	require.Panics(t, func() { qs.SpacingAt(qs.MaxLevel + 1) })
	require.Panics(t, func() { qs.SpacingAt(-1) })
	require.Panics(t, func() { id.Descend(qs.MaxLevel, qs.QuadrantNE) })
	require.Panics(t, func() { id.Descend(0, 0b111) })
	require.Panics(t, func() { id.ExtentsAt(qs.FaceExtents(), qs.MaxLevel+1) })
	require.Panics(t, func() { qs.NodeIDForTile(2, 4, 0) })
}

func TestExtentsAtContainment(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	root := qs.FaceExtents()
	for range 200 {
		id := randomNode(r, r.IntN(qs.MaxLevel+1))
		level := id.Level()
		outer := root
		for l := 0; l <= level; l++ {
			inner := id.ExtentsAt(root, l)
			if !outer.Contains(inner) {
				t.Fatalf("%v: extents at level %d = %v not inside %v", id, l, inner, outer)
			}
			outer = inner
		}
	}
}

func TestChildrenPartitionParent(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	root := qs.FaceExtents()
	for range 100 {
		parent := randomNode(r, r.IntN(qs.MaxLevel))
		level := parent.Level()
		parentExtents := parent.ExtentsAt(root, level)

		children := parent.Children()
		var area uint64
		union := qs.InvalidExtents()
		for i, child := range children {
			e := child.ExtentsAt(root, level+1)
			area += e.Width() * e.Height()
			union = union.Union(e)
			for _, other := range children[i+1:] {
				if o, ok := qs.Overlap(e, other.ExtentsAt(root, level+1)); ok {
					t.Fatalf("%v: children overlap at %v", parent, o)
				}
			}
		}
		require.Equal(t, parentExtents, union)
		if level > 0 {
			require.Equal(t, parentExtents.Width()*parentExtents.Height(), area)
		}
	}
}

func TestTileRoundTrip(t *testing.T) {
	for level := range 6 {
		for x := range uint32(1) << level {
			for y := range uint32(1) << level {
				id := qs.NodeIDForTile(level, x, y)
				gotLevel, gotX, gotY := id.TileXY()
				if diff := cmp.Diff([]uint32{uint32(level), x, y}, []uint32{uint32(gotLevel), gotX, gotY}); diff != "" {
					t.Fatalf("TileXY(NodeIDForTile(%d, %d, %d)) mismatch (-want+got):\n%v", level, x, y, diff)
				}
				if got, want := id.ExtentsAt(qs.FaceExtents(), level), qs.TileExtents(level, x, y); got != want {
					t.Fatalf("ExtentsAt = %v, want = %v", got, want)
				}
			}
		}
	}

	maxCoord := uint32(1<<32 - 1)
	id := qs.NodeIDForTile(qs.MaxLevel, maxCoord, 0)
	level, x, y := id.TileXY()
	require.Equal(t, qs.MaxLevel, level)
	require.Equal(t, maxCoord, x)
	require.Equal(t, uint32(0), y)
	require.Equal(t, qs.Extents{MinX: qs.MaxLength - 1, MaxX: qs.MaxLength, MinY: qs.MaxLength - 1, MaxY: qs.MaxLength},
		id.ExtentsAt(qs.FaceExtents(), qs.MaxLevel))
}

func TestNorthWestTileIsRowZero(t *testing.T) {
	id := qs.NodeIDForTile(1, 0, 0)
	require.Equal(t, qs.QuadrantNW, id.Quadrant(0))
	id = qs.NodeIDForTile(1, 1, 1)
	require.Equal(t, qs.QuadrantSE, id.Quadrant(0))
}

func TestSpacingAt(t *testing.T) {
	require.Equal(t, qs.Spacing{Whole: qs.MaxLength, Half: qs.HalfMaxLength, Quarter: 1 << 30}, qs.SpacingAt(0))
	require.Equal(t, qs.Spacing{Whole: 1 << 22, Half: 1 << 21, Quarter: 1 << 20}, qs.SpacingAt(10))
	require.Equal(t, qs.Spacing{Whole: 1, Half: 0, Quarter: 0}, qs.SpacingAt(qs.MaxLevel))
}

func TestTexelCenter(t *testing.T) {
	e := qs.FaceExtents()
	x, y := qs.TexelCenter(e, 4, 0, 0)
	require.Equal(t, uint64(1<<29), x)
	require.Equal(t, qs.MaxLength-1<<29, y)

	x, y = qs.TexelCenter(e, 4, 3, 3)
	require.Equal(t, uint64(7<<29), x)
	require.Equal(t, uint64(1<<29), y)
}

func TestParseFace(t *testing.T) {
	for _, face := range qs.Faces() {
		got, err := qs.ParseFace(face.String())
		require.NoError(t, err)
		require.Equal(t, face, got)
	}
	got, err := qs.ParseFace("3")
	require.NoError(t, err)
	require.Equal(t, qs.FaceEE, got)
	_, err = qs.ParseFace("X")
	require.Error(t, err)
}
