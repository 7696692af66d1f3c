// Package geodesy converts between geodetic coordinates, unit-sphere vectors and
// fixed-point positions on the faces of the cube-sphere.
//
// Every face uses the gnomonic projection: a point p on face f with centre axis n and
// in-face axes a, b has local coordinates u = p.a / p.n and v = p.b / p.n in [-1, 1],
// which map linearly onto [0, qs.MaxLength]. On every face x grows with u and y with v;
// on the equatorial faces u points east and v north.
package geodesy

import (
	"math"

	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

type frame struct {
	n, a, b r3.Vector
}

const invSqrt2 = math.Sqrt2 / 2

var (
	axisWW = r3.Vector{X: -invSqrt2, Y: -invSqrt2}
	axisW  = r3.Vector{X: invSqrt2, Y: -invSqrt2}
	axisE  = r3.Vector{X: invSqrt2, Y: invSqrt2}
	axisEE = r3.Vector{X: -invSqrt2, Y: invSqrt2}
	axisZ  = r3.Vector{Z: 1}
)

var frames = [qs.NumFaces]frame{
	qs.FaceWW: {n: axisWW, a: axisW, b: axisZ},
	qs.FaceW:  {n: axisW, a: axisE, b: axisZ},
	qs.FaceE:  {n: axisE, a: axisEE, b: axisZ},
	qs.FaceEE: {n: axisEE, a: axisWW, b: axisZ},
	qs.FaceN:  {n: axisZ, a: axisE, b: axisEE},
	qs.FaceS:  {n: axisZ.Mul(-1), a: axisE, b: axisW},
}

// Position is a fixed-point location on one face.
type Position struct {
	Face qs.Face
	X    uint64
	Y    uint64
}

// FaceFor returns the face containing ll. Points on a face boundary go to the face
// with the lowest ordinal.
func FaceFor(ll s2.LatLng) qs.Face {
	return faceForVector(s2.PointFromLatLng(ll).Vector)
}

func faceForVector(p r3.Vector) qs.Face {
	best := qs.FaceWW
	bestScore := p.Dot(frames[best].n)
	faces := qs.Faces()
	for _, face := range faces[1:] {
		if score := p.Dot(frames[face].n); score > bestScore {
			best, bestScore = face, score
		}
	}
	return best
}

func toFixed(w float64) uint64 {
	f := math.Round((w + 1) / 2 * float64(qs.MaxLength))
	if f <= 0 {
		return 0
	}
	if f >= float64(qs.MaxLength) {
		return qs.MaxLength
	}
	return uint64(f)
}

func fromFixed(c uint64) float64 {
	return 2*float64(c)/float64(qs.MaxLength) - 1
}

// SphereToFaceXY projects p onto face. The result is clamped to the face, so p should
// lie on or near face (see FaceFor).
func SphereToFaceXY(face qs.Face, p r3.Vector) (x, y uint64) {
	fr := frames[face]
	d := p.Dot(fr.n)
	if d <= 0 {
		// the point is on the far hemisphere; clamp towards the nearest edge
		d = math.SmallestNonzeroFloat64
	}
	return toFixed(p.Dot(fr.a) / d), toFixed(p.Dot(fr.b) / d)
}

// FaceXYToSphere returns the unit vector of the fixed-point position (x, y) on face.
func FaceXYToSphere(face qs.Face, x, y uint64) r3.Vector {
	fr := frames[face]
	return fr.n.Add(fr.a.Mul(fromFixed(x))).Add(fr.b.Mul(fromFixed(y))).Normalize()
}

// PositionFromLatLng returns the canonical fixed-point position of ll.
func PositionFromLatLng(ll s2.LatLng) Position {
	p := s2.PointFromLatLng(ll).Vector
	face := faceForVector(p)
	x, y := SphereToFaceXY(face, p)
	return ModifyPositionReferences(Position{Face: face, X: x, Y: y})
}

func (p Position) Point() s2.Point {
	return s2.Point{Vector: FaceXYToSphere(p.Face, p.X, p.Y)}
}

func (p Position) LatLng() s2.LatLng {
	return s2.LatLngFromPoint(p.Point())
}

// KeyForPosition returns the key of the tile containing p at level. Positions on the
// east or north face edge belong to the last column or first row.
func KeyForPosition(p Position, level int) tile.Key {
	w := qs.SpacingAt(level).Whole
	last := qs.MaxLength/w - 1
	col := min(p.X/w, last)
	row := last - min(p.Y/w, last)
	return tile.Key{Face: p.Face, Level: level, X: uint32(col), Y: uint32(row)}
}

// NodeIDForPosition canonicalises p and returns the node containing it at level.
func NodeIDForPosition(p Position, level int) (qs.NodeID, tile.Key) {
	key := KeyForPosition(ModifyPositionReferences(p), level)
	return key.NodeID(), key
}
