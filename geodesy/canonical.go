package geodesy

import (
	"slices"

	"github.com/eak1mov/go-qstiles/qs"
)

type side uint8

const (
	sideWest  side = iota // x == 0
	sideEast              // x == MaxLength
	sideSouth             // y == 0
	sideNorth             // y == MaxLength
)

// edgeMap maps the coordinate t along one face edge onto the neighbouring face.
type edgeMap struct {
	face qs.Face
	xy   func(t uint64) (x, y uint64)
}

const edgeMax = qs.MaxLength

func fixed(v uint64) func(uint64) uint64 { return func(uint64) uint64 { return v } }
func same(t uint64) uint64              { return t }
func flip(t uint64) uint64              { return edgeMax - t }

func edge(face qs.Face, fx, fy func(uint64) uint64) edgeMap {
	return edgeMap{face: face, xy: func(t uint64) (uint64, uint64) { return fx(t), fy(t) }}
}

// adjacency[f][s] is the neighbour across side s of face f.
var adjacency = [qs.NumFaces][4]edgeMap{
	qs.FaceWW: {
		sideWest:  edge(qs.FaceEE, fixed(edgeMax), same),
		sideEast:  edge(qs.FaceW, fixed(0), same),
		sideSouth: edge(qs.FaceS, fixed(0), same),
		sideNorth: edge(qs.FaceN, fixed(0), flip),
	},
	qs.FaceW: {
		sideWest:  edge(qs.FaceWW, fixed(edgeMax), same),
		sideEast:  edge(qs.FaceE, fixed(0), same),
		sideSouth: edge(qs.FaceS, same, fixed(edgeMax)),
		sideNorth: edge(qs.FaceN, same, fixed(0)),
	},
	qs.FaceE: {
		sideWest:  edge(qs.FaceW, fixed(edgeMax), same),
		sideEast:  edge(qs.FaceEE, fixed(0), same),
		sideSouth: edge(qs.FaceS, fixed(edgeMax), flip),
		sideNorth: edge(qs.FaceN, fixed(edgeMax), same),
	},
	qs.FaceEE: {
		sideWest:  edge(qs.FaceE, fixed(edgeMax), same),
		sideEast:  edge(qs.FaceWW, fixed(0), same),
		sideSouth: edge(qs.FaceS, flip, fixed(0)),
		sideNorth: edge(qs.FaceN, flip, fixed(edgeMax)),
	},
	qs.FaceN: {
		sideWest:  edge(qs.FaceWW, flip, fixed(edgeMax)),
		sideEast:  edge(qs.FaceE, same, fixed(edgeMax)),
		sideSouth: edge(qs.FaceW, same, fixed(edgeMax)),
		sideNorth: edge(qs.FaceEE, flip, fixed(edgeMax)),
	},
	qs.FaceS: {
		sideWest:  edge(qs.FaceWW, same, fixed(0)),
		sideEast:  edge(qs.FaceE, flip, fixed(0)),
		sideSouth: edge(qs.FaceEE, flip, fixed(0)),
		sideNorth: edge(qs.FaceW, same, fixed(0)),
	},
}

// sharedPositions returns the representations of p on the faces sharing its edges.
func sharedPositions(p Position) []Position {
	var result []Position
	add := func(sd side, t uint64) {
		e := adjacency[p.Face][sd]
		x, y := e.xy(t)
		result = append(result, Position{Face: e.face, X: x, Y: y})
	}
	if p.X == 0 {
		add(sideWest, p.Y)
	}
	if p.X == edgeMax {
		add(sideEast, p.Y)
	}
	if p.Y == 0 {
		add(sideSouth, p.X)
	}
	if p.Y == edgeMax {
		add(sideNorth, p.X)
	}
	return result
}

// EquivalentPositions returns every representation of the physical point at p,
// including p itself. Interior points have one representation, edge points two and
// cube corners three.
func EquivalentPositions(p Position) []Position {
	seen := []Position{p}
	for i := 0; i < len(seen); i++ {
		for _, q := range sharedPositions(seen[i]) {
			if !slices.Contains(seen, q) {
				seen = append(seen, q)
			}
		}
	}
	return seen
}

// ModifyPositionReferences rewrites p into the canonical representation of its point:
// the one on the face with the lowest ordinal. This matches the FaceFor tie-break, so a
// boundary point addresses the same quadtree node whichever face it was computed on.
func ModifyPositionReferences(p Position) Position {
	if p.X != 0 && p.X != edgeMax && p.Y != 0 && p.Y != edgeMax {
		return p
	}
	best := p
	for _, q := range EquivalentPositions(p) {
		if q.Face < best.Face {
			best = q
		}
	}
	return best
}
