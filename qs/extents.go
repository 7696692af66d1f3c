package qs

import "fmt"

// Extents is an axis-aligned rectangle in fixed-point face coordinates.
//
// Rectangles are treated as half-open ([MinX, MaxX) x [MinY, MaxY)) by the overlap and
// containment operations, so siblings that share an edge do not overlap.
type Extents struct {
	MinX uint64
	MaxX uint64
	MinY uint64
	MaxY uint64
}

// InvalidExtents returns the sentinel rectangle meaning "no data on this face".
func InvalidExtents() Extents {
	return Extents{MinX: MaxLength, MaxX: 0, MinY: MaxLength, MaxY: 0}
}

// FaceExtents returns the rectangle covering a whole face.
func FaceExtents() Extents {
	return Extents{MinX: 0, MaxX: MaxLength, MinY: 0, MaxY: MaxLength}
}

func (e Extents) Valid() bool {
	return e.MinX < e.MaxX && e.MinY < e.MaxY
}

func (e Extents) Width() uint64 {
	if e.MaxX < e.MinX {
		return 0
	}
	return e.MaxX - e.MinX
}

func (e Extents) Height() uint64 {
	if e.MaxY < e.MinY {
		return 0
	}
	return e.MaxY - e.MinY
}

// ExpandToInclude grows e so that it covers the point (x, y).
// Expanding the invalid sentinel yields the degenerate rectangle at (x, y).
func (e Extents) ExpandToInclude(x, y uint64) Extents {
	e.MinX = min(e.MinX, x)
	e.MaxX = max(e.MaxX, x)
	e.MinY = min(e.MinY, y)
	e.MaxY = max(e.MaxY, y)
	return e
}

// Union returns the smallest rectangle covering both e and b. Invalid operands are
// ignored; the union of two invalid rectangles is the invalid sentinel.
func (e Extents) Union(b Extents) Extents {
	switch {
	case !e.Valid() && !b.Valid():
		return InvalidExtents()
	case !e.Valid():
		return b
	case !b.Valid():
		return e
	}
	return Extents{
		MinX: min(e.MinX, b.MinX),
		MaxX: max(e.MaxX, b.MaxX),
		MinY: min(e.MinY, b.MinY),
		MaxY: max(e.MaxY, b.MaxY),
	}
}

// Overlap returns the intersection of a and b and whether it has a positive area.
func Overlap(a, b Extents) (Extents, bool) {
	if !a.Valid() || !b.Valid() {
		return InvalidExtents(), false
	}
	r := Extents{
		MinX: max(a.MinX, b.MinX),
		MaxX: min(a.MaxX, b.MaxX),
		MinY: max(a.MinY, b.MinY),
		MaxY: min(a.MaxY, b.MaxY),
	}
	if !r.Valid() {
		return InvalidExtents(), false
	}
	return r, true
}

// Contains reports whether b lies entirely inside e.
func (e Extents) Contains(b Extents) bool {
	if !e.Valid() || !b.Valid() {
		return false
	}
	return e.MinX <= b.MinX && b.MaxX <= e.MaxX && e.MinY <= b.MinY && b.MaxY <= e.MaxY
}

func (e Extents) ContainsPoint(x, y uint64) bool {
	if !e.Valid() {
		return false
	}
	return e.MinX <= x && x < e.MaxX && e.MinY <= y && y < e.MaxY
}

// SplitAtHalf returns the quadrant q of e.
func (e Extents) SplitAtHalf(q Quadrant) Extents {
	midX := e.MinX + (e.MaxX-e.MinX)/2
	midY := e.MinY + (e.MaxY-e.MinY)/2
	switch q {
	case QuadrantNE:
		return Extents{MinX: midX, MaxX: e.MaxX, MinY: midY, MaxY: e.MaxY}
	case QuadrantNW:
		return Extents{MinX: e.MinX, MaxX: midX, MinY: midY, MaxY: e.MaxY}
	case QuadrantSW:
		return Extents{MinX: e.MinX, MaxX: midX, MinY: e.MinY, MaxY: midY}
	case QuadrantSE:
		return Extents{MinX: midX, MaxX: e.MaxX, MinY: e.MinY, MaxY: midY}
	}
	panic(fmt.Sprintf("qs: invalid quadrant %#03b", uint8(q)))
}

func (e Extents) String() string {
	return fmt.Sprintf("[%d,%d]x[%d,%d]", e.MinX, e.MaxX, e.MinY, e.MaxY)
}
