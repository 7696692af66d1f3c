package geodesy

import (
	"math"

	"github.com/eak1mov/go-qstiles/qs"
)

// Box is a geodetic bounding box in degrees with West <= East.
type Box struct {
	West  float64
	East  float64
	South float64
	North float64
}

// Bounds is the geodetic footprint of a face rectangle. When SpansAntimeridian is set,
// Box covers [West, 180] and Secondary covers [-180, East]; both share the latitudes.
type Bounds struct {
	Box
	SpansAntimeridian bool
	Secondary         Box
}

// centre longitudes of the equatorial faces, degrees
var faceLongitudes = [4]float64{
	qs.FaceWW: -135,
	qs.FaceW:  -45,
	qs.FaceE:  45,
	qs.FaceEE: 135,
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// nearestToZero returns the value in [lo, hi] closest to zero.
func nearestToZero(lo, hi float64) float64 {
	return max(lo, min(hi, 0))
}

func farthestFromZero(lo, hi float64) float64 {
	if math.Abs(lo) > math.Abs(hi) {
		return lo
	}
	return hi
}

// ExtentsToGeodetic returns the geodetic bounding box of e on face. It returns false
// when e is not valid. Callers must check SpansAntimeridian before using Box alone.
func ExtentsToGeodetic(face qs.Face, e qs.Extents) (Bounds, bool) {
	if !e.Valid() || !face.Valid() {
		return Bounds{}, false
	}
	u0, u1 := fromFixed(e.MinX), fromFixed(e.MaxX)
	v0, v1 := fromFixed(e.MinY), fromFixed(e.MaxY)

	switch face {
	case qs.FaceN, qs.FaceS:
		return polarBounds(face, u0, u1, v0, v1), true
	default:
		return equatorialBounds(face, u0, u1, v0, v1), true
	}
}

func equatorialBounds(face qs.Face, u0, u1, v0, v1 float64) Bounds {
	lat := func(u, v float64) float64 {
		return degrees(math.Atan(v / math.Sqrt(1+u*u)))
	}
	c := faceLongitudes[face]

	// |lat| shrinks as |u| grows, so the extremes sit at the u nearest to or
	// farthest from the face meridian depending on the hemisphere.
	north := lat(farthestFromZero(u0, u1), v1)
	if v1 >= 0 {
		north = lat(nearestToZero(u0, u1), v1)
	}
	south := lat(farthestFromZero(u0, u1), v0)
	if v0 <= 0 {
		south = lat(nearestToZero(u0, u1), v0)
	}

	return Bounds{Box: Box{
		West:  c + degrees(math.Atan(u0)),
		East:  c + degrees(math.Atan(u1)),
		South: south,
		North: north,
	}}
}

func polarBounds(face qs.Face, u0, u1, v0, v1 float64) Bounds {
	latitude := func(u, v float64) float64 {
		return degrees(math.Atan(1 / math.Hypot(u, v)))
	}
	lon := func(u, v float64) float64 {
		if face == qs.FaceN {
			return degrees(math.Atan2(u+v, u-v))
		}
		return degrees(math.Atan2(u-v, u+v))
	}

	near := latitude(nearestToZero(u0, u1), nearestToZero(v0, v1))
	far := latitude(farthestFromZero(u0, u1), farthestFromZero(v0, v1))
	box := Box{South: far, North: near}
	if face == qs.FaceS {
		box = Box{South: -near, North: -far}
	}

	if u0 < 0 && 0 < u1 && v0 < 0 && 0 < v1 {
		box.West, box.East = -180, 180
		return Bounds{Box: box}
	}

	// The pole is outside the rectangle or on its boundary, so the rectangle subtends at
	// most 180 degrees and its longitude extremes are at its corners. A corner on the
	// pole has no longitude.
	ref := lon((u0+u1)/2, (v0+v1)/2)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, corner := range [4][2]float64{{u0, v0}, {u0, v1}, {u1, v0}, {u1, v1}} {
		if corner[0] == 0 && corner[1] == 0 {
			continue
		}
		d := math.Remainder(lon(corner[0], corner[1])-ref, 360)
		lo = min(lo, d)
		hi = max(hi, d)
	}
	west, east := ref+lo, ref+hi

	switch {
	case west < -180:
		secondary := box
		box.West, box.East = west+360, 180
		secondary.West, secondary.East = -180, east
		return Bounds{Box: box, SpansAntimeridian: true, Secondary: secondary}
	case east > 180:
		secondary := box
		box.West, box.East = west, 180
		secondary.West, secondary.East = -180, east-360
		return Bounds{Box: box, SpansAntimeridian: true, Secondary: secondary}
	}
	box.West, box.East = west, east
	return Bounds{Box: box}
}
