// Package qs provides the fixed-point ("QS") coordinate space of a cube-sphere face,
// rectangle arithmetic on it and the packed quadtree node id.
//
// All arithmetic in this package is integer-only so that tile boundaries are bit-exact
// on every platform.
package qs

import "fmt"

const (
	// MaxLength is the width of a face in fixed-point units.
	MaxLength uint64 = 1 << 32
	// HalfMaxLength is the face centre along either axis.
	HalfMaxLength uint64 = 1 << 31

	// MaxLevel is the deepest supported subdivision level.
	MaxLevel = 32

	// NumFaces is the number of cube faces.
	NumFaces = 6
)

// Face identifies one face of the cube-sphere.
//
// Equatorial faces are centred at longitudes -135, -45, 45 and 135 degrees;
// FaceN and FaceS are centred on the poles.
type Face uint8

const (
	FaceWW Face = iota
	FaceW
	FaceE
	FaceEE
	FaceN
	FaceS
)

var faceNames = [NumFaces]string{"WW", "W", "E", "EE", "N", "S"}

// Faces returns all faces in ordinal order.
func Faces() [NumFaces]Face {
	return [NumFaces]Face{FaceWW, FaceW, FaceE, FaceEE, FaceN, FaceS}
}

func (f Face) Valid() bool {
	return f < NumFaces
}

func (f Face) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Face(%d)", uint8(f))
	}
	return faceNames[f]
}

// ParseFace parses a face name such as "EE" or a face ordinal such as "3".
func ParseFace(s string) (Face, error) {
	for i, name := range faceNames {
		if s == name || s == fmt.Sprint(i) {
			return Face(i), nil
		}
	}
	return 0, fmt.Errorf("qs: invalid face %q", s)
}
