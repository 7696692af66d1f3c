// Package codec decodes the raster blobs stored in a container into pixels or heights.
//
// Each blob is tagged by the Format of its texture set. Compressed formats are zlib
// streams holding a square raster of big-endian samples; the remaining formats are
// complete image files handed to a decoder from a Registry.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/errs"
)

// Error is the error class of this package.
var Error = errs.Class("codec")

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptStream     = errors.New("corrupt stream")
	ErrReaderUnavailable = errors.New("image reader unavailable")
)

// Format is the persisted raster format code of a texture set.
// Values are stored in container files and must never be renumbered.
type Format int

const (
	FormatUnknown          Format = 0
	Format5551GZ           Format = 1
	Format8BitGZ           Format = 2
	Format8Bit             Format = 3
	FormatIntensityAlphaGZ Format = 4
	FormatRGBAGZ           Format = 5
	FormatFloatGZ          Format = 6
	FormatJPEG             Format = 7
	FormatPNG              Format = 8
	FormatTIFF             Format = 9
	FormatBMP              Format = 10
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{
		Format5551GZ, Format8BitGZ, Format8Bit, FormatIntensityAlphaGZ, FormatRGBAGZ,
		FormatFloatGZ, FormatJPEG, FormatPNG, FormatTIFF, FormatBMP,
	}
}

func (f Format) String() string {
	switch f {
	case Format5551GZ:
		return "5551_GZ"
	case Format8BitGZ:
		return "8BIT_GZ"
	case Format8Bit:
		return "8BIT"
	case FormatIntensityAlphaGZ:
		return "INTA_GZ"
	case FormatRGBAGZ:
		return "RGBA_GZ"
	case FormatFloatGZ:
		return "FLOAT_GZ"
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatTIFF:
		return "TIFF"
	case FormatBMP:
		return "BMP"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name such as "8BIT_GZ" or a format code such as "2".
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, f.String()) || s == strconv.Itoa(int(f)) {
			return f, nil
		}
	}
	return FormatUnknown, Error.Wrap(fmt.Errorf("%w: %q", ErrUnsupportedFormat, s))
}

// IsElevation reports whether f stores heights rather than imagery.
func (f Format) IsElevation() bool {
	return f == FormatFloatGZ
}

// ImageKind names an external image file format.
type ImageKind uint8

const (
	ImageJPEG ImageKind = iota + 1
	ImagePNG
	ImageTIFF
	ImageBMP
)

func (k ImageKind) String() string {
	switch k {
	case ImageJPEG:
		return "jpeg"
	case ImagePNG:
		return "png"
	case ImageTIFF:
		return "tiff"
	case ImageBMP:
		return "bmp"
	}
	return fmt.Sprintf("ImageKind(%d)", uint8(k))
}

// Layout describes how the bytes of one format are laid out. The set of layouts is
// closed: every implementation is declared in this package.
type Layout interface {
	layout()
}

// Packed5551 is a zlib stream of 16-bit RGBA texels, 5 bits per colour and 1 bit alpha.
type Packed5551 struct{}

// Gray8 is a stream of 8-bit luminance texels.
type Gray8 struct {
	Compressed bool
}

// GrayAlpha8 is a zlib stream of 8-bit luminance/alpha pairs.
type GrayAlpha8 struct{}

// RGBA8 is a zlib stream of 8-bit RGBA texels.
type RGBA8 struct{}

// Elevation32 is a zlib stream of 32-bit IEEE floats.
type Elevation32 struct{}

// Delegated is a complete image file decoded by an external decoder.
type Delegated struct {
	Kind ImageKind
}

func (Packed5551) layout()  {}
func (Gray8) layout()       {}
func (GrayAlpha8) layout()  {}
func (RGBA8) layout()       {}
func (Elevation32) layout() {}
func (Delegated) layout()   {}

// LayoutFor returns the layout of format f.
func LayoutFor(f Format) (Layout, error) {
	switch f {
	case Format5551GZ:
		return Packed5551{}, nil
	case Format8BitGZ:
		return Gray8{Compressed: true}, nil
	case Format8Bit:
		return Gray8{Compressed: false}, nil
	case FormatIntensityAlphaGZ:
		return GrayAlpha8{}, nil
	case FormatRGBAGZ:
		return RGBA8{}, nil
	case FormatFloatGZ:
		return Elevation32{}, nil
	case FormatJPEG:
		return Delegated{Kind: ImageJPEG}, nil
	case FormatPNG:
		return Delegated{Kind: ImagePNG}, nil
	case FormatTIFF:
		return Delegated{Kind: ImageTIFF}, nil
	case FormatBMP:
		return Delegated{Kind: ImageBMP}, nil
	}
	return nil, Error.Wrap(fmt.Errorf("%w: %v", ErrUnsupportedFormat, f))
}
