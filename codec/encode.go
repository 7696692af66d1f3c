package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Encode produces a blob of format f from r. It is the inverse of Decode and is used
// to build containers; lossy formats do not round trip exactly.
func Encode(f Format, r Raster) ([]byte, error) {
	l, err := LayoutFor(f)
	if err != nil {
		return nil, err
	}

	if _, ok := l.(Elevation32); ok {
		if len(r.Heights) == 0 || len(r.Heights) != r.Width*r.Height {
			return nil, Error.New("elevation raster has %d heights for %dx%d", len(r.Heights), r.Width, r.Height)
		}
		raw := make([]byte, 4*len(r.Heights))
		for i, h := range r.Heights {
			binary.BigEndian.PutUint32(raw[4*i:], math.Float32bits(h))
		}
		return Deflate(raw)
	}
	if r.Image == nil {
		return nil, Error.New("%v requires an image", f)
	}

	var raw []byte
	switch l := l.(type) {
	case Delegated:
		return encodeImage(l.Kind, r.Image)
	case Packed5551:
		img := ToNRGBA(r.Image)
		raw = make([]byte, 0, len(img.Pix)/2)
		for i := 0; i < len(img.Pix); i += 4 {
			p := img.Pix[i : i+4 : i+4]
			v := uint16(p[0]>>3)<<11 | uint16(p[1]>>3)<<6 | uint16(p[2]>>3)<<1
			if p[3] >= 0x80 {
				v |= 1
			}
			raw = binary.BigEndian.AppendUint16(raw, v)
		}
	case Gray8:
		raw = toGray(r.Image).Pix
		if !l.Compressed {
			return bytes.Clone(raw), nil
		}
	case GrayAlpha8:
		img := ToNRGBA(r.Image)
		raw = make([]byte, 0, len(img.Pix)/2)
		for i := 0; i < len(img.Pix); i += 4 {
			p := img.Pix[i : i+4 : i+4]
			g := color.GrayModel.Convert(color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xff}).(color.Gray)
			raw = append(raw, g.Y, p[3])
		}
	case RGBA8:
		raw = ToNRGBA(r.Image).Pix
	}
	return Deflate(raw)
}

func encodeImage(kind ImageKind, img image.Image) ([]byte, error) {
	var buffer bytes.Buffer
	var err error
	switch kind {
	case ImageJPEG:
		err = jpeg.Encode(&buffer, img, &jpeg.Options{Quality: 95})
	case ImagePNG:
		err = png.Encode(&buffer, img)
	case ImageTIFF:
		err = tiff.Encode(&buffer, img, &tiff.Options{Compression: tiff.Deflate})
	case ImageBMP:
		err = bmp.Encode(&buffer, img)
	default:
		return nil, Error.Wrap(fmt.Errorf("%w: %v", ErrUnsupportedFormat, kind))
	}
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("failed to encode %v: %w", kind, err))
	}
	return buffer.Bytes(), nil
}

// ToNRGBA returns img as a tightly packed *image.NRGBA anchored at the origin. The
// result is a copy unless img already has that form.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
