package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"
)

// Raster is one decoded blob. Exactly one of Image and Heights is set.
type Raster struct {
	Width  int
	Height int

	// Image holds decoded imagery.
	Image image.Image
	// Heights holds decoded elevation in row-major order, row 0 first as stored.
	Heights []float32
}

func (r Raster) IsElevation() bool {
	return r.Heights != nil
}

func corrupt(format string, args ...any) error {
	return Error.Wrap(fmt.Errorf("%w: %s", ErrCorruptStream, fmt.Sprintf(format, args...)))
}

// squareSide returns the edge length of a square raster of n texels.
func squareSide(n int) (int, error) {
	if n <= 0 {
		return 0, corrupt("empty raster")
	}
	side := int(math.Round(math.Sqrt(float64(n))))
	if side*side != n {
		return 0, corrupt("%d texels do not form a square", n)
	}
	return side, nil
}

// Decode decodes one blob of format f. The input is never modified and the returned
// raster never aliases it.
func (r *Registry) Decode(f Format, data []byte) (Raster, error) {
	l, err := LayoutFor(f)
	if err != nil {
		return Raster{}, err
	}

	switch l := l.(type) {
	case Delegated:
		return r.decodeDelegated(l.Kind, data)
	case Gray8:
		if !l.Compressed {
			return decodeGray8(bytes.Clone(data))
		}
	}

	raw, err := Inflate(data)
	if err != nil {
		return Raster{}, err
	}

	switch l.(type) {
	case Packed5551:
		return decode5551(raw)
	case Gray8:
		return decodeGray8(raw)
	case GrayAlpha8:
		return decodeGrayAlpha8(raw)
	case RGBA8:
		return decodeRGBA8(raw)
	case Elevation32:
		return decodeElevation32(raw)
	}
	return Raster{}, Error.Wrap(fmt.Errorf("%w: %v", ErrUnsupportedFormat, f))
}

func (r *Registry) decodeDelegated(kind ImageKind, data []byte) (Raster, error) {
	decode, ok := r.decoder(kind)
	if !ok {
		return Raster{}, Error.Wrap(fmt.Errorf("%w: %v", ErrReaderUnavailable, kind))
	}
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return Raster{}, Error.Wrap(fmt.Errorf("%w: %v: %w", ErrCorruptStream, kind, err))
	}
	b := img.Bounds()
	if b.Empty() {
		return Raster{}, corrupt("empty %v image", kind)
	}
	return Raster{Width: b.Dx(), Height: b.Dy(), Image: img}, nil
}

// expand5 widens a 5-bit channel to 8 bits.
func expand5(v uint16) uint8 {
	v &= 0x1f
	return uint8(v<<3 | v>>2)
}

func decode5551(raw []byte) (Raster, error) {
	if len(raw)%2 != 0 {
		return Raster{}, corrupt("odd length %d for 16-bit texels", len(raw))
	}
	side, err := squareSide(len(raw) / 2)
	if err != nil {
		return Raster{}, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := range side * side {
		v := binary.BigEndian.Uint16(raw[2*i:])
		p := img.Pix[4*i : 4*i+4 : 4*i+4]
		p[0] = expand5(v >> 11)
		p[1] = expand5(v >> 6)
		p[2] = expand5(v >> 1)
		p[3] = uint8(v&1) * 0xff
	}
	return Raster{Width: side, Height: side, Image: img}, nil
}

func decodeGray8(raw []byte) (Raster, error) {
	side, err := squareSide(len(raw))
	if err != nil {
		return Raster{}, err
	}
	img := &image.Gray{Pix: raw, Stride: side, Rect: image.Rect(0, 0, side, side)}
	return Raster{Width: side, Height: side, Image: img}, nil
}

func decodeGrayAlpha8(raw []byte) (Raster, error) {
	if len(raw)%2 != 0 {
		return Raster{}, corrupt("odd length %d for luminance/alpha texels", len(raw))
	}
	side, err := squareSide(len(raw) / 2)
	if err != nil {
		return Raster{}, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := range side * side {
		l, a := raw[2*i], raw[2*i+1]
		copy(img.Pix[4*i:], []byte{l, l, l, a})
	}
	return Raster{Width: side, Height: side, Image: img}, nil
}

func decodeRGBA8(raw []byte) (Raster, error) {
	if len(raw)%4 != 0 {
		return Raster{}, corrupt("length %d is not a multiple of 4", len(raw))
	}
	side, err := squareSide(len(raw) / 4)
	if err != nil {
		return Raster{}, err
	}
	img := &image.NRGBA{Pix: raw, Stride: 4 * side, Rect: image.Rect(0, 0, side, side)}
	return Raster{Width: side, Height: side, Image: img}, nil
}

func decodeElevation32(raw []byte) (Raster, error) {
	if len(raw)%4 != 0 {
		return Raster{}, corrupt("length %d is not a multiple of 4", len(raw))
	}
	side, err := squareSide(len(raw) / 4)
	if err != nil {
		return Raster{}, err
	}
	heights := make([]float32, side*side)
	for i := range heights {
		heights[i] = math.Float32frombits(binary.BigEndian.Uint32(raw[4*i:]))
	}
	return Raster{Width: side, Height: side, Heights: heights}, nil
}
