package codec

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DecodeFunc decodes one complete image file.
type DecodeFunc func(io.Reader) (image.Image, error)

// Registry holds the external image decoders used for delegated formats.
// A Registry is never modified after construction and may be shared freely.
type Registry struct {
	decoders map[ImageKind]DecodeFunc
}

type RegistryOption func(map[ImageKind]DecodeFunc)

// WithDecoder installs fn as the decoder for kind.
func WithDecoder(kind ImageKind, fn DecodeFunc) RegistryOption {
	return func(d map[ImageKind]DecodeFunc) { d[kind] = fn }
}

// WithoutDecoder removes the decoder for kind; blobs of that kind then fail with
// ErrReaderUnavailable.
func WithoutDecoder(kind ImageKind) RegistryOption {
	return func(d map[ImageKind]DecodeFunc) { delete(d, kind) }
}

// NewRegistry returns a registry with the standard JPEG, PNG, TIFF and BMP decoders,
// modified by opts.
func NewRegistry(opts ...RegistryOption) *Registry {
	decoders := map[ImageKind]DecodeFunc{
		ImageJPEG: jpeg.Decode,
		ImagePNG:  png.Decode,
		ImageTIFF: tiff.Decode,
		ImageBMP:  bmp.Decode,
	}
	for _, opt := range opts {
		opt(decoders)
	}
	return &Registry{decoders: decoders}
}

func (r *Registry) decoder(kind ImageKind) (DecodeFunc, bool) {
	fn, ok := r.decoders[kind]
	return fn, ok && fn != nil
}

// DefaultRegistry returns a registry with the standard decoders only.
func DefaultRegistry() *Registry {
	return NewRegistry()
}
