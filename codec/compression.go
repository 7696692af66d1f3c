package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Inflate decompresses a zlib stream. The input is not modified.
func Inflate(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("%w: %w", ErrCorruptStream, err))
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("%w: %w", ErrCorruptStream, err))
	}

	return result, nil
}

// Deflate compresses data into a zlib stream.
func Deflate(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, _ := zlib.NewWriterLevel(&buffer, zlib.BestCompression)

	if _, err := writer.Write(data); err != nil {
		return nil, Error.Wrap(fmt.Errorf("failed to compress: %w", err))
	}

	if err := writer.Close(); err != nil {
		return nil, Error.Wrap(fmt.Errorf("failed to compress: %w", err))
	}

	return buffer.Bytes(), nil
}
