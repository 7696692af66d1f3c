package xyz

import (
	"os"
	"path/filepath"

	"github.com/eak1mov/go-qstiles/tile"
)

// Writer stores tile blobs as files named by a pattern.
type Writer struct {
	filePattern string
}

// NewWriter creates a new Writer for the given file pattern (e.g. "/home/user/tiles/{f}/{z}/{x}/{y}.png").
func NewWriter(filePattern string) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern}, nil
}

// Path returns the file path of key.
func (w *Writer) Path(key tile.Key) string {
	return formatPattern(w.filePattern, key)
}

func (w *Writer) WriteBlob(key tile.Key, data []byte) error {
	filePath := w.Path(key)

	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
