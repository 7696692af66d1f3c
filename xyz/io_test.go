package xyz_test

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
	"github.com/eak1mov/go-qstiles/xyz"
	"github.com/google/go-cmp/cmp"
)

func TestWriterReader(t *testing.T) {
	rootDir := t.TempDir()
	pattern := filepath.Join(rootDir, "{f}", "{z}", "{x}", "{y}.bin")

	blobs := map[tile.Key][]byte{
		{Face: qs.FaceWW, Level: 0}:              []byte("blob-ww-000"),
		{Face: qs.FaceE, Level: 1, X: 1, Y: 1}:   []byte("blob-e-111"),
		{Face: qs.FaceEE, Level: 6, X: 0, Y: 0}:  []byte("blob-ee-600"),
		{Face: qs.FaceS, Level: 6, X: 63, Y: 17}: []byte("blob-s-6"),
	}

	writer, err := xyz.NewWriter(pattern)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	for key, data := range blobs {
		if err := writer.WriteBlob(key, data); err != nil {
			t.Errorf("WriteBlob(%v) failed: %v", key, err)
		}
	}

	if got, want := writer.Path(tile.Key{Face: qs.FaceN, Level: 2, X: 3, Y: 1}), filepath.Join(rootDir, "N", "2", "3", "1.bin"); got != want {
		t.Errorf("Path mismatch: got %q, want %q", got, want)
	}

	reader, err := xyz.NewReader(pattern)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if got, want := maps.Collect(tile.IterBlobs(reader)), blobs; !cmp.Equal(got, want) {
		t.Errorf("VisitBlobs data mismatch")
	}

	for key, want := range blobs {
		data, err := reader.ReadBlob(key)
		if err != nil {
			t.Errorf("ReadBlob(%v) failed: %v", key, err)
			continue
		}
		if !cmp.Equal(data, want) {
			t.Errorf("ReadBlob data mismatch for %v", key)
		}
	}

	data, err := reader.ReadBlob(tile.Key{Face: qs.FaceN, Level: 9, X: 9, Y: 9})
	if err != nil {
		t.Errorf("ReadBlob(missing tile) failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("ReadBlob(missing tile) expected empty blob, got: %v bytes", len(data))
	}
}

func TestInvalidTilePath(t *testing.T) {
	rootDir := t.TempDir()
	pattern := filepath.Join(rootDir, "{f}", "{z}", "{x}", "{y}.bin")

	// x is out of range at level 1
	path := filepath.Join(rootDir, "E", "1", "5", "0.bin")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	reader, err := xyz.NewReader(pattern)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if err := reader.VisitBlobs(func(tile.Key, []byte) error { return nil }); err == nil {
		t.Errorf("VisitBlobs expected error for %q", path)
	}
}

func TestInvalidPattern(t *testing.T) {
	for _, pattern := range []string{"{z}/{x}/{y}.png", "{f}/{x}/{y}.png", "tiles.png"} {
		if _, err := xyz.NewWriter(pattern); !errors.Is(err, xyz.ErrInvalidPattern) {
			t.Errorf("NewWriter(%q) expected ErrInvalidPattern, got: %v", pattern, err)
		}
		if _, err := xyz.NewReader(pattern); !errors.Is(err, xyz.ErrInvalidPattern) {
			t.Errorf("NewReader(%q) expected ErrInvalidPattern, got: %v", pattern, err)
		}
	}
}
