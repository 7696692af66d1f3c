package db_test

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/internal/container"
	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type blobs map[tile.Key][]byte

var testBlobs = blobs{
	{Face: qs.FaceE, Level: 0}:              []byte("blob-e-0"),
	{Face: qs.FaceE, Level: 1, X: 1, Y: 0}:  []byte("blob-e-1-1-0"),
	{Face: qs.FaceN, Level: 2, X: 3, Y: 2}:  []byte("blob-n-2-3-2"),
	{Face: qs.FaceS, Level: 32, X: 7, Y: 9}: []byte("blob-s-32"),
	{Face: qs.FaceW, Level: 3, X: 5, Y: 5}:  {},
}

func writeContainer(t *testing.T, path string, sets []db.TextureSet, data map[string]blobs) {
	t.Helper()

	writer, err := container.NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	for _, ts := range sets {
		if err := writer.AddTextureSet(ts); err != nil {
			t.Fatalf("AddTextureSet(%v) failed: %v", ts.Name, err)
		}
	}
	for table, tiles := range data {
		for key, blob := range tiles {
			if err := writer.WriteTile(table, key, blob); err != nil {
				t.Fatalf("WriteTile(%v) failed: %v", key, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func openStore(t *testing.T, path string, opts ...db.Option) *db.Store {
	t.Helper()
	store, err := db.Open(path, opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReadTextureSet(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.qsdb")
	imagery := container.NewTextureSet("imagery", codec.Format8BitGZ, 256, 0, 12, qs.FaceE, qs.FaceN)
	imagery.Extents[qs.FaceW] = qs.Extents{MinX: 10, MaxX: 20, MinY: 30, MaxY: 40}
	imagery.Source = "survey"
	imagery.Description = "test imagery"
	imagery.TimeSpecified = true
	imagery.TimeStamp = time.Date(2020, 5, 17, 12, 0, 0, 0, time.UTC)
	elevation := container.NewTextureSet("elevation", codec.FormatFloatGZ, 64, 2, 8, qs.FaceS)
	writeContainer(t, path, []db.TextureSet{imagery, elevation}, nil)

	store := openStore(t, path)

	got, err := store.ReadTextureSet("imagery")
	require.NoError(t, err)
	if diff := cmp.Diff(imagery, got); diff != "" {
		t.Errorf("ReadTextureSet mismatch (-want+got):\n%v", diff)
	}
	require.True(t, got.ContainsLevel(12))
	require.False(t, got.ContainsLevel(13))

	got, err = store.ReadTextureSet("elevation")
	require.NoError(t, err)
	if diff := cmp.Diff(elevation, got); diff != "" {
		t.Errorf("ReadTextureSet mismatch (-want+got):\n%v", diff)
	}
	require.False(t, got.Extents[qs.FaceE].Valid())

	names, err := store.TextureSets()
	require.NoError(t, err)
	require.Equal(t, []string{"elevation", "imagery"}, names)

	_, err = store.ReadTextureSet("missing")
	require.ErrorIs(t, err, db.ErrMissingTable)
	require.True(t, db.MetadataError.Has(err))
}

func TestReadTextureSetErrors(t *testing.T) {
	t.Parallel()

	t.Run("no texture set table", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bare.qsdb")
		writer, err := container.NewWriter(path, container.WithoutTextureSetsTable())
		require.NoError(t, err)
		require.NoError(t, writer.Close())
		_, err = os.Stat(path)
		require.NoError(t, err, "container file should exist without any table")

		store := openStore(t, path)
		_, err = store.ReadTextureSet("imagery")
		require.ErrorIs(t, err, db.ErrMissingTable)
		require.True(t, db.MetadataError.Has(err))

		_, err = store.TextureSets()
		require.ErrorIs(t, err, db.ErrMissingTable)
	})

	malformed := []struct {
		name  string
		query string
	}{
		{"short extents", `INSERT INTO ListOfTextureSets (Name, RasterFormat, PixelLength, ShallowestLevel, DeepestLevel,
			Extents0, Extents1, Extents2, Extents3, Extents4, Extents5) VALUES ('bad', 2, 256, 0, 4, x'00', x'00', x'00', x'00', x'00', x'00')`},
		{"text format", `INSERT INTO ListOfTextureSets (Name, RasterFormat, PixelLength, ShallowestLevel, DeepestLevel)
			VALUES ('bad', 'png', 256, 0, 4)`},
		{"inverted levels", `INSERT INTO ListOfTextureSets VALUES ('bad', 2, 256, 9, 4,
			zeroblob(32), zeroblob(32), zeroblob(32), zeroblob(32), zeroblob(32), zeroblob(32), '', '', '', 0, 0)`},
		{"zero pixel length", `INSERT INTO ListOfTextureSets VALUES ('bad', 2, 0, 0, 4,
			zeroblob(32), zeroblob(32), zeroblob(32), zeroblob(32), zeroblob(32), zeroblob(32), '', '', '', 0, 0)`},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "bad.qsdb")
			writer, err := container.NewWriter(path)
			require.NoError(t, err)
			require.NoError(t, writer.Exec(tt.query))
			require.NoError(t, writer.Close())

			store := openStore(t, path)
			_, err = store.ReadTextureSet("bad")
			require.ErrorIs(t, err, db.ErrMalformedRow)
			require.True(t, db.MetadataError.Has(err))
		})
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := db.Open(filepath.Join(dir, "missing.qsdb"))
	require.ErrorIs(t, err, db.ErrNotFound)
	require.True(t, db.OpenError.Has(err))

	garbage := filepath.Join(dir, "garbage.qsdb")
	require.NoError(t, os.WriteFile(garbage, []byte("this is definitely not an sqlite database file"), 0o644))
	_, err = db.Open(garbage)
	require.ErrorIs(t, err, db.ErrCorrupt)
	require.True(t, db.OpenError.Has(err))
}

func TestFileURI(t *testing.T) {
	for _, tc := range []struct {
		Path string
		Want string
	}{
		{"/data/world.qsdb", "file:/data/world.qsdb?mode=ro"},
		{"world.qsdb", "file:world.qsdb?mode=ro"},
		{"/data/a b?c#d%e.qsdb", "file:/data/a%20b%3Fc%23d%25e.qsdb?mode=ro"},
	} {
		if got := db.FileURI(tc.Path, "mode=ro"); got != tc.Want {
			t.Errorf("FileURI(%q) = %q, want = %q", tc.Path, got, tc.Want)
		}
	}
}

func TestOpenEscapedPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world #1?v=2%.qsdb")
	ts := container.NewTextureSet("imagery", codec.FormatPNG, 256, 0, 4, qs.FaceE)
	writeContainer(t, path, []db.TextureSet{ts}, map[string]blobs{"imagery": testBlobs})

	_, err := os.Stat(path)
	require.NoError(t, err)

	store := openStore(t, path)
	names, err := store.TextureSets()
	require.NoError(t, err)
	require.Equal(t, []string{"imagery"}, names)

	key := tile.Key{Face: qs.FaceE, Level: 0}
	got, err := store.FetchBlob("imagery", key.Face, key.NodeID(), false)
	require.NoError(t, err)
	require.Equal(t, testBlobs[key], got)
}

func TestReadsLeaveContainerUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.qsdb")
	ts := container.NewTextureSet("imagery", codec.FormatPNG, 256, 0, 4, qs.FaceE)
	writeContainer(t, path, []db.TextureSet{ts}, map[string]blobs{"imagery": testBlobs})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	store := openStore(t, path)
	_, err = store.TextureSets()
	require.NoError(t, err)
	_, err = store.ReadTextureSet("imagery")
	require.NoError(t, err)
	for key := range testBlobs {
		_, err := store.FetchBlob("imagery", key.Face, key.NodeID(), false)
		require.NoError(t, err)
	}
	require.NoError(t, store.VisitBlobs("imagery", func(qs.Face, qs.NodeID, []byte) error { return nil }))
	require.NoError(t, store.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no journal or wal files")
}

func TestFetchBlob(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.qsdb")
	faces := qs.Faces()
	ts := container.NewTextureSet("imagery", codec.FormatPNG, 256, 0, 32, faces[:]...)
	writeContainer(t, path, []db.TextureSet{ts}, map[string]blobs{"imagery": testBlobs})

	store := openStore(t, path)

	for key, want := range testBlobs {
		got, err := store.FetchBlob("imagery", key.Face, key.NodeID(), false)
		require.NoError(t, err, "FetchBlob(%v)", key)
		require.NotNil(t, got)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FetchBlob(%v) mismatch (-want+got):\n%v", key, diff)
		}
	}

	// same node on another face
	got, err := store.FetchBlob("imagery", qs.FaceWW, qs.NodeID{}, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	_, err = store.FetchBlob("no_such_set", qs.FaceE, qs.NodeID{}, false)
	require.ErrorIs(t, err, db.ErrMissingTable)
	require.True(t, db.MetadataError.Has(err))
}

func TestVisitBlobs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.qsdb")
	faces := qs.Faces()
	ts := container.NewTextureSet("imagery", codec.FormatPNG, 256, 0, 32, faces[:]...)
	writeContainer(t, path, []db.TextureSet{ts}, map[string]blobs{"imagery": testBlobs})

	store := openStore(t, path)
	table := store.Table("imagery", false)

	if diff := cmp.Diff(testBlobs, blobs(maps.Collect(tile.IterBlobs(table)))); diff != "" {
		t.Errorf("VisitBlobs mismatch (-want+got):\n%v", diff)
	}

	key := tile.Key{Face: qs.FaceN, Level: 2, X: 3, Y: 2}
	got, err := table.ReadBlob(key)
	require.NoError(t, err)
	require.Equal(t, testBlobs[key], got)

	_, err = table.ReadBlob(tile.Key{Face: qs.FaceN, Level: 2, X: 4, Y: 0})
	require.True(t, db.FetchError.Has(err))

	stop := 0
	err = store.VisitBlobs("imagery", func(qs.Face, qs.NodeID, []byte) error {
		stop++
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, 1, stop)
}

var errStop = errors.New("stop")

func TestClosedStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.qsdb")
	writeContainer(t, path, []db.TextureSet{container.NewTextureSet("imagery", codec.FormatPNG, 256, 0, 4, qs.FaceE)}, nil)

	store, err := db.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.FetchBlob("imagery", qs.FaceE, qs.NodeID{}, false)
	require.ErrorIs(t, err, db.ErrClosed)
	require.True(t, db.FetchError.Has(err))

	_, err = store.ReadTextureSet("imagery")
	require.ErrorIs(t, err, db.ErrClosed)
}

func TestLocalFallbackPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"world.qsdb", "world_local.qsdb"},
		{"/data/tiles/world.qsdb", "/data/tiles/world_local.qsdb"},
		{"/data/tiles/world", "/data/tiles/world_local"},
		{"/data/v1.2/world.db", "/data/v1.2/world_local.db"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, db.LocalFallbackPath(tt.path))
	}
}

func TestLocalFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "world.qsdb")

	store := openStore(t, path, db.WithLocalFallback())
	require.True(t, store.Detached())

	key := tile.Key{Face: qs.FaceE, Level: 0}

	// neither file exists
	got, err := store.FetchBlob("imagery", key.Face, key.NodeID(), true)
	require.NoError(t, err)
	require.Empty(t, got)

	ts := container.NewTextureSet("imagery", codec.FormatPNG, 256, 0, 4, qs.FaceE)
	writeContainer(t, db.LocalFallbackPath(path), []db.TextureSet{ts}, map[string]blobs{"imagery": testBlobs})

	got, err = store.FetchBlob("imagery", key.Face, key.NodeID(), true)
	require.NoError(t, err)
	require.Equal(t, testBlobs[key], got)

	got, err = store.FetchBlob("imagery", key.Face, key.NodeID(), false)
	require.NoError(t, err)
	require.Empty(t, got)

	meta, err := store.ReadTextureSet("imagery")
	require.NoError(t, err)
	require.Equal(t, "imagery", meta.Name)

	// the fallback file is not held open between calls
	require.NoError(t, os.Remove(db.LocalFallbackPath(path)))
	got, err = store.FetchBlob("imagery", key.Face, key.NodeID(), true)
	require.NoError(t, err)
	require.Empty(t, got)
}
