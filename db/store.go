// Package db provides read-only access to tile containers: SQLite databases holding a
// list of texture sets and one table of raster blobs per set.
//
// The package registers the sqlite3 driver from github.com/mattn/go-sqlite3.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/qs"
)

// MaxReaders caps the number of stores a process opens on one container at once.
const MaxReaders = 128

// Store is a read-only handle to one container file.
//
// A Store is not safe for concurrent use; open one Store per goroutine instead.
type Store struct {
	path   string
	db     *sql.DB // nil when the primary file is missing
	stmts  map[string]*sql.Stmt
	logger *slog.Logger
	closed bool
}

type storeConfig struct {
	Logger        *slog.Logger
	LocalFallback bool
}

type Option func(*storeConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *storeConfig) { c.Logger = logger }
}

// WithLocalFallback makes Open succeed when the container file is missing. The store is
// then detached and reads are served from LocalFallbackPath, when that file exists.
func WithLocalFallback() Option {
	return func(c *storeConfig) { c.LocalFallback = true }
}

// LocalFallbackPath returns the conventional path of the local copy of a container:
// "dir/world.qsdb" becomes "dir/world_local.qsdb".
func LocalFallbackPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_local" + ext
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// FileURI returns the SQLite URI of the file at path with the given query parameters.
// The path is escaped, so '?', '#' and '%' in file names are taken literally.
func FileURI(path, query string) string {
	u := url.URL{Scheme: "file", OmitHost: true, Path: filepath.ToSlash(path), RawQuery: query}
	return u.String()
}

// openDB opens path read-only and verifies that it is a database.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", FileURI(path, "mode=ro&_locking_mode=NORMAL"))
	if err != nil {
		return nil, OpenError.Wrap(err)
	}
	db.SetMaxOpenConns(1)

	var n int
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		switch {
		case isCantOpen(err):
			return nil, OpenError.Wrap(fmt.Errorf("%w: %s: %w", ErrNotFound, path, err))
		case isCorrupt(err):
			return nil, OpenError.Wrap(fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err))
		}
		return nil, OpenError.Wrap(err)
	}
	return db, nil
}

// Open opens the container at path for reading.
//
// The returned Store must be closed after use to release database resources.
func Open(path string, opts ...Option) (*Store, error) {
	config := storeConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	store := &Store{
		path:   path,
		stmts:  make(map[string]*sql.Stmt),
		logger: config.Logger,
	}

	found, err := exists(path)
	if err != nil {
		return nil, OpenError.Wrap(err)
	}
	if !found {
		if config.LocalFallback {
			config.Logger.Debug("qstiles: container missing, using local fallback", "path", path)
			return store, nil
		}
		return nil, OpenError.Wrap(fmt.Errorf("%w: %s", ErrNotFound, path))
	}

	store.db, err = openDB(path)
	if err != nil {
		return nil, err
	}
	config.Logger.Debug("qstiles: opened container", "path", path)
	return store, nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Detached reports whether the primary file was missing when the store was opened.
func (s *Store) Detached() bool {
	return s.db == nil
}

func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, stmt := range s.stmts {
		errs = append(errs, stmt.Close())
	}
	clear(s.stmts)
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// withFallback runs fn against the local fallback file, closing it before returning.
// It reports false when the fallback file does not exist.
func (s *Store) withFallback(fn func(*sql.DB) error) (bool, error) {
	path := LocalFallbackPath(s.path)
	found, err := exists(path)
	if err != nil || !found {
		return false, err
	}

	s.logger.Debug("qstiles: reading local fallback", "path", path)
	db, err := openDB(path)
	if err != nil {
		return true, err
	}
	return true, errors.Join(fn(db), db.Close())
}

// read runs fn against the primary database, or the fallback file for a detached store.
func (s *Store) read(fn func(*sql.DB) error) (bool, error) {
	if s.closed {
		return false, FetchError.Wrap(ErrClosed)
	}
	if s.db != nil {
		return true, fn(s.db)
	}
	return s.withFallback(fn)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TextureSets returns the names of all texture sets in the container.
func (s *Store) TextureSets() ([]string, error) {
	var names []string
	found, err := s.read(func(db *sql.DB) error {
		rows, err := db.Query("SELECT Name FROM " + TextureSetsTable + " ORDER BY Name")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return MetadataError.Wrap(fmt.Errorf("%w: %w", ErrMalformedRow, err))
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, metadataError(err, TextureSetsTable)
	}
	if !found {
		return nil, MetadataError.Wrap(fmt.Errorf("%w: %s", ErrMissingTable, TextureSetsTable))
	}
	return names, nil
}

// ReadTextureSet reads the metadata of the named texture set.
func (s *Store) ReadTextureSet(name string) (TextureSet, error) {
	var ts TextureSet
	found, err := s.read(func(db *sql.DB) error {
		row := db.QueryRow(`
			SELECT Name, RasterFormat, PixelLength, ShallowestLevel, DeepestLevel,
				Extents0, Extents1, Extents2, Extents3, Extents4, Extents5,
				COALESCE(Source, ''), COALESCE(Classification, ''), COALESCE(Description, ''),
				COALESCE(TimeSpecified, 0), COALESCE(TimeStamp, 0)
			FROM `+TextureSetsTable+` WHERE Name = ?`, name)

		var format int64
		var extents [qs.NumFaces][]byte
		var timeSpecified, timeStamp int64
		err := row.Scan(&ts.Name, &format, &ts.PixelLength, &ts.ShallowestLevel, &ts.DeepestLevel,
			&extents[0], &extents[1], &extents[2], &extents[3], &extents[4], &extents[5],
			&ts.Source, &ts.Classification, &ts.Description, &timeSpecified, &timeStamp)
		if errors.Is(err, sql.ErrNoRows) {
			return MetadataError.Wrap(fmt.Errorf("%w: texture set %q", ErrMissingTable, name))
		}
		if err != nil {
			if isMissingTable(err) {
				return err
			}
			return MetadataError.Wrap(fmt.Errorf("%w: %q: %w", ErrMalformedRow, name, err))
		}

		ts.RasterFormat = codec.Format(format)
		for face := range extents {
			if ts.Extents[face], err = DecodeExtents(extents[face]); err != nil {
				return MetadataError.Wrap(fmt.Errorf("%w: %q face %v: %w", ErrMalformedRow, name, qs.Face(face), err))
			}
		}
		ts.TimeSpecified = timeSpecified != 0
		if ts.TimeSpecified {
			ts.TimeStamp = time.Unix(timeStamp, 0).UTC()
		}

		if err := ts.validate(); err != nil {
			return MetadataError.Wrap(fmt.Errorf("%w: %q: %w", ErrMalformedRow, name, err))
		}
		return nil
	})
	if err != nil {
		return TextureSet{}, metadataError(err, TextureSetsTable)
	}
	if !found {
		return TextureSet{}, MetadataError.Wrap(fmt.Errorf("%w: texture set %q", ErrMissingTable, name))
	}
	return ts, nil
}

// metadataError classifies a raw error raised while reading table.
func metadataError(err error, table string) error {
	switch {
	case MetadataError.Has(err), FetchError.Has(err), OpenError.Has(err):
		return err
	case isMissingTable(err):
		return MetadataError.Wrap(fmt.Errorf("%w: %s", ErrMissingTable, table))
	}
	return FetchError.Wrap(fmt.Errorf("%w: %w", ErrIO, err))
}

func (s *Store) stmt(db *sql.DB, table string) (*sql.Stmt, error) {
	if db == s.db {
		if stmt, ok := s.stmts[table]; ok {
			return stmt, nil
		}
	}
	stmt, err := db.Prepare("SELECT Data FROM " + quoteIdent(table) + " WHERE ID = ?")
	if err != nil {
		return nil, err
	}
	if db == s.db {
		s.stmts[table] = stmt
	}
	return stmt, nil
}

// FetchBlob returns the blob stored for node id on face in the per-node table. A node
// without data yields an empty slice and no error.
//
// A detached store reads the local fallback file only when allowLocalFallback is set;
// the fallback handle is closed before FetchBlob returns.
func (s *Store) FetchBlob(table string, face qs.Face, id qs.NodeID, allowLocalFallback bool) ([]byte, error) {
	if s.closed {
		return nil, FetchError.Wrap(ErrClosed)
	}
	if s.db == nil && !allowLocalFallback {
		return make([]byte, 0), nil
	}

	var data []byte
	_, err := s.read(func(db *sql.DB) error {
		stmt, err := s.stmt(db, table)
		if err != nil {
			return err
		}
		if db != s.db {
			defer stmt.Close()
		}
		return stmt.QueryRow(NodeKey(face, id)).Scan(&data)
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, metadataError(err, table)
	}
	if data == nil {
		data = make([]byte, 0)
	}
	return data, nil
}

// VisitBlobs calls visitor for every row of the per-node table, in key order.
func (s *Store) VisitBlobs(table string, visitor func(qs.Face, qs.NodeID, []byte) error) error {
	_, err := s.read(func(db *sql.DB) error {
		rows, err := db.Query("SELECT ID, Data FROM " + quoteIdent(table) + " ORDER BY ID")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var key, data []byte
			if err := rows.Scan(&key, &data); err != nil {
				return err
			}
			face, id, err := ParseNodeKey(key)
			if err != nil {
				return MetadataError.Wrap(fmt.Errorf("%w: %s: %w", ErrMalformedRow, table, err))
			}
			if data == nil {
				data = make([]byte, 0)
			}
			if err := visitor(face, id, data); err != nil {
				return visitorError{err}
			}
		}
		return rows.Err()
	})

	var ve visitorError
	if errors.As(err, &ve) {
		return ve.err
	}
	if err != nil {
		return metadataError(err, table)
	}
	return nil
}

// visitorError carries a visitor's error through unchanged.
type visitorError struct{ err error }

func (e visitorError) Error() string { return e.err.Error() }
