// Package container builds tile container files for tests and offline tooling such as
// the pack command. Runtime reads go through package db, which never writes.
package container

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eak1mov/go-qstiles/codec"
	"github.com/eak1mov/go-qstiles/db"
	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
)

// userVersion is stored in the user_version header field of every written container.
const userVersion = 1

// Writer creates a new container file and fills it with texture sets and blobs.
type Writer struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *slog.Logger
}

type writerConfig struct {
	Logger          *slog.Logger
	SkipTextureSets bool
}

type WriterOption func(*writerConfig)

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// WithoutTextureSetsTable leaves out the texture set list.
func WithoutTextureSetsTable() WriterOption {
	return func(c *writerConfig) { c.SkipTextureSets = true }
}

// NewWriter creates a new container at filePath.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	conn, err := sql.Open("sqlite3", db.FileURI(filePath, "mode=rwc"))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			conn.Close()
		}
	}()

	// SQLite creates the file on the first write.
	if _, err = conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", userVersion)); err != nil {
		return nil, err
	}

	if !config.SkipTextureSets {
		_, err = conn.Exec(`
			CREATE TABLE ` + db.TextureSetsTable + ` (
				Name TEXT PRIMARY KEY,
				RasterFormat INTEGER,
				PixelLength INTEGER,
				ShallowestLevel INTEGER,
				DeepestLevel INTEGER,
				Extents0 BLOB,
				Extents1 BLOB,
				Extents2 BLOB,
				Extents3 BLOB,
				Extents4 BLOB,
				Extents5 BLOB,
				Source TEXT,
				Classification TEXT,
				Description TEXT,
				TimeSpecified INTEGER,
				TimeStamp INTEGER
			);
		`)
		if err != nil {
			return nil, err
		}
	}

	return &Writer{db: conn, stmts: make(map[string]*sql.Stmt), logger: config.Logger}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// AddTextureSet records ts in the texture set list and creates its per-node table.
func (w *Writer) AddTextureSet(ts db.TextureSet) error {
	if err := w.InsertTextureSet(ts); err != nil {
		return err
	}
	return w.CreateTable(ts.Name)
}

// InsertTextureSet records ts in the texture set list only.
func (w *Writer) InsertTextureSet(ts db.TextureSet) error {
	var timeStamp int64
	if ts.TimeSpecified {
		timeStamp = ts.TimeStamp.Unix()
	}
	_, err := w.db.Exec(`
		INSERT INTO `+db.TextureSetsTable+` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Name, int(ts.RasterFormat), ts.PixelLength, ts.ShallowestLevel, ts.DeepestLevel,
		db.EncodeExtents(ts.Extents[0]), db.EncodeExtents(ts.Extents[1]),
		db.EncodeExtents(ts.Extents[2]), db.EncodeExtents(ts.Extents[3]),
		db.EncodeExtents(ts.Extents[4]), db.EncodeExtents(ts.Extents[5]),
		ts.Source, ts.Classification, ts.Description, ts.TimeSpecified, timeStamp)
	return err
}

// CreateTable creates an empty per-node table.
func (w *Writer) CreateTable(name string) error {
	w.logger.Debug("qstiles: creating table", "name", name)
	_, err := w.db.Exec("CREATE TABLE " + quoteIdent(name) + " (ID BLOB PRIMARY KEY, Data BLOB)")
	return err
}

// Exec runs a raw statement, for containers that need hand-made rows.
func (w *Writer) Exec(query string, args ...any) error {
	_, err := w.db.Exec(query, args...)
	return err
}

func (w *Writer) WriteBlob(table string, face qs.Face, id qs.NodeID, data []byte) error {
	stmt, ok := w.stmts[table]
	if !ok {
		var err error
		stmt, err = w.db.Prepare("INSERT INTO " + quoteIdent(table) + " (ID, Data) VALUES (?, ?)")
		if err != nil {
			return err
		}
		w.stmts[table] = stmt
	}
	_, err := stmt.Exec(db.NodeKey(face, id), data)
	return err
}

func (w *Writer) WriteTile(table string, key tile.Key, data []byte) error {
	return w.WriteBlob(table, key.Face, key.NodeID(), data)
}

func (w *Writer) Close() error {
	var errs []error
	for _, stmt := range w.stmts {
		errs = append(errs, stmt.Close())
	}
	return errors.Join(append(errs, w.db.Close())...)
}

// NewTextureSet returns a texture set whose listed faces are fully covered and whose
// other faces hold no data.
func NewTextureSet(name string, format codec.Format, pixelLength, shallowest, deepest int, faces ...qs.Face) db.TextureSet {
	ts := db.TextureSet{
		Name:            name,
		RasterFormat:    format,
		PixelLength:     pixelLength,
		ShallowestLevel: shallowest,
		DeepestLevel:    deepest,
	}
	for i := range ts.Extents {
		ts.Extents[i] = qs.InvalidExtents()
	}
	for _, face := range faces {
		ts.Extents[face] = qs.FaceExtents()
	}
	return ts
}
