package db

import (
	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
)

// Table is a view of one per-node table that implements tile.BlobReader and
// tile.Visitor.
type Table struct {
	store              *Store
	name               string
	allowLocalFallback bool
}

// Table returns a view of the named per-node table.
func (s *Store) Table(name string, allowLocalFallback bool) Table {
	return Table{store: s, name: name, allowLocalFallback: allowLocalFallback}
}

func (t Table) Name() string {
	return t.name
}

func (t Table) ReadBlob(key tile.Key) ([]byte, error) {
	if !key.Valid() {
		return nil, FetchError.New("invalid tile key %v", key)
	}
	return t.store.FetchBlob(t.name, key.Face, key.NodeID(), t.allowLocalFallback)
}

func (t Table) VisitBlobs(visitor func(tile.Key, []byte) error) error {
	return t.store.VisitBlobs(t.name, func(face qs.Face, id qs.NodeID, data []byte) error {
		return visitor(tile.KeyFromNodeID(face, id), data)
	})
}
