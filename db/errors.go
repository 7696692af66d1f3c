package db

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"
)

var (
	OpenError     = errs.Class("qstiles open")
	MetadataError = errs.Class("qstiles metadata")
	FetchError    = errs.Class("qstiles fetch")
)

var (
	ErrNotFound     = errors.New("container not found")
	ErrCorrupt      = errors.New("container is corrupt")
	ErrMissingTable = errors.New("missing table")
	ErrMalformedRow = errors.New("malformed row")
	ErrIO           = errors.New("read failed")
	ErrClosed       = errors.New("store is closed")
)

func sqliteCode(err error) (sqlite3.ErrNo, bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code, true
	}
	return 0, false
}

func isMissingTable(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.ErrError && strings.Contains(err.Error(), "no such table")
}

func isCorrupt(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.ErrNotADB || code == sqlite3.ErrCorrupt)
}

func isCantOpen(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.ErrCantOpen
}
