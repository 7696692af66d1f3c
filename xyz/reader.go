package xyz

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-qstiles/qs"
	"github.com/eak1mov/go-qstiles/tile"
)

// Reader implements tile.BlobReader and tile.Visitor for a directory tree of blobs.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// NewReader creates a new Reader for the given file pattern (e.g. "/home/user/tiles/{f}/{z}/{x}/{y}.bin").
func NewReader(filePattern string) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}

	regexPattern := regexp.QuoteMeta(filepath.Clean(filePattern))
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta("{f}"), "(?P<f>WW|EE|W|E|N|S)")
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta("{x}"), "(?P<x>\\d+)")
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta("{y}"), "(?P<y>\\d+)")
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta("{z}"), "(?P<z>\\d+)")
	pathRegex, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	path0 := formatPattern(filepath.Clean(filePattern), tile.Key{Face: qs.FaceWW, Level: 0})
	path1 := formatPattern(filepath.Clean(filePattern), tile.Key{Face: qs.FaceEE, Level: 1, X: 1, Y: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}
	rootDir := path0

	return &Reader{filePattern, rootDir, pathRegex}, nil
}

func (r *Reader) ReadBlob(key tile.Key) ([]byte, error) {
	filePath := formatPattern(r.filePattern, key)
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Reader) VisitBlobs(visitor func(tile.Key, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil
		}

		face, err := qs.ParseFace(matches[r.pathRegexp.SubexpIndex("f")])
		if err != nil {
			return err
		}
		x, errX := strconv.ParseUint(matches[r.pathRegexp.SubexpIndex("x")], 10, 32)
		y, errY := strconv.ParseUint(matches[r.pathRegexp.SubexpIndex("y")], 10, 32)
		z, errZ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("z")])
		key := tile.Key{Face: face, Level: z, X: uint32(x), Y: uint32(y)}
		if errX != nil || errY != nil || errZ != nil || !key.Valid() {
			return fmt.Errorf("qstiles: invalid tile path %q", filePath)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(key, data)
	})
}
