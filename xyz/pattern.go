// Package xyz reads and writes tile blobs stored as individual files in a directory
// tree, with paths like "/f/z/x/y.ext".
package xyz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eak1mov/go-qstiles/tile"
)

var ErrInvalidPattern = errors.New("qstiles: invalid file pattern")

var placeholders = []string{"{f}", "{x}", "{y}", "{z}"}

func validatePattern(pattern string) error {
	for _, p := range placeholders {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, key tile.Key) string {
	return strings.NewReplacer(
		"{f}", key.Face.String(),
		"{x}", fmt.Sprintf("%d", key.X),
		"{y}", fmt.Sprintf("%d", key.Y),
		"{z}", fmt.Sprintf("%d", key.Level),
	).Replace(pattern)
}
