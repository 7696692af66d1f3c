package tile

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterBlobs returns an iterator over all stored tiles.
// It yields tile keys and their raw blobs. Iteration panics on unrecoverable errors.
func IterBlobs(v Visitor) iter.Seq2[Key, []byte] {
	return func(yield func(Key, []byte) bool) {
		err := v.VisitBlobs(func(key Key, blob []byte) error {
			if !yield(key, blob) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}
