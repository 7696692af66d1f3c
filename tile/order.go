package tile

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/hilbert"
)

// hilbertLevels bounds the levels whose curve index fits in a uint64 together with the
// keys of all shallower levels.
const hilbertLevels = 31

// HilbertIndex returns the position of k along the Hilbert curve of its level, after
// all keys of shallower levels. Keys deeper than level 31 have no index and report
// math.MaxUint64.
func (k Key) HilbertIndex() uint64 {
	if k.Level > hilbertLevels {
		return math.MaxUint64
	}
	h, _ := hilbert.NewHilbert(1 << k.Level)
	code, _ := h.MapInverse(int(k.X), int(k.Y))

	shallower := (uint64(1)<<(2*k.Level) - 1) / 3
	return shallower + uint64(code)
}

// SortKeys orders keys by face, then level, then Hilbert index, so that consecutive
// keys address neighbouring tiles. Keys without a Hilbert index fall back to
// row-major order.
func SortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int {
		return cmp.Or(
			cmp.Compare(a.Face, b.Face),
			cmp.Compare(a.Level, b.Level),
			cmp.Compare(a.HilbertIndex(), b.HilbertIndex()),
			cmp.Compare(a.Y, b.Y),
			cmp.Compare(a.X, b.X),
		)
	})
}
