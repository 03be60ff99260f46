package sheet

import (
	"fmt"
	"strings"
)

// Convention names how the printed sheet is turned over between sides.
type Convention string

const (
	// MirrorColumns is a flip about the long edge of a landscape sheet: an
	// answer stays in its row and moves to the opposite column.
	MirrorColumns Convention = "mirror-columns"
	// MirrorRows is a flip about the short edge: an answer stays in its
	// column and moves to the opposite row.
	MirrorRows Convention = "mirror-rows"
)

func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return MirrorColumns, nil
	case MirrorColumns, MirrorRows:
		return c, nil
	}
	return "", fmt.Errorf("unknown duplex convention %q (want %s or %s)", s, MirrorColumns, MirrorRows)
}

// Permutation maps the slot of a question to the slot its answer must take
// on the back of the sheet. It is its own inverse.
func Permutation(g Geometry, c Convention) func(int) int {
	return func(i int) int {
		row, col := i/g.Cols, i%g.Cols
		if c == MirrorRows {
			return (g.Rows-1-row)*g.Cols + col
		}
		return row*g.Cols + (g.Cols - 1 - col)
	}
}

// Remap moves items[i] to position perm(i).
func Remap[T any](items []T, perm func(int) int) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[perm(i)] = item
	}
	return out
}
