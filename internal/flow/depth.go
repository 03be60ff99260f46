package flow

import "sort"

// Glyphs are the bullet markers per nesting depth. Deeper levels reuse the
// last one.
var Glyphs = []string{"•", "◦", "▪", "▫"}

// GlyphForDepth returns the bullet for a depth, clamped to the glyph table.
func GlyphForDepth(depth int) string {
	if depth < 0 {
		depth = 0
	}
	if depth >= len(Glyphs) {
		depth = len(Glyphs) - 1
	}
	return Glyphs[depth]
}

// ResolveDepths ranks the distinct raw indents of the list items in elems
// and assigns each item its rank as depth. Only relative indentation within
// the given elements matters.
func ResolveDepths(elems []Element) []Element {
	seen := map[int]bool{}
	var indents []int
	for _, e := range elems {
		if item, ok := e.(*ListItem); ok && !seen[item.RawIndent] {
			seen[item.RawIndent] = true
			indents = append(indents, item.RawIndent)
		}
	}
	sort.Ints(indents)

	rank := make(map[int]int, len(indents))
	for i, indent := range indents {
		rank[indent] = i
	}

	for _, e := range elems {
		item, ok := e.(*ListItem)
		if !ok {
			continue
		}
		item.Depth = rank[item.RawIndent]
		if item.Ordered {
			item.Glyph = item.Ordinal
		} else {
			item.Glyph = GlyphForDepth(item.Depth)
		}
	}
	return elems
}
