package layout

import (
	"math"
	"strings"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/internal/render"
)

const (
	tabWidth   = 4
	fitReserve = 0.98
)

// CodeFit is a code block sized for an available width.
type CodeFit struct {
	Lines      []string
	Size       float64
	LineHeight float64
	Width      float64
	Scale      float64
	Crowded    bool
}

func (c CodeFit) Height() float64 {
	return float64(len(c.Lines)) * c.LineHeight
}

// FitCode measures the widest line of a code block in the mono face. When it
// is wider than available, font size and line height of the block are scaled
// by available*0.98/measured, but never below minScale. A block held at
// minScale is Crowded and runs past available. Lines are never wrapped or
// clipped.
func FitCode(m Measurer, block *flow.CodeBlock, size, lineSpacing, available, minScale float64) CodeFit {
	fit := CodeFit{Size: size, LineHeight: size * lineSpacing, Scale: 1}
	for _, line := range block.Lines {
		fit.Lines = append(fit.Lines, strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth)))
	}

	measured := 0.0
	for _, line := range fit.Lines {
		measured = math.Max(measured, m.Width(line, render.FontMono, size))
	}

	if measured > available && measured > 0 {
		fit.Scale, fit.Crowded = clampScale(available*fitReserve/measured, minScale)
		fit.Size *= fit.Scale
		fit.LineHeight *= fit.Scale
	}
	fit.Width = measured * fit.Scale
	return fit
}

// TableCell is one wrapped cell. Header cells are centred in their column.
type TableCell struct {
	Lines  []WrappedLine
	Header bool
}

type TableRow struct {
	Cells  []TableCell
	Height float64
}

// TableLayout is a table on an equal-width column grid.
type TableLayout struct {
	Columns    int
	ColWidth   float64
	Width      float64
	Height     float64
	Padding    float64
	Size       float64
	LineHeight float64
	Scale      float64
	Crowded    bool
	Rows       []TableRow
}

// LayoutTable lays a table out on equal columns. The table is as wide as
// columns times its widest cell, capped at available. If a single word does
// not fit its column the whole table, padding included, is scaled down
// uniformly, but never below minScale. A table held at minScale is Crowded.
func LayoutTable(m Measurer, t *flow.Table, size, lineSpacing, available, minScale float64) TableLayout {
	cols := t.Columns()
	tl := TableLayout{Columns: cols, Size: size, Scale: 1}
	if cols == 0 {
		return tl
	}

	cells := make([][][]flow.Span, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = make([][]flow.Span, len(row))
		for c, raw := range row {
			spans := flow.ParseInline(raw)
			if r == 0 {
				spans = withStyle(spans, flow.StyleBold)
			}
			cells[r][c] = spans
		}
	}

	pad := size * 0.4
	widest, longestWord := 0.0, 0.0
	for _, row := range cells {
		for _, spans := range row {
			widest = math.Max(widest, SpansWidth(m, spans, size))
			for _, w := range splitWords(spans) {
				longestWord = math.Max(longestWord, SpansWidth(m, w, size))
			}
		}
	}

	tl.Width = math.Min(available, float64(cols)*(widest+2*pad))
	tl.ColWidth = tl.Width / float64(cols)
	if longestWord > tl.ColWidth-2*pad && longestWord > 0 {
		tl.Scale, tl.Crowded = clampScale(tl.ColWidth*fitReserve/(longestWord+2*pad), minScale)
	}

	tl.Size = size * tl.Scale
	tl.Padding = pad * tl.Scale
	tl.LineHeight = tl.Size * lineSpacing
	inner := tl.ColWidth - 2*tl.Padding

	for r, row := range cells {
		tr := TableRow{}
		lines := 1
		for _, spans := range row {
			cell := TableCell{Lines: WrapSpans(m, spans, tl.Size, inner, 0), Header: r == 0}
			if len(cell.Lines) > lines {
				lines = len(cell.Lines)
			}
			tr.Cells = append(tr.Cells, cell)
		}
		tr.Height = float64(lines)*tl.LineHeight + 2*tl.Padding
		tl.Height += tr.Height
		tl.Rows = append(tl.Rows, tr)
	}
	return tl
}

// clampScale holds an element scale at the shrink floor and reports whether
// the floor was hit.
func clampScale(scale, floor float64) (float64, bool) {
	if scale < floor {
		return floor, true
	}
	return scale, false
}

// FitImage scales w×h to fill maxW×maxH as far as possible while keeping the
// aspect ratio. Both caps hold at once.
func FitImage(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	scale := math.Min(maxW/w, maxH/h)
	return w * scale, h * scale
}

func withStyle(spans []flow.Span, style flow.SpanStyle) []flow.Span {
	out := make([]flow.Span, len(spans))
	for i, s := range spans {
		out[i] = flow.Span{Text: s.Text, Style: s.Style | style}
	}
	return out
}
