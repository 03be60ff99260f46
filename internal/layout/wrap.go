package layout

import (
	"strings"
	"unicode"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/internal/render"
)

// WrappedLine is one visual line of a wrapped element. Indent is the extra
// left offset of continuation lines.
type WrappedLine struct {
	Indent       float64
	Words        []string
	Text         string
	Spans        []flow.Span
	Continuation bool
	Width        float64
}

// Wrap breaks text greedily into lines. A word joins the current line while
// the joined width stays strictly below the limit: maxWidth for the first
// line, maxWidth-contIndent for every later one. A word wider than the limit
// gets a line to itself. Empty text yields a single empty line.
func Wrap(m Measurer, text string, font render.Font, size, maxWidth, contIndent float64) []WrappedLine {
	words := strings.Fields(text)
	width := func(i, j int) float64 {
		return m.Width(strings.Join(words[i:j], " "), font, size)
	}

	ranges := breakLines(len(words), width, maxWidth, contIndent)
	lines := make([]WrappedLine, 0, len(ranges))
	for n, r := range ranges {
		line := WrappedLine{Words: words[r[0]:r[1]]}
		line.Text = strings.Join(line.Words, " ")
		line.Width = width(r[0], r[1])
		if line.Text != "" {
			line.Spans = []flow.Span{{Text: line.Text}}
		}
		if n > 0 {
			line.Continuation = true
			line.Indent = contIndent
		}
		lines = append(lines, line)
	}
	return lines
}

// WrapSpans is Wrap for styled text. Widths are measured per style run, and
// a word may carry more than one style ("**go**,").
func WrapSpans(m Measurer, spans []flow.Span, size, maxWidth, contIndent float64) []WrappedLine {
	words := splitWords(spans)
	width := func(i, j int) float64 {
		return SpansWidth(m, joinWords(words[i:j]), size)
	}

	ranges := breakLines(len(words), width, maxWidth, contIndent)
	lines := make([]WrappedLine, 0, len(ranges))
	for n, r := range ranges {
		line := WrappedLine{Spans: joinWords(words[r[0]:r[1]])}
		for _, w := range words[r[0]:r[1]] {
			line.Words = append(line.Words, flow.Text(w))
		}
		line.Text = flow.Text(line.Spans)
		line.Width = SpansWidth(m, line.Spans, size)
		if n > 0 {
			line.Continuation = true
			line.Indent = contIndent
		}
		lines = append(lines, line)
	}
	return lines
}

func breakLines(count int, width func(i, j int) float64, maxWidth, contIndent float64) [][2]int {
	if count == 0 {
		return [][2]int{{0, 0}}
	}
	var lines [][2]int
	start := 0
	for i := 1; i < count; i++ {
		limit := maxWidth
		if len(lines) > 0 {
			limit = maxWidth - contIndent
		}
		if width(start, i+1) < limit {
			continue
		}
		lines = append(lines, [2]int{start, i})
		start = i
	}
	return append(lines, [2]int{start, count})
}

type styledWord []flow.Span

func splitWords(spans []flow.Span) []styledWord {
	var (
		words []styledWord
		cur   styledWord
	)
	for _, s := range spans {
		for _, r := range s.Text {
			if unicode.IsSpace(r) {
				if len(cur) > 0 {
					words = append(words, cur)
					cur = nil
				}
				continue
			}
			if n := len(cur); n > 0 && cur[n-1].Style == s.Style {
				cur[n-1].Text += string(r)
			} else {
				cur = append(cur, flow.Span{Text: string(r), Style: s.Style})
			}
		}
	}
	if len(cur) > 0 {
		words = append(words, cur)
	}
	return words
}

// joinWords puts single spaces between words. A space takes the style of the
// text before it so runs of one style stay in one span.
func joinWords(words []styledWord) []flow.Span {
	var out []flow.Span
	push := func(s flow.Span) {
		if n := len(out); n > 0 && out[n-1].Style == s.Style {
			out[n-1].Text += s.Text
			return
		}
		out = append(out, s)
	}
	for i, w := range words {
		if i > 0 {
			push(flow.Span{Text: " ", Style: out[len(out)-1].Style})
		}
		for _, frag := range w {
			push(frag)
		}
	}
	return out
}

// WidestLine returns the largest Indent+Width of lines.
func WidestLine(lines []WrappedLine) float64 {
	w := 0.0
	for _, l := range lines {
		if l.Indent+l.Width > w {
			w = l.Indent + l.Width
		}
	}
	return w
}
