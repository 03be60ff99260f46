package ingest

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const questionLevel = 2

var emptyHeadingPattern = regexp.MustCompile(`(?m)^ {0,3}##[ \t]*#*[ \t]*$`)

// ParseNotes splits a notes document into cards: every "## " heading is a
// question, the text up to the next one its answer. Text before the first
// heading is ignored. Deeper headings stay inside the answer, and headings
// inside code fences do not split.
func ParseNotes(src []byte) []models.Card {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type heading struct {
		question   string
		start, end int // line bounds of the heading in src
	}
	var headings []heading
	cursor := 0

	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		h, ok := child.(*ast.Heading)
		if !ok || h.Level != questionLevel {
			continue
		}

		var start int
		var question string
		if h.Lines().Len() > 0 {
			seg := h.Lines().At(0)
			start = lineStart(src, seg.Start)
			question = string(bytes.TrimSpace(seg.Value(src)))
		} else {
			loc := emptyHeadingPattern.FindIndex(src[cursor:])
			if loc == nil {
				continue
			}
			start = cursor + loc[0]
		}
		if !isATX(src[start:]) {
			// setext headings underline their text instead
			continue
		}

		end := lineEnd(src, start)
		headings = append(headings, heading{question: question, start: start, end: end})
		cursor = end
	}

	cards := make([]models.Card, 0, len(headings))
	for i, h := range headings {
		bodyEnd := len(src)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1].start
		}
		bodyStart := h.end
		if bodyStart > bodyEnd {
			bodyStart = bodyEnd
		}
		cards = append(cards, models.Card{
			Front: h.question,
			Back:  string(bytes.TrimSpace(src[bodyStart:bodyEnd])),
		})
	}
	return cards
}

func lineStart(src []byte, pos int) int {
	return bytes.LastIndexByte(src[:pos], '\n') + 1
}

// lineEnd returns the offset just past the newline ending the line at start.
func lineEnd(src []byte, start int) int {
	if i := bytes.IndexByte(src[start:], '\n'); i >= 0 {
		return start + i + 1
	}
	return len(src)
}

func isATX(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(line, " "), []byte("##"))
}
