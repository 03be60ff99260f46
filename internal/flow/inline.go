package flow

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// inlineParser only knows paragraphs, so a line is never reinterpreted as a
// heading, quote or list by goldmark. Block structure is the tokenizer's job.
var inlineParser = parser.NewParser(
	parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
	parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
)

// ParseInline splits a line of text into styled spans: **bold**, *italic*
// and `code`. Text that yields nothing after parsing is kept as one plain span.
func ParseInline(s string) []Span {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return []Span{{Text: ""}}
	}

	src := []byte(trimmed)
	doc := inlineParser.Parse(text.NewReader(src))

	var spans []Span
	collectSpans(doc, src, StylePlain, &spans)

	if strings.TrimSpace(Text(spans)) == "" {
		return []Span{{Text: trimmed}}
	}
	return spans
}

func collectSpans(node ast.Node, src []byte, style SpanStyle, out *[]Span) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			appendSpan(out, string(c.Segment.Value(src)), style)
			if c.SoftLineBreak() || c.HardLineBreak() {
				appendSpan(out, " ", style)
			}
		case *ast.String:
			appendSpan(out, string(c.Value), style)
		case *ast.Emphasis:
			next := style | StyleItalic
			if c.Level >= 2 {
				next = style | StyleBold
			}
			collectSpans(c, src, next, out)
		case *ast.CodeSpan:
			var sb strings.Builder
			for t := c.FirstChild(); t != nil; t = t.NextSibling() {
				switch seg := t.(type) {
				case *ast.Text:
					sb.Write(seg.Segment.Value(src))
				case *ast.String:
					sb.Write(seg.Value)
				}
			}
			appendSpan(out, sb.String(), style|StyleCode)
		case *ast.AutoLink:
			appendSpan(out, string(c.Label(src)), style)
		case *ast.RawHTML:
			for i := 0; i < c.Segments.Len(); i++ {
				seg := c.Segments.At(i)
				appendSpan(out, string(seg.Value(src)), style)
			}
		default:
			if child.HasChildren() {
				collectSpans(child, src, style, out)
			}
		}
	}
}

// appendSpan merges text into the previous span when the styles match.
func appendSpan(out *[]Span, s string, style SpanStyle) {
	if s == "" {
		return
	}
	if n := len(*out); n > 0 && (*out)[n-1].Style == style {
		(*out)[n-1].Text += s
		return
	}
	*out = append(*out, Span{Text: s, Style: style})
}
