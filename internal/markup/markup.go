package markup

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const (
	hiddenSortKey = "<div style='display:none;'>%s</div>"
	captionFormat = "<br><br><span style='font-size: 10px; color: grey;'>ID: %d</span>"
	indentRun     = "    "
	indentHTML    = "&nbsp;&nbsp;&nbsp;&nbsp;"
)

// ImageResolver maps an image reference to a file on disk.
type ImageResolver interface {
	Resolve(ref string) (string, bool)
}

// Renderer turns card faces into the HTML fields of a deck note. It reads the
// same flow elements as the sheet layout so both outputs agree on structure.
type Renderer struct {
	images    ImageResolver
	plainText bool
}

// NewRenderer returns a renderer. images may be nil, in which case image
// references are kept as text.
func NewRenderer(images ImageResolver, plainText bool) *Renderer {
	return &Renderer{images: images, plainText: plainText}
}

// Card renders both fields of a note and returns the media files they
// reference, without duplicates.
func (r *Renderer) Card(card models.Card) (front, back string, media []string) {
	q := flow.Tokenize(card.QuestionText(), flow.Options{Question: true, PlainText: r.plainText})
	a := flow.Tokenize(card.Back, flow.Options{PlainText: r.plainText})

	qHTML, qMedia := r.Face(q)
	aHTML, aMedia := r.Face(a)

	front = fmt.Sprintf(hiddenSortKey, card.SortKey()) + qHTML + fmt.Sprintf(captionFormat, card.Index)
	return front, aHTML, dedupe(append(qMedia, aMedia...))
}

// Face renders one tokenized face.
func (r *Renderer) Face(face flow.Face) (string, []string) {
	w := &writer{r: r}
	for _, e := range face.Elements {
		w.element(e)
	}
	w.closeLists(0)
	return w.sb.String(), w.media
}

type writer struct {
	r      *Renderer
	sb     strings.Builder
	media  []string
	inline bool // last output was inline content that needs a <br> before more

	lists  []string // open list tags, outermost first
	liOpen []bool
}

func (w *writer) element(e flow.Element) {
	if _, ok := e.(*flow.ListItem); !ok {
		w.closeLists(0)
	}

	switch el := e.(type) {
	case *flow.Paragraph:
		w.breakInline()
		if w.r.plainText {
			w.sb.WriteString(strings.ReplaceAll(html.EscapeString(el.Raw), indentRun, indentHTML))
		} else {
			w.sb.WriteString(Spans(el.Spans))
		}
		w.inline = true

	case *flow.ListItem:
		w.listItem(el)

	case *flow.CodeBlock:
		w.inline = false
		class := ""
		if el.Lang != "" {
			class = fmt.Sprintf(` class="language-%s"`, html.EscapeString(el.Lang))
		}
		fmt.Fprintf(&w.sb, "<pre><code%s>%s</code></pre>", class, html.EscapeString(strings.Join(el.Lines, "\n")))

	case *flow.Table:
		w.inline = false
		w.table(el)

	case *flow.Image:
		w.breakInline()
		w.image(el)
		w.inline = true
	}
}

func (w *writer) breakInline() {
	if w.inline {
		w.sb.WriteString("<br>")
	}
}

func (w *writer) image(el *flow.Image) {
	if w.r.images != nil {
		if path, ok := w.r.images.Resolve(el.Target); ok {
			fmt.Fprintf(&w.sb, `<img src="%s">`, html.EscapeString(filepath.Base(path)))
			w.media = append(w.media, path)
			return
		}
	}
	w.sb.WriteString(html.EscapeString(el.Ref))
}

// listItem keeps one open list per depth. A deeper item opens its list inside
// the previous item; a shallower one closes lists down to its own depth.
func (w *writer) listItem(item *flow.ListItem) {
	w.inline = false
	depth := item.Depth
	tag := "ul"
	if item.Ordered {
		tag = "ol"
	}

	w.closeLists(depth + 1)
	if len(w.lists) == depth+1 {
		w.closeItem()
		if w.lists[depth] != tag {
			w.closeLists(depth)
		}
	}
	for len(w.lists) < depth+1 {
		w.sb.WriteString("<" + tag + ">")
		w.lists = append(w.lists, tag)
		w.liOpen = append(w.liOpen, false)
	}

	if item.Ordered {
		fmt.Fprintf(&w.sb, `<li value="%s">`, strings.TrimSuffix(item.Ordinal, "."))
	} else {
		w.sb.WriteString("<li>")
	}
	w.sb.WriteString(Spans(item.Spans))
	w.liOpen[depth] = true
}

func (w *writer) closeItem() {
	top := len(w.lists) - 1
	if w.liOpen[top] {
		w.sb.WriteString("</li>")
		w.liOpen[top] = false
	}
}

// closeLists closes open lists until only n remain.
func (w *writer) closeLists(n int) {
	for len(w.lists) > n {
		w.closeItem()
		top := len(w.lists) - 1
		w.sb.WriteString("</" + w.lists[top] + ">")
		w.lists = w.lists[:top]
		w.liOpen = w.liOpen[:top]
	}
}

func (w *writer) table(t *flow.Table) {
	w.sb.WriteString("<table>")
	for i, row := range t.Rows {
		header := i == 0 && t.HasSeparator
		if header {
			w.sb.WriteString("<thead>")
		} else if i == 0 || (i == 1 && t.HasSeparator) {
			w.sb.WriteString("<tbody>")
		}

		cell := "td"
		if header {
			cell = "th"
		}
		w.sb.WriteString("<tr>")
		for _, c := range row {
			fmt.Fprintf(&w.sb, "<%s>%s</%s>", cell, Spans(flow.ParseInline(c)), cell)
		}
		w.sb.WriteString("</tr>")

		if header {
			w.sb.WriteString("</thead>")
		}
	}
	if len(t.Rows) > 1 || !t.HasSeparator {
		w.sb.WriteString("</tbody>")
	}
	w.sb.WriteString("</table>")
}

// Spans renders styled spans as escaped inline HTML.
func Spans(spans []flow.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		text := html.EscapeString(s.Text)
		if s.Style.Has(flow.StyleCode) {
			text = "<code>" + text + "</code>"
		}
		if s.Style.Has(flow.StyleItalic) {
			text = "<i>" + text + "</i>"
		}
		if s.Style.Has(flow.StyleBold) {
			text = "<b>" + text + "</b>"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
