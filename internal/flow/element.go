package flow

// Element is one block of a card face. The set of implementations is closed:
// *Paragraph, *CodeBlock, *Table, *Image and *ListItem.
type Element interface {
	element()
}

type SpanStyle uint8

const (
	StyleBold SpanStyle = 1 << iota
	StyleItalic
	StyleCode
)

const StylePlain SpanStyle = 0

func (s SpanStyle) Has(flag SpanStyle) bool { return s&flag != 0 }

// Span is a run of text sharing one inline style.
type Span struct {
	Text  string
	Style SpanStyle
}

type Paragraph struct {
	Raw   string
	Spans []Span
}

type CodeBlock struct {
	Lang  string
	Lines []string
}

// Table rows hold raw cell text. Rows[0] is the header row. Rows are kept
// as written, so ragged tables keep their ragged cell counts.
type Table struct {
	Rows         [][]string
	HasSeparator bool
}

// Image holds an unresolved reference. Target is the path or name inside
// the reference, Alt the alias or alt text if one was given.
type Image struct {
	Ref    string
	Target string
	Alt    string
}

type ListItem struct {
	RawIndent int
	Depth     int
	Glyph     string
	Ordered   bool
	Ordinal   string
	Raw       string
	Spans     []Span
}

func (*Paragraph) element() {}
func (*CodeBlock) element() {}
func (*Table) element()     {}
func (*Image) element()     {}
func (*ListItem) element()  {}

// Face is a tokenized card face. Caption is the stripped trailing line of a
// question face and empty for answers.
type Face struct {
	Elements []Element
	Caption  string
}

// Columns returns the widest row's cell count.
func (t *Table) Columns() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Ragged reports whether rows disagree on their cell count.
func (t *Table) Ragged() bool {
	for _, row := range t.Rows {
		if len(row) != len(t.Rows[0]) {
			return true
		}
	}
	return false
}

// SingleImage returns the image of a face that consists of one image and
// nothing else.
func (f Face) SingleImage() (*Image, bool) {
	if len(f.Elements) != 1 {
		return nil, false
	}
	img, ok := f.Elements[0].(*Image)
	return img, ok
}

// Text concatenates span text without styling.
func Text(spans []Span) string {
	n := 0
	for _, s := range spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}
