package flow

import (
	"regexp"
	"strings"
)

type Options struct {
	// Question strips the trailing caption line before tokenizing.
	Question bool
	// PlainText disables fence, table and list detection.
	PlainText bool
}

type state int

const (
	stateNormal state = iota
	stateCode
	stateTable
)

const fenceMarker = "```"

var (
	listPattern      = regexp.MustCompile(`^([ \t]*)([-*]|\d+\.)(?:[ \t]+(.*))?$`)
	separatorPattern = regexp.MustCompile(`^:?-+:?$`)
)

type tokenizer struct {
	opts  Options
	state state
	elems []Element
	code  *CodeBlock
	table *Table
}

// Tokenize splits one card face into flow elements.
func Tokenize(text string, opts Options) Face {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	var face Face
	if opts.Question {
		face.Caption = strings.TrimSpace(lines[len(lines)-1])
		lines = lines[:len(lines)-1]
	}

	t := &tokenizer{opts: opts}
	for _, line := range lines {
		t.feed(line)
	}
	t.finish()

	face.Elements = ResolveDepths(t.elems)
	return face
}

func (t *tokenizer) feed(line string) {
	switch t.state {
	case stateCode:
		if isFence(line) && strings.TrimSpace(strings.TrimSpace(line)[len(fenceMarker):]) == "" {
			t.closeCode()
			return
		}
		t.code.Lines = append(t.code.Lines, line)
		return

	case stateTable:
		if row, ok := t.tableRow(line); ok {
			t.appendRow(row)
			return
		}
		t.closeTable()
	}

	t.feedNormal(line)
}

func (t *tokenizer) feedNormal(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	if !t.opts.PlainText {
		if isFence(line) {
			lang := strings.TrimSpace(strings.TrimSpace(line)[len(fenceMarker):])
			t.code = &CodeBlock{Lang: lang}
			t.state = stateCode
			return
		}
		if row, ok := t.tableRow(line); ok {
			t.table = &Table{}
			t.state = stateTable
			t.appendRow(row)
			return
		}
	}

	if refs := findImageRefs(line); len(refs) > 0 {
		t.imageLine(line, refs)
		return
	}

	t.textLine(line)
}

// imageLine handles a line holding at least one image reference. Images are
// block-level: a question keeps only the first image, an answer keeps the
// surrounding text as its own element ahead of the images.
func (t *tokenizer) imageLine(line string, refs []imageRef) {
	if t.opts.Question {
		t.elems = append(t.elems, refs[0].image())
		return
	}

	rest := line
	for i := len(refs) - 1; i >= 0; i-- {
		rest = rest[:refs[i].start] + rest[refs[i].end:]
	}
	rest = strings.TrimRight(rest, " \t")
	if strings.TrimSpace(rest) != "" && !isBareMarker(rest) {
		t.textLine(rest)
	}
	for _, ref := range refs {
		t.elems = append(t.elems, ref.image())
	}
}

func (t *tokenizer) textLine(line string) {
	if !t.opts.PlainText {
		if m := listPattern.FindStringSubmatch(line); m != nil {
			item := &ListItem{
				RawIndent: len(m[1]),
				Raw:       m[3],
				Spans:     ParseInline(m[3]),
			}
			if m[2] != "-" && m[2] != "*" {
				item.Ordered = true
				item.Ordinal = m[2]
			}
			t.elems = append(t.elems, item)
			return
		}
	}

	// Raw keeps leading whitespace; plain text output preserves indentation.
	p := &Paragraph{Raw: strings.TrimRight(line, " \t")}
	if t.opts.PlainText {
		p.Spans = []Span{{Text: strings.TrimSpace(line)}}
	} else {
		p.Spans = ParseInline(line)
	}
	t.elems = append(t.elems, p)
}

func (t *tokenizer) tableRow(line string) ([]string, bool) {
	if t.opts.PlainText {
		return nil, false
	}
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
		return nil, false
	}
	cells := strings.Split(trimmed[1:len(trimmed)-1], "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells, true
}

func (t *tokenizer) appendRow(cells []string) {
	if isSeparatorRow(cells) {
		// Only marks the header boundary; repeats are dropped too.
		t.table.HasSeparator = true
		return
	}
	t.table.Rows = append(t.table.Rows, cells)
}

func (t *tokenizer) closeTable() {
	if t.table != nil && len(t.table.Rows) > 0 {
		t.elems = append(t.elems, t.table)
	}
	t.table = nil
	t.state = stateNormal
}

func (t *tokenizer) closeCode() {
	t.elems = append(t.elems, t.code)
	t.code = nil
	t.state = stateNormal
}

// finish closes whatever block is still open at the end of the face.
func (t *tokenizer) finish() {
	switch t.state {
	case stateCode:
		t.closeCode()
	case stateTable:
		t.closeTable()
	}
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fenceMarker)
}

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorPattern.MatchString(c) {
			return false
		}
	}
	return true
}

func isBareMarker(s string) bool {
	m := listPattern.FindStringSubmatch(s)
	return m != nil && strings.TrimSpace(m[3]) == ""
}
