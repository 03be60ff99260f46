package layout

import (
	"math"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const (
	shrinkStep     = 0.98
	maxShrinkSteps = 64
	descentRatio   = 0.2
)

// Style holds the typographic settings of the composer. Sizes are points at
// scale 1.
type Style struct {
	QuestionSize   float64
	AnswerSize     float64
	CodeSize       float64
	LineSpacing    float64
	MinScale       float64
	ImageMaxWidth  float64
	ImageMaxHeight float64
	ListIndent     float64 // per depth, in ems of the body size
	BlockGap       float64 // fraction of a body line
}

func DefaultStyle() Style {
	return Style{
		QuestionSize:   14,
		AnswerSize:     10,
		CodeSize:       9,
		LineSpacing:    1.2,
		MinScale:       0.35,
		ImageMaxWidth:  0.85,
		ImageMaxHeight: 0.85,
		ListIndent:     1.2,
		BlockGap:       0.3,
	}
}

// ImageSource resolves an image reference to a file and its pixel size.
type ImageSource interface {
	Lookup(ref string) (path string, width, height int, err error)
}

// Composition is a face laid out inside its frame.
type Composition struct {
	Commands    []render.Command
	Scale       float64
	Overflow    bool
	Width       float64
	Height      float64
	ImageErrors []error
}

type Composer struct {
	m      Measurer
	style  Style
	images ImageSource
}

// NewComposer returns a composer. images may be nil, in which case every
// image reference is drawn as its literal text.
func NewComposer(m Measurer, style Style, images ImageSource) *Composer {
	return &Composer{m: m, style: style, images: images}
}

func (c *Composer) Measurer() Measurer { return c.m }
func (c *Composer) Style() Style       { return c.style }

// Compose stacks the face's elements top to bottom and centres the stack in
// frame. A stack taller than the frame is shrunk as a whole, down to
// Style.MinScale; past that floor it is drawn crowded and Overflow is set.
// An element too wide for the frame shrinks alone under the same floor, and
// one held at the floor also sets Overflow.
func (c *Composer) Compose(face flow.Face, frame models.Box, kind models.FaceKind) Composition {
	comp := Composition{Scale: 1}
	if len(face.Elements) == 0 {
		return comp
	}

	var (
		blocks  []block
		height  float64
		crowded bool
	)
	scale := 1.0
	for step := 0; ; step++ {
		blocks, comp.ImageErrors, crowded = c.build(face, frame, scale, kind)
		height = c.stackHeight(blocks, scale, kind)
		if height <= frame.Height {
			break
		}
		if scale <= c.style.MinScale || step >= maxShrinkSteps {
			comp.Overflow = true
			break
		}
		next := math.Min(scale*math.Sqrt(frame.Height/height), scale*shrinkStep)
		scale = math.Max(next, c.style.MinScale)
	}

	width := 0.0
	for _, b := range blocks {
		width = math.Max(width, b.width())
	}

	comp.Overflow = comp.Overflow || crowded
	comp.Scale = scale
	comp.Width = width
	comp.Height = height

	x := frame.CenterX() - width/2
	top := frame.CenterY() + height/2
	gap := c.gap(scale, kind)
	for i, b := range blocks {
		if i > 0 {
			top -= gap
		}
		comp.Commands = append(comp.Commands, b.draw(x, top, width)...)
		top -= b.height()
	}
	return comp
}

func (c *Composer) bodySize(kind models.FaceKind) float64 {
	if kind == models.FaceQuestion {
		return c.style.QuestionSize
	}
	return c.style.AnswerSize
}

func (c *Composer) gap(scale float64, kind models.FaceKind) float64 {
	return c.bodySize(kind) * scale * c.style.LineSpacing * c.style.BlockGap
}

func (c *Composer) stackHeight(blocks []block, scale float64, kind models.FaceKind) float64 {
	h := 0.0
	for i, b := range blocks {
		if i > 0 {
			h += c.gap(scale, kind)
		}
		h += b.height()
	}
	return h
}

// build lays out every element at scale. crowded reports an element held at
// the shrink floor.
func (c *Composer) build(face flow.Face, frame models.Box, scale float64, kind models.FaceKind) (blocks []block, errs []error, crowded bool) {
	size := c.bodySize(kind) * scale
	question := kind == models.FaceQuestion

	for _, e := range face.Elements {
		switch el := e.(type) {
		case *flow.Paragraph:
			spans := el.Spans
			if question {
				spans = withStyle(spans, flow.StyleBold)
			}
			tb := c.text(spans, size, frame.Width, 0, "", question)
			crowded = crowded || tb.crowded
			blocks = append(blocks, tb)

		case *flow.ListItem:
			spans := el.Spans
			if question {
				spans = withStyle(spans, flow.StyleBold)
			}
			indent := float64(el.Depth) * c.style.ListIndent * size
			tb := c.text(spans, size, frame.Width-indent, indent, el.Glyph, question)
			crowded = crowded || tb.crowded
			blocks = append(blocks, tb)

		case *flow.CodeBlock:
			codeSize := c.style.CodeSize * scale
			pad := codeSize * 0.3
			fit := FitCode(c.m, el, codeSize, c.style.LineSpacing, frame.Width-2*pad, c.style.MinScale)
			crowded = crowded || fit.Crowded
			blocks = append(blocks, &codeBlock{fit: fit, pad: fit.Scale * pad, centre: question})

		case *flow.Table:
			tl := LayoutTable(c.m, el, c.style.AnswerSize*scale, c.style.LineSpacing, frame.Width, c.style.MinScale)
			crowded = crowded || tl.Crowded
			blocks = append(blocks, &tableBlock{m: c.m, layout: tl})

		case *flow.Image:
			img, err := c.image(el, frame, scale)
			if err == nil {
				blocks = append(blocks, img)
				continue
			}
			errs = append(errs, err)
			spans := []flow.Span{{Text: el.Ref}}
			if question {
				spans = withStyle(spans, flow.StyleBold)
			}
			tb := c.text(spans, size, frame.Width, 0, "", question)
			crowded = crowded || tb.crowded
			blocks = append(blocks, tb)
		}
	}
	return blocks, errs, crowded
}

func (c *Composer) image(el *flow.Image, frame models.Box, scale float64) (*imageBlock, error) {
	if c.images == nil {
		return nil, &models.AssetError{Reference: el.Target, Err: models.ErrAssetNotFound}
	}
	path, pw, ph, err := c.images.Lookup(el.Target)
	if err != nil {
		return nil, err
	}
	w, h := FitImage(float64(pw), float64(ph),
		frame.Width*c.style.ImageMaxWidth*scale, frame.Height*c.style.ImageMaxHeight*scale)
	if w == 0 || h == 0 {
		return nil, &models.AssetError{Reference: el.Target, Err: models.ErrAssetUnreadable}
	}
	return &imageBlock{path: path, alt: el.Ref, w: w, h: h}, nil
}

// text wraps one paragraph or list item. A glyph is wrapped as the leading
// word, continuation lines hang under the text after it. A word wider than
// the available width shrinks this element alone, down to Style.MinScale.
func (c *Composer) text(spans []flow.Span, size, available, indent float64, glyph string, centre bool) *textBlock {
	wrap := func(size float64) []WrappedLine {
		if glyph == "" {
			return WrapSpans(c.m, spans, size, available, 0)
		}
		lead := glyph + " "
		hang := c.m.Width(lead, render.FontRegular, size)
		withGlyph := append([]flow.Span{{Text: lead}}, spans...)
		return WrapSpans(c.m, withGlyph, size, available, hang)
	}

	lines := wrap(size)
	crowded := false
	if widest := WidestLine(lines); widest > available && widest > 0 {
		var scale float64
		scale, crowded = clampScale(available*fitReserve/widest, c.style.MinScale)
		size *= scale
		lines = wrap(size)
	}
	return &textBlock{
		m:          c.m,
		lines:      lines,
		size:       size,
		lineHeight: size * c.style.LineSpacing,
		indent:     indent,
		centre:     centre,
		crowded:    crowded,
	}
}

type block interface {
	width() float64
	height() float64
	draw(x, top, blockWidth float64) []render.Command
}

type textBlock struct {
	m          Measurer
	lines      []WrappedLine
	size       float64
	lineHeight float64
	indent     float64
	centre     bool
	crowded    bool
}

func (b *textBlock) width() float64  { return b.indent + WidestLine(b.lines) }
func (b *textBlock) height() float64 { return float64(len(b.lines)) * b.lineHeight }

func (b *textBlock) draw(x, top, blockWidth float64) []render.Command {
	var cmds []render.Command
	baseline := top - b.lineHeight
	for _, line := range b.lines {
		lx := x + b.indent + line.Indent
		if b.centre {
			lx = x + (blockWidth-line.Width)/2
		}
		cmds = append(cmds, spanRuns(b.m, line.Spans, lx, baseline, b.size)...)
		baseline -= b.lineHeight
	}
	return cmds
}

// spanRuns emits one text run per styled span, advancing x by each run's width.
func spanRuns(m Measurer, spans []flow.Span, x, baseline, size float64) []render.Command {
	var cmds []render.Command
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		font := FontFor(s.Style)
		cmds = append(cmds, render.TextRun{X: x, Y: baseline, Text: s.Text, Font: font, Size: size, Gray: render.Black})
		x += m.Width(s.Text, font, size)
	}
	return cmds
}

type codeBlock struct {
	fit    CodeFit
	pad    float64
	centre bool
}

func (b *codeBlock) width() float64  { return b.fit.Width + 2*b.pad }
func (b *codeBlock) height() float64 { return b.fit.Height() + 2*b.pad }

func (b *codeBlock) draw(x, top, blockWidth float64) []render.Command {
	if b.centre {
		x += (blockWidth - b.width()) / 2
	}
	cmds := []render.Command{render.Rect{
		Box:      models.Box{X: x, Y: top - b.height(), Width: b.width(), Height: b.height()},
		Fill:     true,
		FillGray: render.Panel,
	}}
	baseline := top - b.pad - b.fit.LineHeight + descentRatio*b.fit.Size
	for _, line := range b.fit.Lines {
		if line != "" {
			cmds = append(cmds, render.TextRun{
				X: x + b.pad, Y: baseline, Text: line,
				Font: render.FontMono, Size: b.fit.Size, Gray: render.Black,
			})
		}
		baseline -= b.fit.LineHeight
	}
	return cmds
}

type tableBlock struct {
	m      Measurer
	layout TableLayout
}

func (b *tableBlock) width() float64  { return b.layout.Width }
func (b *tableBlock) height() float64 { return b.layout.Height }

func (b *tableBlock) draw(x, top, blockWidth float64) []render.Command {
	tl := b.layout
	x += (blockWidth - tl.Width) / 2

	var cmds []render.Command
	rowTop := top
	for _, row := range tl.Rows {
		for c, cell := range row.Cells {
			cellBox := models.Box{X: x + float64(c)*tl.ColWidth, Y: rowTop - row.Height, Width: tl.ColWidth, Height: row.Height}
			cmds = append(cmds, render.Rect{
				Box: cellBox, Stroke: true, StrokeGray: render.LightGrey, LineWidth: 0.5,
				Fill: cell.Header, FillGray: render.Shade,
			})
			baseline := rowTop - tl.Padding - tl.LineHeight + descentRatio*tl.Size
			for _, line := range cell.Lines {
				lx := cellBox.X + tl.Padding
				if cell.Header {
					lx = cellBox.X + (tl.ColWidth-line.Width)/2
				}
				cmds = append(cmds, spanRuns(b.m, line.Spans, lx, baseline, tl.Size)...)
				baseline -= tl.LineHeight
			}
		}
		rowTop -= row.Height
	}
	return cmds
}

type imageBlock struct {
	path string
	alt  string
	w, h float64
}

func (b *imageBlock) width() float64  { return b.w }
func (b *imageBlock) height() float64 { return b.h }

func (b *imageBlock) draw(x, top, blockWidth float64) []render.Command {
	x += (blockWidth - b.w) / 2
	return []render.Command{render.Image{
		Path: b.path,
		Alt:  b.alt,
		Box:  models.Box{X: x, Y: top - b.h, Width: b.w, Height: b.h},
	}}
}
