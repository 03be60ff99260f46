package canvaspdf

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

var ErrNoPages = errors.New("no pages were emitted")

// Info is written into the PDF document information dictionary.
type Info struct {
	Title    string
	Subject  string
	Keywords string
	Author   string
	Creator  string
}

// Emitter draws pages into a PDF through tdewolff/canvas. Page commands are
// in points with the origin at the bottom left; canvas works in millimetres
// with the same orientation.
type Emitter struct {
	out    io.Writer
	fonts  *Fonts
	info   Info
	logger *logger.Logger

	writer *pdf.PDF
	canvas *canvas.Canvas
	ctx    *canvas.Context
	images map[string]image.Image
}

func NewEmitter(out io.Writer, fonts *Fonts, info Info, logger *logger.Logger) *Emitter {
	return &Emitter{
		out:    out,
		fonts:  fonts,
		info:   info,
		logger: logger,
		images: make(map[string]image.Image),
	}
}

func (e *Emitter) BeginPage(size models.PageDimensions) error {
	if e.ctx != nil {
		return errors.New("previous page was not ended")
	}
	w, h := toMm(size.Width), toMm(size.Height)
	if e.writer == nil {
		e.writer = pdf.New(e.out, w, h, nil)
		e.writer.SetInfo(e.info.Title, e.info.Subject, e.info.Keywords, e.info.Author, e.info.Creator)
	} else {
		e.writer.NewPage(w, h)
	}
	e.canvas = canvas.New(w, h)
	e.ctx = canvas.NewContext(e.canvas)
	return nil
}

func (e *Emitter) DrawRect(r render.Rect) error {
	if e.ctx == nil {
		return errors.New("draw outside of a page")
	}
	if r.Fill {
		e.ctx.SetFillColor(grayColor(r.FillGray))
	} else {
		e.ctx.SetFillColor(canvas.Transparent)
	}
	if r.Stroke {
		e.ctx.SetStrokeColor(grayColor(r.StrokeGray))
		e.ctx.SetStrokeWidth(toMm(lineWidth(r.LineWidth)))
	} else {
		e.ctx.SetStrokeColor(canvas.Transparent)
	}
	e.ctx.DrawPath(toMm(r.Box.X), toMm(r.Box.Y), canvas.Rectangle(toMm(r.Box.Width), toMm(r.Box.Height)))
	return nil
}

func (e *Emitter) DrawLine(l render.Line) error {
	if e.ctx == nil {
		return errors.New("draw outside of a page")
	}
	e.ctx.SetFillColor(canvas.Transparent)
	e.ctx.SetStrokeColor(grayColor(l.Gray))
	e.ctx.SetStrokeWidth(toMm(lineWidth(l.LineWidth)))
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(toMm(l.X2-l.X1), toMm(l.Y2-l.Y1))
	e.ctx.DrawPath(toMm(l.X1), toMm(l.Y1), p)
	return nil
}

func (e *Emitter) DrawText(t render.TextRun) error {
	if e.ctx == nil {
		return errors.New("draw outside of a page")
	}
	if t.Text == "" {
		return nil
	}
	face := e.fonts.Face(t.Font, t.Size, t.Gray)
	e.ctx.DrawText(toMm(t.X), toMm(t.Y), canvas.NewTextLine(face, t.Text, canvas.Left))
	return nil
}

// DrawImage draws the image into its box. An image that cannot be decoded is
// replaced by a framed placeholder carrying its alt text.
func (e *Emitter) DrawImage(img render.Image) error {
	if e.ctx == nil {
		return errors.New("draw outside of a page")
	}
	data, err := e.load(img.Path)
	if err != nil {
		e.logger.Warn("Could not draw image %s: %v", img.Path, err)
		return e.placeholder(img)
	}
	bounds := data.Bounds()
	if bounds.Dx() == 0 || img.Box.Width <= 0 {
		return e.placeholder(img)
	}
	dpmm := float64(bounds.Dx()) / toMm(img.Box.Width)
	e.ctx.DrawImage(toMm(img.Box.X), toMm(img.Box.Y), data, canvas.DPMM(dpmm))
	return nil
}

func (e *Emitter) EndPage() error {
	if e.ctx == nil {
		return errors.New("no page to end")
	}
	e.canvas.RenderTo(e.writer)
	e.canvas, e.ctx = nil, nil
	return nil
}

// Close finishes the document. It fails if no page was ever begun.
func (e *Emitter) Close() error {
	if e.writer == nil {
		return ErrNoPages
	}
	if err := e.writer.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func (e *Emitter) load(path string) (image.Image, error) {
	if img, ok := e.images[path]; ok {
		return img, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	e.images[path] = img
	return img, nil
}

func (e *Emitter) placeholder(img render.Image) error {
	if err := e.DrawRect(render.Rect{Box: img.Box, Stroke: true, StrokeGray: render.Grey, LineWidth: 0.5}); err != nil {
		return err
	}
	if img.Alt == "" {
		return nil
	}
	size := 9.0
	width := e.fonts.Width(img.Alt, render.FontItalic, size)
	return e.DrawText(render.TextRun{
		X:    img.Box.CenterX() - width/2,
		Y:    img.Box.CenterY(),
		Text: img.Alt,
		Font: render.FontItalic,
		Size: size,
		Gray: render.Grey,
	})
}

func lineWidth(w float64) float64 {
	if w <= 0 {
		return 0.5
	}
	return w
}
