package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const DefaultDPI = 96

type faceKey struct {
	font render.Font
	size float64
}

// Emitter renders every page to its own PNG file. It is used for quick
// previews; the PDF emitter remains the print output.
type Emitter struct {
	dir    string
	prefix string
	scale  float64
	logger *logger.Logger

	fonts map[render.Font]*truetype.Font
	faces map[faceKey]font.Face

	dc     *gg.Context
	height float64
	page   int
	files  []string
}

func NewEmitter(dir, prefix string, dpi float64, logger *logger.Logger) (*Emitter, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}

	e := &Emitter{
		dir:    dir,
		prefix: prefix,
		scale:  dpi / 72,
		logger: logger,
		fonts:  make(map[render.Font]*truetype.Font),
		faces:  make(map[faceKey]font.Face),
	}
	for f, data := range map[render.Font][]byte{
		render.FontRegular:    goregular.TTF,
		render.FontBold:       gobold.TTF,
		render.FontItalic:     goitalic.TTF,
		render.FontBoldItalic: gobolditalic.TTF,
		render.FontMono:       gomono.TTF,
		render.FontMonoBold:   gomonobold.TTF,
	} {
		parsed, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s font: %w", f, err)
		}
		e.fonts[f] = parsed
	}
	return e, nil
}

// Files lists the PNG files written so far.
func (e *Emitter) Files() []string { return e.files }

func (e *Emitter) px(pt float64) float64 { return pt * e.scale }

// y converts a bottom-up page coordinate to a top-down pixel row.
func (e *Emitter) y(pt float64) float64 { return e.px(e.height - pt) }

func (e *Emitter) BeginPage(size models.PageDimensions) error {
	if e.dc != nil {
		return errors.New("previous page was not ended")
	}
	e.height = size.Height
	e.dc = gg.NewContext(int(math.Ceil(e.px(size.Width))), int(math.Ceil(e.px(size.Height))))
	e.dc.SetColor(color.White)
	e.dc.Clear()
	return nil
}

func (e *Emitter) DrawRect(r render.Rect) error {
	if e.dc == nil {
		return errors.New("draw outside of a page")
	}
	x, y := e.px(r.Box.X), e.y(r.Box.Top())
	w, h := e.px(r.Box.Width), e.px(r.Box.Height)
	if r.Fill {
		e.dc.DrawRectangle(x, y, w, h)
		e.dc.SetColor(gray(r.FillGray))
		e.dc.Fill()
	}
	if r.Stroke {
		e.dc.DrawRectangle(x, y, w, h)
		e.dc.SetColor(gray(r.StrokeGray))
		e.dc.SetLineWidth(math.Max(e.px(r.LineWidth), 1))
		e.dc.Stroke()
	}
	return nil
}

func (e *Emitter) DrawLine(l render.Line) error {
	if e.dc == nil {
		return errors.New("draw outside of a page")
	}
	e.dc.SetColor(gray(l.Gray))
	e.dc.SetLineWidth(math.Max(e.px(l.LineWidth), 1))
	e.dc.DrawLine(e.px(l.X1), e.y(l.Y1), e.px(l.X2), e.y(l.Y2))
	e.dc.Stroke()
	return nil
}

func (e *Emitter) DrawText(t render.TextRun) error {
	if e.dc == nil {
		return errors.New("draw outside of a page")
	}
	if t.Text == "" {
		return nil
	}
	e.dc.SetFontFace(e.face(t.Font, t.Size))
	e.dc.SetColor(gray(t.Gray))
	e.dc.DrawString(t.Text, e.px(t.X), e.y(t.Y))
	return nil
}

func (e *Emitter) DrawImage(img render.Image) error {
	if e.dc == nil {
		return errors.New("draw outside of a page")
	}
	w, h := int(math.Round(e.px(img.Box.Width))), int(math.Round(e.px(img.Box.Height)))
	src, err := decode(img.Path)
	if err != nil || w <= 0 || h <= 0 {
		e.logger.Debug("Preview placeholder for %s: %v", img.Path, err)
		return e.placeholder(img)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	e.dc.DrawImage(dst, int(math.Round(e.px(img.Box.X))), int(math.Round(e.y(img.Box.Top()))))
	return nil
}

func (e *Emitter) placeholder(img render.Image) error {
	if err := e.DrawRect(render.Rect{Box: img.Box, Stroke: true, StrokeGray: render.Grey, LineWidth: 0.5}); err != nil {
		return err
	}
	if img.Alt == "" {
		return nil
	}
	e.dc.SetFontFace(e.face(render.FontItalic, 9))
	e.dc.SetColor(gray(render.Grey))
	e.dc.DrawStringAnchored(img.Alt, e.px(img.Box.CenterX()), e.y(img.Box.CenterY()), 0.5, 0)
	return nil
}

func (e *Emitter) EndPage() error {
	if e.dc == nil {
		return errors.New("no page to end")
	}
	e.page++
	path := filepath.Join(e.dir, fmt.Sprintf("%s_page%d.png", e.prefix, e.page))
	if err := e.dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	e.logger.Trace("Wrote preview %s", path)
	e.files = append(e.files, path)
	e.dc = nil
	return nil
}

func (e *Emitter) face(f render.Font, size float64) font.Face {
	key := faceKey{font: f, size: size}
	if face, ok := e.faces[key]; ok {
		return face
	}
	face := truetype.NewFace(e.fonts[f], &truetype.Options{
		Size:    size,
		DPI:     72 * e.scale,
		Hinting: font.HintingNone,
	})
	e.faces[key] = face
	return face
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func gray(g float64) color.Color {
	return color.Gray{Y: uint8(math.Max(0, math.Min(1, g))*255 + 0.5)}
}
