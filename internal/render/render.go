package render

import (
	"fmt"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

type Font int

const (
	FontRegular Font = iota
	FontBold
	FontItalic
	FontBoldItalic
	FontMono
	FontMonoBold
)

func (f Font) String() string {
	switch f {
	case FontBold:
		return "bold"
	case FontItalic:
		return "italic"
	case FontBoldItalic:
		return "bold-italic"
	case FontMono:
		return "mono"
	case FontMonoBold:
		return "mono-bold"
	}
	return "regular"
}

func (f Font) Mono() bool { return f == FontMono || f == FontMonoBold }

// Greyscale levels, 0 is black and 1 is white.
const (
	Black     = 0.0
	Grey      = 0.5
	LightGrey = 0.83
	Shade     = 0.92
	Panel     = 0.95
)

// Command is one drawing primitive. Implementations: Rect, Line, TextRun, Image.
type Command interface {
	command()
}

type Rect struct {
	Box        models.Box
	Stroke     bool
	StrokeGray float64
	LineWidth  float64
	Fill       bool
	FillGray   float64
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Gray           float64
	LineWidth      float64
}

// TextRun is a single line of text in one font. X and Y locate the left end
// of the baseline.
type TextRun struct {
	X, Y float64
	Text string
	Font Font
	Size float64
	Gray float64
}

// Image draws the file at Path scaled into Box. Alt is drawn instead when the
// file cannot be decoded at emit time.
type Image struct {
	Path string
	Alt  string
	Box  models.Box
}

func (Rect) command()    {}
func (Line) command()    {}
func (TextRun) command() {}
func (Image) command()   {}

// Page is the command list of one physical page.
type Page struct {
	Kind     models.FaceKind
	Batch    int
	Commands []Command
}

func (p *Page) Add(cmds ...Command) {
	p.Commands = append(p.Commands, cmds...)
}

// Emitter is a drawing surface. Every page is bracketed by BeginPage and
// EndPage.
type Emitter interface {
	BeginPage(size models.PageDimensions) error
	DrawRect(r Rect) error
	DrawLine(l Line) error
	DrawText(t TextRun) error
	DrawImage(img Image) error
	EndPage() error
}

// Emit replays pages onto an emitter in order.
func Emit(e Emitter, size models.PageDimensions, pages []Page) error {
	for i, page := range pages {
		if err := e.BeginPage(size); err != nil {
			return fmt.Errorf("failed to begin page %d: %w", i+1, err)
		}
		for _, cmd := range page.Commands {
			var err error
			switch c := cmd.(type) {
			case Rect:
				err = e.DrawRect(c)
			case Line:
				err = e.DrawLine(c)
			case TextRun:
				err = e.DrawText(c)
			case Image:
				err = e.DrawImage(c)
			default:
				err = fmt.Errorf("unknown command %T", cmd)
			}
			if err != nil {
				return fmt.Errorf("failed to draw on page %d: %w", i+1, err)
			}
		}
		if err := e.EndPage(); err != nil {
			return fmt.Errorf("failed to end page %d: %w", i+1, err)
		}
	}
	return nil
}
