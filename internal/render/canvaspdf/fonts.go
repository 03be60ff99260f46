package canvaspdf

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/kpauljoseph/flashsheet/internal/render"
)

const (
	mmPerPt = 25.4 / 72
	ptPerMm = 72 / 25.4
)

func toMm(pt float64) float64 { return pt * mmPerPt }
func toPt(mm float64) float64 { return mm * ptPerMm }

type faceKey struct {
	font render.Font
	size float64
	gray float64
}

// Fonts holds the Go font families used for both measuring and drawing, so
// widths computed during layout match the PDF exactly.
type Fonts struct {
	sans *canvas.FontFamily
	mono *canvas.FontFamily

	mu    sync.Mutex
	faces map[faceKey]*canvas.FontFace
}

func LoadFonts() (*Fonts, error) {
	sans := canvas.NewFontFamily("flashsheet-sans")
	for _, f := range []struct {
		data  []byte
		style canvas.FontStyle
	}{
		{goregular.TTF, canvas.FontRegular},
		{gobold.TTF, canvas.FontBold},
		{goitalic.TTF, canvas.FontItalic},
		{gobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
	} {
		if err := sans.LoadFont(f.data, 0, f.style); err != nil {
			return nil, fmt.Errorf("failed to load sans font: %w", err)
		}
	}

	mono := canvas.NewFontFamily("flashsheet-mono")
	if err := mono.LoadFont(gomono.TTF, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("failed to load mono font: %w", err)
	}
	if err := mono.LoadFont(gomonobold.TTF, 0, canvas.FontBold); err != nil {
		return nil, fmt.Errorf("failed to load mono bold font: %w", err)
	}

	return &Fonts{sans: sans, mono: mono, faces: make(map[faceKey]*canvas.FontFace)}, nil
}

// Face returns a face for a size in points and a grey level.
func (f *Fonts) Face(font render.Font, size, gray float64) *canvas.FontFace {
	key := faceKey{font: font, size: size, gray: gray}

	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[key]; ok {
		return face
	}

	family, style := f.sans, canvas.FontRegular
	switch font {
	case render.FontBold:
		style = canvas.FontBold
	case render.FontItalic:
		style = canvas.FontItalic
	case render.FontBoldItalic:
		style = canvas.FontBold | canvas.FontItalic
	case render.FontMono:
		family = f.mono
	case render.FontMonoBold:
		family, style = f.mono, canvas.FontBold
	}

	face := family.Face(size, grayColor(gray), style, canvas.FontNormal)
	f.faces[key] = face
	return face
}

// Width implements layout.Measurer. The result is in points.
func (f *Fonts) Width(text string, font render.Font, size float64) float64 {
	if text == "" {
		return 0
	}
	return toPt(f.Face(font, size, render.Black).TextWidth(text))
}

func grayColor(g float64) color.Color {
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	return color.Gray{Y: uint8(g*255 + 0.5)}
}
