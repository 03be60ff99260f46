package layout

import (
	"unicode/utf8"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/internal/render"
)

// Measurer returns the rendered width of text in points.
type Measurer interface {
	Width(text string, font render.Font, size float64) float64
}

// FixedMeasurer gives every rune the same advance, a fraction of the font
// size. Layout results are reproducible with it regardless of installed fonts.
type FixedMeasurer struct {
	Advance float64
}

func (f FixedMeasurer) Width(text string, _ render.Font, size float64) float64 {
	advance := f.Advance
	if advance == 0 {
		advance = 0.5
	}
	return float64(utf8.RuneCountInString(text)) * size * advance
}

// FontFor maps an inline style onto a face.
func FontFor(style flow.SpanStyle) render.Font {
	switch {
	case style.Has(flow.StyleCode) && style.Has(flow.StyleBold):
		return render.FontMonoBold
	case style.Has(flow.StyleCode):
		return render.FontMono
	case style.Has(flow.StyleBold) && style.Has(flow.StyleItalic):
		return render.FontBoldItalic
	case style.Has(flow.StyleBold):
		return render.FontBold
	case style.Has(flow.StyleItalic):
		return render.FontItalic
	}
	return render.FontRegular
}

// SpansWidth measures styled text run by run.
func SpansWidth(m Measurer, spans []flow.Span, size float64) float64 {
	w := 0.0
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		w += m.Width(s.Text, FontFor(s.Style), size)
	}
	return w
}
