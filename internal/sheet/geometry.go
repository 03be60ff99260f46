package sheet

import (
	"fmt"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

// Geometry describes the card grid of one page. All lengths are points.
type Geometry struct {
	Page         models.PageDimensions
	Rows         int
	Cols         int
	Margin       float64
	PaddingX     float64
	PaddingY     float64
	CaptionStrip float64
}

func DefaultGeometry() Geometry {
	return Geometry{
		Page:         models.PageDimensions{Width: 595.28, Height: 841.89}.Landscape(),
		Rows:         2,
		Cols:         2,
		Margin:       9,
		PaddingX:     22.5,
		PaddingY:     14,
		CaptionStrip: 20,
	}
}

// Slots is the number of cards per page.
func (g Geometry) Slots() int { return g.Rows * g.Cols }

func (g Geometry) CardSize() (float64, float64) {
	return (g.Page.Width - 2*g.Margin) / float64(g.Cols),
		(g.Page.Height - 2*g.Margin) / float64(g.Rows)
}

// CellBox returns the card box of slot i. Slots run row by row from the top
// left corner of the page.
func (g Geometry) CellBox(i int) models.Box {
	w, h := g.CardSize()
	row, col := i/g.Cols, i%g.Cols
	return models.Box{
		X:      g.Margin + float64(col)*w,
		Y:      g.Page.Height - g.Margin - float64(row+1)*h,
		Width:  w,
		Height: h,
	}
}

// ContentFrame is the padded area of a card that body content may use.
// Question cards also give up the caption strip at the bottom.
func (g Geometry) ContentFrame(card models.Box, kind models.FaceKind) models.Box {
	frame := card.Inset(g.PaddingX, g.PaddingY)
	if kind == models.FaceQuestion {
		frame.Y += g.CaptionStrip
		frame.Height -= g.CaptionStrip
	}
	return frame
}

// CaptionBaseline is where the "ID: n" line of a question card sits.
func (g Geometry) CaptionBaseline(card models.Box) float64 {
	return card.Y + g.CaptionStrip/2
}

func (g Geometry) Validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("grid must have at least one row and column, got %dx%d", g.Rows, g.Cols)
	}
	if g.Page.Width <= 0 || g.Page.Height <= 0 {
		return fmt.Errorf("invalid page size %.2fx%.2f", g.Page.Width, g.Page.Height)
	}
	w, h := g.CardSize()
	frameW := w - 2*g.PaddingX
	frameH := h - 2*g.PaddingY - g.CaptionStrip
	if frameW <= 0 || frameH <= 0 {
		return fmt.Errorf("margins and padding leave no room for content (%.2fx%.2f)", frameW, frameH)
	}
	return nil
}

// Paginate splits cards into consecutive batches of at most slots cards.
func Paginate(cards []models.Card, slots int) [][]models.Card {
	if slots < 1 {
		slots = 1
	}
	var batches [][]models.Card
	for start := 0; start < len(cards); start += slots {
		end := start + slots
		if end > len(cards) {
			end = len(cards)
		}
		batches = append(batches, cards[start:end])
	}
	return batches
}
