package anki

import (
	"strings"

	"github.com/kpauljoseph/flashsheet/internal/markup"
	"github.com/kpauljoseph/flashsheet/pkg/models"
	"github.com/kpauljoseph/flashsheet/pkg/utils"
)

// Note is the rendered content of one card, ready for either a package or
// AnkiConnect.
type Note struct {
	Card  int
	Front string
	Back  string
	Hash  string
	Media []string
}

// Fields returns the field values in model order.
func (n Note) Fields() []string {
	return []string{n.Front, n.Back, n.Hash}
}

// NewNotes renders cards as notes. Cards whose question is blank are dropped
// and counted in skipped.
func NewNotes(cards []models.Card, r *markup.Renderer) (notes []Note, skipped int) {
	for _, card := range cards {
		if strings.TrimSpace(card.Front) == "" {
			skipped++
			continue
		}
		front, back, media := r.Card(card)
		notes = append(notes, Note{
			Card:  card.Index,
			Front: front,
			Back:  back,
			Hash:  utils.GenerateCardHash(card.Front, card.Back),
			Media: media,
		})
	}
	return notes, skipped
}
