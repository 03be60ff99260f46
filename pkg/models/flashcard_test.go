package models_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

var _ = Describe("Flashcard Models", func() {
	Context("Card", func() {
		It("should append the index as the trailing caption line", func() {
			card := models.Card{Index: 7, Front: "What is Go?\n"}
			Expect(card.QuestionText()).To(Equal("What is Go?\n7"))
		})

		It("should zero-pad the sort key", func() {
			Expect(models.Card{Index: 12}.SortKey()).To(Equal("0012"))
		})
	})

	Context("Box", func() {
		It("should inset symmetrically", func() {
			box := models.Box{X: 10, Y: 20, Width: 100, Height: 50}
			inner := box.Inset(5, 10)

			Expect(inner).To(Equal(models.Box{X: 15, Y: 30, Width: 90, Height: 30}))
			Expect(inner.CenterX()).To(Equal(box.CenterX()))
			Expect(inner.CenterY()).To(Equal(box.CenterY()))
		})
	})

	Context("PageDimensions", func() {
		It("should rotate to landscape and back", func() {
			a4 := models.PageDimensions{Width: 595.28, Height: 841.89}
			Expect(a4.Landscape()).To(Equal(models.PageDimensions{Width: 841.89, Height: 595.28}))
			Expect(a4.Landscape().Portrait()).To(Equal(a4))
		})
	})

	Context("Errors", func() {
		It("should unwrap content errors to their sentinel", func() {
			err := error(&models.ContentError{Source: "deck.csv", Err: models.ErrMissingColumn})
			Expect(errors.Is(err, models.ErrMissingColumn)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("deck.csv"))
		})

		It("should describe asset errors with their card", func() {
			err := &models.AssetError{Card: 3, Reference: "x.png", Err: models.ErrAssetNotFound}
			Expect(err.Error()).To(Equal(`card 3: image "x.png": image asset not found`))
			Expect(errors.Is(err, models.ErrAssetNotFound)).To(BeTrue())
		})
	})
})
