package anki_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/anki"
)

var _ = Describe("SequentialIDs", func() {
	It("should fall back to the default bases", func() {
		ids := anki.NewSequentialIDs(0, 0, 0)
		Expect(ids.ModelID()).To(Equal(anki.DefaultModelID))
		Expect(ids.DeckID("Go")).To(Equal(anki.DefaultDeckID))
		Expect(ids.NextID()).To(Equal(anki.DefaultIDBase))
	})

	It("should give every deck name a stable id", func() {
		ids := anki.NewSequentialIDs(7, 100, 1000)
		Expect(ids.DeckID("Go")).To(Equal(int64(100)))
		Expect(ids.DeckID("Go::Channels")).To(Equal(int64(101)))
		Expect(ids.DeckID("Go")).To(Equal(int64(100)))
	})

	It("should count note and card ids up from the base", func() {
		ids := anki.NewSequentialIDs(7, 100, 1000)
		Expect([]int64{ids.NextID(), ids.NextID(), ids.NextID()}).To(Equal([]int64{1000, 1001, 1002}))
	})
})

var _ = Describe("Deck names", func() {
	DescribeTable("GetDeckNameFromPath",
		func(root, rel, expected string) {
			Expect(anki.GetDeckNameFromPath(root, rel)).To(Equal(expected))
		},
		Entry("file at the top", "Notes", "go.md", "Notes::go"),
		Entry("nested file", "Notes", "lang/go/channels.csv", "Notes::lang::go::channels"),
		Entry("no root", "", "lang/go.xlsx", "lang::go"),
	)

	It("should turn deck names into single tags", func() {
		Expect(anki.TagForDeck(" Go Basics::Channels ")).To(Equal("Go_Basics_Channels"))
	})
})
