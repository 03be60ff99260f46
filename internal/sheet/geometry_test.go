package sheet_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

func cards(n int) []models.Card {
	out := make([]models.Card, n)
	for i := range out {
		out[i] = models.Card{Index: i + 1, Front: "Question", Back: "Answer"}
	}
	return out
}

var _ = Describe("Geometry", func() {
	geom := sheet.Geometry{
		Page:         models.PageDimensions{Width: 800, Height: 600},
		Rows:         2,
		Cols:         2,
		Margin:       10,
		PaddingX:     20,
		PaddingY:     10,
		CaptionStrip: 20,
	}

	It("should tile cards row by row from the top left", func() {
		Expect(geom.CellBox(0)).To(Equal(models.Box{X: 10, Y: 300, Width: 390, Height: 290}))
		Expect(geom.CellBox(1)).To(Equal(models.Box{X: 400, Y: 300, Width: 390, Height: 290}))
		Expect(geom.CellBox(2)).To(Equal(models.Box{X: 10, Y: 10, Width: 390, Height: 290}))
		Expect(geom.CellBox(3)).To(Equal(models.Box{X: 400, Y: 10, Width: 390, Height: 290}))
	})

	It("should keep the caption strip out of question frames", func() {
		card := geom.CellBox(2)
		question := geom.ContentFrame(card, models.FaceQuestion)
		answer := geom.ContentFrame(card, models.FaceAnswer)

		Expect(answer).To(Equal(models.Box{X: 30, Y: 20, Width: 350, Height: 270}))
		Expect(question.Y).To(Equal(answer.Y + 20))
		Expect(question.Top()).To(Equal(answer.Top()))
		Expect(geom.CaptionBaseline(card)).To(BeNumerically("<", question.Y))
	})

	It("should reject geometry without room for content", func() {
		bad := geom
		bad.PaddingX = 300
		Expect(bad.Validate()).To(HaveOccurred())
		Expect(geom.Validate()).To(Succeed())
		Expect(sheet.DefaultGeometry().Validate()).To(Succeed())
	})

	It("should use a landscape page by default", func() {
		Expect(sheet.DefaultGeometry().Page.Width).To(BeNumerically(">", sheet.DefaultGeometry().Page.Height))
	})

	DescribeTable("Paginate",
		func(n, slots int, sizes []int) {
			batches := sheet.Paginate(cards(n), slots)
			got := []int{}
			for _, b := range batches {
				got = append(got, len(b))
			}
			Expect(got).To(Equal(sizes))
		},
		Entry("ten cards on a 2x2 grid", 10, 4, []int{4, 4, 2}),
		Entry("exact multiple", 8, 4, []int{4, 4}),
		Entry("fewer cards than slots", 3, 4, []int{3}),
		Entry("no cards", 0, 4, []int{}),
		Entry("single slot grid", 3, 1, []int{1, 1, 1}),
	)

	It("should keep card order across batches", func() {
		batches := sheet.Paginate(cards(6), 4)
		Expect(batches[1][0].Index).To(Equal(5))
		Expect(batches[1][1].Index).To(Equal(6))
	})
})
