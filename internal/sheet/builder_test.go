package sheet_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/layout"
	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

type fixedImages struct{}

func (fixedImages) Lookup(ref string) (string, int, int, error) {
	switch ref {
	case "heart.png", "a.png", "b.png":
		return "/img/" + ref, 300, 300, nil
	}
	return "", 0, 0, &models.AssetError{Reference: ref, Err: models.ErrAssetNotFound}
}

func borders(page render.Page) []models.Box {
	var out []models.Box
	for _, c := range page.Commands {
		if r, ok := c.(render.Rect); ok && r.Stroke && r.StrokeGray == render.LightGrey && r.LineWidth == 0.5 && !r.Fill {
			out = append(out, r.Box)
		}
	}
	return out
}

func rules(page render.Page) []render.Line {
	var out []render.Line
	for _, c := range page.Commands {
		if l, ok := c.(render.Line); ok {
			out = append(out, l)
		}
	}
	return out
}

func texts(page render.Page) []string {
	var out []string
	for _, c := range page.Commands {
		if t, ok := c.(render.TextRun); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

var _ = Describe("Builder", func() {
	var (
		geom    sheet.Geometry
		builder *sheet.Builder
		log     *logger.Logger
	)

	BeforeEach(func() {
		log = logger.New(logger.WithOutput(GinkgoWriter), logger.WithTimestamps(false))
		geom = sheet.DefaultGeometry()
		composer := layout.NewComposer(layout.FixedMeasurer{}, layout.DefaultStyle(), fixedImages{})

		var err error
		builder, err = sheet.NewBuilder(geom, composer, fixedImages{}, sheet.Options{}, log)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject empty input as a content error", func() {
		_, _, err := builder.Build(nil)
		Expect(errors.Is(err, models.ErrEmptyInput)).To(BeTrue())

		var contentErr *models.ContentError
		Expect(errors.As(err, &contentErr)).To(BeTrue())
	})

	Context("with five cards", func() {
		var (
			pages  []render.Page
			report *sheet.Report
		)

		BeforeEach(func() {
			input := []models.Card{
				{Index: 1, Front: "Q1", Back: "A1"},
				{Index: 2, Front: "Q2", Back: "A2"},
				{Index: 3, Front: "Q3", Back: "A3"},
				{Index: 4, Front: "Q4", Back: "A4"},
				{Index: 5, Front: "Q5", Back: "A5"},
			}
			var err error
			pages, report, err = builder.Build(input)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should produce two question/answer page pairs in print order", func() {
			Expect(pages).To(HaveLen(4))
			Expect(pages[0].Kind).To(Equal(models.FaceQuestion))
			Expect(pages[1].Kind).To(Equal(models.FaceAnswer))
			Expect(pages[2].Kind).To(Equal(models.FaceQuestion))
			Expect(pages[3].Kind).To(Equal(models.FaceAnswer))
			Expect(pages[3].Batch).To(Equal(1))
			Expect(report.Batches).To(Equal(2))
			Expect(report.Pages).To(Equal(4))
		})

		It("should fill the first question slot of the last page and leave the rest empty", func() {
			Expect(borders(pages[0])).To(HaveLen(4))
			Expect(borders(pages[2])).To(Equal([]models.Box{geom.CellBox(0)}))
			Expect(texts(pages[2])).To(Equal([]string{"Q5", "ID: 5"}))
		})

		It("should place each answer behind its question", func() {
			Expect(borders(pages[1])).To(Equal([]models.Box{
				geom.CellBox(0), geom.CellBox(1), geom.CellBox(2), geom.CellBox(3),
			}))
			Expect(texts(pages[1])).To(Equal([]string{"A2", "A1", "A4", "A3"}))

			Expect(borders(pages[3])).To(Equal([]models.Box{geom.CellBox(1)}))
			Expect(texts(pages[3])).To(Equal([]string{"A5"}))
		})

		It("should print grey captions inside the caption strip", func() {
			var caption render.TextRun
			for _, c := range pages[0].Commands {
				if t, ok := c.(render.TextRun); ok && t.Text == "ID: 1" {
					caption = t
				}
			}
			Expect(caption.Gray).To(Equal(render.Grey))
			Expect(caption.Y).To(BeNumerically("<", geom.ContentFrame(geom.CellBox(0), models.FaceQuestion).Y))
		})

		It("should rule off the caption strip on question cards only", func() {
			Expect(rules(pages[0])).To(HaveLen(4))
			rule := rules(pages[0])[0]
			card := geom.CellBox(0)
			Expect(rule.Y1).To(Equal(card.Y + geom.CaptionStrip))
			Expect(rule.Y2).To(Equal(rule.Y1))
			Expect(rule.X1).To(Equal(card.X + geom.PaddingX))
			Expect(rule.X2).To(Equal(card.X + card.Width - geom.PaddingX))
			Expect(rule.Gray).To(Equal(render.LightGrey))

			Expect(rules(pages[2])).To(HaveLen(1))
			Expect(rules(pages[1])).To(BeEmpty())
			Expect(rules(pages[3])).To(BeEmpty())
		})
	})

	It("should draw an image-only face across most of the card", func() {
		pages, _, err := builder.Build([]models.Card{{Index: 1, Front: "![[heart.png]]", Back: "Heart"}})
		Expect(err).NotTo(HaveOccurred())

		var img render.Image
		for _, c := range pages[0].Commands {
			if i, ok := c.(render.Image); ok {
				img = i
			}
		}
		card := geom.CellBox(0)
		Expect(img.Path).To(Equal("/img/heart.png"))
		Expect(img.Box.Height).To(BeNumerically("~", (card.Height-geom.CaptionStrip)*0.85, 1e-9))
		Expect(texts(pages[0])).To(Equal([]string{"ID: 1"}))
	})

	It("should stack every image of a face with several images", func() {
		pages, report, err := builder.Build([]models.Card{{Index: 1, Front: "Q", Back: "![[a.png]]\n![[b.png]]"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Warnings).To(BeEmpty())

		var images []render.Image
		for _, c := range pages[1].Commands {
			if i, ok := c.(render.Image); ok {
				images = append(images, i)
			}
		}
		Expect(images).To(HaveLen(2))
		Expect(images[0].Path).To(Equal("/img/a.png"))
		Expect(images[1].Path).To(Equal("/img/b.png"))
		Expect(images[0].Box.Y).To(BeNumerically(">", images[1].Box.Y))
	})

	It("should report missing images with their card and keep the text", func() {
		pages, report, err := builder.Build([]models.Card{{Index: 7, Front: "Q", Back: "![[gone.png]]"}})
		Expect(err).NotTo(HaveOccurred())

		Expect(texts(pages[1])).To(ContainElement("![[gone.png]]"))
		Expect(report.Warnings).To(HaveLen(1))
		var assetErr *models.AssetError
		Expect(errors.As(report.Warnings[0], &assetErr)).To(BeTrue())
		Expect(assetErr.Card).To(Equal(7))

		buf := &bytes.Buffer{}
		report.Print(logger.New(logger.WithOutput(buf), logger.WithTimestamps(false)))
		Expect(buf.String()).To(ContainSubstring("card 7"))
	})

	It("should honour the row-mirroring convention", func() {
		composer := layout.NewComposer(layout.FixedMeasurer{}, layout.DefaultStyle(), nil)
		b, err := sheet.NewBuilder(geom, composer, nil, sheet.Options{Convention: sheet.MirrorRows}, log)
		Expect(err).NotTo(HaveOccurred())

		pages, _, err := b.Build([]models.Card{{Index: 1, Front: "Q", Back: "A"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(borders(pages[1])).To(Equal([]models.Box{geom.CellBox(2)}))
	})
})
