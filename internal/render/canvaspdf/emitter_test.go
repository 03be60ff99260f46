package canvaspdf_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/internal/render/canvaspdf"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

var _ = Describe("Canvas PDF", func() {
	var (
		fonts *canvaspdf.Fonts
		log   *logger.Logger
	)

	BeforeEach(func() {
		var err error
		fonts, err = canvaspdf.LoadFonts()
		Expect(err).NotTo(HaveOccurred())
		log = logger.New(logger.WithOutput(GinkgoWriter), logger.WithTimestamps(false))
	})

	Context("Fonts", func() {
		It("should measure in points and scale with size", func() {
			w10 := fonts.Width("flashcard", render.FontRegular, 10)
			w20 := fonts.Width("flashcard", render.FontRegular, 20)

			Expect(w10).To(BeNumerically(">", 10))
			Expect(w10).To(BeNumerically("<", 90))
			Expect(w20).To(BeNumerically("~", 2*w10, 0.01))
		})

		It("should give every mono character the same advance", func() {
			Expect(fonts.Width("iiii", render.FontMono, 9)).To(BeNumerically("~", fonts.Width("MMMM", render.FontMono, 9), 1e-6))
			Expect(fonts.Width("", render.FontBold, 9)).To(Equal(0.0))
		})

		It("should reuse faces", func() {
			Expect(fonts.Face(render.FontBold, 14, 0)).To(BeIdenticalTo(fonts.Face(render.FontBold, 14, 0)))
		})
	})

	Context("Emitter", func() {
		size := models.PageDimensions{Width: 841.89, Height: 595.28}

		It("should write a PDF with one page per page", func() {
			buf := &bytes.Buffer{}
			emitter := canvaspdf.NewEmitter(buf, fonts, canvaspdf.Info{Title: "Deck"}, log)

			pages := []render.Page{
				{Commands: []render.Command{
					render.Rect{Box: models.Box{X: 9, Y: 9, Width: 400, Height: 280}, Stroke: true, StrokeGray: render.LightGrey},
					render.TextRun{X: 100, Y: 150, Text: "What is a goroutine?", Font: render.FontBold, Size: 14},
					render.Line{X1: 10, Y1: 10, X2: 100, Y2: 10},
				}},
				{Commands: []render.Command{
					render.Image{Path: "/does/not/exist.png", Alt: "![[exist.png]]", Box: models.Box{X: 50, Y: 50, Width: 100, Height: 80}},
				}},
			}

			Expect(render.Emit(emitter, size, pages)).To(Succeed())
			Expect(emitter.Close()).To(Succeed())
			Expect(buf.String()).To(HavePrefix("%PDF"))
		})

		It("should refuse to close an empty document", func() {
			emitter := canvaspdf.NewEmitter(&bytes.Buffer{}, fonts, canvaspdf.Info{}, log)
			Expect(errors.Is(emitter.Close(), canvaspdf.ErrNoPages)).To(BeTrue())
		})

		It("should refuse drawing before a page begins", func() {
			emitter := canvaspdf.NewEmitter(&bytes.Buffer{}, fonts, canvaspdf.Info{}, log)
			Expect(emitter.DrawText(render.TextRun{Text: "x", Size: 9})).NotTo(Succeed())
		})
	})
})
