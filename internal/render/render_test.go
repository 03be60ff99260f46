package render_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

var _ = Describe("Emit", func() {
	size := models.PageDimensions{Width: 842, Height: 595}

	It("should replay every command between page markers", func() {
		pages := []render.Page{
			{Kind: models.FaceQuestion, Commands: []render.Command{
				render.Rect{Box: models.Box{Width: 10, Height: 10}, Stroke: true},
				render.TextRun{Text: "Q", Size: 14},
			}},
			{Kind: models.FaceAnswer, Commands: []render.Command{
				render.Line{X2: 5},
				render.Image{Path: "a.png"},
			}},
		}

		rec := &render.Recorder{}
		Expect(render.Emit(rec, size, pages)).To(Succeed())

		Expect(rec.Pages).To(HaveLen(2))
		Expect(rec.Pages[0].Ended).To(BeTrue())
		Expect(rec.Pages[0].Size).To(Equal(size))
		Expect(rec.Pages[0].Texts()).To(HaveLen(1))
		Expect(rec.Pages[1].Commands).To(Equal(pages[1].Commands))
	})

	It("should emit an empty page for an empty command list", func() {
		rec := &render.Recorder{}
		Expect(render.Emit(rec, size, []render.Page{{}})).To(Succeed())
		Expect(rec.Pages).To(HaveLen(1))
		Expect(rec.Pages[0].Commands).To(BeEmpty())
	})

	It("should reject drawing outside a page", func() {
		rec := &render.Recorder{}
		Expect(rec.DrawText(render.TextRun{})).NotTo(Succeed())
	})
})
