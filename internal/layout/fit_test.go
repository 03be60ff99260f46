package layout_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/internal/layout"
	"github.com/kpauljoseph/flashsheet/internal/render"
)

var _ = Describe("Fitting", func() {
	m := layout.FixedMeasurer{Advance: 0.5}

	Context("FitCode", func() {
		It("should scale a wide block to 98% of the available width", func() {
			block := &flow.CodeBlock{Lines: []string{strings.Repeat("x", 40), "short"}}
			fit := layout.FitCode(m, block, 9, 1.2, 100, 0.35)

			Expect(fit.Scale).To(BeNumerically("<", 1))
			Expect(fit.Width).To(BeNumerically("<=", 100*0.98+1e-9))
			Expect(m.Width(fit.Lines[0], render.FontMono, fit.Size)).To(BeNumerically("~", fit.Width, 1e-9))
			Expect(fit.LineHeight).To(BeNumerically("~", fit.Size*1.2, 1e-9))
		})

		It("should not shrink a block below the floor", func() {
			block := &flow.CodeBlock{Lines: []string{strings.Repeat("x", 400)}}
			fit := layout.FitCode(m, block, 9, 1.2, 100, 0.35)

			Expect(fit.Scale).To(Equal(0.35))
			Expect(fit.Size).To(BeNumerically("~", 9*0.35, 1e-9))
			Expect(fit.Crowded).To(BeTrue())
		})

		It("should leave a narrow block alone and expand tabs", func() {
			block := &flow.CodeBlock{Lines: []string{"\tx := 1"}}
			fit := layout.FitCode(m, block, 9, 1.2, 500, 0.35)

			Expect(fit.Scale).To(Equal(1.0))
			Expect(fit.Lines[0]).To(Equal("    x := 1"))
		})
	})

	Context("LayoutTable", func() {
		It("should size equal columns from the widest cell", func() {
			table := &flow.Table{Rows: [][]string{{"a", "b"}, {"c", "d"}}}
			tl := layout.LayoutTable(m, table, 10, 1.2, 300, 0.35)

			Expect(tl.Scale).To(Equal(1.0))
			Expect(tl.Columns).To(Equal(2))
			Expect(tl.Width).To(BeNumerically("~", 2*(5+8), 1e-9))
			Expect(tl.Rows[0].Cells[0].Header).To(BeTrue())
			Expect(tl.Rows[0].Cells[0].Lines[0].Spans[0].Style.Has(flow.StyleBold)).To(BeTrue())
		})

		It("should shrink the whole table when one word cannot fit its column", func() {
			table := &flow.Table{Rows: [][]string{{"Term", "Meaning"}, {"x", "supercalifragilistic"}}}
			tl := layout.LayoutTable(m, table, 10, 1.2, 100, 0.35)

			Expect(tl.Width).To(Equal(100.0))
			Expect(tl.Scale).To(BeNumerically("<", 1))
			inner := tl.ColWidth - 2*tl.Padding
			for _, row := range tl.Rows {
				for _, cell := range row.Cells {
					for _, line := range cell.Lines {
						Expect(line.Width).To(BeNumerically("<=", inner))
					}
				}
			}
		})

		It("should scale the cell padding with the text", func() {
			cells := make([]string, 26)
			for i := range cells {
				cells[i] = "a"
			}
			tl := layout.LayoutTable(m, &flow.Table{Rows: [][]string{cells}}, 10, 1.2, 200, 0.35)

			Expect(tl.Scale).To(BeNumerically("~", (200.0/26)*0.98/(5+8), 1e-9))
			Expect(tl.Size).To(BeNumerically(">", 0))
			Expect(tl.Crowded).To(BeFalse())
			Expect(tl.Rows[0].Cells[0].Lines[0].Width).To(BeNumerically("<=", tl.ColWidth-2*tl.Padding))
		})

		It("should keep ragged rows as written", func() {
			table := &flow.Table{Rows: [][]string{{"a", "b", "c"}, {"d"}}}
			tl := layout.LayoutTable(m, table, 10, 1.2, 300, 0.35)

			Expect(tl.Columns).To(Equal(3))
			Expect(tl.Rows[1].Cells).To(HaveLen(1))
		})
	})

	DescribeTable("FitImage",
		func(w, h, maxW, maxH, ew, eh float64) {
			gw, gh := layout.FitImage(w, h, maxW, maxH)
			Expect(gw).To(BeNumerically("~", ew, 1e-9))
			Expect(gh).To(BeNumerically("~", eh, 1e-9))
			Expect(gw).To(BeNumerically("<=", maxW+1e-9))
			Expect(gh).To(BeNumerically("<=", maxH+1e-9))
		},
		Entry("wide image limited by width", 400.0, 100.0, 200.0, 200.0, 200.0, 50.0),
		Entry("tall image limited by height", 100.0, 400.0, 200.0, 200.0, 50.0, 200.0),
		Entry("small image grows to the caps", 10.0, 10.0, 80.0, 40.0, 40.0, 40.0),
		Entry("degenerate image", 0.0, 10.0, 80.0, 40.0, 0.0, 0.0),
	)
})
