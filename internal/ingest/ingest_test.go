package ingest_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/kpauljoseph/flashsheet/internal/ingest"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const notes = "intro text ignored\n" +
	"## What is a goroutine?\n" +
	"A lightweight thread.\n" +
	"\n" +
	"## Channels\n" +
	"```go\n" +
	"## not a heading\n" +
	"```\n" +
	"- buffered\n" +
	"### Detail\n" +
	"more\n" +
	"##\n" +
	"orphan\n"

var _ = Describe("ParseNotes", func() {
	It("should split on second level headings", func() {
		cards := ingest.ParseNotes([]byte(notes))

		Expect(cards).To(HaveLen(3))
		Expect(cards[0].Front).To(Equal("What is a goroutine?"))
		Expect(cards[0].Back).To(Equal("A lightweight thread."))

		Expect(cards[1].Front).To(Equal("Channels"))
		Expect(cards[1].Back).To(Equal("```go\n## not a heading\n```\n- buffered\n### Detail\nmore"))

		Expect(cards[2].Front).To(BeEmpty())
		Expect(cards[2].Back).To(Equal("orphan"))
	})

	It("should keep a heading without a body", func() {
		cards := ingest.ParseNotes([]byte("## Only a question"))
		Expect(cards).To(Equal([]models.Card{{Front: "Only a question"}}))
	})

	It("should ignore setext headings", func() {
		cards := ingest.ParseNotes([]byte("## Real\nbody\nLooks like a heading\n---\n"))
		Expect(cards).To(HaveLen(1))
		Expect(cards[0].Back).To(Equal("body\nLooks like a heading\n---"))
	})

	It("should find nothing in a document without questions", func() {
		Expect(ingest.ParseNotes([]byte("# Title\njust prose"))).To(BeEmpty())
	})
})

var _ = Describe("Loader", func() {
	var (
		dir    string
		loader *ingest.Loader
	)

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "flashsheet-ingest-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		log := logger.New(logger.WithOutput(GinkgoWriter), logger.WithTimestamps(false))
		loader = ingest.NewLoader(ingest.Options{}, log)
	})

	It("should number notes cards from one and record the source", func() {
		path := write("go.md", notes)
		cards, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cards).To(HaveLen(3))
		for i, c := range cards {
			Expect(c.Index).To(Equal(i + 1))
			Expect(c.Source).To(Equal(path))
		}
	})

	It("should read CSV columns by header name", func() {
		path := write("go.csv", "Topic,Answer,Question\n"+
			"basics,\"A lightweight\nthread\",What is a goroutine?\n"+
			",,\n"+
			"chan,Blocks until read,What does an unbuffered send do?\n")

		cards, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cards).To(HaveLen(2))
		Expect(cards[0].Front).To(Equal("What is a goroutine?"))
		Expect(cards[0].Back).To(Equal("A lightweight\nthread"))
		Expect(cards[1].Index).To(Equal(2))
	})

	It("should read TSV files", func() {
		cards, err := loader.Load(write("go.tsv", "question\tanswer\nq1\ta1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cards).To(Equal([]models.Card{{Index: 1, Front: "q1", Back: "a1", Source: filepath.Join(dir, "go.tsv")}}))
	})

	It("should honour configured column names", func() {
		log := logger.New(logger.WithOutput(GinkgoWriter))
		custom := ingest.NewLoader(ingest.Options{QuestionColumn: "Front", AnswerColumn: "Back"}, log)
		cards, err := custom.Load(write("custom.csv", "front,back\nq,a\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cards).To(HaveLen(1))
	})

	It("should read the first sheet of a workbook", func() {
		wb := excelize.NewFile()
		Expect(wb.SetCellValue("Sheet1", "A1", "Question")).To(Succeed())
		Expect(wb.SetCellValue("Sheet1", "B1", "Answer")).To(Succeed())
		Expect(wb.SetCellValue("Sheet1", "A2", "What is GOMAXPROCS?")).To(Succeed())
		Expect(wb.SetCellValue("Sheet1", "B2", "The number of OS threads running Go code")).To(Succeed())
		Expect(wb.SetCellValue("Sheet1", "A3", "Only a question")).To(Succeed())
		path := filepath.Join(dir, "go.xlsx")
		Expect(wb.SaveAs(path)).To(Succeed())
		Expect(wb.Close()).To(Succeed())

		cards, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cards).To(HaveLen(2))
		Expect(cards[0].Back).To(Equal("The number of OS threads running Go code"))
		Expect(cards[1].Front).To(Equal("Only a question"))
		Expect(cards[1].Back).To(BeEmpty())
	})

	DescribeTable("content errors",
		func(name, content string, sentinel error) {
			_, err := loader.Load(write(name, content))

			var contentErr *models.ContentError
			Expect(errors.As(err, &contentErr)).To(BeTrue())
			Expect(contentErr.Source).To(HaveSuffix(name))
			Expect(err).To(MatchError(sentinel))
		},
		Entry("missing answer column", "no-answer.csv", "question,notes\nq,n\n", models.ErrMissingColumn),
		Entry("header only", "empty.csv", "question,answer\n", models.ErrEmptyInput),
		Entry("notes without questions", "prose.md", "just prose\n", models.ErrEmptyInput),
		Entry("unknown extension", "cards.docx", "binary", models.ErrUnsupportedSource),
	)

	It("should report a missing file as a content error", func() {
		_, err := loader.Load(filepath.Join(dir, "missing.md"))
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("should place default assets beside the source", func() {
		Expect(ingest.DefaultAssetDir("/notes/go.md")).To(Equal("/notes/attachments"))
		Expect(ingest.Supported("deck.XLSX")).To(BeTrue())
		Expect(ingest.Supported("deck.pdf")).To(BeFalse())
	})
})
