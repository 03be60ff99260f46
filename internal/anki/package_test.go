package anki_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kpauljoseph/flashsheet/internal/anki"
	"github.com/kpauljoseph/flashsheet/internal/markup"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

type mediaDir string

func (d mediaDir) Resolve(ref string) (string, bool) {
	path := filepath.Join(string(d), ref)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func readEntry(zr *zip.ReadCloser, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		data, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		return data
	}
	Fail("missing archive entry " + name)
	return nil
}

type noteView struct {
	ID   int64
	Mid  int64
	Flds string
	Sfld string
	Tags string
}

type colView struct {
	Ver    int
	Models string
	Decks  string
}

var _ = Describe("Package", func() {
	var (
		tempDir string
		log     *logger.Logger
		fixed   time.Time
		cards   []models.Card
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "flashsheet-anki-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tempDir)

		log = logger.New(logger.WithOutput(GinkgoWriter), logger.WithTimestamps(false))
		fixed = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

		Expect(os.WriteFile(filepath.Join(tempDir, "heart.png"), []byte("png bytes"), 0644)).To(Succeed())
		cards = []models.Card{
			{Index: 1, Front: "What is a goroutine?", Back: "A lightweight thread\n![[heart.png]]"},
			{Index: 2, Front: "   ", Back: "orphan answer"},
			{Index: 3, Front: "What does **close** do?", Back: "- marks a channel done"},
		}
	})

	build := func() string {
		notes, skipped := anki.NewNotes(cards, markup.NewRenderer(mediaDir(tempDir), false))
		Expect(skipped).To(Equal(1))

		pkg := anki.NewPackage(anki.NewSequentialIDs(0, 0, 0), log, anki.WithClock(func() time.Time { return fixed }))
		pkg.AddNotes("Go::Concurrency", notes)
		Expect(pkg.NoteCount()).To(Equal(2))

		out := filepath.Join(tempDir, "deck.apkg")
		Expect(pkg.WriteFile(out)).To(Succeed())
		return out
	}

	openCollection := func(apkg string) *gorm.DB {
		zr, err := zip.OpenReader(apkg)
		Expect(err).NotTo(HaveOccurred())
		defer zr.Close()

		extracted, err := os.CreateTemp(tempDir, "collection-*.anki2")
		Expect(err).NotTo(HaveOccurred())
		_, err = extracted.Write(readEntry(zr, "collection.anki2"))
		Expect(err).NotTo(HaveOccurred())
		Expect(extracted.Close()).To(Succeed())
		dbPath := extracted.Name()

		db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		})
		return db
	}

	It("should write one note and card per non-blank card", func() {
		db := openCollection(build())

		var notes []noteView
		Expect(db.Raw("SELECT id, mid, flds, sfld, tags FROM notes ORDER BY id").Scan(&notes).Error).To(Succeed())
		Expect(notes).To(HaveLen(2))

		fields := strings.Split(notes[0].Flds, "\x1f")
		Expect(fields).To(HaveLen(3))
		Expect(fields[0]).To(HavePrefix("<div style='display:none;'>0001</div>What is a goroutine?"))
		Expect(fields[1]).To(ContainSubstring(`<img src="heart.png">`))
		Expect(notes[0].Sfld).To(Equal("0001What is a goroutine? ID: 1"))
		Expect(notes[0].Mid).To(Equal(anki.DefaultModelID))
		Expect(notes[0].Tags).To(ContainSubstring("flashsheet"))
		Expect(notes[0].Tags).To(ContainSubstring("Go_Concurrency"))

		Expect(strings.Split(notes[1].Flds, "\x1f")[0]).To(ContainSubstring("<b>close</b>"))

		var cardDecks []int64
		Expect(db.Raw("SELECT did FROM cards ORDER BY due").Scan(&cardDecks).Error).To(Succeed())
		Expect(cardDecks).To(Equal([]int64{anki.DefaultDeckID, anki.DefaultDeckID}))
	})

	It("should describe the model and decks in the collection row", func() {
		db := openCollection(build())

		var col colView
		Expect(db.Raw("SELECT ver, models, decks FROM col").Scan(&col).Error).To(Succeed())
		Expect(col.Ver).To(Equal(11))

		var modelsByID map[string]struct {
			Name string `json:"name"`
			CSS  string `json:"css"`
			Flds []struct {
				Name string `json:"name"`
			} `json:"flds"`
		}
		Expect(json.Unmarshal([]byte(col.Models), &modelsByID)).To(Succeed())
		model := modelsByID["1607392319"]
		Expect(model.Name).To(Equal("FlashSheet Basic"))
		Expect(model.CSS).To(ContainSubstring("max-width: 100%"))
		Expect(model.Flds).To(HaveLen(3))

		var decks map[string]struct {
			Name string `json:"name"`
		}
		Expect(json.Unmarshal([]byte(col.Decks), &decks)).To(Succeed())
		Expect(decks["2059400110"].Name).To(Equal("Go::Concurrency"))
	})

	It("should bundle referenced media under numbered entries", func() {
		zr, err := zip.OpenReader(build())
		Expect(err).NotTo(HaveOccurred())
		defer zr.Close()

		var media map[string]string
		Expect(json.Unmarshal(readEntry(zr, "media"), &media)).To(Succeed())
		Expect(media).To(Equal(map[string]string{"0": "heart.png"}))
		Expect(string(readEntry(zr, "0"))).To(Equal("png bytes"))
	})

	It("should keep one media file per name and warn about clashes", func() {
		other := filepath.Join(tempDir, "week2")
		Expect(os.MkdirAll(other, 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(other, "heart.png"), []byte("other bytes"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(tempDir, "lung.png"), []byte("lung bytes"), 0644)).To(Succeed())

		var out bytes.Buffer
		warnLog := logger.New(logger.WithOutput(io.MultiWriter(&out, GinkgoWriter)), logger.WithTimestamps(false))

		pkg := anki.NewPackage(anki.NewSequentialIDs(0, 0, 0), warnLog, anki.WithClock(func() time.Time { return fixed }))
		pkg.AddNotes("Anatomy", []anki.Note{
			{Card: 1, Front: "Heart", Back: `<img src="heart.png">`, Hash: "a", Media: []string{filepath.Join(tempDir, "heart.png")}},
			{Card: 2, Front: "Heart again", Back: `<img src="heart.png">`, Hash: "b", Media: []string{
				filepath.Join(other, "heart.png"),
				filepath.Join(tempDir, "heart.png"),
			}},
			{Card: 3, Front: "Lung", Back: `<img src="lung.png">`, Hash: "c", Media: []string{filepath.Join(tempDir, "lung.png")}},
		})

		apkg := filepath.Join(tempDir, "anatomy.apkg")
		Expect(pkg.WriteFile(apkg)).To(Succeed())

		zr, err := zip.OpenReader(apkg)
		Expect(err).NotTo(HaveOccurred())
		defer zr.Close()

		var media map[string]string
		Expect(json.Unmarshal(readEntry(zr, "media"), &media)).To(Succeed())
		Expect(media).To(Equal(map[string]string{"0": "heart.png", "1": "lung.png"}))
		Expect(string(readEntry(zr, "0"))).To(Equal("png bytes"))
		Expect(string(readEntry(zr, "1"))).To(Equal("lung bytes"))

		Expect(out.String()).To(ContainSubstring(filepath.Join(other, "heart.png")))
		Expect(strings.Count(out.String(), "already taken")).To(Equal(1))
	})

	It("should produce the same notes on every run", func() {
		first := openCollection(build())
		var firstGUIDs []string
		Expect(first.Raw("SELECT guid FROM notes ORDER BY id").Scan(&firstGUIDs).Error).To(Succeed())

		second := openCollection(build())
		var secondGUIDs []string
		Expect(second.Raw("SELECT guid FROM notes ORDER BY id").Scan(&secondGUIDs).Error).To(Succeed())

		Expect(firstGUIDs).To(HaveLen(2))
		Expect(secondGUIDs).To(Equal(firstGUIDs))
	})

	It("should refuse to write an empty package", func() {
		pkg := anki.NewPackage(anki.NewSequentialIDs(0, 0, 0), log)
		Expect(pkg.WriteFile(filepath.Join(tempDir, "empty.apkg"))).NotTo(Succeed())
	})
})

var _ = Describe("SortField and Checksum", func() {
	It("should strip markup before checksumming", func() {
		Expect(anki.SortField("<b>chan</b><br>buffered")).To(Equal("chan buffered"))
		Expect(anki.Checksum("chan")).To(Equal(anki.Checksum(anki.SortField("<i>chan</i>"))))
		Expect(anki.Checksum("chan")).NotTo(Equal(anki.Checksum("chans")))
	})
})
