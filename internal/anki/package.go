package anki

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kpauljoseph/flashsheet/pkg/logger"
)

const (
	collectionFile = "collection.anki2"
	mediaFile      = "media"
	fieldSeparator = "\x1f"
)

// noteNamespace scopes note GUIDs, so the same card content in the same deck
// keeps its GUID across exports and Anki updates it instead of duplicating.
var noteNamespace = uuid.MustParse("5b0e6c52-8f43-4f5e-9a3d-2d1f8a6c9e71")

var tagPattern = regexp.MustCompile(`<[^>]*>`)

type packagedNote struct {
	deck string
	note Note
}

// Package collects decks and notes and writes them as an .apkg file.
type Package struct {
	ids    IDAllocator
	logger *logger.Logger
	now    func() time.Time

	decks []string
	notes []packagedNote
}

type PackageOption func(*Package)

// WithClock fixes the modification times written into the package.
func WithClock(now func() time.Time) PackageOption {
	return func(p *Package) { p.now = now }
}

func NewPackage(ids IDAllocator, logger *logger.Logger, opts ...PackageOption) *Package {
	p := &Package{ids: ids, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddNotes adds notes to the named deck, creating the deck on first use.
func (p *Package) AddNotes(deckName string, notes []Note) {
	p.addDeck(deckName)
	for _, n := range notes {
		p.notes = append(p.notes, packagedNote{deck: deckName, note: n})
	}
	p.logger.Debug("Queued %d notes for deck %s", len(notes), deckName)
}

func (p *Package) addDeck(name string) {
	for _, d := range p.decks {
		if d == name {
			return
		}
	}
	p.decks = append(p.decks, name)
}

func (p *Package) NoteCount() int { return len(p.notes) }

// WriteFile builds the collection database in a temporary directory and
// zips it together with the media into path.
func (p *Package) WriteFile(path string) error {
	if len(p.decks) == 0 {
		return fmt.Errorf("package has no decks")
	}

	workDir, err := os.MkdirTemp("", "flashsheet-apkg-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	dbPath := filepath.Join(workDir, collectionFile)
	if err := p.writeCollection(dbPath); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := p.writeArchive(tmp, dbPath); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move package into place: %w", err)
	}

	p.logger.Info("Wrote %d notes in %d decks to %s", len(p.notes), len(p.decks), path)
	return nil
}

func (p *Package) writeCollection(dbPath string) error {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access collection: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Exec(collectionSchema).Error; err != nil {
		return fmt.Errorf("failed to create collection schema: %w", err)
	}

	col, err := p.colRow()
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&col).Error; err != nil {
			return fmt.Errorf("failed to write collection row: %w", err)
		}
		mod := p.now().Unix()
		for i, pn := range p.notes {
			note := p.noteRow(pn, mod)
			if err := tx.Create(&note).Error; err != nil {
				return fmt.Errorf("failed to write note for card %d: %w", pn.note.Card, err)
			}
			card := cardRow{
				ID:  p.ids.NextID(),
				Nid: note.ID,
				Did: p.ids.DeckID(pn.deck),
				Mod: mod,
				Usn: -1,
				Due: int64(i + 1),
			}
			if err := tx.Create(&card).Error; err != nil {
				return fmt.Errorf("failed to write card %d: %w", pn.note.Card, err)
			}
		}
		return nil
	})
}

func (p *Package) colRow() (colRow, error) {
	now := p.now()
	mod := now.Unix()
	modelID := p.ids.ModelID()

	decks := map[string]deck{"1": newDeck(1, "Default", 0)}
	for _, name := range p.decks {
		id := p.ids.DeckID(name)
		decks[strconv.FormatInt(id, 10)] = newDeck(id, name, mod)
	}
	firstDeck := p.ids.DeckID(p.decks[0])
	models := map[string]noteModel{
		strconv.FormatInt(modelID, 10): newNoteModel(modelID, firstDeck, mod),
	}

	fields := map[string]interface{}{
		"conf":   defaultCollectionConf(modelID),
		"models": models,
		"decks":  decks,
		"dconf":  defaultDeckConf(),
		"tags":   map[string]interface{}{},
	}
	encoded := make(map[string]string, len(fields))
	for name, v := range fields {
		data, err := json.Marshal(v)
		if err != nil {
			return colRow{}, fmt.Errorf("failed to encode collection %s: %w", name, err)
		}
		encoded[name] = string(data)
	}

	return colRow{
		ID:     1,
		Crt:    now.Truncate(24 * time.Hour).Unix(),
		Mod:    now.UnixMilli(),
		Scm:    now.UnixMilli(),
		Ver:    schemaVersion,
		Conf:   encoded["conf"],
		Models: encoded["models"],
		Decks:  encoded["decks"],
		DConf:  encoded["dconf"],
		Tags:   encoded["tags"],
	}, nil
}

func (p *Package) noteRow(pn packagedNote, mod int64) noteRow {
	sort := SortField(pn.note.Front)
	return noteRow{
		ID:   p.ids.NextID(),
		GUID: uuid.NewSHA1(noteNamespace, []byte(pn.deck+fieldSeparator+pn.note.Hash)).String(),
		Mid:  p.ids.ModelID(),
		Mod:  mod,
		Usn:  -1,
		Tags: " " + Tag + " " + TagForDeck(pn.deck) + " ",
		Flds: strings.Join(pn.note.Fields(), fieldSeparator),
		Sfld: sort,
		Csum: Checksum(sort),
	}
}

func (p *Package) writeArchive(path, dbPath string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if err := addFile(zw, collectionFile, dbPath); err != nil {
		return err
	}

	// Anki stores media flat, so the base name is the identity of a file.
	media := make(map[string]string)
	seen := make(map[string]string)
	for _, pn := range p.notes {
		for _, src := range pn.note.Media {
			name := filepath.Base(src)
			if prev, ok := seen[name]; ok {
				if prev != src {
					p.logger.Warn("Skipping media file %s: name %s is already taken by %s", src, name, prev)
				}
				continue
			}
			seen[name] = src
			entry := strconv.Itoa(len(media))
			if err := addFile(zw, entry, src); err != nil {
				p.logger.Warn("Skipping media file %s: %v", src, err)
				continue
			}
			media[entry] = name
		}
	}

	manifest, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("failed to encode media manifest: %w", err)
	}
	w, err := zw.Create(mediaFile)
	if err != nil {
		return fmt.Errorf("failed to add media manifest: %w", err)
	}
	if _, err := w.Write(manifest); err != nil {
		return fmt.Errorf("failed to write media manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish package: %w", err)
	}
	return f.Close()
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

// SortField is the text Anki sorts and searches a note by: the first field
// with markup removed.
func SortField(field string) string {
	field = strings.ReplaceAll(field, "<br>", " ")
	return strings.Join(strings.Fields(tagPattern.ReplaceAllString(field, "")), " ")
}

// Checksum is the first 32 bits of the SHA-1 of the sort field, as Anki uses
// for duplicate checks.
func Checksum(sortField string) int64 {
	sum := sha1.Sum([]byte(sortField))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}
