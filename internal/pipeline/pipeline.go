package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kpauljoseph/flashsheet/internal/anki"
	"github.com/kpauljoseph/flashsheet/internal/assets"
	"github.com/kpauljoseph/flashsheet/internal/config"
	"github.com/kpauljoseph/flashsheet/internal/ingest"
	"github.com/kpauljoseph/flashsheet/internal/layout"
	"github.com/kpauljoseph/flashsheet/internal/markup"
	"github.com/kpauljoseph/flashsheet/internal/pdf"
	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/internal/render/canvaspdf"
	"github.com/kpauljoseph/flashsheet/internal/render/raster"
	"github.com/kpauljoseph/flashsheet/internal/scanner"
	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
	"github.com/kpauljoseph/flashsheet/pkg/utils"
	"github.com/kpauljoseph/flashsheet/pkg/version"
)

const (
	FormatPDF = "pdf"
	FormatPNG = "png"

	AnkiNone    = "none"
	AnkiPackage = "apkg"
	AnkiConnect = "connect"

	DefaultDeckName = "FlashSheet"
)

// Runner turns card sources into printable sheets and, optionally, an Anki
// deck. One Runner serves one run.
type Runner struct {
	cfg    *config.Config
	geom   sheet.Geometry
	fonts  *canvaspdf.Fonts
	loader *ingest.Loader
	logger *logger.Logger
	outDir string

	service *anki.Service
	ids     anki.IDAllocator
}

type Option func(*Runner)

// WithService replaces the AnkiConnect client built from the config.
func WithService(s *anki.Service) Option {
	return func(r *Runner) { r.service = s }
}

// WithIDs replaces the ID allocator of the deck package.
func WithIDs(ids anki.IDAllocator) Option {
	return func(r *Runner) { r.ids = ids }
}

func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Runner, error) {
	geom, err := cfg.Geometry()
	if err != nil {
		return nil, fmt.Errorf("invalid page setup: %w", err)
	}
	fonts, err := canvaspdf.LoadFonts()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	r := &Runner{
		cfg:   cfg,
		geom:  geom,
		fonts: fonts,
		loader: ingest.NewLoader(ingest.Options{
			QuestionColumn: cfg.Columns.Question,
			AnswerColumn:   cfg.Columns.Answer,
			Sheet:          cfg.Columns.Sheet,
		}, log),
		logger: log,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ids == nil {
		r.ids = anki.NewSequentialIDs(cfg.Anki.ModelID, cfg.Anki.DeckID, cfg.Anki.IDBase)
	}
	if r.service == nil && cfg.Anki.Mode == AnkiConnect {
		r.service = anki.NewService(log, anki.WithURL(cfg.Anki.ConnectURL))
	}
	return r, nil
}

// Run processes in, which is a single source file or a directory scanned
// for sources. A failing source is reported and skipped; the run fails only
// when no source could be turned into sheets.
func (r *Runner) Run(ctx context.Context, in string) (*Summary, error) {
	r.outDir = r.cfg.OutputDir
	if r.outDir == "" {
		r.outDir = utils.GetDefaultOutputDir(in)
	}
	summary := &Summary{StartTime: time.Now(), OutputDir: r.outputDir()}
	defer func() { summary.EndTime = time.Now() }()

	sources, err := r.sources(ctx, in)
	if err != nil {
		return summary, err
	}
	r.logger.Info("Found %d card sources to process", len(sources))

	if err := os.MkdirAll(summary.OutputDir, 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	if r.cfg.Anki.Mode == AnkiConnect {
		r.logger.Debug("Checking Anki connection...")
		if err := r.service.CheckConnection(ctx); err != nil {
			return summary, fmt.Errorf("anki connection error: %w", err)
		}
		r.logger.Info("Successfully connected to Anki")
	}

	var decks []deckNotes
	for _, src := range sources {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.ProcessedSources++

		result, err := r.processSource(ctx, src)
		if err != nil {
			r.logger.Warn("Error processing %s: %v", src.RelPath, err)
			summary.Failed = append(summary.Failed, SourceFailure{Source: src.RelPath, Err: err})
			continue
		}
		summary.Sheets = append(summary.Sheets, result.sheet)
		summary.TotalCards += result.sheet.Cards
		if len(result.notes) > 0 {
			decks = append(decks, deckNotes{name: r.deckName(src), notes: result.notes})
		}
	}

	if len(summary.Sheets) == 0 {
		return summary, errors.Join(summary.errors()...)
	}

	if err := r.deliver(ctx, decks, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

type deckNotes struct {
	name  string
	notes []anki.Note
}

type sourceResult struct {
	sheet SheetResult
	notes []anki.Note
}

func (r *Runner) sources(ctx context.Context, in string) ([]scanner.Source, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, fmt.Errorf("input does not exist: %w", err)
	}
	if !info.IsDir() {
		if !ingest.Supported(in) {
			return nil, &models.ContentError{Source: in, Err: models.ErrUnsupportedSource}
		}
		return []scanner.Source{{Path: in, RelPath: filepath.Base(in)}}, nil
	}

	r.logger.Info("Scanning directory: %s", in)
	return scanner.New(r.logger).FindSources(ctx, in)
}

func (r *Runner) processSource(ctx context.Context, src scanner.Source) (*sourceResult, error) {
	cards, err := r.loader.Load(src.Path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Found %d cards in %s", len(cards), src.RelPath)

	assetDir := r.cfg.AssetDir
	if assetDir == "" {
		assetDir = ingest.DefaultAssetDir(src.Path)
	}
	resolver := assets.NewResolver(assetDir, r.logger)

	composer := layout.NewComposer(r.fonts, r.cfg.Style(), resolver)
	builder, err := sheet.NewBuilder(r.geom, composer, resolver, r.cfg.SheetOptions(), r.logger)
	if err != nil {
		return nil, err
	}
	pages, report, err := builder.Build(cards)
	if err != nil {
		return nil, err
	}
	report.Print(r.logger)

	base := outputBase(src.RelPath)
	result := SheetResult{Source: src.RelPath, Cards: len(cards), Pages: len(pages), Warnings: len(report.Warnings)}

	switch r.cfg.Output.Format {
	case FormatPNG:
		files, err := r.writePNG(base, pages)
		if err != nil {
			return nil, err
		}
		result.Files = files
	default:
		path := filepath.Join(r.outputDir(), base+".pdf")
		if err := r.writePDF(path, src.RelPath, pages); err != nil {
			return nil, err
		}
		result.Files = []string{path}
		if err := r.inspect(ctx, path, len(cards), &result); err != nil {
			return nil, err
		}
	}

	res := &sourceResult{sheet: result}
	if r.cfg.Anki.Mode != AnkiNone && r.cfg.Anki.Mode != "" {
		notes, skipped := anki.NewNotes(cards, markup.NewRenderer(resolver, r.cfg.PlainText))
		if skipped > 0 {
			r.logger.Info("Skipped %d cards with an empty question in %s", skipped, src.RelPath)
		}
		res.notes = notes
	}
	return res, nil
}

// writePDF renders the whole document in memory so a failure leaves no
// partial file behind.
func (r *Runner) writePDF(path, title string, pages []render.Page) error {
	var buf bytes.Buffer
	emitter := canvaspdf.NewEmitter(&buf, r.fonts, canvaspdf.Info{
		Title:   title,
		Subject: "Flashcards",
		Creator: version.GetVersionInfo(),
	}, r.logger)
	if err := render.Emit(emitter, r.geom.Page, pages); err != nil {
		return fmt.Errorf("failed to render sheets: %w", err)
	}
	if err := emitter.Close(); err != nil {
		return fmt.Errorf("failed to finish PDF: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logger.Info("Wrote %d pages to %s", len(pages), path)
	return nil
}

func (r *Runner) writePNG(base string, pages []render.Page) ([]string, error) {
	emitter, err := raster.NewEmitter(r.outputDir(), base, r.cfg.Output.DPI, r.logger)
	if err != nil {
		return nil, err
	}
	if err := render.Emit(emitter, r.geom.Page, pages); err != nil {
		return nil, fmt.Errorf("failed to render sheets: %w", err)
	}
	r.logger.Info("Wrote %d page images to %s", len(emitter.Files()), r.outputDir())
	return emitter.Files(), nil
}

// inspect reads a written PDF back when verification or previews are asked
// for.
func (r *Runner) inspect(ctx context.Context, path string, cards int, result *SheetResult) error {
	if !r.cfg.Output.Verify && r.cfg.Output.PreviewDir == "" {
		return nil
	}
	inspector := pdf.NewInspector(r.geom, r.logger)

	if r.cfg.Output.Verify {
		ins, err := inspector.Inspect(ctx, path)
		if err != nil {
			return err
		}
		if err := inspector.Verify(ins, cards); err != nil {
			return fmt.Errorf("verification of %s failed: %w", path, err)
		}
		result.Verified = true
		r.logger.Debug("Verified %s: %d pages", path, len(ins.Pages))
	}

	if r.cfg.Output.PreviewDir != "" {
		previewDir := filepath.Join(r.cfg.Output.PreviewDir, utils.BaseName(path))
		previews, err := inspector.Previews(ctx, path, previewDir, r.cfg.Output.DPI)
		if err != nil {
			return err
		}
		splitter, err := pdf.NewSplitter(filepath.Join(previewDir, "cards"), r.geom, sheet.Convention(r.cfg.Duplex.Convention), r.logger)
		if err != nil {
			return err
		}
		images, err := splitter.SplitAll(previews, cards)
		if err != nil {
			return err
		}
		result.Previews = len(previews)
		result.CardImages = len(images)
		r.logger.Info("Wrote %d previews and %d card images to %s", len(previews), len(images), previewDir)
	}
	return nil
}

func (r *Runner) deliver(ctx context.Context, decks []deckNotes, summary *Summary) error {
	if len(decks) == 0 {
		return nil
	}

	switch r.cfg.Anki.Mode {
	case AnkiPackage:
		pkg := anki.NewPackage(r.ids, r.logger)
		for _, d := range decks {
			pkg.AddNotes(d.name, d.notes)
		}
		path := filepath.Join(r.outputDir(), packageName(r.rootDeck())+".apkg")
		if err := pkg.WriteFile(path); err != nil {
			return fmt.Errorf("failed to write deck package: %w", err)
		}
		summary.Package = path
		summary.NotesAdded = pkg.NoteCount()

	case AnkiConnect:
		for _, d := range decks {
			if err := r.service.CreateDeck(ctx, d.name); err != nil {
				r.logger.Warn("Error creating deck %s: %v", d.name, err)
				continue
			}
			added, err := r.service.AddAllNotes(ctx, d.name, d.notes)
			summary.NotesAdded += added
			if err != nil {
				r.logger.Warn("Error adding notes to deck %s: %v", d.name, err)
			}
		}
	}
	return nil
}

func (r *Runner) rootDeck() string {
	if r.cfg.Anki.DeckName != "" {
		return r.cfg.Anki.DeckName
	}
	return DefaultDeckName
}

func (r *Runner) deckName(src scanner.Source) string {
	return anki.GetDeckNameFromPath(r.rootDeck(), src.RelPath)
}

func (r *Runner) outputDir() string {
	return r.outDir
}

// outputBase flattens a relative source path into a file name, so sources
// with the same name in different directories do not collide.
func outputBase(relPath string) string {
	rel := strings.TrimSuffix(filepath.ToSlash(relPath), filepath.Ext(relPath))
	return strings.ReplaceAll(rel, "/", "_")
}

func packageName(deck string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, deck)
	return strings.Trim(name, "_")
}
