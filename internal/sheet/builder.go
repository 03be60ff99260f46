package sheet

import (
	"errors"
	"fmt"

	"github.com/kpauljoseph/flashsheet/internal/flow"
	"github.com/kpauljoseph/flashsheet/internal/layout"
	"github.com/kpauljoseph/flashsheet/internal/render"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const (
	borderWidth   = 0.5
	ruleWidth     = 0.3
	imageOnlyFill = 0.85
)

type Options struct {
	Convention  Convention
	PlainText   bool
	CaptionSize float64
}

// Builder turns cards into page command lists: a question page followed by
// its answer page for every batch.
type Builder struct {
	geom     Geometry
	composer *layout.Composer
	images   layout.ImageSource
	opts     Options
	perm     func(int) int
	logger   *logger.Logger
}

func NewBuilder(geom Geometry, composer *layout.Composer, images layout.ImageSource, opts Options, logger *logger.Logger) (*Builder, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	if opts.Convention == "" {
		opts.Convention = MirrorColumns
	}
	if opts.CaptionSize == 0 {
		opts.CaptionSize = 9
	}
	return &Builder{
		geom:     geom,
		composer: composer,
		images:   images,
		opts:     opts,
		perm:     Permutation(geom, opts.Convention),
		logger:   logger,
	}, nil
}

func (b *Builder) Geometry() Geometry { return b.geom }

// Build lays out every card. Pages come back in print order: Q1, A1, Q2, A2.
func (b *Builder) Build(cards []models.Card) ([]render.Page, *Report, error) {
	if len(cards) == 0 {
		return nil, nil, &models.ContentError{Err: models.ErrEmptyInput}
	}

	report := &Report{Cards: len(cards), Convention: b.opts.Convention}
	slots := b.geom.Slots()
	var pages []render.Page

	for n, batch := range Paginate(cards, slots) {
		b.logger.Debug("Laying out batch %d (%d cards)", n+1, len(batch))

		question := render.Page{Kind: models.FaceQuestion, Batch: n}
		for i := range batch {
			b.drawCard(&question, batch[i], b.geom.CellBox(i), models.FaceQuestion, report)
		}

		// The answer side always spans the full grid so the permutation
		// sees every slot. Missing cards stay nil and draw nothing.
		answers := make([]*models.Card, slots)
		for i := range batch {
			answers[i] = &batch[i]
		}
		answer := render.Page{Kind: models.FaceAnswer, Batch: n}
		for slot, card := range Remap(answers, b.perm) {
			if card == nil {
				continue
			}
			b.drawCard(&answer, *card, b.geom.CellBox(slot), models.FaceAnswer, report)
		}

		pages = append(pages, question, answer)
		report.Batches++
	}
	report.Pages = len(pages)
	return pages, report, nil
}

func (b *Builder) drawCard(page *render.Page, card models.Card, box models.Box, kind models.FaceKind, report *Report) {
	page.Add(render.Rect{Box: box, Stroke: true, StrokeGray: render.LightGrey, LineWidth: borderWidth})

	text := card.Back
	if kind == models.FaceQuestion {
		text = card.QuestionText()
	}
	face := flow.Tokenize(text, flow.Options{Question: kind == models.FaceQuestion, PlainText: b.opts.PlainText})

	if img, ok := face.SingleImage(); !ok || !b.drawImageOnly(page, img, box, kind) {
		comp := b.composer.Compose(face, b.geom.ContentFrame(box, kind), kind)
		page.Add(comp.Commands...)
		report.record(card.Index, kind, comp)
	}

	if kind == models.FaceQuestion {
		b.drawCaption(page, face.Caption, box)
	}
}

// drawImageOnly fills most of the card with the face's only image. It
// reports false when that image cannot be used, so the face is composed
// normally and the reference shows as text.
func (b *Builder) drawImageOnly(page *render.Page, img *flow.Image, box models.Box, kind models.FaceKind) bool {
	if b.images == nil {
		return false
	}
	path, pw, ph, err := b.images.Lookup(img.Target)
	if err != nil {
		return false
	}

	area := box
	if kind == models.FaceQuestion {
		area.Y += b.geom.CaptionStrip
		area.Height -= b.geom.CaptionStrip
	}
	w, h := layout.FitImage(float64(pw), float64(ph), area.Width*imageOnlyFill, area.Height*imageOnlyFill)
	if w == 0 || h == 0 {
		return false
	}
	page.Add(render.Image{
		Path: path,
		Alt:  img.Ref,
		Box:  models.Box{X: area.CenterX() - w/2, Y: area.CenterY() - h/2, Width: w, Height: h},
	})
	return true
}

func (b *Builder) drawCaption(page *render.Page, caption string, box models.Box) {
	if caption == "" {
		return
	}
	// Rule between the question and its caption strip.
	top := box.Y + b.geom.CaptionStrip
	page.Add(render.Line{
		X1:        box.X + b.geom.PaddingX,
		Y1:        top,
		X2:        box.X + box.Width - b.geom.PaddingX,
		Y2:        top,
		Gray:      render.LightGrey,
		LineWidth: ruleWidth,
	})

	text := "ID: " + caption
	size := b.opts.CaptionSize
	width := b.composer.Measurer().Width(text, render.FontRegular, size)
	page.Add(render.TextRun{
		X:    box.CenterX() - width/2,
		Y:    b.geom.CaptionBaseline(box),
		Text: text,
		Font: render.FontRegular,
		Size: size,
		Gray: render.Grey,
	})
}

// Overflow is a face that was still too tall at the shrink floor.
type Overflow struct {
	Card  int
	Kind  models.FaceKind
	Scale float64
}

// Report summarises a build.
type Report struct {
	Cards      int
	Batches    int
	Pages      int
	Shrunk     int
	Convention Convention
	Overflows  []Overflow
	Warnings   []error
}

func (r *Report) record(card int, kind models.FaceKind, comp layout.Composition) {
	if comp.Scale < 1 {
		r.Shrunk++
	}
	if comp.Overflow {
		r.Overflows = append(r.Overflows, Overflow{Card: card, Kind: kind, Scale: comp.Scale})
	}
	for _, err := range comp.ImageErrors {
		var assetErr *models.AssetError
		if errors.As(err, &assetErr) {
			tagged := *assetErr
			tagged.Card = card
			r.Warnings = append(r.Warnings, &tagged)
			continue
		}
		r.Warnings = append(r.Warnings, fmt.Errorf("card %d: %w", card, err))
	}
}

func (r *Report) Print(log *logger.Logger) {
	log.Info("Built %d pages from %d cards (%d sheets, duplex %s)", r.Pages, r.Cards, r.Batches, r.Convention)
	if r.Shrunk > 0 {
		log.Debug("%d faces were scaled down to fit their card", r.Shrunk)
	}
	if len(r.Overflows) > 0 {
		log.Info("%d faces are crowded at the minimum scale", len(r.Overflows))
		for _, o := range r.Overflows {
			log.Debug("  card %d %s at scale %.2f", o.Card, o.Kind, o.Scale)
		}
	}
	if len(r.Warnings) > 0 {
		log.Warn("%d images could not be used and were printed as text", len(r.Warnings))
		for _, w := range r.Warnings {
			log.Warn("  %v", w)
		}
	}
}
