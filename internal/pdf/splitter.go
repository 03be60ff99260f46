package pdf

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
	"github.com/kpauljoseph/flashsheet/pkg/utils"
)

// CardImage is one card cell cut out of a page preview.
type CardImage struct {
	Card int
	Kind models.FaceKind
	Path string
	Hash string
}

// Splitter cuts page previews into per-card images using the sheet geometry.
// Answer pages are mapped back through the duplex permutation, so both
// crops of a card carry the same card number.
type Splitter struct {
	outputDir string
	geom      sheet.Geometry
	perm      func(int) int
	logger    *logger.Logger
}

func NewSplitter(outputDir string, geom sheet.Geometry, convention sheet.Convention, logger *logger.Logger) (*Splitter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Splitter{
		outputDir: outputDir,
		geom:      geom,
		perm:      sheet.Permutation(geom, convention),
		logger:    logger,
	}, nil
}

// SplitPreview crops the occupied cells of one page. cards is the total
// number of cards in the document.
func (s *Splitter) SplitPreview(p Preview, cards int) ([]CardImage, error) {
	s.logger.Debug("Splitting preview: %s", p.Path)

	srcFile, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer srcFile.Close()

	src, err := png.Decode(srcFile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	scale := float64(src.Bounds().Dx()) / s.geom.Page.Width
	base := utils.BaseName(p.Path)

	var out []CardImage
	for slot := 0; slot < s.geom.Slots(); slot++ {
		card := p.Batch*s.geom.Slots() + slot + 1
		if p.Kind == models.FaceAnswer {
			card = p.Batch*s.geom.Slots() + s.perm(slot) + 1
		}
		if card > cards {
			continue
		}

		crop := s.pixelRect(s.geom.CellBox(slot), scale).Add(src.Bounds().Min).Intersect(src.Bounds())
		if crop.Empty() {
			continue
		}
		cell := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
		draw.Draw(cell, cell.Bounds(), src, crop.Min, draw.Src)

		path := filepath.Join(s.outputDir, fmt.Sprintf("%s_card%03d_%s.png", base, card, p.Kind))
		if err := saveImage(cell, path); err != nil {
			return nil, fmt.Errorf("failed to save card %d: %w", card, err)
		}
		hash, err := utils.GenerateImageHash(cell)
		if err != nil {
			return nil, fmt.Errorf("failed to hash card %d: %w", card, err)
		}

		s.logger.Trace("Created %s image for card %d: %s", p.Kind, card, path)
		out = append(out, CardImage{Card: card, Kind: p.Kind, Path: path, Hash: hash})
	}
	return out, nil
}

func (s *Splitter) SplitAll(previews []Preview, cards int) ([]CardImage, error) {
	var all []CardImage
	for _, p := range previews {
		images, err := s.SplitPreview(p, cards)
		if err != nil {
			return nil, err
		}
		all = append(all, images...)
	}
	return all, nil
}

// pixelRect converts a box in page points to image pixels, flipping y.
func (s *Splitter) pixelRect(box models.Box, scale float64) image.Rectangle {
	x0 := int(box.X*scale + 0.5)
	x1 := int((box.X+box.Width)*scale + 0.5)
	y0 := int((s.geom.Page.Height-box.Top())*scale + 0.5)
	y1 := int((s.geom.Page.Height-box.Y)*scale + 0.5)
	return image.Rect(x0, y0, x1, y1)
}
