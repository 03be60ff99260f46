package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
	"github.com/kpauljoseph/flashsheet/pkg/utils"
)

const DimensionTolerance = 1.0

var captionPattern = regexp.MustCompile(`ID:\s*(\d+)`)

// PageInfo is what was read back from one page. Pages alternate question and
// answer, starting with a question page.
type PageInfo struct {
	Number   int
	Batch    int
	Kind     models.FaceKind
	Size     models.PageDimensions
	Captions []int
}

type Inspection struct {
	Path  string
	Pages []PageInfo
}

// Preview is a rendered page image.
type Preview struct {
	Page  int
	Batch int
	Kind  models.FaceKind
	Path  string
}

type Inspector struct {
	geom   sheet.Geometry
	logger *logger.Logger
}

var _ SheetInspector = (*Inspector)(nil)

func NewInspector(geom sheet.Geometry, logger *logger.Logger) *Inspector {
	return &Inspector{geom: geom, logger: logger}
}

// Inspect validates the file with pdfcpu, takes page sizes from it and reads
// the caption of every card with MuPDF's text extraction.
func (i *Inspector) Inspect(ctx context.Context, pdfPath string) (*Inspection, error) {
	i.logger.Debug("Inspecting PDF: %s", pdfPath)

	if err := api.ValidateFile(pdfPath, nil); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dimensions: %w", err)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() != len(dims) {
		return nil, fmt.Errorf("page count mismatch: pdfcpu reports %d, mupdf %d", len(dims), doc.NumPage())
	}

	ins := &Inspection{Path: pdfPath}
	//Page numbers are zero indexed in the fitz package.
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", pageNum+1, err)
		}

		page := PageInfo{
			Number:   pageNum + 1,
			Batch:    pageNum / 2,
			Kind:     kindOf(pageNum),
			Size:     models.PageDimensions{Width: dims[pageNum].Width, Height: dims[pageNum].Height},
			Captions: ExtractCaptions(text),
		}
		i.logger.Trace("Page %d (%s): %.2f x %.2f, captions %v", page.Number, page.Kind, page.Size.Width, page.Size.Height, page.Captions)
		ins.Pages = append(ins.Pages, page)
	}
	return ins, nil
}

// Verify checks an inspection against the layout that should have produced
// it: page count, page size, and the card captions of every question page.
func (i *Inspector) Verify(ins *Inspection, cards int) error {
	slots := i.geom.Slots()
	batches := (cards + slots - 1) / slots

	var errs []error
	if len(ins.Pages) != 2*batches {
		errs = append(errs, fmt.Errorf("expected %d pages for %d cards, found %d", 2*batches, cards, len(ins.Pages)))
	}

	for _, page := range ins.Pages {
		if !MatchesDimensions(page.Size, i.geom.Page) {
			errs = append(errs, fmt.Errorf("page %d is %.2f x %.2f, expected %.2f x %.2f",
				page.Number, page.Size.Width, page.Size.Height, i.geom.Page.Width, i.geom.Page.Height))
		}

		var want []int
		if page.Kind == models.FaceQuestion {
			for n := page.Batch*slots + 1; n <= min(cards, (page.Batch+1)*slots); n++ {
				want = append(want, n)
			}
		}
		if !slices.Equal(page.Captions, want) {
			errs = append(errs, fmt.Errorf("page %d shows captions %v, expected %v", page.Number, page.Captions, want))
		}
	}
	return errors.Join(errs...)
}

// Previews renders every page to a PNG in outDir.
func (i *Inspector) Previews(ctx context.Context, pdfPath, outDir string, dpi float64) ([]Preview, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	base := utils.BaseName(pdfPath)
	var previews []Preview
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", pageNum+1, err)
		}

		kind := kindOf(pageNum)
		path := filepath.Join(outDir, fmt.Sprintf("%s_page%02d_%s.png", base, pageNum+1, kind))
		if err := saveImage(img, path); err != nil {
			return nil, fmt.Errorf("failed to save preview of page %d: %w", pageNum+1, err)
		}
		i.logger.Debug("Saved preview: %s", path)
		previews = append(previews, Preview{Page: pageNum + 1, Batch: pageNum / 2, Kind: kind, Path: path})
	}
	return previews, nil
}

// PageHashes renders every page and hashes the pixels, so two builds of
// the same cards can be compared page by page.
func (i *Inspector) PageHashes(ctx context.Context, pdfPath string, dpi float64) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	hashes := make([]string, 0, doc.NumPage())
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(pageNum, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", pageNum+1, err)
		}
		hash, err := utils.GenerateImageHash(img)
		if err != nil {
			return nil, fmt.Errorf("failed to hash page %d: %w", pageNum+1, err)
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

func kindOf(pageNum int) models.FaceKind {
	if pageNum%2 == 0 {
		return models.FaceQuestion
	}
	return models.FaceAnswer
}

// ExtractCaptions returns the card numbers of the "ID: n" captions in text,
// in ascending order.
func ExtractCaptions(text string) []int {
	var ids []int
	for _, m := range captionPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			ids = append(ids, n)
		}
	}
	slices.Sort(ids)
	return ids
}

func MatchesDimensions(got, want models.PageDimensions) bool {
	return abs(got.Width-want.Width) <= DimensionTolerance && abs(got.Height-want.Height) <= DimensionTolerance
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func saveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
