package assets

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

type lookup struct {
	path          string
	width, height int
	err           error
}

// Resolver finds image files for references found in card text.
type Resolver struct {
	assetDir string
	logger   *logger.Logger
	cache    map[string]lookup
}

func NewResolver(assetDir string, logger *logger.Logger) *Resolver {
	return &Resolver{
		assetDir: assetDir,
		logger:   logger,
		cache:    make(map[string]lookup),
	}
}

func (r *Resolver) AssetDir() string { return r.assetDir }

// Resolve returns the first existing candidate for ref: ref itself, then
// the asset directory joined with ref's base name, then the asset directory
// joined with ref as written.
func (r *Resolver) Resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	candidates := []string{ref}
	if r.assetDir != "" {
		candidates = append(candidates,
			filepath.Join(r.assetDir, filepath.Base(ref)),
			filepath.Join(r.assetDir, filepath.FromSlash(ref)),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// Lookup resolves ref and reads the image header for its pixel size.
// Failures are *models.AssetError values.
func (r *Resolver) Lookup(ref string) (string, int, int, error) {
	if l, ok := r.cache[ref]; ok {
		return l.path, l.width, l.height, l.err
	}
	l := r.lookup(ref)
	r.cache[ref] = l
	if l.err != nil {
		r.logger.Debug("Image %q not usable: %v", ref, l.err)
	} else {
		r.logger.Trace("Image %q resolved to %s (%dx%d)", ref, l.path, l.width, l.height)
	}
	return l.path, l.width, l.height, l.err
}

func (r *Resolver) lookup(ref string) lookup {
	path, ok := r.Resolve(ref)
	if !ok {
		return lookup{err: &models.AssetError{Reference: ref, Err: models.ErrAssetNotFound}}
	}

	f, err := os.Open(path)
	if err != nil {
		return lookup{err: &models.AssetError{Reference: ref, Err: fmt.Errorf("%w: %v", models.ErrAssetUnreadable, err)}}
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return lookup{err: &models.AssetError{Reference: ref, Err: fmt.Errorf("%w: %v", models.ErrAssetUnreadable, err)}}
	}
	r.logger.Trace("Decoded %s header for %s", format, path)
	return lookup{path: path, width: cfg.Width, height: cfg.Height}
}
