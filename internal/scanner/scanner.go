package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kpauljoseph/flashsheet/internal/ingest"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
)

// Source is a card file found under a scanned directory.
type Source struct {
	Path    string
	RelPath string
}

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{logger: logger}
}

// FindSources walks dir for files ingest can read, sorted by relative path.
// Hidden directories and attachment folders are not descended into.
func (s *DirectoryScanner) FindSources(ctx context.Context, dir string) ([]Source, error) {
	var sources []Source

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if d.IsDir() {
			if path != dir && skipDir(d.Name()) {
				s.logger.Debug("Skipping directory: %s", path)
				return filepath.SkipDir
			}
			s.logger.Debug("Scanning directory: %s", path)
			return nil
		}

		if !ingest.Supported(path) {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			relPath = filepath.Base(path)
		}
		s.logger.Debug("Found source (%d): %s", len(sources)+1, relPath)
		sources = append(sources, Source{Path: path, RelPath: relPath})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no card sources (%s) found in %s or its subdirectories",
			strings.Join(ingest.Extensions, ", "), dir)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelPath < sources[j].RelPath })
	return sources, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == ingest.DefaultAssetDirName
}
