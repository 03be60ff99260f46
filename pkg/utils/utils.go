package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

// Page sizes in points.
var (
	PageA4     = models.PageDimensions{Width: 595.28, Height: 841.89}
	PageLetter = models.PageDimensions{Width: 612, Height: 792}
	PageLegal  = models.PageDimensions{Width: 612, Height: 1008}
)

// LookupPageSize maps a configured size name to its dimensions.
func LookupPageSize(name string) (models.PageDimensions, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a4":
		return PageA4, true
	case "letter":
		return PageLetter, true
	case "legal":
		return PageLegal, true
	}
	return models.PageDimensions{}, false
}

// OutputDirName is the directory sheets and decks are written to when no
// output directory is configured.
const OutputDirName = "flashcards"

// GetDefaultOutputDir returns the flashcards directory next to the input: inside
// it when the input is a directory, beside it when it is a file.
func GetDefaultOutputDir(input string) string {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return filepath.Join(input, OutputDirName)
	}
	return filepath.Join(filepath.Dir(input), OutputDirName)
}

// BaseName returns the file name without directory and extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
