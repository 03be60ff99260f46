package anki

import (
	"path/filepath"
	"strings"
)

const (
	ANKI_CONNECT_VERSION = 6
)

// GetDeckNameFromPath names the sub-deck of a source file: the root deck,
// then each directory of the relative path, then the file name without its
// extension, joined with Anki's "::" separator.
func GetDeckNameFromPath(rootPrefix string, relativePath string) string {
	dirPath := filepath.Dir(relativePath)
	if dirPath == "." {
		dirPath = ""
	}

	fileName := strings.TrimSuffix(filepath.Base(relativePath), filepath.Ext(relativePath))

	var parts []string
	if rootPrefix != "" {
		parts = append(parts, rootPrefix)
	}
	if dirPath != "" {
		parts = append(parts, strings.Split(filepath.ToSlash(dirPath), "/")...)
	}
	parts = append(parts, fileName)

	return strings.Join(parts, "::")
}

// TagForDeck turns a deck name into a single Anki tag.
func TagForDeck(deckName string) string {
	tag := strings.ReplaceAll(strings.TrimSpace(deckName), " ", "_")
	return strings.ReplaceAll(tag, "::", "_")
}
