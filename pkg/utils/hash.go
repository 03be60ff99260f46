package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"strings"
)

func GenerateImageHash(img image.Image) (string, error) {
	hasher := sha256.New()
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			fmt.Fprintf(hasher, "%d%d%d%d", r, g, b, a)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// GenerateCardHash identifies a card by its content, so re-running over
// the same notes does not add duplicate notes to a deck.
func GenerateCardHash(front, back string) string {
	hasher := sha256.New()
	hasher.Write([]byte(strings.TrimSpace(front)))
	hasher.Write([]byte{0})
	hasher.Write([]byte(strings.TrimSpace(back)))
	return hex.EncodeToString(hasher.Sum(nil))
}
