package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a source yields no usable cards.
	ErrEmptyInput = errors.New("no cards found in input")

	// ErrMissingColumn is returned when a tabular source lacks the question
	// or answer column.
	ErrMissingColumn = errors.New("required column missing")

	// ErrUnsupportedSource is returned for files no reader understands.
	ErrUnsupportedSource = errors.New("unsupported source format")

	// ErrAssetNotFound is returned when an image reference resolves to no file.
	ErrAssetNotFound = errors.New("image asset not found")

	// ErrAssetUnreadable is returned when an image exists but cannot be decoded.
	ErrAssetUnreadable = errors.New("image asset unreadable")
)

// ContentError aborts a run before any page is emitted.
type ContentError struct {
	Source string
	Err    error
}

func (e *ContentError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("content error: %v", e.Err)
	}
	return fmt.Sprintf("content error in %s: %v", e.Source, e.Err)
}

func (e *ContentError) Unwrap() error { return e.Err }

// AssetError records an image that could not be used. The element falls
// back to its text and the run continues.
type AssetError struct {
	Card      int
	Reference string
	Err       error
}

func (e *AssetError) Error() string {
	if e.Card > 0 {
		return fmt.Sprintf("card %d: image %q: %v", e.Card, e.Reference, e.Err)
	}
	return fmt.Sprintf("image %q: %v", e.Reference, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }
