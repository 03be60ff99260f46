package models

import (
	"fmt"
	"strings"
)

type FaceKind int

const (
	FaceQuestion FaceKind = iota
	FaceAnswer
)

func (k FaceKind) String() string {
	if k == FaceQuestion {
		return "question"
	}
	return "answer"
}

// Card is one question/answer pair. Index is 1-based, assigned once at
// ingestion and never changed afterwards.
type Card struct {
	Index  int    `json:"index"`
	Front  string `json:"front"`
	Back   string `json:"back"`
	Source string `json:"source,omitempty"`
}

// QuestionText returns the front face with the index appended as its
// trailing caption line.
func (c Card) QuestionText() string {
	return fmt.Sprintf("%s\n%d", strings.TrimRight(c.Front, "\n"), c.Index)
}

// SortKey is the zero-padded index used to keep deck order stable.
func (c Card) SortKey() string {
	return fmt.Sprintf("%04d", c.Index)
}

// Box is a rectangle in page coordinates (points, origin bottom-left, y up).
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Box) CenterX() float64 { return b.X + b.Width/2 }
func (b Box) CenterY() float64 { return b.Y + b.Height/2 }
func (b Box) Top() float64     { return b.Y + b.Height }

// Inset shrinks the box by dx on the left/right and dy on the top/bottom.
func (b Box) Inset(dx, dy float64) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, Width: b.Width - 2*dx, Height: b.Height - 2*dy}
}

type PageDimensions struct {
	Width  float64
	Height float64
}

// Landscape returns the dimensions with the longer side as width.
func (d PageDimensions) Landscape() PageDimensions {
	if d.Width >= d.Height {
		return d
	}
	return PageDimensions{Width: d.Height, Height: d.Width}
}

func (d PageDimensions) Portrait() PageDimensions {
	if d.Height >= d.Width {
		return d
	}
	return PageDimensions{Width: d.Height, Height: d.Width}
}
