package render

import (
	"errors"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

var errNoPage = errors.New("draw call outside of a page")

// RecordedPage is what a Recorder captured between BeginPage and EndPage.
type RecordedPage struct {
	Size     models.PageDimensions
	Commands []Command
	Ended    bool
}

// Recorder is an Emitter that keeps every call in memory.
type Recorder struct {
	Pages []RecordedPage
	open  bool
}

func (r *Recorder) BeginPage(size models.PageDimensions) error {
	if r.open {
		return errors.New("page already open")
	}
	r.Pages = append(r.Pages, RecordedPage{Size: size})
	r.open = true
	return nil
}

func (r *Recorder) add(cmd Command) error {
	if !r.open {
		return errNoPage
	}
	p := &r.Pages[len(r.Pages)-1]
	p.Commands = append(p.Commands, cmd)
	return nil
}

func (r *Recorder) DrawRect(rect Rect) error  { return r.add(rect) }
func (r *Recorder) DrawLine(l Line) error     { return r.add(l) }
func (r *Recorder) DrawText(t TextRun) error  { return r.add(t) }
func (r *Recorder) DrawImage(img Image) error { return r.add(img) }

func (r *Recorder) EndPage() error {
	if !r.open {
		return errNoPage
	}
	r.Pages[len(r.Pages)-1].Ended = true
	r.open = false
	return nil
}

// Texts returns the text runs of page i in draw order.
func (p RecordedPage) Texts() []TextRun {
	var out []TextRun
	for _, c := range p.Commands {
		if t, ok := c.(TextRun); ok {
			out = append(out, t)
		}
	}
	return out
}
