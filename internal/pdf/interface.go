package pdf

import (
	"context"
)

// SheetInspector reads a generated sheet PDF back for verification.
type SheetInspector interface {
	Inspect(ctx context.Context, pdfPath string) (*Inspection, error)
	Verify(ins *Inspection, cards int) error
}
