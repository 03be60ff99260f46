package pipeline

import (
	"fmt"
	"time"

	"github.com/kpauljoseph/flashsheet/pkg/logger"
)

// SheetResult describes the output of one source file.
type SheetResult struct {
	Source     string
	Cards      int
	Pages      int
	Warnings   int
	Files      []string
	Verified   bool
	Previews   int
	CardImages int
}

type SourceFailure struct {
	Source string
	Err    error
}

// Summary is the outcome of a run.
type Summary struct {
	StartTime        time.Time
	EndTime          time.Time
	OutputDir        string
	ProcessedSources int
	TotalCards       int
	Sheets           []SheetResult
	Failed           []SourceFailure
	Package          string
	NotesAdded       int
}

func (s *Summary) errors() []error {
	errs := make([]error, 0, len(s.Failed))
	for _, f := range s.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Source, f.Err))
	}
	return errs
}

func (s *Summary) Print(log *logger.Logger) {
	log.Info("Processing complete:")
	log.Info("- Total sources processed: %d", s.ProcessedSources)
	log.Info("- Total cards laid out: %d", s.TotalCards)
	log.Info("- Sheets saved to: %s", s.OutputDir)
	if s.Package != "" {
		log.Info("- Deck package: %s (%d notes)", s.Package, s.NotesAdded)
	} else if s.NotesAdded > 0 {
		log.Info("- Notes added to Anki: %d", s.NotesAdded)
	}
	if len(s.Failed) > 0 {
		log.Warn("- Failed sources: %d", len(s.Failed))
		for _, f := range s.Failed {
			log.Warn("  %s: %v", f.Source, f.Err)
		}
	}
	if !s.EndTime.IsZero() {
		log.Info("- Time taken: %v", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
	}
}
