package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/models"
)

const (
	DefaultAssetDirName   = "attachments"
	DefaultQuestionColumn = "question"
	DefaultAnswerColumn   = "answer"
)

// Options selects the columns of tabular sources. Column names match case
// insensitively.
type Options struct {
	QuestionColumn string
	AnswerColumn   string
	Sheet          string
}

func (o Options) withDefaults() Options {
	if o.QuestionColumn == "" {
		o.QuestionColumn = DefaultQuestionColumn
	}
	if o.AnswerColumn == "" {
		o.AnswerColumn = DefaultAnswerColumn
	}
	return o
}

// Extensions lists the file types Load understands.
var Extensions = []string{".md", ".markdown", ".csv", ".tsv", ".xlsx"}

func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// DefaultAssetDir is the attachments folder next to a source file.
func DefaultAssetDir(path string) string {
	return filepath.Join(filepath.Dir(path), DefaultAssetDirName)
}

type Loader struct {
	opts   Options
	logger *logger.Logger
}

func NewLoader(opts Options, logger *logger.Logger) *Loader {
	return &Loader{opts: opts.withDefaults(), logger: logger}
}

// Load reads the cards of one source file. Cards are numbered from 1 in
// source order. Any failure is a *models.ContentError.
func (l *Loader) Load(path string) ([]models.Card, error) {
	var (
		cards []models.Card
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			cards = ParseNotes(data)
		}
	case ".csv":
		cards, err = l.loadDelimited(path, ',')
	case ".tsv":
		cards, err = l.loadDelimited(path, '\t')
	case ".xlsx":
		cards, err = l.loadWorkbook(path)
	default:
		err = fmt.Errorf("%w: %s", models.ErrUnsupportedSource, filepath.Ext(path))
	}
	if err != nil {
		return nil, &models.ContentError{Source: path, Err: err}
	}
	if len(cards) == 0 {
		return nil, &models.ContentError{Source: path, Err: models.ErrEmptyInput}
	}

	for i := range cards {
		cards[i].Index = i + 1
		cards[i].Source = path
	}
	l.logger.Debug("Loaded %d cards from %s", len(cards), path)
	return cards, nil
}
