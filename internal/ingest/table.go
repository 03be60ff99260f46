package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kpauljoseph/flashsheet/pkg/models"
)

func (l *Loader) loadDelimited(path string, comma rune) ([]models.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}
	return l.cardsFromRows(rows)
}

func (l *Loader) loadWorkbook(path string) ([]models.Card, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, models.ErrEmptyInput
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	l.logger.Debug("Read %d rows from sheet %q", len(rows), sheet)
	return l.cardsFromRows(rows)
}

// cardsFromRows treats the first row as the header. Rows with neither a
// question nor an answer are skipped.
func (l *Loader) cardsFromRows(rows [][]string) ([]models.Card, error) {
	if len(rows) == 0 {
		return nil, models.ErrEmptyInput
	}

	q, a := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case strings.ToLower(l.opts.QuestionColumn):
			if q < 0 {
				q = i
			}
		case strings.ToLower(l.opts.AnswerColumn):
			if a < 0 {
				a = i
			}
		}
	}
	if q < 0 {
		return nil, fmt.Errorf("%w: %q", models.ErrMissingColumn, l.opts.QuestionColumn)
	}
	if a < 0 {
		return nil, fmt.Errorf("%w: %q", models.ErrMissingColumn, l.opts.AnswerColumn)
	}

	var cards []models.Card
	for _, row := range rows[1:] {
		card := models.Card{Front: strings.TrimSpace(cell(row, q)), Back: strings.TrimSpace(cell(row, a))}
		if card.Front == "" && card.Back == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// cell tolerates short rows; spreadsheets drop trailing empty cells.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
