package ops

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

// Sheet columns, in order.
const (
	colSubject = iota
	colTopic
	colFront
	colBack
)

// ImportSheetInput contains parameters for the ImportSheet operation.
type ImportSheetInput struct {
	Path     string // required, .xlsx
	Sheet    string // optional, default: first sheet
	NoHeader bool   // the first row is data, not a header
}

// ImportSheet creates cards from a spreadsheet with the columns subject,
// topic, front, back. Every card starts in box 0, due today. Rows that fail
// are reported and skipped; the rest are imported with a single save.
func ImportSheet(ctx context.Context, s *review.Scheduler, fs FileScope, input ImportSheetInput) (*ImportOutput, error) {
	if err := fs.ValidatePath(input.Path, ExtSheet, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open sheet: %w", err))
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("failed to read workbook: %v", err))
	}
	defer f.Close()

	sheet := input.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("failed to get rows of sheet %q: %v", sheet, err))
	}

	startRow := 1
	if input.NoHeader {
		startRow = 0
	}

	today := s.Today()
	out := &ImportOutput{Errors: []ImportError{}}
	cards := make([]review.Card, 0, len(rows))
	for i, row := range rows {
		if i < startRow || blankRow(row) {
			continue
		}
		rowNum := i + 1

		subject := planner.NormalizeSubject(cell(row, colSubject))
		front, back := cell(row, colFront), cell(row, colBack)
		var missing []string
		if subject == "" {
			missing = append(missing, "subject")
		}
		if front == "" {
			missing = append(missing, "front")
		}
		if back == "" {
			missing = append(missing, "back")
		}
		if len(missing) > 0 {
			out.Skipped++
			out.Errors = append(out.Errors, ImportError{
				Line:    rowNum,
				Code:    ImportInvalidRecord,
				Message: fmt.Sprintf("missing %s", strings.Join(missing, ", ")),
			})
			continue
		}

		c, err := review.NewCard(subject, cell(row, colTopic), front, back, today)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cards = append(cards, c)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("import cancelled: %w", err))
	}
	warning, err := softFail(s.AddCards(ctx, cards))
	if err != nil {
		return nil, err
	}
	out.Imported = len(cards)
	out.Warning = warning
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
