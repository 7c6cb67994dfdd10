package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/review"
	"github.com/hpungsan/crackr/internal/validate"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError  ImportMode = "error"  // fail on any bad line or collision (atomic)
	ImportModeSkip   ImportMode = "skip"   // keep the existing card, skip bad lines
	ImportModeRename ImportMode = "rename" // give colliding cards a fresh id
)

// Import error codes reported per line.
const (
	ImportParseError    = "PARSE_ERROR"
	ImportInvalidRecord = "INVALID_RECORD"
	ImportCollision     = "COLLISION"
	ImportReadError     = "READ_ERROR"
)

// maxDeckLine bounds a single JSONL line.
const maxDeckLine = 1 << 20

// ImportDeckInput contains parameters for the ImportDeck operation.
type ImportDeckInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of an import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
	Warning  string        `json:"warning,omitempty"`
}

// ImportError represents a problem with one line or row of an import file.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type deckLine struct {
	CrackrExport bool `json:"_crackr_export"`
	review.Card
}

type deckRecord struct {
	line int
	card review.Card
}

// ImportDeck loads cards from a JSONL deck written by ExportDeck. Cards keep
// their box and next date.
func ImportDeck(ctx context.Context, s *review.Scheduler, fs FileScope, input ImportDeckInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip && input.Mode != ImportModeRename {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip, rename")
	}
	if err := fs.ValidatePath(input.Path, ExtDeck, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, problems := parseDeck(file)
	problems = append(problems, checkRecords(s, records)...)

	if input.Mode == ImportModeError && len(problems) > 0 {
		return &ImportOutput{Errors: problems}, nil
	}

	bad := make(map[int]bool, len(problems))
	for _, p := range problems {
		bad[p.Line] = true
	}

	out := &ImportOutput{Errors: []ImportError{}}
	cards := make([]review.Card, 0, len(records))
	for _, r := range records {
		if !bad[r.line] {
			cards = append(cards, r.card)
			continue
		}
		if input.Mode == ImportModeRename && isCollision(problems, r.line) {
			id, err := review.NewID()
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			r.card.ID = id
			cards = append(cards, r.card)
			continue
		}
		out.Skipped++
	}
	for _, p := range problems {
		if input.Mode == ImportModeRename && p.Code == ImportCollision {
			continue
		}
		out.Errors = append(out.Errors, p)
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

// parseDeck decodes every line, skipping the header.
func parseDeck(r io.Reader) ([]deckRecord, []ImportError) {
	var records []deckRecord
	var problems []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDeckLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line deckLine
		if err := json.Unmarshal(raw, &line); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    ImportParseError,
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if line.CrackrExport {
			continue
		}
		records = append(records, deckRecord{line: lineNum, card: line.Card})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{
			Line:    lineNum,
			Code:    ImportReadError,
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, problems
}

// checkRecords validates each card and flags ids that already exist in the
// queue or repeat earlier in the file.
func checkRecords(s *review.Scheduler, records []deckRecord) []ImportError {
	var problems []ImportError
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		c := r.card
		if err := validate.Struct(c); err != nil {
			problems = append(problems, invalidRecord(r, err.Error()))
			continue
		}
		if c.Box > s.MaxBox() {
			problems = append(problems, invalidRecord(r, fmt.Sprintf("box %d out of range [0, %d]", c.Box, s.MaxBox())))
			continue
		}
		if c.Next.IsZero() {
			problems = append(problems, invalidRecord(r, "next date is required"))
			continue
		}
		if _, exists := s.Card(c.ID); exists || seen[c.ID] {
			problems = append(problems, ImportError{
				Line:    r.line,
				ID:      c.ID,
				Code:    ImportCollision,
				Message: fmt.Sprintf("card %s already exists", c.ID),
			})
		}
		seen[c.ID] = true
	}
	return problems
}

func invalidRecord(r deckRecord, msg string) ImportError {
	return ImportError{Line: r.line, ID: r.card.ID, Code: ImportInvalidRecord, Message: msg}
}

func isCollision(problems []ImportError, line int) bool {
	for _, p := range problems {
		if p.Line == line && p.Code == ImportCollision {
			return true
		}
	}
	return false
}
