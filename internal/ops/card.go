package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/review"
)

// AddCardInput contains parameters for the AddCard operation.
type AddCardInput struct {
	Subject string // required
	Topic   string
	Front   string // required
	Back    string // required
}

// AddCardOutput contains the result of the AddCard operation.
type AddCardOutput struct {
	Card    review.Card `json:"card"`
	Warning string      `json:"warning,omitempty"`
}

// AddCard creates a card in box 0, due today, at the front of the queue.
func AddCard(ctx context.Context, s *review.Scheduler, input AddCardInput) (*AddCardOutput, error) {
	c, err := review.NewCard(
		strings.TrimSpace(input.Subject),
		strings.TrimSpace(input.Topic),
		strings.TrimSpace(input.Front),
		strings.TrimSpace(input.Back),
		s.Today(),
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	warning, err := softFail(s.AddCard(ctx, c))
	if err != nil {
		return nil, err
	}
	return &AddCardOutput{Card: c, Warning: warning}, nil
}

// DueInput contains parameters for the Due operation.
type DueInput struct {
	AsOf  string // optional YYYY-MM-DD, default today
	Limit int    // optional, 0 means all
}

// DueOutput contains the result of the Due operation.
type DueOutput struct {
	AsOf  review.Date   `json:"as_of"`
	Items []review.Card `json:"items"`
	Total int           `json:"total"`
}

// Due lists the cards due on or before the given day, newest first.
func Due(s *review.Scheduler, input DueInput) (*DueOutput, error) {
	asOf, err := resolveDate(input.AsOf, s.Today())
	if err != nil {
		return nil, err
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must not be negative")
	}

	due := s.DueCards(asOf)
	items := due
	if input.Limit > 0 && len(items) > input.Limit {
		items = items[:input.Limit]
	}
	return &DueOutput{AsOf: asOf, Items: items, Total: len(due)}, nil
}

// GradeInput contains parameters for the Grade operation.
type GradeInput struct {
	ID      string // required
	Success bool
	AsOf    string // optional YYYY-MM-DD, default today
}

// GradeOutput contains the result of the Grade operation.
type GradeOutput struct {
	Card        review.Card `json:"card"`
	PreviousBox int         `json:"previous_box"`
	Warning     string      `json:"warning,omitempty"`
}

// Grade records a review outcome. Unlike the scheduler, an unknown id is a
// NOT_FOUND error here.
func Grade(ctx context.Context, s *review.Scheduler, input GradeInput) (*GradeOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	asOf, err := resolveDate(input.AsOf, s.Today())
	if err != nil {
		return nil, err
	}

	before, ok := s.Card(id)
	if !ok {
		return nil, errors.NewNotFound("card", id)
	}

	graded, gradeErr := s.Grade(ctx, id, input.Success, asOf)
	if graded == nil && gradeErr == nil {
		return nil, errors.NewNotFound("card", id)
	}
	warning, err := softFail(gradeErr)
	if err != nil {
		return nil, err
	}
	return &GradeOutput{Card: *graded, PreviousBox: before.Box, Warning: warning}, nil
}

// FetchCardInput contains parameters for the FetchCard operation.
type FetchCardInput struct {
	ID string // required
}

// FetchCardOutput contains the result of the FetchCard operation.
type FetchCardOutput struct {
	Card     review.Card `json:"card"`
	Due      bool        `json:"due"`
	DueIn    int         `json:"due_in_days"` // negative when overdue
	Interval int         `json:"interval_days"`
}

// FetchCard returns one card and whether it is due today.
func FetchCard(s *review.Scheduler, input FetchCardInput) (*FetchCardOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	c, ok := s.Card(id)
	if !ok {
		return nil, errors.NewNotFound("card", id)
	}
	today := s.Today()
	return &FetchCardOutput{
		Card:     c,
		Due:      c.DueOn(today),
		DueIn:    today.DaysUntil(c.Next),
		Interval: s.Intervals()[c.Box],
	}, nil
}
