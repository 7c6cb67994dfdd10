package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/review"
)

// ListCardsInput contains parameters for the ListCards operation.
type ListCardsInput struct {
	Box     *int   // optional filter
	Subject string // optional filter
	Limit   int    // default: 20, max: 100
	Offset  int    // default: 0
}

// ListCardsOutput contains the result of the ListCards operation.
type ListCardsOutput struct {
	Items      []review.Card `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// ListCards pages through the collection, newest first.
func ListCards(s *review.Scheduler, input ListCardsInput) (*ListCardsOutput, error) {
	if input.Box != nil && (*input.Box < 0 || *input.Box > s.MaxBox()) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("box must be between 0 and %d", s.MaxBox()))
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	subject := strings.TrimSpace(input.Subject)
	var matched []review.Card
	for _, c := range s.Cards() {
		if input.Box != nil && c.Box != *input.Box {
			continue
		}
		if subject != "" && !strings.EqualFold(c.Subject, subject) {
			continue
		}
		matched = append(matched, c)
	}

	total := len(matched)
	items := []review.Card{}
	if offset < total {
		items = matched[offset:min(offset+limit, total)]
	}

	return &ListCardsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "added_desc",
	}, nil
}
