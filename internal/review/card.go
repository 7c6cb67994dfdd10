package review

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Card is a flashcard in the review queue.
// Box indexes the interval table; Next is the first day the card is due again.
type Card struct {
	ID      string `json:"id" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Topic   string `json:"topic"`
	Front   string `json:"front" validate:"required"`
	Back    string `json:"back" validate:"required"`
	Box     int    `json:"box" validate:"min=0"`
	Next    Date   `json:"next"`
}

// DueOn reports whether the card is due on or before asOf.
func (c Card) DueOn(asOf Date) bool {
	return !c.Next.After(asOf)
}

// NewID generates a new card identifier.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewCard builds a card in box 0, due on today, with a fresh ID.
func NewCard(subject, topic, front, back string, today Date) (Card, error) {
	id, err := NewID()
	if err != nil {
		return Card{}, err
	}
	return Card{
		ID:      id,
		Subject: subject,
		Topic:   topic,
		Front:   front,
		Back:    back,
		Box:     0,
		Next:    today,
	}, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
