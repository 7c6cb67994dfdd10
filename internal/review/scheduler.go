// Package review implements the Leitner review queue: a list of flashcards,
// each in a box whose interval decides when the card is due again.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/kv"
	"github.com/hpungsan/crackr/internal/validate"
)

// DefaultKey is the store key holding the card collection.
const DefaultKey = "jee_cards"

// DefaultIntervals are the review intervals in days for boxes 0..5.
var DefaultIntervals = []int{0, 1, 3, 7, 15, 30}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIntervals sets the interval table. Its length is the number of boxes.
func WithIntervals(intervals []int) Option {
	return func(s *Scheduler) { s.intervals = slices.Clone(intervals) }
}

// WithKey sets the store key for the card collection.
func WithKey(key string) Option {
	return func(s *Scheduler) { s.key = key }
}

// WithClock sets the clock used by Today.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLocation sets the zone in which Today is decided.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithLogger sets the logger for persistence warnings.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// Scheduler owns the card collection for a session and mirrors every
// mutation to the backing store.
type Scheduler struct {
	mu        sync.Mutex
	cards     []Card // most recent first
	intervals []int
	key       string
	store     kv.Store
	clock     Clock
	loc       *time.Location
	log       *zap.Logger
}

// Stats summarizes the collection on a given day.
type Stats struct {
	Total int   `json:"total"`
	Due   int   `json:"due"`
	Boxes []int `json:"boxes"` // card count per box
}

// Open creates a Scheduler and loads the collection from store.
// A missing key starts an empty collection.
func Open(ctx context.Context, store kv.Store, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		intervals: slices.Clone(DefaultIntervals),
		key:       DefaultKey,
		store:     store,
		clock:     ClockFunc(time.Now),
		loc:       time.Local,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.intervals) == 0 {
		return nil, errors.NewValidation("interval table must not be empty", "intervals")
	}
	for _, iv := range s.intervals {
		if iv < 0 {
			return nil, errors.NewValidation(fmt.Sprintf("interval %d must not be negative", iv), "intervals")
		}
	}
	if s.key == "" {
		return nil, errors.NewValidation("store key must not be empty", "key")
	}

	blob, ok, err := store.Load(ctx, s.key)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("load %s: %w", s.key, err))
	}
	if !ok || len(blob) == 0 {
		return s, nil
	}

	var cards []Card
	if err := json.Unmarshal(blob, &cards); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("decode %s: %w", s.key, err))
	}
	maxBox := s.maxBox()
	seen := make(map[string]bool, len(cards))
	kept := cards[:0]
	for _, c := range cards {
		// The first occurrence is the newest; later copies would never be graded.
		if seen[c.ID] {
			s.log.Warn("dropped stored card with duplicate id", zap.String("card_id", c.ID))
			continue
		}
		seen[c.ID] = true
		if b := clamp(c.Box, 0, maxBox); b != c.Box {
			s.log.Warn("clamped stored box into range",
				zap.String("card_id", c.ID), zap.Int("box", c.Box), zap.Int("clamped", b))
			c.Box = b
		}
		kept = append(kept, c)
	}
	s.cards = kept

	return s, nil
}

// Intervals returns a copy of the interval table.
func (s *Scheduler) Intervals() []int {
	return slices.Clone(s.intervals)
}

// MaxBox returns the highest box index.
func (s *Scheduler) MaxBox() int {
	return s.maxBox()
}

func (s *Scheduler) maxBox() int {
	return len(s.intervals) - 1
}

// Today returns the current calendar day in the scheduler's zone.
func (s *Scheduler) Today() Date {
	return DateOf(s.clock.Now().In(s.loc))
}

// Len returns the number of cards.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// Cards returns a copy of the collection, most recent first.
func (s *Scheduler) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cards)
}

// Card returns the card with the given id.
func (s *Scheduler) Card(id string) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.cards[i], true
	}
	return Card{}, false
}

// DueCards returns every card whose next date is on or before asOf,
// in collection order. It has no side effects.
func (s *Scheduler) DueCards(asOf Date) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]Card, 0, len(s.cards))
	for _, c := range s.cards {
		if c.DueOn(asOf) {
			due = append(due, c)
		}
	}
	return due
}

// Stats counts cards overall, due on asOf, and per box.
func (s *Scheduler) Stats(asOf Date) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.cards), Boxes: make([]int, len(s.intervals))}
	for _, c := range s.cards {
		if c.DueOn(asOf) {
			st.Due++
		}
		st.Boxes[c.Box]++
	}
	return st
}

// Grade moves a card one box up on success or one box down on failure,
// clamped to the table, and sets next to asOf plus the new box's interval.
//
// An unknown id is a no-op and returns (nil, nil); callers that need strict
// semantics check the returned card. On a store failure the updated card is
// returned together with a PERSISTENCE error and the in-memory change stays.
func (s *Scheduler) Grade(ctx context.Context, id string, success bool, asOf Date) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	c := s.cards[i]
	step := -1
	if success {
		step = 1
	}
	c.Box = clamp(c.Box+step, 0, s.maxBox())
	c.Next = asOf.AddDays(s.intervals[c.Box])
	s.cards[i] = c

	return &c, s.persistLocked(ctx)
}

// AddCard validates card and puts it at the front of the collection.
func (s *Scheduler) AddCard(ctx context.Context, card Card) error {
	return s.AddCards(ctx, []Card{card})
}

// AddCards validates every card and, only if all pass, puts them at the front
// of the collection in the given order with a single save.
func (s *Scheduler) AddCards(ctx context.Context, cards []Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		if err := s.validateLocked(c); err != nil {
			return err
		}
		if seen[c.ID] {
			return errors.NewValidation(fmt.Sprintf("duplicate card id %q", c.ID), "id")
		}
		seen[c.ID] = true
	}
	if len(cards) == 0 {
		return nil
	}

	s.cards = slices.Concat(cards, s.cards)
	return s.persistLocked(ctx)
}

// Flush writes the current collection to the store. Use it to retry after a
// PERSISTENCE error.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Scheduler) validateLocked(c Card) error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Box > s.maxBox() {
		return errors.NewValidation(fmt.Sprintf("box %d out of range [0, %d]", c.Box, s.maxBox()), "box")
	}
	if c.Next.IsZero() {
		return errors.NewValidation("next date is required", "next")
	}
	if s.indexOf(c.ID) >= 0 {
		return errors.NewValidation(fmt.Sprintf("duplicate card id %q", c.ID), "id")
	}
	return nil
}

func (s *Scheduler) indexOf(id string) int {
	return slices.IndexFunc(s.cards, func(c Card) bool { return c.ID == id })
}

func (s *Scheduler) persistLocked(ctx context.Context) error {
	cards := s.cards
	if cards == nil {
		cards = []Card{}
	}
	blob, err := json.Marshal(cards)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.store.Save(ctx, s.key, blob); err != nil {
		s.log.Warn("failed to persist cards; in-memory state kept",
			zap.String("key", s.key), zap.Int("cards", len(cards)), zap.Error(err))
		return errors.NewPersistence(s.key, err)
	}
	return nil
}
