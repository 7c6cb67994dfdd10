// Package planner keeps the daily study plan, the per-day completion history
// and the list of short-term goals.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/kv"
	"github.com/hpungsan/crackr/internal/review"
)

// Store keys.
const (
	TasksKey   = "jee_tasks"
	HistoryKey = "jee_history"
	GoalsKey   = "jee_goals"
)

// Plan sizing.
const (
	TopicsPerSubject = 2
	DefaultPlanSize  = 6
	MinPlanSize      = 3
	MaxPlanSize      = 12
	DefaultHistory   = 30
)

// Task is one topic to study on a given day.
type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Subject     string      `json:"subject"`
	SubjectName string      `json:"subjectName"`
	Topic       string      `json:"topic"`
	Done        bool        `json:"done"`
	Date        review.Date `json:"date"`
}

// Day records how many tasks were completed on a date.
type Day struct {
	Date  review.Date `json:"date"`
	Tasks int         `json:"tasks"`
}

// Goal is a free-text short-term goal.
type Goal struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Option configures a Planner.
type Option func(*Planner)

// WithRand sets the source used to pick plan topics.
func WithRand(r *rand.Rand) Option {
	return func(p *Planner) { p.rng = r }
}

// WithClock sets the clock used to decide today's history entry.
func WithClock(c review.Clock) Option {
	return func(p *Planner) { p.clock = c }
}

// WithLocation sets the zone in which today is decided.
func WithLocation(loc *time.Location) Option {
	return func(p *Planner) { p.loc = loc }
}

// WithLogger sets the logger for persistence warnings.
func WithLogger(log *zap.Logger) Option {
	return func(p *Planner) { p.log = log }
}

// Planner owns tasks, history and goals for a session.
type Planner struct {
	mu      sync.Mutex
	store   kv.Store
	rng     *rand.Rand
	clock   review.Clock
	loc     *time.Location
	log     *zap.Logger
	tasks   []Task
	history []Day
	goals   []Goal // most recent first
}

// Open creates a Planner and loads its three collections from store.
func Open(ctx context.Context, store kv.Store, opts ...Option) (*Planner, error) {
	p := &Planner{
		store: store,
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		clock: review.ClockFunc(time.Now),
		loc:   time.Local,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := load(ctx, store, TasksKey, &p.tasks); err != nil {
		return nil, err
	}
	if err := load(ctx, store, HistoryKey, &p.history); err != nil {
		return nil, err
	}
	if err := load(ctx, store, GoalsKey, &p.goals); err != nil {
		return nil, err
	}
	// History is kept oldest first; History(n) slices from the end.
	slices.SortStableFunc(p.history, func(a, b Day) int { return a.Date.Compare(b.Date) })
	return p, nil
}

func load(ctx context.Context, store kv.Store, key string, v any) error {
	blob, ok, err := store.Load(ctx, key)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("load %s: %w", key, err))
	}
	if !ok || len(blob) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return errors.NewInternal(fmt.Errorf("decode %s: %w", key, err))
	}
	return nil
}

// Today returns the current calendar day in the planner's zone.
func (p *Planner) Today() review.Date {
	return review.DateOf(p.clock.Now().In(p.loc))
}

// EnsurePlan generates the plan for date unless one already exists:
// two distinct random topics per subject. created reports whether tasks were added.
func (p *Planner) EnsurePlan(ctx context.Context, date review.Date) (tasks []Task, created bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.ContainsFunc(p.tasks, func(t Task) bool { return t.Date.Equal(date) }) {
		return p.tasksForLocked(date, MaxPlanSize), false, nil
	}

	picks := make([]Task, 0, len(Subjects)*TopicsPerSubject)
	for _, s := range Subjects {
		for _, i := range p.rng.Perm(len(s.Topics))[:min(TopicsPerSubject, len(s.Topics))] {
			id, err := review.NewID()
			if err != nil {
				return nil, false, errors.NewInternal(err)
			}
			topic := s.Topics[i]
			picks = append(picks, Task{
				ID:          id,
				Title:       s.Name + ": " + topic,
				Subject:     s.Key,
				SubjectName: s.Name,
				Topic:       topic,
				Date:        date,
			})
		}
	}
	p.tasks = append(p.tasks, picks...)

	err = p.saveLocked(ctx, TasksKey, p.tasks)
	p.recordDayLocked(p.Today())
	if herr := p.saveLocked(ctx, HistoryKey, p.history); err == nil {
		err = herr
	}
	return slices.Clone(picks), true, err
}

// Tasks returns the first limit tasks planned for date. limit is clamped to
// [MinPlanSize, MaxPlanSize]; zero means DefaultPlanSize.
func (p *Planner) Tasks(date review.Date, limit int) []Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasksForLocked(date, ClampPlanSize(limit))
}

// ClampPlanSize applies the plan size bounds.
func ClampPlanSize(n int) int {
	if n == 0 {
		return DefaultPlanSize
	}
	return max(MinPlanSize, min(n, MaxPlanSize))
}

func (p *Planner) tasksForLocked(date review.Date, limit int) []Task {
	out := make([]Task, 0, limit)
	for _, t := range p.tasks {
		if t.Date.Equal(date) {
			out = append(out, t)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Toggle flips a task's done flag and refreshes today's history entry.
func (p *Planner) Toggle(ctx context.Context, id string) (Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.tasks, func(t Task) bool { return t.ID == id })
	if i < 0 {
		return Task{}, errors.NewNotFound("task", id)
	}
	p.tasks[i].Done = !p.tasks[i].Done
	task := p.tasks[i]

	err := p.saveLocked(ctx, TasksKey, p.tasks)
	p.recordDayLocked(p.Today())
	if herr := p.saveLocked(ctx, HistoryKey, p.history); err == nil {
		err = herr
	}
	return task, err
}

// recordDayLocked upserts the history entry for day with its done count.
func (p *Planner) recordDayLocked(day review.Date) {
	done := 0
	for _, t := range p.tasks {
		if t.Date.Equal(day) && t.Done {
			done++
		}
	}

	if i := slices.IndexFunc(p.history, func(d Day) bool { return d.Date.Equal(day) }); i >= 0 {
		p.history[i].Tasks = done
		return
	}
	p.history = append(p.history, Day{Date: day, Tasks: done})
}

// History returns the last n recorded days, oldest first. n <= 0 means DefaultHistory.
func (p *Planner) History(n int) []Day {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n <= 0 {
		n = DefaultHistory
	}
	start := max(0, len(p.history)-n)
	return slices.Clone(p.history[start:])
}

// Streak counts the recorded days on which at least one task was completed.
func (p *Planner) Streak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, d := range p.history {
		if d.Tasks > 0 {
			n++
		}
	}
	return n
}

// AddGoal puts a new goal at the front of the list.
func (p *Planner) AddGoal(ctx context.Context, text string) (Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Goal{}, errors.NewValidation("goal text must not be empty", "text")
	}
	id, err := review.NewID()
	if err != nil {
		return Goal{}, errors.NewInternal(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	g := Goal{ID: id, Text: text}
	p.goals = slices.Insert(p.goals, 0, g)
	return g, p.saveLocked(ctx, GoalsKey, p.goals)
}

// ToggleGoal flips a goal's done flag.
func (p *Planner) ToggleGoal(ctx context.Context, id string) (Goal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return Goal{}, errors.NewNotFound("goal", id)
	}
	p.goals[i].Done = !p.goals[i].Done
	return p.goals[i], p.saveLocked(ctx, GoalsKey, p.goals)
}

// Goals returns all goals, most recent first.
func (p *Planner) Goals() []Goal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.goals)
}

// OpenGoals counts goals not yet done.
func (p *Planner) OpenGoals() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, g := range p.goals {
		if !g.Done {
			n++
		}
	}
	return n
}

func (p *Planner) saveLocked(ctx context.Context, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := p.store.Save(ctx, key, blob); err != nil {
		p.log.Warn("failed to persist planner state; in-memory state kept",
			zap.String("key", key), zap.Error(err))
		return errors.NewPersistence(key, err)
	}
	return nil
}
