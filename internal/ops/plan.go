package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

// PlanInput contains parameters for the Plan operation.
type PlanInput struct {
	Date  string // optional YYYY-MM-DD, default today
	Limit int    // tasks shown, default 6, clamped to 3..12
}

// PlanOutput contains the result of the Plan operation.
type PlanOutput struct {
	Date    review.Date    `json:"date"`
	Tasks   []planner.Task `json:"tasks"`
	Done    int            `json:"done"`
	Total   int            `json:"total"`
	Created bool           `json:"created"`
	Warning string         `json:"warning,omitempty"`
}

// Plan returns the study plan for a day, generating it on first access.
func Plan(ctx context.Context, p *planner.Planner, input PlanInput) (*PlanOutput, error) {
	date, err := resolveDate(input.Date, p.Today())
	if err != nil {
		return nil, err
	}

	_, created, planErr := p.EnsurePlan(ctx, date)
	warning, err := softFail(planErr)
	if err != nil {
		return nil, err
	}

	tasks := p.Tasks(date, input.Limit)
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	return &PlanOutput{
		Date:    date,
		Tasks:   tasks,
		Done:    done,
		Total:   len(tasks),
		Created: created,
		Warning: warning,
	}, nil
}

// ToggleTaskInput contains parameters for the ToggleTask operation.
type ToggleTaskInput struct {
	ID string // required
}

// ToggleTaskOutput contains the result of the ToggleTask operation.
type ToggleTaskOutput struct {
	Task    planner.Task `json:"task"`
	Warning string       `json:"warning,omitempty"`
}

// ToggleTask flips a task between done and open.
func ToggleTask(ctx context.Context, p *planner.Planner, input ToggleTaskInput) (*ToggleTaskOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	task, toggleErr := p.Toggle(ctx, id)
	warning, err := softFail(toggleErr)
	if err != nil {
		return nil, err
	}
	return &ToggleTaskOutput{Task: task, Warning: warning}, nil
}

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	Days int // default 30
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Days   []planner.Day `json:"days"`
	Streak int           `json:"streak"`
}

// History returns the recent per-day completion counts, oldest first.
func History(p *planner.Planner, input HistoryInput) (*HistoryOutput, error) {
	if input.Days < 0 {
		return nil, errors.NewInvalidRequest("days must not be negative")
	}
	days := p.History(input.Days)
	if days == nil {
		days = []planner.Day{}
	}
	return &HistoryOutput{Days: days, Streak: p.Streak()}, nil
}
