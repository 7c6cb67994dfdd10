package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/planner"
)

// AddGoalInput contains parameters for the AddGoal operation.
type AddGoalInput struct {
	Text string // required
}

// GoalOutput contains the result of the AddGoal and ToggleGoal operations.
type GoalOutput struct {
	Goal    planner.Goal `json:"goal"`
	Warning string       `json:"warning,omitempty"`
}

// AddGoal adds a goal at the top of the list.
func AddGoal(ctx context.Context, p *planner.Planner, input AddGoalInput) (*GoalOutput, error) {
	g, addErr := p.AddGoal(ctx, input.Text)
	warning, err := softFail(addErr)
	if err != nil {
		return nil, err
	}
	return &GoalOutput{Goal: g, Warning: warning}, nil
}

// ToggleGoalInput contains parameters for the ToggleGoal operation.
type ToggleGoalInput struct {
	ID string // required
}

// ToggleGoal flips a goal between done and open.
func ToggleGoal(ctx context.Context, p *planner.Planner, input ToggleGoalInput) (*GoalOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	g, toggleErr := p.ToggleGoal(ctx, id)
	warning, err := softFail(toggleErr)
	if err != nil {
		return nil, err
	}
	return &GoalOutput{Goal: g, Warning: warning}, nil
}

// ListGoalsInput contains parameters for the ListGoals operation.
type ListGoalsInput struct {
	OpenOnly bool
}

// ListGoalsOutput contains the result of the ListGoals operation.
type ListGoalsOutput struct {
	Items []planner.Goal `json:"items"`
	Open  int            `json:"open"`
}

// ListGoals returns goals, most recent first.
func ListGoals(p *planner.Planner, input ListGoalsInput) *ListGoalsOutput {
	items := []planner.Goal{}
	for _, g := range p.Goals() {
		if input.OpenOnly && g.Done {
			continue
		}
		items = append(items, g)
	}
	return &ListGoalsOutput{Items: items, Open: p.OpenGoals()}
}
