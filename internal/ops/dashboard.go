package ops

import (
	"context"

	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

// DashboardInput contains parameters for the Dashboard operation.
type DashboardInput struct {
	PlanLimit int // tasks counted from today's plan, default 6
}

// DashboardOutput summarizes today's progress.
type DashboardOutput struct {
	Date       review.Date `json:"date"`
	TasksDone  int         `json:"tasks_done"`
	TasksTotal int         `json:"tasks_total"`
	CardsDue   int         `json:"cards_due"`
	CardsTotal int         `json:"cards_total"`
	Boxes      []int       `json:"boxes"`
	Streak     int         `json:"streak"`
	OpenGoals  int         `json:"open_goals"`
	Warning    string      `json:"warning,omitempty"`
}

// Dashboard gathers plan progress, review load, streak and open goals for
// today. Today's plan is generated if it does not exist yet.
func Dashboard(ctx context.Context, s *review.Scheduler, p *planner.Planner, input DashboardInput) (*DashboardOutput, error) {
	plan, err := Plan(ctx, p, PlanInput{Limit: input.PlanLimit})
	if err != nil {
		return nil, err
	}
	stats := s.Stats(plan.Date)

	return &DashboardOutput{
		Date:       plan.Date,
		TasksDone:  plan.Done,
		TasksTotal: plan.Total,
		CardsDue:   stats.Due,
		CardsTotal: stats.Total,
		Boxes:      stats.Boxes,
		Streak:     p.Streak(),
		OpenGoals:  p.OpenGoals(),
		Warning:    plan.Warning,
	}, nil
}
