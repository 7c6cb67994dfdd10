// Package rollover generates each day's study plan at local midnight.
package rollover

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

// At is the local time the plan job fires.
const At = "00:00"

// runTimeout bounds one plan generation.
const runTimeout = 10 * time.Second

// Planner is the part of *planner.Planner the job uses.
type Planner interface {
	Today() review.Date
	EnsurePlan(ctx context.Context, date review.Date) ([]planner.Task, bool, error)
}

// Job runs EnsurePlan for the new day on a gocron schedule.
type Job struct {
	scheduler *gocron.Scheduler
	planner   Planner
	log       *zap.Logger
}

// New creates a Job that fires at midnight in loc.
func New(loc *time.Location, p Planner, log *zap.Logger) *Job {
	if log == nil {
		log = zap.NewNop()
	}
	return &Job{
		scheduler: gocron.NewScheduler(loc),
		planner:   p,
		log:       log,
	}
}

// Start registers the daily job and starts the scheduler without blocking.
// Today's plan is generated right away as well.
func (j *Job) Start() error {
	if _, err := j.scheduler.Every(1).Day().At(At).Do(j.Run); err != nil {
		return fmt.Errorf("schedule daily plan: %w", err)
	}
	j.scheduler.StartAsync()
	j.Run()
	return nil
}

// Stop terminates the scheduler.
func (j *Job) Stop() {
	j.scheduler.Stop()
}

// Jobs returns the number of registered jobs.
func (j *Job) Jobs() int {
	return j.scheduler.Len()
}

// Run generates today's plan if it does not exist yet.
func (j *Job) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	today := j.planner.Today()
	tasks, created, err := j.planner.EnsurePlan(ctx, today)
	if err != nil {
		j.log.Warn("daily plan generation failed",
			zap.String("date", today.String()), zap.Error(err))
		return
	}
	if created {
		j.log.Info("generated daily plan",
			zap.String("date", today.String()), zap.Int("tasks", len(tasks)))
	}
}
