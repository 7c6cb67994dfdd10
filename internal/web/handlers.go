package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/config"
	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/ops"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/practice"
	"github.com/hpungsan/crackr/internal/review"
)

// historyDays is how many days of history the plan page shows.
const historyDays = 7

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	sched    *review.Scheduler
	planner  *planner.Planner
	cfg      *config.Config
	renderer *Renderer
	log      *zap.Logger
}

// ReviewPageData is the template data for the review page.
type ReviewPageData struct {
	PageData
	Date      review.Date
	Cards     []review.Card
	Stats     review.Stats
	Intervals []int
}

// PracticePageData is the template data for the practice page.
type PracticePageData struct {
	PageData
	Question practice.Question
	Index    int
	Next     int
	Total    int
	Result   *ops.PracticeAnswerOutput
}

// PlanPageData is the template data for the plan page.
type PlanPageData struct {
	PageData
	Plan    *ops.PlanOutput
	Goals   []planner.Goal
	History []planner.Day
	Streak  int
}

// HandleReview handles GET /review: cards due today.
func (h *Handlers) HandleReview(w http.ResponseWriter, r *http.Request) {
	due, err := ops.Due(h.sched, ops.DueInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	page := h.renderer.page("Review", "review")
	page.Flash = r.URL.Query().Get("flash")
	h.renderer.renderPage(w, "review", ReviewPageData{
		PageData:  page,
		Date:      due.AsOf,
		Cards:     due.Items,
		Stats:     h.sched.Stats(due.AsOf),
		Intervals: h.sched.Intervals(),
	})
}

// HandleGrade handles POST /review/{id}/grade: result=good or result=again.
func (h *Handlers) HandleGrade(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	var success bool
	switch r.FormValue("result") {
	case "good":
		success = true
	case "again":
		success = false
	default:
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`result must be "good" or "again"`))
		return
	}

	result, err := ops.Grade(r.Context(), h.sched, ops.GradeInput{ID: r.PathValue("id"), Success: success})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, "/review", result, result.Warning)
}

// HandlePractice handles GET /practice?i=N: one question from the bank.
func (h *Handlers) HandlePractice(w http.ResponseWriter, r *http.Request) {
	q, err := ops.PracticeQuestion(ops.PracticeQuestionInput{Index: parseIntParam(r, "i", 0)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, "practice", PracticePageData{
		PageData: h.renderer.page("Practice", "practice"),
		Question: q.Question,
		Index:    q.Index,
		Next:     q.Index + 1,
		Total:    q.Total,
	})
}

// HandleAnswer handles POST /practice/{id}/answer: check and optionally save.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	id := r.PathValue("id")
	result, err := ops.PracticeAnswer(r.Context(), h.sched, ops.PracticeAnswerInput{
		QuestionID: id,
		Picked:     r.FormValue("picked"),
		Save:       r.FormValue("save") == "on" || r.FormValue("save") == "true",
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	q, err := ops.PracticeQuestion(ops.PracticeQuestionInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	page := h.renderer.page("Practice", "practice")
	page.Flash = result.Warning
	h.renderer.renderPage(w, "practice", PracticePageData{
		PageData: page,
		Question: q.Question,
		Index:    q.Index,
		Next:     q.Index + 1,
		Total:    q.Total,
		Result:   result,
	})
}

// HandlePlan handles GET /plan: today's tasks, goals and recent history.
func (h *Handlers) HandlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := ops.Plan(r.Context(), h.planner, ops.PlanInput{
		Date:  r.URL.Query().Get("date"),
		Limit: h.cfg.PlanTasksPerDay,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	history, err := ops.History(h.planner, ops.HistoryInput{Days: historyDays})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	page := h.renderer.page("Plan", "plan")
	page.Flash = firstNonEmpty(r.URL.Query().Get("flash"), plan.Warning)
	h.renderer.renderPage(w, "plan", PlanPageData{
		PageData: page,
		Plan:     plan,
		Goals:    ops.ListGoals(h.planner, ops.ListGoalsInput{}).Items,
		History:  history.Days,
		Streak:   history.Streak,
	})
}

// HandleToggleTask handles POST /plan/{id}/toggle.
func (h *Handlers) HandleToggleTask(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ToggleTask(r.Context(), h.planner, ops.ToggleTaskInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, "/plan", result, result.Warning)
}

// HandleAddGoal handles POST /goals: text=...
func (h *Handlers) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	result, err := ops.AddGoal(r.Context(), h.planner, ops.AddGoalInput{Text: r.FormValue("text")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, "/plan", result, result.Warning)
}

// HandleToggleGoal handles POST /goals/{id}/toggle.
func (h *Handlers) HandleToggleGoal(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ToggleGoal(r.Context(), h.planner, ops.ToggleGoalInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, "/plan", result, result.Warning)
}

// HandleStats handles GET /stats: the dashboard as JSON.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Dashboard(r.Context(), h.sched, h.planner, ops.DashboardInput{
		PlanLimit: h.cfg.PlanTasksPerDay,
	})
	if err != nil {
		r = r.Clone(r.Context())
		r.Header.Set("Accept", "application/json")
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// done finishes a form post: JSON clients get the result, browsers are
// redirected back with any save warning as a flash message.
func (h *Handlers) done(w http.ResponseWriter, r *http.Request, to string, result any, warning string) {
	if warning != "" {
		h.log.Warn("change kept in memory only", zap.String("path", r.URL.Path), zap.String("warning", warning))
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	if warning != "" {
		to += "?flash=" + url.QueryEscape(warning)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
