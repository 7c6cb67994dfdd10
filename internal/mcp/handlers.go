package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps Deps
	log  *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{deps: deps, log: log}
}

// Request types for each tool

// CardAddRequest represents the arguments for card_add.
type CardAddRequest struct {
	Subject string `json:"subject"`
	Topic   string `json:"topic,omitempty"`
	Front   string `json:"front"`
	Back    string `json:"back"`
}

// CardDueRequest represents the arguments for card_due.
type CardDueRequest struct {
	AsOf  string `json:"as_of,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// CardGradeRequest represents the arguments for card_grade.
type CardGradeRequest struct {
	ID      string `json:"id"`
	Success *bool  `json:"success"`
	AsOf    string `json:"as_of,omitempty"`
}

// CardFetchRequest represents the arguments for card_fetch.
type CardFetchRequest struct {
	ID string `json:"id"`
}

// CardListRequest represents the arguments for card_list.
type CardListRequest struct {
	Box     *int   `json:"box,omitempty"`
	Subject string `json:"subject,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// CardExportRequest represents the arguments for card_export.
type CardExportRequest struct {
	Path    string `json:"path,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// CardImportRequest represents the arguments for card_import.
type CardImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PracticeQuestionRequest represents the arguments for practice_question.
type PracticeQuestionRequest struct {
	ID    string `json:"id,omitempty"`
	Index int    `json:"index,omitempty"`
}

// PracticeAnswerRequest represents the arguments for practice_answer.
type PracticeAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Picked     string `json:"picked"`
	Save       bool   `json:"save,omitempty"`
}

// PlanTodayRequest represents the arguments for plan_today.
type PlanTodayRequest struct {
	Date  string `json:"date,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// IDRequest represents the arguments of tools addressing one item by id.
type IDRequest struct {
	ID string `json:"id"`
}

// PlanHistoryRequest represents the arguments for plan_history.
type PlanHistoryRequest struct {
	Days int `json:"days,omitempty"`
}

// GoalAddRequest represents the arguments for goal_add.
type GoalAddRequest struct {
	Text string `json:"text"`
}

// GoalListRequest represents the arguments for goal_list.
type GoalListRequest struct {
	OpenOnly bool `json:"open_only,omitempty"`
}

// Handler implementations

// HandleCardAdd handles the card_add tool call.
func (h *Handlers) HandleCardAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AddCard(ctx, h.deps.Scheduler, ops.AddCardInput{
		Subject: input.Subject,
		Topic:   input.Topic,
		Front:   input.Front,
		Back:    input.Back,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCardDue handles the card_due tool call.
func (h *Handlers) HandleCardDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardDueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Due(h.deps.Scheduler, ops.DueInput{AsOf: input.AsOf, Limit: input.Limit})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCardGrade handles the card_grade tool call.
func (h *Handlers) HandleCardGrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardGradeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Success == nil {
		return errorResult(errors.NewInvalidRequest("success is required")), nil
	}

	result, err := ops.Grade(ctx, h.deps.Scheduler, ops.GradeInput{
		ID:      input.ID,
		Success: *input.Success,
		AsOf:    input.AsOf,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCardFetch handles the card_fetch tool call.
func (h *Handlers) HandleCardFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchCard(h.deps.Scheduler, ops.FetchCardInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCardList handles the card_list tool call.
func (h *Handlers) HandleCardList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListCards(h.deps.Scheduler, ops.ListCardsInput{
		Box:     input.Box,
		Subject: input.Subject,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCardExport handles the card_export tool call.
func (h *Handlers) HandleCardExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ExportDeck(ctx, h.deps.Scheduler, h.deps.Files, ops.ExportDeckInput{
		Path:    input.Path,
		Subject: input.Subject,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCardImport handles the card_import tool call.
func (h *Handlers) HandleCardImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ImportDeck(ctx, h.deps.Scheduler, h.deps.Files, ops.ImportDeckInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandlePracticeQuestion handles the practice_question tool call.
func (h *Handlers) HandlePracticeQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PracticeQuestionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PracticeQuestion(ops.PracticeQuestionInput{ID: input.ID, Index: input.Index})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandlePracticeAnswer handles the practice_answer tool call.
func (h *Handlers) HandlePracticeAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PracticeAnswerRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PracticeAnswer(ctx, h.deps.Scheduler, ops.PracticeAnswerInput{
		QuestionID: input.QuestionID,
		Picked:     input.Picked,
		Save:       input.Save,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandlePlanToday handles the plan_today tool call.
func (h *Handlers) HandlePlanToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanTodayRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit == 0 {
		limit = h.deps.Config.PlanTasksPerDay
	}
	result, err := ops.Plan(ctx, h.deps.Planner, ops.PlanInput{Date: input.Date, Limit: limit})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandlePlanToggle handles the plan_toggle tool call.
func (h *Handlers) HandlePlanToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ToggleTask(ctx, h.deps.Planner, ops.ToggleTaskInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandlePlanHistory handles the plan_history tool call.
func (h *Handlers) HandlePlanHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanHistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.History(h.deps.Planner, ops.HistoryInput{Days: input.Days})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleGoalAdd handles the goal_add tool call.
func (h *Handlers) HandleGoalAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GoalAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AddGoal(ctx, h.deps.Planner, ops.AddGoalInput{Text: input.Text})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleGoalToggle handles the goal_toggle tool call.
func (h *Handlers) HandleGoalToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ToggleGoal(ctx, h.deps.Planner, ops.ToggleGoalInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleGoalList handles the goal_list tool call.
func (h *Handlers) HandleGoalList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GoalListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(ops.ListGoals(h.deps.Planner, ops.ListGoalsInput{OpenOnly: input.OpenOnly}))
}

// HandleStatsDashboard handles the stats_dashboard tool call.
func (h *Handlers) HandleStatsDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[struct{}](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Dashboard(ctx, h.deps.Scheduler, h.deps.Planner, ops.DashboardInput{
		PlanLimit: h.deps.Config.PlanTasksPerDay,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// fail logs unexpected errors before turning err into a tool error result.
func (h *Handlers) fail(req mcp.CallToolRequest, err error) *mcp.CallToolResult {
	if ce, ok := errors.As(err); !ok || ce.Code == errors.ErrInternal {
		h.log.Error("tool call failed", zap.String("tool", req.Params.Name), zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if ce, ok := errors.As(err); ok {
		msg := ce.Message
		// Keep context added by wrappers around the structured error.
		if err != error(ce) {
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    ce.Code,
			"message": msg,
			"status":  ce.Status,
		}
		// INTERNAL details may carry paths or SQL errors.
		if ce.Code != errors.ErrInternal && ce.Details != nil {
			errorObj["details"] = ce.Details
		}
		if ce.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
