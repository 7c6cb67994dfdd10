package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/config"
	"github.com/hpungsan/crackr/internal/ops"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"card", "practice", "plan", "goal", "stats"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"card_add": {
		def:     cardAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardAdd },
	},
	"card_due": {
		def:     cardDueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardDue },
	},
	"card_grade": {
		def:     cardGradeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardGrade },
	},
	"card_fetch": {
		def:     cardFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardFetch },
	},
	"card_list": {
		def:     cardListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardList },
	},
	"card_export": {
		def:     cardExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardExport },
	},
	"card_import": {
		def:     cardImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardImport },
	},
	"practice_question": {
		def:     practiceQuestionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePracticeQuestion },
	},
	"practice_answer": {
		def:     practiceAnswerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePracticeAnswer },
	},
	"plan_today": {
		def:     planTodayToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanToday },
	},
	"plan_toggle": {
		def:     planToggleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanToggle },
	},
	"plan_history": {
		def:     planHistoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanHistory },
	},
	"goal_add": {
		def:     goalAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGoalAdd },
	},
	"goal_toggle": {
		def:     goalToggleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGoalToggle },
	},
	"goal_list": {
		def:     goalListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGoalList },
	},
	"stats_dashboard": {
		def:     statsDashboardToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStatsDashboard },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name
// ("card_grade" → "card").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// Deps holds what the tool handlers operate on.
type Deps struct {
	Scheduler *review.Scheduler
	Planner   *planner.Planner
	Config    *config.Config
	Files     ops.FileScope
	Logger    *zap.Logger
}

// NewServer creates a new MCP server with the crackr tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"crackr",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(deps.Config.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range deps.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(deps Deps, version string) error {
	return server.ServeStdio(NewServer(deps, version))
}
