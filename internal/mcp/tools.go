package mcp

import "github.com/mark3labs/mcp-go/mcp"

var cardAddToolDef = mcp.NewTool("card_add",
	mcp.WithDescription("Add a flashcard to the review queue. New cards start in box 0 and are due today."),
	mcp.WithString("subject", mcp.Required(), mcp.Description("Subject key: phy, chem, math (or any label)")),
	mcp.WithString("topic", mcp.Description("Topic within the subject, e.g. Kinematics")),
	mcp.WithString("front", mcp.Required(), mcp.Description("Prompt side of the card")),
	mcp.WithString("back", mcp.Required(), mcp.Description("Answer side of the card")),
)

var cardDueToolDef = mcp.NewTool("card_due",
	mcp.WithDescription("List cards due for review on or before a date, newest first."),
	mcp.WithString("as_of", mcp.Description("Date as YYYY-MM-DD (default: today)")),
	mcp.WithNumber("limit", mcp.Description("Maximum cards to return (default: all)")),
)

var cardGradeToolDef = mcp.NewTool("card_grade",
	mcp.WithDescription("Record a review result. Success moves the card up one box, failure moves it down one; the next due date is the review date plus the new box's interval."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
	mcp.WithBoolean("success", mcp.Required(), mcp.Description("Whether the card was recalled correctly")),
	mcp.WithString("as_of", mcp.Description("Review date as YYYY-MM-DD (default: today)")),
)

var cardFetchToolDef = mcp.NewTool("card_fetch",
	mcp.WithDescription("Fetch one card by ID with its due status."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
)

var cardListToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("Page through all cards, newest first, optionally filtered by box or subject."),
	mcp.WithNumber("box", mcp.Description("Only cards in this box")),
	mcp.WithString("subject", mcp.Description("Only cards with this subject")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip (default 0)")),
)

var cardExportToolDef = mcp.NewTool("card_export",
	mcp.WithDescription("Export cards to a JSONL deck file in the exports directory."),
	mcp.WithString("path", mcp.Description("Target .jsonl path (default: exports/deck-<subject|all>-<timestamp>.jsonl)")),
	mcp.WithString("subject", mcp.Description("Only export cards with this subject")),
)

var cardImportToolDef = mcp.NewTool("card_import",
	mcp.WithDescription("Import cards from a JSONL deck file. Cards keep their box and due date."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Description("Collision handling (default: error)"), mcp.Enum("error", "skip", "rename")),
)

var practiceQuestionToolDef = mcp.NewTool("practice_question",
	mcp.WithDescription("Get a multiple-choice practice question. The answer is not included."),
	mcp.WithString("id", mcp.Description("Question ID (takes precedence over index)")),
	mcp.WithNumber("index", mcp.Description("Position in the question bank, cycles (default 0)")),
)

var practiceAnswerToolDef = mcp.NewTool("practice_answer",
	mcp.WithDescription("Check an answer to a practice question and optionally save it as a review card (box 2 if correct, box 0 if not)."),
	mcp.WithString("question_id", mcp.Required(), mcp.Description("Question ID")),
	mcp.WithString("picked", mcp.Required(), mcp.Description("The chosen option")),
	mcp.WithBoolean("save", mcp.Description("Add the question to the review queue")),
)

var planTodayToolDef = mcp.NewTool("plan_today",
	mcp.WithDescription("Get the study plan for a day, generating it on first access: two topics per subject."),
	mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD (default: today)")),
	mcp.WithNumber("limit", mcp.Description("Tasks to show, 3 to 12 (default from config)")),
)

var planToggleToolDef = mcp.NewTool("plan_toggle",
	mcp.WithDescription("Mark a plan task done or not done."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
)

var planHistoryToolDef = mcp.NewTool("plan_history",
	mcp.WithDescription("Completed tasks per day, oldest first, with the streak."),
	mcp.WithNumber("days", mcp.Description("Number of recorded days (default 30)")),
)

var goalAddToolDef = mcp.NewTool("goal_add",
	mcp.WithDescription("Add a short-term goal at the top of the list."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Goal text")),
)

var goalToggleToolDef = mcp.NewTool("goal_toggle",
	mcp.WithDescription("Mark a goal done or not done."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Goal ID")),
)

var goalListToolDef = mcp.NewTool("goal_list",
	mcp.WithDescription("List goals, most recent first."),
	mcp.WithBoolean("open_only", mcp.Description("Hide goals already done")),
)

var statsDashboardToolDef = mcp.NewTool("stats_dashboard",
	mcp.WithDescription("Today's progress: plan tasks done, cards due, cards per box, streak and open goals."),
)
