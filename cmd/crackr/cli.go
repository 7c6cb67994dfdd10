package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/db"
	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/kv"
	"github.com/hpungsan/crackr/internal/ops"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/rollover"
	"github.com/hpungsan/crackr/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// e may be nil when only help or version output is needed.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "crackr",
		Usage:   "Spaced-repetition review and study planner",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "memory", Usage: "Keep everything in memory for this run (nothing is saved)"},
		},
		Commands: []*cli.Command{
			addCmd(e),
			dueCmd(e),
			gradeCmd(e),
			showCmd(e),
			listCmd(e),
			practiceCmd(e),
			answerCmd(e),
			planCmd(e),
			toggleCmd(e),
			goalCmd(e),
			historyCmd(e),
			statsCmd(e),
			exportCmd(e),
			importCmd(e),
			importSheetCmd(e),
			dataCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a flashcard to the review queue (box 0, due today)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Required: true, Usage: "Subject key or name (phy, chem, math)"},
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "Topic tag"},
			&cli.StringFlag{Name: "front", Aliases: []string{"f"}, Required: true, Usage: "Question side (markdown)"},
			&cli.StringFlag{Name: "back", Aliases: []string{"b"}, Required: true, Usage: "Answer side (markdown)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.AddCard(c.Context, e.sched, ops.AddCardInput{
				Subject: c.String("subject"),
				Topic:   c.String("topic"),
				Front:   c.String("front"),
				Back:    c.String("back"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// dueCmd creates the due command.
func dueCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "due",
		Usage: "List cards due for review",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "as-of", Usage: "Day to check (YYYY-MM-DD, default today)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return (0 = all)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Due(e.sched, ops.DueInput{
				AsOf:  c.String("as-of"),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// gradeCmd creates the grade command.
func gradeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "grade",
		Usage:     "Record a review result: good moves the card up a box, again back down",
		ArgsUsage: "<id> good|again",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "as-of", Usage: "Review day (YYYY-MM-DD, default today)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: crackr grade <id> good|again"))
			}
			success, err := parseResult(c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Grade(c.Context, e.sched, ops.GradeInput{
				ID:      c.Args().First(),
				Success: success,
				AsOf:    c.String("as-of"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one card",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.FetchCard(e.sched, ops.FetchCardInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "box", Usage: "Only cards in this box"},
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Only cards for this subject"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListCardsInput{
				Subject: c.String("subject"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			}
			if c.IsSet("box") {
				box := c.Int("box")
				input.Box = &box
			}

			output, err := ops.ListCards(e.sched, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// practiceCmd creates the practice command.
func practiceCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "practice",
		Usage: "Show a practice question (the answer is hidden)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "index", Aliases: []string{"i"}, Usage: "Position in the question bank (cycles)"},
			&cli.StringFlag{Name: "id", Usage: "Question ID (overrides --index)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.PracticeQuestion(ops.PracticeQuestionInput{
				ID:    c.String("id"),
				Index: c.Int("index"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// answerCmd creates the answer command.
func answerCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "answer",
		Usage:     "Check an answer to a practice question",
		ArgsUsage: "<question-id> <picked>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "save", Usage: "Add the question to the review queue"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: crackr answer <question-id> <picked>"))
			}
			output, err := ops.PracticeAnswer(c.Context, e.sched, ops.PracticeAnswerInput{
				QuestionID: c.Args().First(),
				Picked:     strings.Join(c.Args().Tail(), " "),
				Save:       c.Bool("save"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// planCmd creates the plan command.
func planCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Show the study plan for a day, creating it if needed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day (YYYY-MM-DD, default today)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Tasks shown (3-12, default from config)"},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			if !c.IsSet("limit") {
				limit = e.cfg.PlanTasksPerDay
			}
			output, err := ops.Plan(c.Context, e.planner, ops.PlanInput{
				Date:  c.String("date"),
				Limit: limit,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// toggleCmd creates the toggle command.
func toggleCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Mark a plan task done or not done",
		ArgsUsage: "<task-id>",
		Action: func(c *cli.Context) error {
			output, err := ops.ToggleTask(c.Context, e.planner, ops.ToggleTaskInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// goalCmd creates the goal command and its subcommands.
func goalCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "goal",
		Usage: "Manage study goals",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a goal",
				ArgsUsage: "<text>",
				Action: func(c *cli.Context) error {
					output, err := ops.AddGoal(c.Context, e.planner, ops.AddGoalInput{
						Text: strings.Join(c.Args().Slice(), " "),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "done",
				Usage:     "Toggle a goal between done and open",
				ArgsUsage: "<goal-id>",
				Action: func(c *cli.Context) error {
					output, err := ops.ToggleGoal(c.Context, e.planner, ops.ToggleGoalInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:  "list",
				Usage: "List goals, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "open", Usage: "Only goals not yet done"},
				},
				Action: func(c *cli.Context) error {
					return outputJSON(c, ops.ListGoals(e.planner, ops.ListGoalsInput{OpenOnly: c.Bool("open")}))
				},
			},
		},
	}
}

// historyCmd creates the history command.
func historyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show tasks done per day and the current streak",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"n"}, Usage: "Number of most recent days (default 30)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.History(e.planner, ops.HistoryInput{Days: c.Int("days")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show today's dashboard: plan progress, cards due, streak, open goals",
		Action: func(c *cli.Context) error {
			output, err := ops.Dashboard(c.Context, e.sched, e.planner, ops.DashboardInput{
				PlanLimit: e.cfg.PlanTasksPerDay,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export cards to a JSONL deck",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.crackr/exports/deck-<subject>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Only cards for this subject"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportDeck(c.Context, e.sched, e.files, ops.ExportDeckInput{
				Path:    c.String("path"),
				Subject: c.String("subject"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import cards from a JSONL deck",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|skip|rename"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ImportDeck(c.Context, e.sched, e.files, ops.ImportDeckInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// importSheetCmd creates the import-sheet command.
func importSheetCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import-sheet",
		Usage: "Import cards from an .xlsx sheet with columns subject, topic, front, back",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Workbook path"},
			&cli.StringFlag{Name: "sheet", Usage: "Sheet name (default: first sheet)"},
			&cli.BoolFlag{Name: "no-header", Usage: "The first row is data, not a header"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ImportSheet(c.Context, e.sched, e.files, ops.ImportSheetInput{
				Path:     c.String("path"),
				Sheet:    c.String("sheet"),
				NoHeader: c.Bool("no-header"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// dataCmd creates the data command for inspecting and resetting stored collections.
func dataCmd(e *env) *cli.Command {
	requireDB := func() error {
		if e.db == nil {
			return outputError(errors.NewInvalidRequest("no database in memory mode"))
		}
		return nil
	}
	return &cli.Command{
		Name:  "data",
		Usage: "Inspect or reset stored collections",
		Subcommands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List stored collections with their size",
				Action: func(c *cli.Context) error {
					if e.db == nil && e.mem != nil {
						return outputJSON(c, map[string]any{"items": memoryEntries(c, e.mem)})
					}
					if err := requireDB(); err != nil {
						return err
					}
					entries, err := db.ListEntries(c.Context, e.db)
					if err != nil {
						return outputError(err)
					}
					if entries == nil {
						entries = []db.Entry{}
					}
					return outputJSON(c, map[string]any{"items": entries})
				},
			},
			{
				Name:      "reset",
				Usage:     "Erase one collection: cards, tasks, history or goals",
				ArgsUsage: "<collection>",
				Action: func(c *cli.Context) error {
					if err := requireDB(); err != nil {
						return err
					}
					key, err := collectionKey(e, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					if err := db.DeleteValue(c.Context, e.db, key); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"reset": key})
				},
			},
		},
	}
}

// memoryEntries describes the keys held by an in-memory store.
func memoryEntries(c *cli.Context, m *kv.Memory) []db.Entry {
	entries := []db.Entry{}
	for _, key := range m.Keys() {
		blob, _, _ := m.Load(c.Context, key)
		entries = append(entries, db.Entry{Key: key, Size: len(blob)})
	}
	return entries
}

// collectionKey maps a collection name to its store key.
func collectionKey(e *env, name string) (string, error) {
	switch name {
	case "cards":
		return e.cfg.CardsKey, nil
	case "tasks":
		return planner.TasksKey, nil
	case "history":
		return planner.HistoryKey, nil
	case "goals":
		return planner.GoalsKey, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown collection %q (want cards, tasks, history or goals)", name))
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the local web UI and the daily plan job",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config, 8484)"},
		},
		Action: func(c *cli.Context) error {
			cfg := *e.cfg
			if c.IsSet("bind") {
				cfg.WebBind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.WebPort = c.Int("port")
			}

			loc, err := cfg.Location()
			if err != nil {
				return outputError(err)
			}
			job := rollover.New(loc, e.planner, e.log)
			if err := job.Start(); err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer job.Stop()

			srv, err := web.NewServer(web.Deps{
				Scheduler: e.sched,
				Planner:   e.planner,
				Config:    &cfg,
				Logger:    e.log,
			}, Version)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			if err := web.Run(srv, e.log); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				e.log.Error("web server stopped", zap.Error(err))
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	return writeJSON(c.App.Writer, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if ce, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", ce.Code, ce.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseResult maps a grade word to success.
func parseResult(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "good", "pass", "yes", "y":
		return true, nil
	case "again", "fail", "no", "n":
		return false, nil
	}
	return false, errors.NewInvalidRequest(fmt.Sprintf("result must be good or again, got %q", s))
}
