package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/config"
	"github.com/hpungsan/crackr/internal/kv"
	"github.com/hpungsan/crackr/internal/ops"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

var testNow = time.Date(2024, 6, 3, 7, 30, 0, 0, time.UTC)

// setupTestEnv builds an in-memory environment on a fixed clock.
func setupTestEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemory()
	clock := review.ClockFunc(func() time.Time { return testNow })

	sched, err := review.Open(ctx, store, review.WithClock(clock), review.WithLocation(time.UTC))
	require.NoError(t, err)
	p, err := planner.Open(ctx, store,
		planner.WithClock(clock),
		planner.WithLocation(time.UTC),
		planner.WithRand(rand.New(rand.NewPCG(11, 12))))
	require.NoError(t, err)

	base := t.TempDir()
	cfg := config.DefaultConfig()
	return &env{
		baseDir: base,
		cfg:     cfg,
		sched:   sched,
		planner: p,
		files:   ops.NewFileScope(cfg, base),
		log:     zap.NewNop(),
	}
}

// run executes the CLI with args and returns what it wrote.
func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newCLIApp(e)
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"crackr"}, args...))
	return out.String(), err
}

// runJSON executes the CLI, requires success and decodes the output into v.
func runJSON(t *testing.T, e *env, v any, args ...string) {
	t.Helper()
	out, err := run(t, e, args...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"good", true, false},
		{"GOOD", true, false},
		{" pass ", true, false},
		{"again", false, false},
		{"fail", false, false},
		{"n", false, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseResult(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCLIReviewCycle(t *testing.T) {
	e := setupTestEnv(t)

	var added ops.AddCardOutput
	runJSON(t, e, &added, "add", "--subject=phy", "--topic=Optics", "--front=Snell's law?", "--back=n1 sin a = n2 sin b")
	assert.Equal(t, 0, added.Card.Box)
	assert.Equal(t, "2024-06-03", added.Card.Next.String())

	var due ops.DueOutput
	runJSON(t, e, &due, "due")
	require.Len(t, due.Items, 1)
	assert.Equal(t, added.Card.ID, due.Items[0].ID)

	var graded ops.GradeOutput
	runJSON(t, e, &graded, "grade", added.Card.ID, "good")
	assert.Equal(t, 1, graded.Card.Box)
	assert.Equal(t, 0, graded.PreviousBox)
	assert.Equal(t, "2024-06-04", graded.Card.Next.String())

	runJSON(t, e, &due, "due")
	assert.Empty(t, due.Items)

	runJSON(t, e, &due, "due", "--as-of=2024-06-04")
	assert.Len(t, due.Items, 1)

	var shown ops.FetchCardOutput
	runJSON(t, e, &shown, "show", added.Card.ID)
	assert.False(t, shown.Due)
	assert.Equal(t, 1, shown.Interval)
}

func TestCLIGradeErrors(t *testing.T) {
	e := setupTestEnv(t)
	var added ops.AddCardOutput
	runJSON(t, e, &added, "add", "-s", "math", "-f", "2+2", "-b", "4")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown id", []string{"grade", "nope", "good"}, "[NOT_FOUND]"},
		{"missing result", []string{"grade", added.Card.ID}, "[INVALID_REQUEST]"},
		{"bad result", []string{"grade", added.Card.ID, "meh"}, "[INVALID_REQUEST]"},
		{"bad date", []string{"grade", "--as-of=June", added.Card.ID, "good"}, "[INVALID_REQUEST]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, e, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	card, _ := e.sched.Card(added.Card.ID)
	assert.Equal(t, 0, card.Box)
}

func TestCLIAddRequiresFlags(t *testing.T) {
	e := setupTestEnv(t)
	_, err := run(t, e, "add", "--subject=phy", "--front=only a front")
	require.Error(t, err)
	assert.Equal(t, 0, e.sched.Len())
}

func TestCLIList(t *testing.T) {
	e := setupTestEnv(t)
	var first, second ops.AddCardOutput
	runJSON(t, e, &first, "add", "-s", "phy", "-f", "one", "-b", "1")
	runJSON(t, e, &second, "add", "-s", "chem", "-f", "two", "-b", "2")
	runJSON(t, e, &ops.GradeOutput{}, "grade", first.Card.ID, "good")

	var all ops.ListCardsOutput
	runJSON(t, e, &all, "list")
	require.Len(t, all.Items, 2)
	assert.Equal(t, second.Card.ID, all.Items[0].ID, "newest first")

	var boxed ops.ListCardsOutput
	runJSON(t, e, &boxed, "list", "--box=0")
	require.Len(t, boxed.Items, 1)
	assert.Equal(t, second.Card.ID, boxed.Items[0].ID)

	var chem ops.ListCardsOutput
	runJSON(t, e, &chem, "list", "--subject=chem")
	assert.Len(t, chem.Items, 1)
}

func TestCLIPractice(t *testing.T) {
	e := setupTestEnv(t)

	var q ops.PracticeQuestionOutput
	runJSON(t, e, &q, "practice", "--index=1")
	assert.Equal(t, "q-kinematics-1", q.Question.ID)

	out, err := run(t, e, "practice", "--index=1")
	require.NoError(t, err)
	assert.NotContains(t, out, "ut + 1/2", "solution must stay hidden")

	var ans ops.PracticeAnswerOutput
	runJSON(t, e, &ans, "answer", "--save", "q-kinematics-1", "36", "m")
	assert.True(t, ans.Correct)
	require.NotNil(t, ans.Card)
	assert.Equal(t, 2, ans.Card.Box)
	assert.Equal(t, 1, e.sched.Len())

	ans = ops.PracticeAnswerOutput{}
	runJSON(t, e, &ans, "answer", "q-mole-1", "2")
	assert.False(t, ans.Correct)
	assert.Nil(t, ans.Card)
	assert.Equal(t, 1, e.sched.Len())

	_, err = run(t, e, "answer", "q-missing", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NOT_FOUND]")
}

func TestCLIPlanToggleHistory(t *testing.T) {
	e := setupTestEnv(t)

	var plan ops.PlanOutput
	runJSON(t, e, &plan, "plan")
	require.Len(t, plan.Tasks, 6)
	assert.True(t, plan.Created)

	var again ops.PlanOutput
	runJSON(t, e, &again, "plan", "--limit=3")
	assert.Len(t, again.Tasks, 3)
	assert.False(t, again.Created)

	var toggled ops.ToggleTaskOutput
	runJSON(t, e, &toggled, "toggle", plan.Tasks[0].ID)
	assert.True(t, toggled.Task.Done)

	var hist ops.HistoryOutput
	runJSON(t, e, &hist, "history", "--days=7")
	require.Len(t, hist.Days, 1)
	assert.Equal(t, 1, hist.Days[0].Tasks)
	assert.Equal(t, 1, hist.Streak)

	_, err := run(t, e, "toggle", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NOT_FOUND]")
}

func TestCLIGoals(t *testing.T) {
	e := setupTestEnv(t)

	var g ops.GoalOutput
	runJSON(t, e, &g, "goal", "add", "Finish", "organic", "revision")
	assert.Equal(t, "Finish organic revision", g.Goal.Text)

	runJSON(t, e, &ops.GoalOutput{}, "goal", "add", "Mock test Sunday")

	var done ops.GoalOutput
	runJSON(t, e, &done, "goal", "done", g.Goal.ID)
	assert.True(t, done.Goal.Done)

	var open ops.ListGoalsOutput
	runJSON(t, e, &open, "goal", "list", "--open")
	require.Len(t, open.Items, 1)
	assert.Equal(t, "Mock test Sunday", open.Items[0].Text)

	_, err := run(t, e, "goal", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[VALIDATION]")
}

func TestCLIStats(t *testing.T) {
	e := setupTestEnv(t)
	runJSON(t, e, &ops.AddCardOutput{}, "add", "-s", "phy", "-f", "q", "-b", "a")
	runJSON(t, e, &ops.GoalOutput{}, "goal", "add", "Stay consistent")

	var stats ops.DashboardOutput
	runJSON(t, e, &stats, "stats")
	assert.Equal(t, 1, stats.CardsDue)
	assert.Equal(t, 1, stats.CardsTotal)
	assert.Equal(t, 6, stats.TasksTotal)
	assert.Equal(t, 1, stats.OpenGoals)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0}, stats.Boxes)
}

func TestCLIExportImport(t *testing.T) {
	src := setupTestEnv(t)
	runJSON(t, src, &ops.AddCardOutput{}, "add", "-s", "phy", "-f", "one", "-b", "1")
	runJSON(t, src, &ops.AddCardOutput{}, "add", "-s", "chem", "-f", "two", "-b", "2")

	deck := filepath.Join(src.files.ExportsDir, "deck.jsonl")
	var exported ops.ExportDeckOutput
	runJSON(t, src, &exported, "export", "--path="+deck)
	assert.Equal(t, 2, exported.Count)

	dst := setupTestEnv(t)
	dst.files = src.files

	var imported ops.ImportOutput
	runJSON(t, dst, &imported, "import", "--path="+deck)
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, 2, dst.sched.Len())

	runJSON(t, dst, &imported, "import", "--path="+deck, "--mode=rename")
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, 4, dst.sched.Len())

	_, err := run(t, dst, "import", "--path="+deck, "--mode=replace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLIExportOutsideScope(t *testing.T) {
	e := setupTestEnv(t)
	_, err := run(t, e, "export", "--path="+filepath.Join(t.TempDir(), "deck.jsonl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLIVersion(t *testing.T) {
	out, err := run(t, nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestOpenEnvPersists(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	e, closeFn, err := openEnv(ctx, base, false, zap.NewNop())
	require.NoError(t, err)
	_, err = run(t, e, "add", "-s", "math", "-f", "d/dx x^2", "-b", "2x")
	require.NoError(t, err)
	closeFn()

	reopened, closeFn, err := openEnv(ctx, base, false, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, 1, reopened.sched.Len())
	assert.Equal(t, filepath.Join(base, "exports"), reopened.files.ExportsDir)
}

func TestCLIData(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	e, closeFn, err := openEnv(ctx, base, false, zap.NewNop())
	require.NoError(t, err)
	runJSON(t, e, &ops.AddCardOutput{}, "add", "-s", "chem", "-f", "pH of water?", "-b", "7")
	runJSON(t, e, &ops.GoalOutput{}, "goal", "add", "Revise p-block")

	var ls struct {
		Items []struct {
			Key  string `json:"key"`
			Size int    `json:"size"`
		} `json:"items"`
	}
	runJSON(t, e, &ls, "data", "ls")
	require.Len(t, ls.Items, 2)
	assert.Equal(t, "jee_cards", ls.Items[0].Key)
	assert.Equal(t, "jee_goals", ls.Items[1].Key)
	assert.Positive(t, ls.Items[0].Size)

	runJSON(t, e, &map[string]any{}, "data", "reset", "cards")

	_, err = run(t, e, "data", "reset", "cards")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NOT_FOUND]")

	_, err = run(t, e, "data", "reset", "everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
	closeFn()

	reopened, closeFn, err := openEnv(ctx, base, false, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, 0, reopened.sched.Len())
	assert.Len(t, reopened.planner.Goals(), 1)

	mem := setupTestEnv(t)
	_, err = run(t, mem, "data", "reset", "cards")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory mode")
}

func TestCLIDataMemory(t *testing.T) {
	e, closeFn, err := openEnv(context.Background(), t.TempDir(), true, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	runJSON(t, e, &ops.AddCardOutput{}, "add", "-s", "phy", "-f", "f", "-b", "b")

	var ls struct {
		Items []struct {
			Key string `json:"key"`
		} `json:"items"`
	}
	runJSON(t, e, &ls, "data", "ls")
	require.Len(t, ls.Items, 1)
	assert.Equal(t, "jee_cards", ls.Items[0].Key)
}

func TestOpenEnvMemory(t *testing.T) {
	base := t.TempDir()
	e, closeFn, err := openEnv(context.Background(), base, true, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()

	_, err = run(t, e, "add", "-s", "phy", "-f", "f", "-b", "b")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(base, "crackr.db"))
	assert.True(t, os.IsNotExist(statErr), "memory mode must not create a database")
}

func TestOpenEnvBadTimezone(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "config.json"), []byte(`{"timezone":"Mars/Olympus"}`), 0600))

	_, _, err := openEnv(context.Background(), base, true, zap.NewNop())
	require.Error(t, err)
}

func TestShowBanner(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	tests := []struct {
		args     []string
		terminal bool
		want     bool
	}{
		{[]string{"crackr"}, true, true},
		{[]string{"crackr", "--memory"}, true, true},
		{[]string{"crackr", "--memory"}, false, false},
		{[]string{"crackr"}, false, false},
		{[]string{"crackr", "due"}, true, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		assert.Equal(t, tt.want, showBanner(tt.terminal), "%v terminal=%v", tt.args, tt.terminal)
	}
}

func TestModeDetection(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	tests := []struct {
		args       []string
		cli        bool
		helpOrVer  bool
		memoryMode bool
	}{
		{[]string{"crackr"}, false, false, false},
		{[]string{"crackr", "due"}, true, false, false},
		{[]string{"crackr", "--memory", "due"}, true, false, true},
		{[]string{"crackr", "--memory"}, false, false, true},
		{[]string{"crackr", "--version"}, true, true, false},
		{[]string{"crackr", "help"}, true, true, false},
		{[]string{"crackr", "bogus"}, false, false, false},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Setenv("CRACKR_MEMORY", "")
			os.Args = tt.args
			assert.Equal(t, tt.cli, isCLIMode())
			assert.Equal(t, tt.helpOrVer, isHelpOrVersion())
			assert.Equal(t, tt.memoryMode, useMemory())
		})
	}
}
