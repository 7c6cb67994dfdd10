package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/crackr/internal/errors"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Intervals) != 6 || cfg.Intervals[5] != 30 {
		t.Fatalf("Intervals = %v, want default table", cfg.Intervals)
	}
	if cfg.CardsKey != "jee_cards" {
		t.Errorf("CardsKey = %q, want jee_cards", cfg.CardsKey)
	}
	if cfg.PlanTasksPerDay != 6 {
		t.Errorf("PlanTasksPerDay = %d, want 6", cfg.PlanTasksPerDay)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"intervals": [0, 2, 5], "timezone": "Asia/Kolkata", "plan_tasks_per_day": 4}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Intervals) != 3 || cfg.Intervals[2] != 5 {
		t.Errorf("Intervals = %v, want [0 2 5]", cfg.Intervals)
	}
	if cfg.PlanTasksPerDay != 4 {
		t.Errorf("PlanTasksPerDay = %d, want 4", cfg.PlanTasksPerDay)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Asia/Kolkata" {
		t.Errorf("Location = %s, want Asia/Kolkata", loc)
	}
}

func TestLoad_DefaultsNotAliased(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Intervals[0] = 99
	if DefaultConfig().Intervals[0] != 0 {
		t.Fatalf("default intervals mutated through loaded config")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"negative interval", `{"intervals": [0, -1]}`, errors.ErrValidation},
		{"plan too large", `{"plan_tasks_per_day": 20}`, errors.ErrValidation},
		{"plan too small", `{"plan_tasks_per_day": 1}`, errors.ErrValidation},
		{"bad port", `{"web_port": 70000}`, errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.body)

			_, err := Load(tmpDir)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad_BadTimezone(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"timezone": "Mars/Olympus"}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error for unknown timezone")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["card_grade", "goal_add", "card_grade"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want 2 deduplicated entries", cfg.DisabledTools)
	}
	if cfg.DisabledTools[0] != "card_grade" || cfg.DisabledTools[1] != "goal_add" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"plan_tasks_per_day": 8, "disabled_tools": ["card_grade"], "timezone": "UTC"}`)
	writeConfig(t, filepath.Join(repoRoot, ".crackr"), `{"plan_tasks_per_day": 5, "disabled_tools": ["goal_add"]}`)

	nested := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.PlanTasksPerDay != 5 {
		t.Errorf("PlanTasksPerDay = %d, want 5 (repo override)", cfg.PlanTasksPerDay)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC (from global)", cfg.Timezone)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want merged", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.CardsKey != DefaultConfig().CardsKey {
		t.Errorf("CardsKey = %q, want default", cfg.CardsKey)
	}
}

func TestFindRepoConfig_WalksUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, filepath.Join(root, ".crackr"), `{}`)

	nested := filepath.Join(root, "x", "y", "z")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	want := filepath.Join(root, ".crackr", "config.json")
	if got := FindRepoConfig(nested); got != want {
		t.Errorf("FindRepoConfig() = %q, want %q", got, want)
	}
}

func TestMerge_IntervalsReplacedNotMerged(t *testing.T) {
	base := &Config{Intervals: []int{0, 1, 3}}
	overlay := &Config{Intervals: []int{0, 7}}

	got := Merge(base, overlay)
	if len(got.Intervals) != 2 || got.Intervals[1] != 7 {
		t.Errorf("Intervals = %v, want [0 7]", got.Intervals)
	}

	got = Merge(base, &Config{})
	if len(got.Intervals) != 3 {
		t.Errorf("Intervals = %v, want base [0 1 3]", got.Intervals)
	}
}

func TestMerge_Booleans(t *testing.T) {
	got := Merge(&Config{AllowUnsafePaths: true}, &Config{})
	if !got.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true from base")
	}
}

func TestMergeStringSlice(t *testing.T) {
	got := mergeStringSlice([]string{" a ", "b"}, []string{"b", "", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("mergeStringSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mergeStringSlice()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if mergeStringSlice(nil, []string{" "}) != nil {
		t.Error("mergeStringSlice() of blanks should be nil")
	}
}
