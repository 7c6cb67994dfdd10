package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/crackr/internal/config"
	"github.com/hpungsan/crackr/internal/errors"
)

func scopeIn(t *testing.T) FileScope {
	t.Helper()
	fs := NewFileScope(config.DefaultConfig(), t.TempDir())
	if err := os.MkdirAll(fs.ExportsDir, 0700); err != nil {
		t.Fatalf("failed to create exports dir: %v", err)
	}
	return fs
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestValidatePath_TraversalRejected(t *testing.T) {
	fs := scopeIn(t)

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../deck.jsonl"},
		{"deep traversal", "../../etc/deck.jsonl"},
		{"mid-path traversal", fs.ExportsDir + string(filepath.Separator) + ".." + string(filepath.Separator) + "deck.jsonl"},
		{"forward slashes", "exports/../../deck.jsonl"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := fs.ValidatePath(tc.path, ExtDeck, PathCheckWrite)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	fs := scopeIn(t)

	tests := []struct {
		name string
		path string
		ext  string
	}{
		{"no extension", "deck", ExtDeck},
		{"json for deck", "deck.json", ExtDeck},
		{"jsonl for sheet", "deck.jsonl", ExtSheet},
		{"xls for sheet", "deck.xls", ExtSheet},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := fs.ValidatePath(filepath.Join(fs.ExportsDir, tc.path), tc.ext, PathCheckWrite)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExportsDirAccepted(t *testing.T) {
	fs := scopeIn(t)

	if err := fs.ValidatePath(filepath.Join(fs.ExportsDir, "deck.jsonl"), ExtDeck, PathCheckWrite); err != nil {
		t.Errorf("expected success for write in exports dir, got: %v", err)
	}
	sheet := filepath.Join(fs.ExportsDir, "Deck.XLSX")
	touch(t, sheet)
	if err := fs.ValidatePath(sheet, ExtSheet, PathCheckRead); err != nil {
		t.Errorf("expected success for read in exports dir, got: %v", err)
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	fs := scopeIn(t)

	err := fs.ValidatePath(filepath.Join(t.TempDir(), "deck.jsonl"), ExtDeck, PathCheckWrite)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	allowed := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowed, "relative/ignored"}
	fs := NewFileScope(cfg, t.TempDir())

	deck := filepath.Join(allowed, "deck.jsonl")
	touch(t, deck)
	if err := fs.ValidatePath(deck, ExtDeck, PathCheckRead); err != nil {
		t.Errorf("expected success for path in AllowedPaths, got: %v", err)
	}

	other := filepath.Join(t.TempDir(), "other.jsonl")
	touch(t, other)
	if err := fs.ValidatePath(other, ExtDeck, PathCheckRead); err == nil {
		t.Error("expected error for path outside AllowedPaths, got nil")
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	fs := NewFileScope(cfg, t.TempDir())

	dir := t.TempDir()
	deck := filepath.Join(dir, "deck.jsonl")
	touch(t, deck)
	if err := fs.ValidatePath(deck, ExtDeck, PathCheckRead); err != nil {
		t.Errorf("expected success with AllowUnsafePaths=true, got: %v", err)
	}
	if err := fs.ValidatePath(filepath.Join(dir, "out.jsonl"), ExtDeck, PathCheckWrite); err != nil {
		t.Errorf("expected success for write with AllowUnsafePaths=true, got: %v", err)
	}

	err := fs.ValidatePath(filepath.Join(dir, "missing.jsonl"), ExtDeck, PathCheckRead)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	for _, unsafe := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.AllowUnsafePaths = unsafe
		fs := NewFileScope(cfg, t.TempDir())
		if err := os.MkdirAll(fs.ExportsDir, 0700); err != nil {
			t.Fatalf("failed to create exports dir: %v", err)
		}

		target := filepath.Join(t.TempDir(), "secret.jsonl")
		touch(t, target)
		link := filepath.Join(fs.ExportsDir, "link.jsonl")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("cannot create symlink: %v", err)
		}

		err := fs.ValidatePath(link, ExtDeck, PathCheckRead)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("unsafe=%v: expected ErrInvalidRequest for symlink, got: %v", unsafe, err)
		}
	}
}

func TestValidatePath_NestedPathRejected(t *testing.T) {
	fs := scopeIn(t)

	sub := filepath.Join(fs.ExportsDir, "subdir")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	nested := filepath.Join(sub, "deck.jsonl")
	touch(t, nested)

	err := fs.ValidatePath(nested, ExtDeck, PathCheckRead)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := map[string]string{
		"chem":           "chem",
		"Modern Physics": "modern-physics",
		"../etc/passwd":  "etc-passwd",
		"a\x00b":         "ab",
		"///":            "unnamed",
	}
	for in, want := range tests {
		if got := SanitizeForFilename(in); got != want {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
