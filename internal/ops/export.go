package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/review"
)

// DeckSchemaVersion is written in every export header.
const DeckSchemaVersion = "1.0"

// ExportDeckInput contains parameters for the ExportDeck operation.
type ExportDeckInput struct {
	Path    string // optional, default: <exports>/deck-<subject|all>-<timestamp>.jsonl
	Subject string // optional filter
}

// ExportDeckOutput contains the result of the ExportDeck operation.
type ExportDeckOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// DeckHeader is the first line of a deck file.
type DeckHeader struct {
	CrackrExport  bool   `json:"_crackr_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
	Intervals     []int  `json:"intervals"`
}

// ExportDeck writes cards to a JSONL file: a header line, then one card per
// line, newest first. The file is written to a temp name and renamed into
// place so an existing file survives a failed export.
func ExportDeck(ctx context.Context, s *review.Scheduler, fs FileScope, input ExportDeckInput) (*ExportDeckOutput, error) {
	now := time.Now()
	subject := strings.TrimSpace(input.Subject)

	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultDeckPath(fs.ExportsDir, subject, now)
	}
	// Default paths are validated too; the subject is part of the file name.
	if err := fs.ValidatePath(exportPath, ExtDeck, PathCheckWrite); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(DeckHeader{
		CrackrExport:  true,
		SchemaVersion: DeckSchemaVersion,
		ExportedAt:    now.Unix(),
		Intervals:     s.Intervals(),
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	for _, c := range s.Cards() {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("export cancelled: %w", err))
		}
		if subject != "" && !strings.EqualFold(c.Subject, subject) {
			continue
		}
		if err := enc.Encode(c); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewConflict("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportDeckOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

// defaultDeckPath builds <exports>/deck-<subject|all>-<timestamp>.jsonl.
func defaultDeckPath(exportsDir, subject string, now time.Time) string {
	name := "all"
	if subject != "" {
		name = SanitizeForFilename(subject)
	}
	return filepath.Join(exportsDir, fmt.Sprintf("deck-%s-%s%s", name, now.Format("2006-01-02T150405"), ExtDeck))
}
