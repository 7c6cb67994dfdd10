package ops

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/review"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestExportDeck_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.addCard(t, "one")
	f.addCard(t, "two")

	path := filepath.Join(f.fs.ExportsDir, "deck.jsonl")
	out, err := ExportDeck(f.ctx, f.s, f.fs, ExportDeckInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, path, out.Path)
	require.Equal(t, 2, out.Count)
	require.NotZero(t, out.ExportedAt)

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	var header DeckHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	require.True(t, header.CrackrExport)
	require.Equal(t, DeckSchemaVersion, header.SchemaVersion)
	require.Equal(t, review.DefaultIntervals, header.Intervals)

	var first review.Card
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	require.Equal(t, "two", first.Front)
	require.Contains(t, lines[1], `"next":"2024-03-10"`)

	entries, err := os.ReadDir(f.fs.ExportsDir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestExportDeck_DefaultPathAndSubjectFilter(t *testing.T) {
	f := newFixture(t)
	f.addCard(t, "physics card")
	_, err := AddCard(f.ctx, f.s, AddCardInput{Subject: "chem", Front: "chem card", Back: "b"})
	require.NoError(t, err)

	out, err := ExportDeck(f.ctx, f.s, f.fs, ExportDeckInput{Subject: "Chem"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	require.Equal(t, f.fs.ExportsDir, filepath.Dir(out.Path))
	require.True(t, strings.HasPrefix(filepath.Base(out.Path), "deck-chem-"))
	require.Len(t, readLines(t, out.Path), 2)
}

func TestExportDeck_RejectsOutsidePath(t *testing.T) {
	f := newFixture(t)

	_, err := ExportDeck(f.ctx, f.s, f.fs, ExportDeckInput{Path: filepath.Join(t.TempDir(), "deck.jsonl")})
	requireCode(t, err, errors.ErrInvalidRequest)

	_, err = ExportDeck(f.ctx, f.s, f.fs, ExportDeckInput{Path: filepath.Join(f.fs.ExportsDir, "deck.json")})
	requireCode(t, err, errors.ErrInvalidRequest)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newFixture(t)
	a := src.addCard(t, "a")
	b := src.addCard(t, "b")
	_, err := Grade(src.ctx, src.s, GradeInput{ID: a.ID, Success: true})
	require.NoError(t, err)

	path := filepath.Join(src.fs.ExportsDir, "roundtrip.jsonl")
	_, err = ExportDeck(src.ctx, src.s, src.fs, ExportDeckInput{Path: path})
	require.NoError(t, err)

	dst := newFixture(t)
	dst.fs = src.fs
	out, err := ImportDeck(dst.ctx, dst.s, dst.fs, ImportDeckInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Empty(t, out.Errors)
	require.Equal(t, src.s.Cards(), dst.s.Cards())

	got, ok := dst.s.Card(a.ID)
	require.True(t, ok)
	require.Equal(t, 1, got.Box)
	_, ok = dst.s.Card(b.ID)
	require.True(t, ok)
}
