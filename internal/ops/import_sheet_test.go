package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/crackr/internal/errors"
)

func writeSheet(t *testing.T, path string, rows [][]any) {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cellRef, &row))
	}
	require.NoError(t, wb.SaveAs(path))
}

func TestImportSheet(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.fs.ExportsDir, "deck.xlsx")
	writeSheet(t, path, [][]any{
		{"subject", "topic", "front", "back"},
		{"Physics", "Optics", "Lens formula", "1/v - 1/u = 1/f"},
		{"", "", "", ""},
		{"chem", "Mole Concept", "", "missing front"},
		{"MATHS", "Limits", "lim sin x / x", "1"},
	})

	out, err := ImportSheet(f.ctx, f.s, f.fs, ImportSheetInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, 1, out.Skipped)
	require.Len(t, out.Errors, 1)
	require.Equal(t, 4, out.Errors[0].Line)
	require.Equal(t, ImportInvalidRecord, out.Errors[0].Code)
	require.Contains(t, out.Errors[0].Message, "front")

	cards := f.s.Cards()
	require.Len(t, cards, 2)
	subjects := []string{cards[0].Subject, cards[1].Subject}
	require.ElementsMatch(t, []string{"phy", "math"}, subjects)
	for _, c := range cards {
		require.Equal(t, 0, c.Box)
		require.Equal(t, "2024-03-10", c.Next.String())
	}
}

func TestImportSheet_NoHeader(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.fs.ExportsDir, "raw.xlsx")
	writeSheet(t, path, [][]any{
		{"phy", "Waves", "v = fλ?", "yes"},
	})

	out, err := ImportSheet(f.ctx, f.s, f.fs, ImportSheetInput{Path: path, NoHeader: true})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
}

func TestImportSheet_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := ImportSheet(f.ctx, f.s, f.fs, ImportSheetInput{Path: filepath.Join(f.fs.ExportsDir, "deck.jsonl")})
	requireCode(t, err, errors.ErrInvalidRequest)

	_, err = ImportSheet(f.ctx, f.s, f.fs, ImportSheetInput{Path: filepath.Join(f.fs.ExportsDir, "none.xlsx")})
	requireCode(t, err, errors.ErrFileNotFound)

	garbage := filepath.Join(f.fs.ExportsDir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a workbook"), 0600))
	_, err = ImportSheet(f.ctx, f.s, f.fs, ImportSheetInput{Path: garbage})
	requireCode(t, err, errors.ErrInvalidRequest)

	path := filepath.Join(f.fs.ExportsDir, "deck.xlsx")
	writeSheet(t, path, [][]any{{"subject", "topic", "front", "back"}})
	_, err = ImportSheet(f.ctx, f.s, f.fs, ImportSheetInput{Path: path, Sheet: "Nope"})
	requireCode(t, err, errors.ErrInvalidRequest)
}
