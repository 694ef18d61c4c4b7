package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_report.pdf", "a_report.pdf", "notes.txt", "UPPER.PDF"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	paths, err := ListPDFs(dir)

	require.NoError(t, err)
	require.Len(t, paths, 3, "non-PDF files and directories are excluded")
	assert.Equal(t, filepath.Join(dir, "UPPER.PDF"), paths[0])
	assert.Equal(t, filepath.Join(dir, "a_report.pdf"), paths[1])
	assert.Equal(t, filepath.Join(dir, "b_report.pdf"), paths[2])
}

func TestListPDFs_MissingDir(t *testing.T) {
	_, err := ListPDFs(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	in := "Revenue   grew  \nby 12%\n\n\n\nCosts\t\tfell\n"
	out := cleanText(in)

	assert.Equal(t, "Revenue grew\nby 12%\n\nCosts fell", out)
}

func TestRowCells_SplitsOnGaps(t *testing.T) {
	row := &pdf.Row{
		Content: pdf.TextHorizontal{
			{X: 50, W: 40, S: "Net"},
			{X: 92, W: 50, S: "revenue"}, // 2pt gap: same cell
			{X: 300, W: 30, S: "250"},    // wide gap: new cell
			{X: 450, W: 30, S: "EUR"},    // wide gap: new cell
		},
	}

	cells := rowCells(row)

	assert.Equal(t, []string{"Net revenue", "250", "EUR"}, cells)
}

func TestRowCells_SingleCell(t *testing.T) {
	row := &pdf.Row{
		Content: pdf.TextHorizontal{
			{X: 50, W: 40, S: "Plain"},
			{X: 92, W: 60, S: "paragraph"},
			{X: 155, W: 40, S: "text"},
		},
	}

	cells := rowCells(row)

	assert.Equal(t, []string{"Plain paragraph text"}, cells)
}

func TestRowCells_SkipsBlankFragments(t *testing.T) {
	row := &pdf.Row{
		Content: pdf.TextHorizontal{
			{X: 50, W: 10, S: "  "},
			{X: 70, W: 40, S: "Total"},
		},
	}

	assert.Equal(t, []string{"Total"}, rowCells(row))
}
