// Package pdf extracts paginated text and tabular content from PDF files.
package pdf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document type tags stored alongside each chunk.
const (
	TypeText  = "text"
	TypeTable = "table"
)

// Document is one unit of loaded content: a page of text or one
// extracted table, with its origin metadata.
type Document struct {
	Text   string
	Source string // Originating file name
	Page   int    // 1-based page number
	Type   string // TypeText or TypeTable
}

// Loader reads PDF files from disk. Table extraction is best-effort:
// when disabled or failing it yields text-only content.
type Loader struct {
	enableTables bool
	logger       *slog.Logger
}

// NewLoader creates a Loader. Pass enableTables=false to skip the table
// detection pass entirely.
func NewLoader(enableTables bool, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		enableTables: enableTables,
		logger:       logger,
	}
}

// ListPDFs returns the sorted *.pdf entries of dir.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadFile extracts all pages of a PDF as text Documents, plus any
// detected tables as table Documents. Pages that fail to parse are
// skipped; a failed table pass yields zero tables, never an error.
func (l *Loader) LoadFile(path string) ([]Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	var docs []Document

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := extractPageText(page)
		if err != nil {
			l.logger.Warn("Skipping unreadable page",
				"source", source, "page", pageNum, "error", err)
			continue
		}
		text = cleanText(text)
		if text != "" {
			docs = append(docs, Document{
				Text:   text,
				Source: source,
				Page:   pageNum,
				Type:   TypeText,
			})
		}

		if l.enableTables {
			for _, table := range l.extractTables(page) {
				docs = append(docs, Document{
					Text:   table,
					Source: source,
					Page:   pageNum,
					Type:   TypeTable,
				})
			}
		}
	}

	return docs, nil
}

// extractPageText reads a page's plain text, converting parser panics
// (common on malformed content streams) into errors.
func extractPageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}

// colGap is the minimum horizontal gap (in PDF points) between text
// fragments treated as a column boundary.
const colGap = 18.0

// minTableRows is the minimum run of consecutive multi-cell rows
// recognized as a table.
const minTableRows = 2

// extractTables scans a page's row-grouped text for runs of multi-cell
// rows and serializes each run as delimited text, one row per line.
// Any failure is recovered and reported as zero tables.
func (l *Loader) extractTables(page pdf.Page) (tables []string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Debug("Table extraction failed", "error", r)
			tables = nil
		}
	}()

	rows, err := page.GetTextByRow()
	if err != nil {
		l.logger.Debug("Table extraction failed", "error", err)
		return nil
	}

	var run []string
	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, strings.Join(run, "\n"))
		}
		run = nil
	}

	for _, row := range rows {
		cells := rowCells(row)
		if len(cells) >= 2 {
			run = append(run, strings.Join(cells, " | "))
		} else {
			flush()
		}
	}
	flush()

	return tables
}

// rowCells groups a row's text fragments into cells, splitting where the
// horizontal gap between fragments exceeds colGap.
func rowCells(row *pdf.Row) []string {
	var cells []string
	var cell strings.Builder
	prevEnd := 0.0

	for i, t := range row.Content {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		if i > 0 && t.X-prevEnd > colGap && cell.Len() > 0 {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		if cell.Len() > 0 {
			cell.WriteByte(' ')
		}
		cell.WriteString(s)
		prevEnd = t.X + t.W
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}
	return cells
}

var (
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
	spaceRunRe      = regexp.MustCompile(`[ \t]{2,}`)
)

// cleanText collapses whitespace noise typical of PDF extraction.
func cleanText(text string) string {
	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
