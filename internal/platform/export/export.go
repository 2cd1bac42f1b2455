// Package export renders computed report rows into PDF or XLSX files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"cityhr/internal/apperr"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var Formats = []string{FormatPDF, FormatXLSX}

type Column struct {
	Title string
	// Width in millimetres for PDF output; zero shares the remaining width.
	Width float64
}

type Row struct {
	Cells []string
	// Flagged rows are highlighted, for instance a negative leave balance.
	Flagged bool
}

type Table struct {
	Columns []Column
	Rows    []Row
}

type Field struct {
	Label string
	Value string
}

type Section struct {
	Title  string
	Fields []Field
	Table  *Table
}

type Report struct {
	Kind        string
	Title       string
	Subtitle    string
	Landscape   bool
	GeneratedAt time.Time
	Sections    []Section
}

func ValidFormat(format string) bool {
	return slices.Contains(Formats, format)
}

// FileName returns <kind>_<yyyymmdd_hhmmss>.<format>.
func FileName(kind, format string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", kind, now.Format("20060102_150405"), format)
}

// Write renders r into dir and returns the file path.
func Write(r Report, format, dir string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !ValidFormat(format) {
		return "", apperr.Invalid("format", "must be pdf or xlsx")
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	path := filepath.Join(dir, FileName(r.Kind, format, r.GeneratedAt))
	var err error
	switch format {
	case FormatPDF:
		err = writePDF(r, path)
	case FormatXLSX:
		err = writeXLSX(r, path)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: write %s report: %v", apperr.ErrIO, format, err)
	}
	return path, nil
}
