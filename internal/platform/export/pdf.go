package export

import (
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 12.0
	pdfLineHeight = 7.0
)

func writePDF(r Report, path string) error {
	orientation := "P"
	if r.Landscape {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, tr("Généré le "+r.GeneratedAt.Format("02/01/2006 15:04")), "", 0, "L", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")
	if r.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(r.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pdfMargin
	for _, section := range r.Sections {
		if section.Title != "" {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 8, tr(section.Title), "B", 1, "L", false, 0, "")
			pdf.Ln(2)
		}
		pdf.SetFont("Helvetica", "", 10)
		for _, f := range section.Fields {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(55, pdfLineHeight-1, tr(f.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(0, pdfLineHeight-1, tr(f.Value), "", 1, "L", false, 0, "")
		}
		if section.Table != nil {
			writePDFTable(pdf, tr, section.Table, usable)
		}
		pdf.Ln(5)
	}
	return pdf.OutputFileAndClose(path)
}

func writePDFTable(pdf *gofpdf.Fpdf, tr func(string) string, t *Table, usable float64) {
	widths := columnWidths(t.Columns, usable)
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 226, 235)
		for i, c := range t.Columns {
			pdf.CellFormat(widths[i], pdfLineHeight, tr(c.Title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range t.Rows {
		if pdf.GetY()+pdfLineHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 9)
		}
		if row.Flagged {
			pdf.SetFillColor(255, 199, 206)
			pdf.SetTextColor(156, 0, 6)
		}
		for i := range t.Columns {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			pdf.CellFormat(widths[i], pdfLineHeight, fit(pdf, tr(cell), widths[i]), "1", 0, "L", row.Flagged, 0, "")
		}
		pdf.Ln(-1)
		if row.Flagged {
			pdf.SetTextColor(0, 0, 0)
		}
	}
}

// columnWidths honours fixed widths and shares the rest equally.
func columnWidths(cols []Column, usable float64) []float64 {
	widths := make([]float64, len(cols))
	fixed, free := 0.0, 0
	for i, c := range cols {
		widths[i] = c.Width
		if c.Width > 0 {
			fixed += c.Width
		} else {
			free++
		}
	}
	if free > 0 {
		share := (usable - fixed) / float64(free)
		if share < 10 {
			share = 10
		}
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

// fit trims text that would overflow a cell. text is already in the
// single-byte font encoding, so cutting bytes is safe.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	cut := text
	for len(cut) > 0 && pdf.GetStringWidth(cut+"...") > limit {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
