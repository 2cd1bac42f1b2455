package export

import (
	"github.com/xuri/excelize/v2"
)

const sheetName = "Rapport"

func writeXLSX(r Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE2EB"}},
	})
	if err != nil {
		return err
	}
	flaggedStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	})
	if err != nil {
		return err
	}

	row := 1
	set := func(col, row int, value any, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return err
		}
		if style != 0 {
			return f.SetCellStyle(sheetName, cell, cell, style)
		}
		return nil
	}

	if err := set(1, row, r.Title, titleStyle); err != nil {
		return err
	}
	row++
	if r.Subtitle != "" {
		if err := set(1, row, r.Subtitle, 0); err != nil {
			return err
		}
		row++
	}
	if err := set(1, row, "Généré le "+r.GeneratedAt.Format("02/01/2006 15:04"), 0); err != nil {
		return err
	}
	row += 2

	maxCols := 2
	for _, section := range r.Sections {
		if section.Title != "" {
			if err := set(1, row, section.Title, titleStyle); err != nil {
				return err
			}
			row++
		}
		for _, field := range section.Fields {
			if err := set(1, row, field.Label, boldStyle); err != nil {
				return err
			}
			if err := set(2, row, field.Value, 0); err != nil {
				return err
			}
			row++
		}
		if t := section.Table; t != nil {
			maxCols = max(maxCols, len(t.Columns))
			for i, c := range t.Columns {
				if err := set(i+1, row, c.Title, headerStyle); err != nil {
					return err
				}
			}
			row++
			for _, data := range t.Rows {
				style := 0
				if data.Flagged {
					style = flaggedStyle
				}
				for i := range t.Columns {
					value := ""
					if i < len(data.Cells) {
						value = data.Cells[i]
					}
					if err := set(i+1, row, value, style); err != nil {
						return err
					}
				}
				row++
			}
		}
		row++
	}

	last, err := excelize.ColumnNumberToName(maxCols)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", last, 22); err != nil {
		return err
	}
	return f.SaveAs(path)
}
