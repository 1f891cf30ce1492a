package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Resumen"

func writeXLSX(w io.Writer, report any) error {
	doc, err := project(report)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := f.SetCellValue(summarySheet, "A1", doc.title); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", bold); err != nil {
		return err
	}
	for i, kv := range doc.summary {
		cell := fmt.Sprintf("A%d", i+3)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{kv[0], kv[1]}); err != nil {
			return fmt.Errorf("xlsx: summary row: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return err
	}

	for _, t := range doc.tables {
		name := sheetName(t.title)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: new sheet %q: %w", name, err)
		}

		headers := make([]any, len(t.headers))
		for i, h := range t.headers {
			headers[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &headers); err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(t.headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, header); err != nil {
			return err
		}

		for r, row := range t.rows {
			values := make([]any, len(row))
			for i, v := range row {
				values[i] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("xlsx: row %d: %w", r+2, err)
			}
		}

		for i, width := range t.widths {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(name, col, col, width/2.5+4); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// sheetName clamps a title to the 31 character limit of sheet names.
func sheetName(title string) string {
	r := []rune(title)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
