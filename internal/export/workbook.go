package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetSpec is one sheet: a header row followed by data rows.
// Cells keep their Go type so numbers stay numeric in the spreadsheet.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]any
}

// NewWorkbook builds a file with one sheet per spec, in order.
func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		header := make([]any, len(s.Header))
		for c, h := range s.Header {
			header[c] = h
		}
		if err := f.SetSheetRow(s.Title, "A1", &header); err != nil {
			return nil, fmt.Errorf("header row: %w", err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(s.Title, cell, &row); err != nil {
				return nil, fmt.Errorf("row %d: %w", r+1, err)
			}
		}
		if err := styleSheet(f, s); err != nil {
			return nil, fmt.Errorf("format %s: %w", s.Title, err)
		}
	}
	return f, nil
}
