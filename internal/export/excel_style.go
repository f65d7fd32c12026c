package export

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	minColWidth  = 10.0
	maxColWidth  = 50.0
	headerFill   = "#DDEBF7"
	wrapOverRune = 50
)

// styleSheet formats a sheet written by NewWorkbook: a frozen, filtered,
// shaded header and column widths fitted to the longest cell. Columns
// with long text wrap instead of growing past maxColWidth.
func styleSheet(f *excelize.File, s SheetSpec) error {
	cols := len(s.Header)
	for _, row := range s.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(s.Title, "A1", last+"1", header); err != nil {
		return err
	}
	if err := f.AutoFilter(s.Title, "A1:"+last+"1", nil); err != nil {
		return err
	}
	if len(s.Rows) > 0 {
		err := f.SetPanes(s.Title, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return err
		}
	}

	widest := make([]int, cols)
	for i, h := range s.Header {
		widest[i] = utf8.RuneCountInString(h) + 2
	}
	for _, row := range s.Rows {
		for i, v := range row {
			widest[i] = max(widest[i], cellWidth(v))
		}
	}

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("wrap style: %w", err)
	}
	for i, w := range widest {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := min(max(float64(w)*1.1, minColWidth), maxColWidth)
		if err := f.SetColWidth(s.Title, col, col, width); err != nil {
			return err
		}
		if w > wrapOverRune && len(s.Rows) > 0 {
			bottom := fmt.Sprintf("%s%d", col, len(s.Rows)+1)
			if err := f.SetCellStyle(s.Title, col+"2", bottom, wrap); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellWidth is the rune length of the longest line of v.
func cellWidth(v any) int {
	if v == nil {
		return 0
	}
	w := 0
	for _, line := range strings.Split(fmt.Sprint(v), "\n") {
		w = max(w, utf8.RuneCountInString(line))
	}
	return w
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|]+`)

// sanitizeFileName collapses whitespace and replaces characters that are
// not allowed in file names.
func sanitizeFileName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = unsafeName.ReplaceAllString(s, "_")
	if s == "" {
		return "export.xlsx"
	}
	return s
}
