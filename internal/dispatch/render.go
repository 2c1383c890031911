package dispatch

import (
	"time"

	"reorderflow/internal/sheet"
)

// Paginate splits rows into fixed-size pages. A non-positive page size
// yields a single page.
func Paginate(rows [][]string, pageSize int) [][][]string {
	if len(rows) == 0 {
		return nil
	}
	if pageSize <= 0 {
		return [][][]string{rows}
	}
	var pages [][][]string
	for start := 0; start < len(rows); start += pageSize {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, rows[start:end])
	}
	return pages
}

// tableCells renders raw order rows to display strings at the given
// width. Dates collapse to yyyy-MM-dd, numbers keep their shortest form.
func tableCells(rows [][]sheet.Value, width int, loc *time.Location) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, width)
		for col := 1; col <= width; col++ {
			cells[col-1] = sheet.Text(cellAt(row, col), loc)
		}
		out = append(out, cells)
	}
	return out
}
