package sheet

import "fmt"

// Store is one spreadsheet document holding named tabs. Rows and columns
// are 1-based throughout, matching the remote APIs.
type Store interface {
	// Tab returns the named tab, or an error wrapping ErrTabNotFound.
	Tab(name string) (Tab, error)
	HasTab(name string) bool
	InsertTab(name string) (Tab, error)
	DeleteTab(name string) error
	TabNames() ([]string, error)
	// Flush forces pending writes to be durable before the next read.
	Flush() error
}

// Tab is a rectangular range of cells inside a Store.
type Tab interface {
	Name() string
	// LastRow is the index of the last row carrying any content, 0 when empty.
	LastRow() (int, error)
	GetRange(row, col, numRows, numCols int) ([][]Value, error)
	SetRange(row, col int, values [][]Value) error
	ClearRange(row, col, numRows, numCols int) error
	// Sort orders the given range in place by one of its columns
	// (byCol is absolute, 1-based).
	Sort(row, col, numRows, numCols, byCol int, ascending bool) error
}

// ErrTabNotFound reports a missing tab.
var ErrTabNotFound = fmt.Errorf("tab not found")

// ColumnName converts a 1-based column index to its A1 letter form.
func ColumnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
