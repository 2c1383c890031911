package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"
)

// XLSXStore binds Store to a local .xlsx workbook. Cells round-trip as
// strings; callers parse them through the cell helpers.
type XLSXStore struct {
	path string
	file *excelize.File
}

// OpenWorkbook opens path, creating a new workbook when it does not exist.
func OpenWorkbook(path string) (*XLSXStore, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f := excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, err
		}
		return &XLSXStore{path: path, file: f}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &XLSXStore{path: path, file: f}, nil
}

func (s *XLSXStore) Close() error { return s.file.Close() }

func (s *XLSXStore) Tab(name string) (Tab, error) {
	idx, err := s.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, name)
	}
	return &xlsxTab{store: s, name: name}, nil
}

func (s *XLSXStore) HasTab(name string) bool {
	idx, err := s.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (s *XLSXStore) InsertTab(name string) (Tab, error) {
	if _, err := s.file.NewSheet(name); err != nil {
		return nil, err
	}
	return &xlsxTab{store: s, name: name}, nil
}

func (s *XLSXStore) DeleteTab(name string) error {
	return s.file.DeleteSheet(name)
}

func (s *XLSXStore) TabNames() ([]string, error) {
	return s.file.GetSheetList(), nil
}

func (s *XLSXStore) Flush() error {
	return s.file.SaveAs(s.path)
}

type xlsxTab struct {
	store *XLSXStore
	name  string
}

func (t *xlsxTab) Name() string { return t.name }

func (t *xlsxTab) LastRow() (int, error) {
	rows, err := t.store.file.GetRows(t.name)
	if err != nil {
		return 0, err
	}
	last := 0
	for i, row := range rows {
		for _, cell := range row {
			if cell != "" {
				last = i + 1
				break
			}
		}
	}
	return last, nil
}

func (t *xlsxTab) GetRange(row, col, numRows, numCols int) ([][]Value, error) {
	out := make([][]Value, numRows)
	for i := 0; i < numRows; i++ {
		cells := make([]Value, numCols)
		for j := 0; j < numCols; j++ {
			ref, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return nil, err
			}
			raw, err := t.store.file.GetCellValue(t.name, ref)
			if err != nil {
				return nil, err
			}
			if raw != "" {
				cells[j] = raw
			}
		}
		out[i] = cells
	}
	return out, nil
}

func (t *xlsxTab) SetRange(row, col int, values [][]Value) error {
	for i, r := range values {
		for j, v := range r {
			ref, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return err
			}
			if v == nil {
				v = ""
			}
			if err := t.store.file.SetCellValue(t.name, ref, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *xlsxTab) ClearRange(row, col, numRows, numCols int) error {
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			ref, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return err
			}
			if err := t.store.file.SetCellValue(t.name, ref, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *xlsxTab) Sort(row, col, numRows, numCols, byCol int, ascending bool) error {
	block, err := t.GetRange(row, col, numRows, numCols)
	if err != nil {
		return err
	}
	key := byCol - col
	if key < 0 || key >= numCols {
		return fmt.Errorf("sort column %d outside range", byCol)
	}
	loc := defaultLocation()
	sort.SliceStable(block, func(i, j int) bool {
		a := Text(block[i][key], loc)
		b := Text(block[j][key], loc)
		if ascending {
			return a < b
		}
		return a > b
	})
	return t.SetRange(row, col, block)
}
