package sheet

import (
	"fmt"
	"sort"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	tabs  map[string]*memoryTab
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tabs: map[string]*memoryTab{}}
}

func (s *MemoryStore) Tab(name string) (Tab, error) {
	tab, ok := s.tabs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, name)
	}
	return tab, nil
}

func (s *MemoryStore) HasTab(name string) bool {
	_, ok := s.tabs[name]
	return ok
}

func (s *MemoryStore) InsertTab(name string) (Tab, error) {
	if _, ok := s.tabs[name]; ok {
		return nil, fmt.Errorf("tab already exists: %s", name)
	}
	tab := &memoryTab{name: name}
	s.tabs[name] = tab
	s.order = append(s.order, name)
	return tab, nil
}

func (s *MemoryStore) DeleteTab(name string) error {
	if _, ok := s.tabs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTabNotFound, name)
	}
	delete(s.tabs, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) TabNames() ([]string, error) {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *MemoryStore) Flush() error { return nil }

// SeedTab creates a tab pre-filled with rows starting at row 1.
func (s *MemoryStore) SeedTab(name string, rows [][]Value) *memoryTab {
	tab := &memoryTab{name: name}
	s.tabs[name] = tab
	s.order = append(s.order, name)
	if len(rows) > 0 {
		_ = tab.SetRange(1, 1, rows)
	}
	return tab
}

type memoryTab struct {
	name string
	grid [][]Value
}

func (t *memoryTab) Name() string { return t.name }

func (t *memoryTab) LastRow() (int, error) {
	last := 0
	for i, row := range t.grid {
		if !IsRowEmpty(row) {
			last = i + 1
		}
	}
	return last, nil
}

func (t *memoryTab) ensure(row, col int) {
	for len(t.grid) < row {
		t.grid = append(t.grid, nil)
	}
	for i := range t.grid {
		for len(t.grid[i]) < col {
			t.grid[i] = append(t.grid[i], nil)
		}
	}
}

func (t *memoryTab) GetRange(row, col, numRows, numCols int) ([][]Value, error) {
	if row < 1 || col < 1 || numRows < 1 || numCols < 1 {
		return nil, fmt.Errorf("invalid range %d,%d+%dx%d", row, col, numRows, numCols)
	}
	t.ensure(row+numRows-1, col+numCols-1)
	out := make([][]Value, numRows)
	for i := 0; i < numRows; i++ {
		src := t.grid[row-1+i]
		dst := make([]Value, numCols)
		copy(dst, src[col-1:col-1+numCols])
		out[i] = dst
	}
	return out, nil
}

func (t *memoryTab) SetRange(row, col int, values [][]Value) error {
	if len(values) == 0 {
		return nil
	}
	width := 0
	for _, r := range values {
		if len(r) > width {
			width = len(r)
		}
	}
	t.ensure(row+len(values)-1, col+width-1)
	for i, r := range values {
		copy(t.grid[row-1+i][col-1:], r)
	}
	return nil
}

func (t *memoryTab) ClearRange(row, col, numRows, numCols int) error {
	t.ensure(row+numRows-1, col+numCols-1)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			t.grid[row-1+i][col-1+j] = nil
		}
	}
	return nil
}

func (t *memoryTab) Sort(row, col, numRows, numCols, byCol int, ascending bool) error {
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
