package sheet

import (
	"path/filepath"
	"testing"
)

func TestXLSXStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	store, err := OpenWorkbook(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	tab, err := store.InsertTab("data")
	if err != nil {
		t.Fatalf("insert tab: %v", err)
	}
	rows := [][]Value{
		{"code", "qty"},
		{"AB26T002", "7"},
		{"AB26T001", "3"},
	}
	if err := tab.SetRange(1, 1, rows); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened, err := OpenWorkbook(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if !reopened.HasTab("data") {
		t.Fatalf("tab lost across save")
	}
	tab2, _ := reopened.Tab("data")

	lastRow, err := tab2.LastRow()
	if err != nil || lastRow != 3 {
		t.Fatalf("lastRow=%d err=%v want 3", lastRow, err)
	}

	got, err := tab2.GetRange(2, 1, 2, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[0][0] != "AB26T002" || got[1][1] != "3" {
		t.Fatalf("values wrong: %+v", got)
	}

	if err := tab2.Sort(2, 1, 2, 2, 1, true); err != nil {
		t.Fatalf("sort: %v", err)
	}
	sorted, _ := tab2.GetRange(2, 1, 2, 2)
	if sorted[0][0] != "AB26T001" || sorted[1][0] != "AB26T002" {
		t.Fatalf("sort wrong: %+v", sorted)
	}

	if err := tab2.ClearRange(2, 1, 2, 2); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cleared, _ := tab2.GetRange(2, 1, 1, 2)
	if cleared[0][0] != nil {
		t.Fatalf("clear left content: %+v", cleared)
	}
}

func TestMemoryStoreBasics(t *testing.T) {
	store := NewMemoryStore()
	if store.HasTab("x") {
		t.Fatalf("empty store has tab")
	}
	if _, err := store.Tab("x"); err == nil {
		t.Fatalf("missing tab should error")
	}

	tab, err := store.InsertTab("x")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tab.SetRange(2, 2, [][]Value{{"a", "b"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	lastRow, _ := tab.LastRow()
	if lastRow != 2 {
		t.Fatalf("lastRow=%d want 2", lastRow)
	}
	got, _ := tab.GetRange(2, 2, 1, 2)
	if got[0][0] != "a" || got[0][1] != "b" {
		t.Fatalf("get wrong: %+v", got)
	}

	names, _ := store.TabNames()
	if len(names) != 1 || names[0] != "x" {
		t.Fatalf("names: %+v", names)
	}
	if err := store.DeleteTab("x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.HasTab("x") {
		t.Fatalf("tab survived delete")
	}
}
