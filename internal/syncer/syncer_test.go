package syncer

import (
	"testing"
	"time"

	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

func testSyncer() *Syncer {
	cfg := config.SyncConfig{
		OrderTab:   "orders",
		CumulTab:   "cumulative",
		ReorderTab: "reorder",

		HeaderRows: 2,
		ReadWidth:  6,
		WriteWidth: 4,

		RequiredCol:  2,
		KeyCol:       3,
		DoneFlagCols: []int{5, 6},
		SortCol:      3,
	}
	s := &Syncer{
		cfg:         cfg,
		retry:       &sheet.Retryer{Attempts: 1, BaseDelay: time.Millisecond, Sleep: func(time.Duration) {}},
		chunkBig:    1000,
		chunkSmall:  500,
		cellCeiling: 200000,
	}
	return s
}

func header(width int) []sheet.Value {
	row := make([]sheet.Value, width)
	for i := range row {
		row[i] = "h"
	}
	return row
}

func TestNewWiresRetrySettings(t *testing.T) {
	env := config.Config{
		RetryAttempts:      2,
		RetryBaseMs:        50,
		SyncChunkRowsBig:   1000,
		SyncChunkRowsSmall: 500,
		SyncCellCeiling:    200000,
	}
	s := New(config.SyncConfig{}, env)
	if s.retry.Attempts != 2 || s.retry.BaseDelay != 50*time.Millisecond {
		t.Fatalf("retry settings not wired: attempts=%d base=%s", s.retry.Attempts, s.retry.BaseDelay)
	}
}

func TestPickChunkSize(t *testing.T) {
	s := testSyncer()
	if got := s.pickChunkSize(100, 22); got != 1000 {
		t.Fatalf("small write chunk=%d want 1000", got)
	}
	if got := s.pickChunkSize(10000, 22); got != 500 {
		t.Fatalf("large write chunk=%d want 500", got)
	}
}

func TestAccumulateFiltersAndAppends(t *testing.T) {
	s := testSyncer()

	orderStore := sheet.NewMemoryStore()
	orderStore.SeedTab("orders", [][]sheet.Value{
		header(6), header(6),
		{"brand", "req-1", "k1", "", "", ""},
		{"", "", "", "", "", ""},
		{"brand", "", "k2", "", "", ""},
		{"brand", "req-2", "k3", "", "", ""},
	})
	cumulStore := sheet.NewMemoryStore()
	cumulStore.SeedTab("cumulative", [][]sheet.Value{
		{"old", "row", "", "", "", ""},
	})

	orderTab, _ := orderStore.Tab("orders")
	cumulTab, _ := cumulStore.Tab("cumulative")

	appended, err := s.Accumulate(orderTab, cumulTab, cumulStore)
	if err != nil {
		t.Fatalf("accumulate: %v", err)
	}
	if appended != 2 {
		t.Fatalf("appended=%d want 2", appended)
	}

	rows, _ := cumulTab.GetRange(2, 1, 2, 6)
	if rows[0][1] != "req-1" || rows[1][1] != "req-2" {
		t.Fatalf("appended rows wrong: %+v", rows)
	}
}

func TestReplaceFilteredKeepsOpenRows(t *testing.T) {
	s := testSyncer()

	reorderStore := sheet.NewMemoryStore()
	reorderStore.SeedTab("reorder", [][]sheet.Value{
		header(6), header(6),
		{"b", "x", "key-c", "v", "", ""},
		{"b", "x", "key-a", "v", "TRUE", ""},
		{"b", "x", "", "v", "", ""},
		{"b", "x", "key-b", "v", "", "true "},
		{"b", "x", "key-a", "v", "", ""},
	})
	orderStore := sheet.NewMemoryStore()
	orderStore.SeedTab("orders", [][]sheet.Value{
		header(6), header(6),
		{"stale", "stale", "stale", "stale", "stale", "stale"},
		{"stale", "stale", "stale", "stale", "stale", "stale"},
		{"stale", "stale", "stale", "stale", "stale", "stale"},
	})

	reorderTab, _ := reorderStore.Tab("reorder")
	orderTab, _ := orderStore.Tab("orders")

	written, err := s.ReplaceFiltered(reorderTab, orderTab, orderStore)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if written != 2 {
		t.Fatalf("written=%d want 2", written)
	}

	rows, _ := orderTab.GetRange(3, 1, 3, 6)
	if rows[0][2] != "key-a" || rows[1][2] != "key-c" {
		t.Fatalf("rows not sorted ascending by key: %+v", rows)
	}
	// Truncated to the write width: flag columns must not carry over.
	if rows[0][4] != nil && rows[0][4] != "" {
		t.Fatalf("row wider than write width: %+v", rows[0])
	}
	if !sheet.IsRowEmpty(rows[2]) {
		t.Fatalf("stale third row survived the clear: %+v", rows[2])
	}
}

func TestReplaceFilteredEmptyLeavesCleared(t *testing.T) {
	s := testSyncer()

	reorderStore := sheet.NewMemoryStore()
	reorderStore.SeedTab("reorder", [][]sheet.Value{
		header(6), header(6),
		{"b", "x", "key-a", "v", "TRUE", ""},
	})
	orderStore := sheet.NewMemoryStore()
	orderStore.SeedTab("orders", [][]sheet.Value{
		header(6), header(6),
		{"stale", "stale", "stale", "stale", "stale", "stale"},
	})

	reorderTab, _ := reorderStore.Tab("reorder")
	orderTab, _ := orderStore.Tab("orders")

	written, err := s.ReplaceFiltered(reorderTab, orderTab, orderStore)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if written != 0 {
		t.Fatalf("written=%d want 0", written)
	}
	lastRow, _ := orderTab.LastRow()
	if lastRow > 2 {
		t.Fatalf("destination not left cleared: lastRow=%d", lastRow)
	}
}

func TestWriteChunkedExactness(t *testing.T) {
	s := testSyncer()
	s.chunkBig = 7

	store := sheet.NewMemoryStore()
	store.SeedTab("cumulative", nil)
	tab, _ := store.Tab("cumulative")

	rows := make([][]sheet.Value, 23)
	for i := range rows {
		rows[i] = []sheet.Value{i + 1, "x", "y", "z"}
	}
	if err := s.writeChunked(tab, store, 1, rows); err != nil {
		t.Fatalf("writeChunked: %v", err)
	}

	got, _ := tab.GetRange(1, 1, 23, 4)
	for i, row := range got {
		if row[0] != i+1 {
			t.Fatalf("row %d out of place or duplicated: %+v", i, row)
		}
	}
	lastRow, _ := tab.LastRow()
	if lastRow != 23 {
		t.Fatalf("lastRow=%d want 23", lastRow)
	}
}
