package reorder

import (
	"testing"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/sheet"
)

func quietRetryer() *sheet.Retryer {
	return &sheet.Retryer{Attempts: 1, BaseDelay: time.Millisecond, Sleep: func(time.Duration) {}}
}

func testItems() []internal.ReorderItem {
	return []internal.ReorderItem{
		{ProductCode: "AB26T001", VendorCategory: "vendorA", ReorderQty: 5, Raw: []sheet.Value{"AB26T001", "vendorA", 5.0, "", ""}},
		{ProductCode: "AB26T003", VendorCategory: "vendorB", ReorderQty: 12, Raw: []sheet.Value{"AB26T003", "vendorB", 12.0, "", ""}},
	}
}

func TestAppendLogRowShape(t *testing.T) {
	store := sheet.NewMemoryStore()
	store.SeedTab("log", [][]sheet.Value{
		{"date", "code", "", "", "qty"},
	})

	a := NewAppender(testBrand(), time.UTC, quietRetryer())
	runDate := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	if err := a.AppendLog(store, testItems(), runDate); err != nil {
		t.Fatalf("append log: %v", err)
	}

	tab, _ := store.Tab("log")
	rows, _ := tab.GetRange(2, 1, 2, 5)
	if rows[0][0] != "2026-08-28" || rows[0][1] != "AB26T001" || rows[0][4] != 5.0 {
		t.Fatalf("first log row wrong: %+v", rows[0])
	}
	if rows[0][2] != "" || rows[0][3] != "" {
		t.Fatalf("unpopulated offsets not blank: %+v", rows[0])
	}
	if rows[1][1] != "AB26T003" || rows[1][4] != 12.0 {
		t.Fatalf("second log row wrong: %+v", rows[1])
	}
}

func TestAppendLogSkipsTrailingBlanks(t *testing.T) {
	store := sheet.NewMemoryStore()
	store.SeedTab("log", [][]sheet.Value{
		{"2026-08-01", "OLD001", "", "", 3.0},
		{"", "", "", "", ""},
		{"", "", "", "stray note", ""},
	})

	a := NewAppender(testBrand(), time.UTC, quietRetryer())
	runDate := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	if err := a.AppendLog(store, testItems()[:1], runDate); err != nil {
		t.Fatalf("append log: %v", err)
	}

	tab, _ := store.Tab("log")
	rows, _ := tab.GetRange(2, 1, 1, 5)
	if rows[0][1] != "AB26T001" {
		t.Fatalf("append row not derived from marker column scan: %+v", rows[0])
	}
	kept, _ := tab.GetRange(1, 1, 1, 5)
	if kept[0][1] != "OLD001" {
		t.Fatalf("existing history overwritten: %+v", kept[0])
	}
}

func TestAppendArchiveCreatesTab(t *testing.T) {
	store := sheet.NewMemoryStore()
	a := NewAppender(testBrand(), time.UTC, quietRetryer())
	runDate := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	if err := a.AppendArchive(store, testItems(), runDate); err != nil {
		t.Fatalf("append archive: %v", err)
	}
	if !store.HasTab("archive") {
		t.Fatalf("archive tab not created")
	}

	tab, _ := store.Tab("archive")
	header, _ := tab.GetRange(1, 1, 1, 6)
	if header[0][0] != "archived_at" {
		t.Fatalf("header row missing: %+v", header[0])
	}
	rows, _ := tab.GetRange(2, 1, 2, 6)
	if rows[0][0] != "2026-08-28" || rows[0][1] != "AB26T001" {
		t.Fatalf("archive row wrong: %+v", rows[0])
	}
	if rows[1][1] != "AB26T003" {
		t.Fatalf("second archive row wrong: %+v", rows[1])
	}
}

func TestAppendArchiveAppendsBelowExisting(t *testing.T) {
	store := sheet.NewMemoryStore()
	a := NewAppender(testBrand(), time.UTC, quietRetryer())
	runDate := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	if err := a.AppendArchive(store, testItems(), runDate); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := a.AppendArchive(store, testItems()[:1], runDate); err != nil {
		t.Fatalf("second append: %v", err)
	}

	tab, _ := store.Tab("archive")
	lastRow, _ := tab.LastRow()
	if lastRow != 4 {
		t.Fatalf("lastRow=%d want 4 (header + 3 rows)", lastRow)
	}
}
