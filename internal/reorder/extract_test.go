package reorder

import (
	"testing"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/sheet"
)

func seedQuery(store *sheet.MemoryStore, executedAt sheet.Value, body [][]sheet.Value) {
	rows := [][]sheet.Value{
		{"code", "vendor", "qty", "executed_at", "memo"},
		{"", "", "", "", ""},
	}
	for i, r := range body {
		if i == 0 && executedAt != nil {
			r = append(append([]sheet.Value{}, r...), nil, nil, nil, nil)[:5]
			r[3] = executedAt
		}
		rows = append(rows, r)
	}
	store.SeedTab("query", rows)
}

func TestExtractSelectsPositiveQuantities(t *testing.T) {
	store := sheet.NewMemoryStore()
	seedQuery(store, "2026-08-28 06:00:00", [][]sheet.Value{
		{"AB26T001", "vendorA", 5.0, "", ""},
		{"AB26T002", "vendorA", float64(0), "", ""},
		{"AB26T003", "vendorB", 12.0, "", ""},
		{"", "", 9.0, "", ""},
		{"AB26T004", "vendorB", "not-a-number", "", ""},
	})

	e := NewExtractor(testBrand(), time.UTC)
	e.now = fixedNow
	tab, _ := store.Tab("query")

	items, err := e.Extract(tab, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items=%d want 2: %+v", len(items), items)
	}
	if items[0].ProductCode != "AB26T001" || items[0].ReorderQty != 5 {
		t.Fatalf("first item wrong: %+v", items[0])
	}
	if items[1].ProductCode != "AB26T003" || items[1].ReorderQty != 12 {
		t.Fatalf("second item wrong: %+v", items[1])
	}
}

func TestExtractRespectsExclusions(t *testing.T) {
	store := sheet.NewMemoryStore()
	seedQuery(store, "2026-08-28 06:00:00", [][]sheet.Value{
		{"AB26T001", "vendorA", 5.0, "", ""},
		{"AB26T003", "vendorB", 12.0, "", ""},
	})

	e := NewExtractor(testBrand(), time.UTC)
	e.now = fixedNow
	tab, _ := store.Tab("query")

	excluded := map[string]internal.ExclusionRecord{
		"AB26T001": {ProductKey: "AB26T001", Reason: internal.ExcludedByGrade},
	}
	items, err := e.Extract(tab, excluded)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(items) != 1 || items[0].ProductCode != "AB26T003" {
		t.Fatalf("exclusion not applied: %+v", items)
	}
}

func TestExtractDeterministic(t *testing.T) {
	store := sheet.NewMemoryStore()
	seedQuery(store, "2026-08-28 06:00:00", [][]sheet.Value{
		{"AB26T001", "vendorA", 5.0, "", ""},
		{"AB26T003", "vendorB", 12.0, "", ""},
	})

	e := NewExtractor(testBrand(), time.UTC)
	e.now = fixedNow
	tab, _ := store.Tab("query")

	first, err := e.Extract(tab, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := e.Extract(tab, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ProductCode != second[i].ProductCode || first[i].ReorderQty != second[i].ReorderQty {
			t.Fatalf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestValidateQueryDate(t *testing.T) {
	cases := []struct {
		name      string
		executed  sheet.Value
		wantToday bool
	}{
		{name: "today string", executed: "2026-08-28 06:00:00", wantToday: true},
		{name: "today date", executed: time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC), wantToday: true},
		{name: "yesterday", executed: "2026-08-27 06:00:00", wantToday: false},
		{name: "blank", executed: "", wantToday: false},
		{name: "junk", executed: "n/a", wantToday: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := sheet.NewMemoryStore()
			seedQuery(store, tc.executed, [][]sheet.Value{
				{"AB26T001", "vendorA", 5.0, "", ""},
			})
			e := NewExtractor(testBrand(), time.UTC)
			e.now = fixedNow
			tab, _ := store.Tab("query")
			info, err := e.ValidateQueryDate(tab)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if info.IsToday != tc.wantToday {
				t.Fatalf("IsToday=%v want %v (info %+v)", info.IsToday, tc.wantToday, info)
			}
		})
	}
}

func TestIsSkipDay(t *testing.T) {
	loc := time.UTC
	saturday := time.Date(2026, 8, 29, 10, 0, 0, 0, loc)
	friday := time.Date(2026, 8, 28, 10, 0, 0, 0, loc)

	if !IsSkipDay(saturday, loc, nil, nil) {
		t.Fatalf("saturday not skipped")
	}
	if IsSkipDay(friday, loc, nil, nil) {
		t.Fatalf("plain friday skipped")
	}
	if !IsSkipDay(friday, loc, []string{"2026-08-28"}, nil) {
		t.Fatalf("configured holiday not skipped")
	}

	store := sheet.NewMemoryStore()
	store.SeedTab(HolidayTab, [][]sheet.Value{{"2026-08-28", "company holiday"}})
	if !IsSkipDay(friday, loc, nil, store) {
		t.Fatalf("holiday tab date not skipped")
	}
	empty := sheet.NewMemoryStore()
	if IsSkipDay(friday, loc, nil, empty) {
		t.Fatalf("missing holiday tab treated as holiday")
	}
}
