package reorder

import (
	"testing"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

func testBrand() config.BrandConfig {
	return config.BrandConfig{
		Name:       "acme",
		QueryTab:   "query",
		HistoryTab: "history",
		LogTab:     "log",
		ArchiveTab: "archive",

		HeaderRows: 2,
		QueryWidth: 5,

		ProductCodeCol: 1,
		VendorCol:      2,
		ReorderQtyCol:  3,
		ExecutedAtCol:  4,

		HistoryDateCol:     1,
		HistoryCodeCol:     2,
		HistoryGradeCol:    3,
		HistoryDiscountCol: 4,

		LogWidth:   5,
		LogDateCol: 1,
		LogCodeCol: 2,
		LogQtyCol:  5,

		ExcludedGrades: []string{"E", "F"},
	}
}

func TestExtractProductKey(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{name: "fixed prefix", code: "AB26TSH123", want: "AB26TSH123"},
		{name: "prefix with suffix", code: "AB26T123-BLK", want: "AB26T123"},
		{name: "long category", code: "ZZ25ABC999_rest", want: "ZZ25ABC999"},
		{name: "passthrough prefix", code: "D2_CORE_EXTRA", want: "CORE"},
		{name: "underscore split", code: "CORE_EXTRA", want: "CORE"},
		{name: "no pattern", code: "misc-code", want: "misc-code"},
		{name: "whitespace", code: "  AB26T123  ", want: "AB26T123"},
		{name: "empty", code: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractProductKey(tc.code); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
}

func seedHistory(store *sheet.MemoryStore, rows [][]sheet.Value) {
	all := [][]sheet.Value{
		{"date", "code", "grade", "discount"},
		{"", "", "", ""},
	}
	store.SeedTab("history", append(all, rows...))
}

func TestResolverRules(t *testing.T) {
	store := sheet.NewMemoryStore()
	seedHistory(store, [][]sheet.Value{
		{"2023-01-01", "AB26T001", "E", nil},       // old E grade: excluded
		{"2026-08-20", "AB26T002", "B", 10.0},      // recent discount: excluded
		{"2023-01-01", "AB26T003", "B", 10.0},      // old discount: kept
		{"2026-08-20", "AB26T004", "C", nil},       // recent, no discount: kept
		{"2026-08-20", "AB26T005", "B", float64(0)}, // zero discount: kept
	})

	r := NewResolver(testBrand(), 60, time.UTC)
	r.now = fixedNow
	excluded := r.Load(store)

	if len(excluded) != 2 {
		t.Fatalf("excluded=%d want 2: %+v", len(excluded), excluded)
	}
	if rec, ok := excluded["AB26T001"]; !ok || rec.Reason != internal.ExcludedByGrade {
		t.Fatalf("grade exclusion missing: %+v", rec)
	}
	if rec, ok := excluded["AB26T002"]; !ok || rec.Reason != internal.ExcludedByDiscount {
		t.Fatalf("discount exclusion missing: %+v", rec)
	}
}

func TestResolverUnionAcrossRecords(t *testing.T) {
	store := sheet.NewMemoryStore()
	seedHistory(store, [][]sheet.Value{
		{"2020-01-01", "AB26T010", "E", nil},
		{"2026-08-27", "AB26T010", "A", nil},
	})

	r := NewResolver(testBrand(), 60, time.UTC)
	r.now = fixedNow
	excluded := r.Load(store)

	rec, ok := excluded["AB26T010"]
	if !ok {
		t.Fatalf("old E grade was overwritten by the newer clean record")
	}
	if rec.Reason != internal.ExcludedByGrade {
		t.Fatalf("reason=%s want GRADE", rec.Reason)
	}
}

func TestResolverMissingHistory(t *testing.T) {
	store := sheet.NewMemoryStore()
	r := NewResolver(testBrand(), 60, time.UTC)
	r.now = fixedNow
	if excluded := r.Load(store); len(excluded) != 0 {
		t.Fatalf("missing history should yield no exclusions, got %d", len(excluded))
	}
}
