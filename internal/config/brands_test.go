package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleBrands = `
brands:
  - name: acme
    spreadsheet_id: sheet-acme
    query_tab: query
    history_tab: history
    log_tab: log
    archive_tab: archive
  - name: orbit
    spreadsheet_id: sheet-orbit
    query_tab: query
    history_tab: history
    log_tab: log
    archive_tab: archive
    header_rows: 3
    excluded_grades: ["F"]
sync:
  order_spreadsheet_id: sheet-orders
  order_tab: orders
  cumul_spreadsheet_id: sheet-cumul
  cumul_tab: cumulative
  reorder_spreadsheet_id: sheet-reorder
  reorder_tab: reorder
dispatch:
  spreadsheet_id: sheet-orders
  order_tab: orders
  vendor_tab: vendors
holidays:
  - "2026-12-31"
mentions:
  - U12345
`

func TestLoadBrands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.yaml")
	if err := os.WriteFile(path, []byte(sampleBrands), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	b, err := LoadBrands(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(b.Brands) != 2 {
		t.Fatalf("brands=%d want 2", len(b.Brands))
	}

	acme, err := b.Brand("acme")
	if err != nil {
		t.Fatalf("brand lookup: %v", err)
	}
	if acme.HeaderRows != 2 || acme.QueryWidth != 27 || acme.LogQtyCol != 27 {
		t.Fatalf("defaults not applied: %+v", acme)
	}
	if len(acme.ExcludedGrades) != 2 {
		t.Fatalf("default grades: %+v", acme.ExcludedGrades)
	}

	orbit, _ := b.Brand("orbit")
	if orbit.HeaderRows != 3 {
		t.Fatalf("explicit header_rows overridden: %+v", orbit)
	}
	if len(orbit.ExcludedGrades) != 1 || orbit.ExcludedGrades[0] != "F" {
		t.Fatalf("explicit grades overridden: %+v", orbit.ExcludedGrades)
	}

	if b.Sync.ReadWidth != 22 || b.Sync.WriteWidth != 18 || b.Sync.KeyCol != 8 {
		t.Fatalf("sync defaults not applied: %+v", b.Sync)
	}
	if b.Dispatch.OrderDateCol != 3 {
		t.Fatalf("dispatch defaults not applied: %+v", b.Dispatch)
	}

	if _, err := b.Brand("nope"); err == nil {
		t.Fatalf("unknown brand lookup should fail")
	}
}
