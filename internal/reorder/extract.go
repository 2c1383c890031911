package reorder

import (
	"fmt"
	"strings"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

// HolidayTab is the optional tab listing non-working dates, one per row
// in column A.
const HolidayTab = "Holidays"

// Extractor selects reorder items from the computed query rows of one
// brand's spreadsheet.
type Extractor struct {
	cfg config.BrandConfig
	loc *time.Location
	now func() time.Time
}

func NewExtractor(cfg config.BrandConfig, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{cfg: cfg, loc: loc, now: time.Now}
}

// ValidateQueryDate checks that the computed rows were produced today.
// The executed-at column of the first body row carries the query
// timestamp; anything but today's date means the upstream job did not
// run and the pipeline must not act on stale numbers.
func (e *Extractor) ValidateQueryDate(tab sheet.Tab) (internal.QueryDateInfo, error) {
	firstRow := e.cfg.HeaderRows + 1
	cells, err := tab.GetRange(firstRow, e.cfg.ExecutedAtCol, 1, 1)
	if err != nil {
		return internal.QueryDateInfo{}, fmt.Errorf("read query timestamp: %w", err)
	}
	var raw sheet.Value
	if len(cells) > 0 && len(cells[0]) > 0 {
		raw = cells[0][0]
	}

	executedAt, ok := sheet.Date(raw, e.loc)
	if !ok {
		return internal.QueryDateInfo{
			IsToday:      false,
			FullDateTime: strings.TrimSpace(sheet.Text(raw, e.loc)),
		}, nil
	}

	return internal.QueryDateInfo{
		IsToday:      sheet.SameDay(executedAt, e.now(), e.loc),
		DateStr:      executedAt.In(e.loc).Format("2006-01-02"),
		FullDateTime: executedAt.In(e.loc).Format("2006-01-02 15:04:05"),
	}, nil
}

// Extract returns the body rows whose reorder quantity is a finite
// number above zero and whose product key is not excluded. Source row
// order is preserved.
func (e *Extractor) Extract(tab sheet.Tab, excluded map[string]internal.ExclusionRecord) ([]internal.ReorderItem, error) {
	lastRow, err := tab.LastRow()
	if err != nil {
		return nil, fmt.Errorf("read last row: %w", err)
	}
	firstRow := e.cfg.HeaderRows + 1
	if lastRow < firstRow {
		return nil, nil
	}

	rows, err := tab.GetRange(firstRow, 1, lastRow-firstRow+1, e.cfg.QueryWidth)
	if err != nil {
		return nil, fmt.Errorf("read query rows: %w", err)
	}

	var items []internal.ReorderItem
	for _, row := range rows {
		if sheet.IsRowEmpty(row) {
			continue
		}
		code := strings.TrimSpace(sheet.Text(cellAt(row, e.cfg.ProductCodeCol), e.loc))
		if code == "" {
			continue
		}
		qty, ok := sheet.Number(cellAt(row, e.cfg.ReorderQtyCol))
		if !ok || qty <= 0 {
			continue
		}
		if _, isExcluded := excluded[ExtractProductKey(code)]; isExcluded {
			continue
		}

		raw := make([]sheet.Value, e.cfg.QueryWidth)
		copy(raw, row)
		items = append(items, internal.ReorderItem{
			ProductCode:    code,
			VendorCategory: strings.TrimSpace(sheet.Text(cellAt(row, e.cfg.VendorCol), e.loc)),
			ReorderQty:     qty,
			Raw:            raw,
		})
	}
	return items, nil
}

// IsSkipDay reports whether the run date is a weekend or a configured
// holiday. Holidays come from the static config list plus the optional
// holiday tab; a missing tab contributes nothing.
func IsSkipDay(now time.Time, loc *time.Location, holidays []string, store sheet.Store) bool {
	day := now.In(loc)
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return true
	}
	dateStr := day.Format("2006-01-02")
	for _, h := range holidays {
		if strings.TrimSpace(h) == dateStr {
			return true
		}
	}
	if store == nil {
		return false
	}
	tab, err := store.Tab(HolidayTab)
	if err != nil {
		return false
	}
	lastRow, err := tab.LastRow()
	if err != nil || lastRow < 1 {
		return false
	}
	rows, err := tab.GetRange(1, 1, lastRow, 1)
	if err != nil {
		return false
	}
	for _, row := range rows {
		if d, ok := sheet.Date(cellAt(row, 1), loc); ok && d.Format("2006-01-02") == dateStr {
			return true
		}
	}
	return false
}
