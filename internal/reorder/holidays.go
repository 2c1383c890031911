package reorder

import (
	"fmt"
	"strings"

	"reorderflow/internal/sheet"
)

// Korean public holidays for the current cycle. Substitute holidays
// are included as listed dates.
var defaultHolidays = []struct {
	Date string
	Name string
}{
	{"2026-01-01", "New Year's Day"},
	{"2026-02-16", "Seollal holiday"},
	{"2026-02-17", "Seollal"},
	{"2026-02-18", "Seollal holiday"},
	{"2026-03-01", "Independence Movement Day"},
	{"2026-03-02", "Substitute holiday"},
	{"2026-05-05", "Children's Day"},
	{"2026-05-24", "Buddha's Birthday"},
	{"2026-05-25", "Substitute holiday"},
	{"2026-06-06", "Memorial Day"},
	{"2026-08-15", "Liberation Day"},
	{"2026-08-17", "Substitute holiday"},
	{"2026-09-24", "Chuseok holiday"},
	{"2026-09-25", "Chuseok"},
	{"2026-09-26", "Chuseok holiday"},
	{"2026-10-03", "National Foundation Day"},
	{"2026-10-05", "Substitute holiday"},
	{"2026-10-09", "Hangul Day"},
	{"2026-12-25", "Christmas Day"},
}

// SeedHolidays writes the built-in holiday list plus any configured
// extra dates into the holiday tab, creating the tab when absent. The
// tab is rebuilt from row one on every seed.
func SeedHolidays(store sheet.Store, extra []string) (int, error) {
	var tab sheet.Tab
	var err error
	if store.HasTab(HolidayTab) {
		tab, err = store.Tab(HolidayTab)
	} else {
		tab, err = store.InsertTab(HolidayTab)
	}
	if err != nil {
		return 0, fmt.Errorf("holiday tab: %w", err)
	}

	lastRow, err := tab.LastRow()
	if err != nil {
		return 0, err
	}
	if lastRow > 0 {
		if err := tab.ClearRange(1, 1, lastRow, 2); err != nil {
			return 0, err
		}
	}

	rows := make([][]sheet.Value, 0, len(defaultHolidays)+len(extra))
	seen := map[string]struct{}{}
	for _, h := range defaultHolidays {
		rows = append(rows, []sheet.Value{h.Date, h.Name})
		seen[h.Date] = struct{}{}
	}
	for _, date := range extra {
		date = strings.TrimSpace(date)
		if date == "" {
			continue
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		rows = append(rows, []sheet.Value{date, "configured holiday"})
	}

	if err := tab.SetRange(1, 1, rows); err != nil {
		return 0, err
	}
	if err := store.Flush(); err != nil {
		return 0, err
	}
	return len(rows), nil
}
