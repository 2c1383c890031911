package dispatch

import (
	"fmt"
	"strings"
	"time"

	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

// LoadVendors reads the vendor-info tab into a name-to-channel map.
// The last row wins when a vendor name repeats.
func LoadVendors(tab sheet.Tab, cfg config.DispatchConfig, loc *time.Location) (map[string]string, error) {
	lastRow, err := tab.LastRow()
	if err != nil {
		return nil, fmt.Errorf("vendor last row: %w", err)
	}
	firstRow := cfg.HeaderRows + 1
	vendors := map[string]string{}
	if lastRow < firstRow {
		return vendors, nil
	}

	width := cfg.VendorNameCol
	if cfg.ChannelCol > width {
		width = cfg.ChannelCol
	}
	rows, err := tab.GetRange(firstRow, 1, lastRow-firstRow+1, width)
	if err != nil {
		return nil, fmt.Errorf("read vendor rows: %w", err)
	}

	for _, row := range rows {
		name := strings.TrimSpace(sheet.Text(cellAt(row, cfg.VendorNameCol), loc))
		channel := strings.TrimSpace(sheet.Text(cellAt(row, cfg.ChannelCol), loc))
		if name == "" || channel == "" {
			continue
		}
		vendors[name] = channel
	}
	return vendors, nil
}

// Buckets groups order rows per vendor into the "today" and "previous"
// categories. Order lists vendor names in a stable sequence: vendors
// with a today row first (in first-seen row order), then vendors with
// only previous rows.
type Buckets struct {
	Today    map[string][][]sheet.Value
	Previous map[string][][]sheet.Value
	Order    []string
}

// BucketOrders classifies order rows by their order-date column. A
// value that does not parse as a date buckets as "previous".
func BucketOrders(rows [][]sheet.Value, cfg config.DispatchConfig, loc *time.Location, now time.Time) Buckets {
	b := Buckets{
		Today:    map[string][][]sheet.Value{},
		Previous: map[string][][]sheet.Value{},
	}
	var todayOrder, previousOrder []string

	for _, row := range rows {
		if sheet.IsRowEmpty(row) {
			continue
		}
		vendor := strings.TrimSpace(sheet.Text(cellAt(row, cfg.OrderVendorCol), loc))
		if vendor == "" {
			continue
		}

		orderDate, ok := sheet.Date(cellAt(row, cfg.OrderDateCol), loc)
		isToday := ok && sheet.SameDay(orderDate, now, loc)

		if isToday {
			if _, seen := b.Today[vendor]; !seen {
				todayOrder = append(todayOrder, vendor)
			}
			b.Today[vendor] = append(b.Today[vendor], row)
		} else {
			if _, seen := b.Previous[vendor]; !seen {
				previousOrder = append(previousOrder, vendor)
			}
			b.Previous[vendor] = append(b.Previous[vendor], row)
		}
	}

	b.Order = append(b.Order, todayOrder...)
	for _, vendor := range previousOrder {
		if _, hasToday := b.Today[vendor]; !hasToday {
			b.Order = append(b.Order, vendor)
		}
	}
	return b
}

// BrandNames lists the distinct brand names (first field) across rows,
// in first-seen order.
func BrandNames(rows [][]sheet.Value, loc *time.Location) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		name := strings.TrimSpace(sheet.Text(cellAt(row, 1), loc))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func cellAt(row []sheet.Value, col int) sheet.Value {
	if col < 1 || col > len(row) {
		return nil
	}
	return row[col-1]
}
