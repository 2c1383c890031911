package reorder

import (
	"fmt"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

// Appender writes extracted items to the reorder log and archive tabs.
// Writes are append-only: the insertion row comes from a bottom-up scan
// of the marker column, so existing history is never overwritten.
type Appender struct {
	cfg   config.BrandConfig
	loc   *time.Location
	retry *sheet.Retryer
}

func NewAppender(cfg config.BrandConfig, loc *time.Location, retry *sheet.Retryer) *Appender {
	if loc == nil {
		loc = time.UTC
	}
	if retry == nil {
		retry = sheet.NewRetryer()
	}
	return &Appender{cfg: cfg, loc: loc, retry: retry}
}

// appendRow finds the first row after the last non-blank cell in the
// marker column. Trailing blank rows below real content are skipped
// over, trailing garbage is not trusted.
func appendRow(tab sheet.Tab, markerCol int) (int, error) {
	lastRow, err := tab.LastRow()
	if err != nil {
		return 0, err
	}
	if lastRow == 0 {
		return 1, nil
	}
	cells, err := tab.GetRange(1, markerCol, lastRow, 1)
	if err != nil {
		return 0, err
	}
	for i := len(cells) - 1; i >= 0; i-- {
		var v sheet.Value
		if len(cells[i]) > 0 {
			v = cells[i][0]
		}
		if !sheet.IsBlank(v) {
			return i + 2, nil
		}
	}
	return 1, nil
}

// AppendLog writes one fixed-width row per item to the reorder log:
// date, product code and quantity at their configured offsets, every
// other cell blank.
func (a *Appender) AppendLog(store sheet.Store, items []internal.ReorderItem, runDate time.Time) error {
	if len(items) == 0 {
		return nil
	}
	tab, err := store.Tab(a.cfg.LogTab)
	if err != nil {
		return fmt.Errorf("log tab %q: %w", a.cfg.LogTab, err)
	}

	startRow, err := sheet.RetryValue(a.retry, "log append row", func() (int, error) {
		return appendRow(tab, 1)
	})
	if err != nil {
		return err
	}

	dateStr := runDate.In(a.loc).Format("2006-01-02")
	rows := make([][]sheet.Value, 0, len(items))
	for _, item := range items {
		row := make([]sheet.Value, a.cfg.LogWidth)
		for i := range row {
			row[i] = ""
		}
		row[a.cfg.LogDateCol-1] = dateStr
		row[a.cfg.LogCodeCol-1] = item.ProductCode
		row[a.cfg.LogQtyCol-1] = item.ReorderQty
		rows = append(rows, row)
	}

	return a.retry.WithRetry("log append", func() error {
		if err := tab.SetRange(startRow, 1, rows); err != nil {
			return err
		}
		return store.Flush()
	})
}

// AppendArchive writes the run date plus each item's full raw row to
// the archive tab, creating the tab with its header schema on first use.
func (a *Appender) AppendArchive(store sheet.Store, items []internal.ReorderItem, runDate time.Time) error {
	if len(items) == 0 {
		return nil
	}

	tab, err := a.archiveTab(store)
	if err != nil {
		return err
	}

	startRow, err := sheet.RetryValue(a.retry, "archive append row", func() (int, error) {
		return appendRow(tab, 1)
	})
	if err != nil {
		return err
	}

	dateStr := runDate.In(a.loc).Format("2006-01-02")
	rows := make([][]sheet.Value, 0, len(items))
	for _, item := range items {
		row := make([]sheet.Value, 0, a.cfg.QueryWidth+1)
		row = append(row, dateStr)
		row = append(row, item.Raw...)
		rows = append(rows, row)
	}

	return a.retry.WithRetry("archive append", func() error {
		if err := tab.SetRange(startRow, 1, rows); err != nil {
			return err
		}
		return store.Flush()
	})
}

func (a *Appender) archiveTab(store sheet.Store) (sheet.Tab, error) {
	if store.HasTab(a.cfg.ArchiveTab) {
		return store.Tab(a.cfg.ArchiveTab)
	}

	tab, err := store.InsertTab(a.cfg.ArchiveTab)
	if err != nil {
		return nil, fmt.Errorf("create archive tab %q: %w", a.cfg.ArchiveTab, err)
	}

	header := make([]sheet.Value, 0, a.cfg.QueryWidth+1)
	header = append(header, "archived_at")
	for col := 1; col <= a.cfg.QueryWidth; col++ {
		header = append(header, "raw_"+sheet.ColumnName(col))
	}
	if err := tab.SetRange(1, 1, [][]sheet.Value{header}); err != nil {
		return nil, fmt.Errorf("seed archive header: %w", err)
	}
	return tab, nil
}
