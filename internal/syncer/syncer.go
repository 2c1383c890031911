package syncer

import (
	"fmt"
	"log"
	"time"

	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

// Syncer moves purchase-order rows between spreadsheets: Accumulate
// appends fresh order rows to the cumulative tab, ReplaceFiltered
// rebuilds the order sheet body from the reorder sheet's open rows.
// Every remote call goes through the retryer.
type Syncer struct {
	cfg   config.SyncConfig
	retry *sheet.Retryer

	chunkBig    int
	chunkSmall  int
	cellCeiling int
}

func New(cfg config.SyncConfig, env config.Config) *Syncer {
	return &Syncer{
		cfg:         cfg,
		retry:       sheet.NewRetryerWith(env.RetryAttempts, time.Duration(env.RetryBaseMs)*time.Millisecond),
		chunkBig:    env.SyncChunkRowsBig,
		chunkSmall:  env.SyncChunkRowsSmall,
		cellCeiling: env.SyncCellCeiling,
	}
}

// pickChunkSize keeps each write batch under the payload ceiling:
// large runs switch to the smaller chunk size.
func (s *Syncer) pickChunkSize(numRows, numCols int) int {
	if numRows*numCols > s.cellCeiling {
		return s.chunkSmall
	}
	return s.chunkBig
}

// Accumulate reads the order sheet body and appends the rows with a
// populated required column to the cumulative tab. Returns the number
// of rows appended.
func (s *Syncer) Accumulate(orderTab sheet.Tab, cumulTab sheet.Tab, cumulStore sheet.Store) (int, error) {
	rows, err := s.readBody(orderTab, s.cfg.ReadWidth)
	if err != nil {
		return 0, fmt.Errorf("read order rows: %w", err)
	}

	kept := make([][]sheet.Value, 0, len(rows))
	for _, row := range rows {
		if sheet.IsRowEmpty(row) {
			continue
		}
		if sheet.IsBlank(cellAt(row, s.cfg.RequiredCol)) {
			continue
		}
		kept = append(kept, row)
	}
	if len(kept) == 0 {
		log.Printf("[sync] accumulate: nothing to append")
		return 0, nil
	}

	startRow, err := sheet.RetryValue(s.retry, "cumulative last row", cumulTab.LastRow)
	if err != nil {
		return 0, err
	}
	startRow++

	if err := s.writeChunked(cumulTab, cumulStore, startRow, kept); err != nil {
		return 0, err
	}
	log.Printf("[sync] accumulate: appended %d rows", len(kept))
	return len(kept), nil
}

// ReplaceFiltered rebuilds the order sheet body from the reorder
// sheet: rows whose done flags are unset and whose key column is
// populated survive, truncated to the write width and sorted by the
// key column. An empty surviving set leaves the order sheet cleared.
func (s *Syncer) ReplaceFiltered(reorderTab sheet.Tab, orderTab sheet.Tab, orderStore sheet.Store) (int, error) {
	rows, err := s.readBody(reorderTab, s.cfg.ReadWidth)
	if err != nil {
		return 0, fmt.Errorf("read reorder rows: %w", err)
	}

	kept := make([][]sheet.Value, 0, len(rows))
	for _, row := range rows {
		if sheet.IsRowEmpty(row) {
			continue
		}
		if sheet.IsBlank(cellAt(row, s.cfg.KeyCol)) {
			continue
		}
		flagged := false
		for _, col := range s.cfg.DoneFlagCols {
			if sheet.IsTrueFlag(cellAt(row, col)) {
				flagged = true
				break
			}
		}
		if flagged {
			continue
		}
		trimmed := make([]sheet.Value, s.cfg.WriteWidth)
		copy(trimmed, row)
		kept = append(kept, trimmed)
	}

	if err := s.clearBody(orderTab, orderStore); err != nil {
		return 0, err
	}
	if len(kept) == 0 {
		log.Printf("[sync] replace: no open rows, order sheet left empty")
		return 0, nil
	}

	firstRow := s.cfg.HeaderRows + 1
	if err := s.writeChunked(orderTab, orderStore, firstRow, kept); err != nil {
		return 0, err
	}

	err = s.retry.WithRetry("sort order rows", func() error {
		if err := orderTab.Sort(firstRow, 1, len(kept), s.cfg.WriteWidth, s.cfg.SortCol, true); err != nil {
			return err
		}
		return orderStore.Flush()
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[sync] replace: wrote %d rows", len(kept))
	return len(kept), nil
}

func (s *Syncer) readBody(tab sheet.Tab, width int) ([][]sheet.Value, error) {
	lastRow, err := sheet.RetryValue(s.retry, "last row", tab.LastRow)
	if err != nil {
		return nil, err
	}
	firstRow := s.cfg.HeaderRows + 1
	if lastRow < firstRow {
		return nil, nil
	}
	return sheet.RetryValue(s.retry, "read body", func() ([][]sheet.Value, error) {
		return tab.GetRange(firstRow, 1, lastRow-firstRow+1, width)
	})
}

func (s *Syncer) clearBody(tab sheet.Tab, store sheet.Store) error {
	lastRow, err := sheet.RetryValue(s.retry, "last row", tab.LastRow)
	if err != nil {
		return err
	}
	firstRow := s.cfg.HeaderRows + 1
	if lastRow < firstRow {
		return nil
	}
	return s.retry.WithRetry("clear body", func() error {
		if err := tab.ClearRange(firstRow, 1, lastRow-firstRow+1, s.cfg.ReadWidth); err != nil {
			return err
		}
		return store.Flush()
	})
}

// writeChunked writes rows in batches, flushing after each batch so a
// partial failure never leaves an unbounded pending write.
func (s *Syncer) writeChunked(tab sheet.Tab, store sheet.Store, startRow int, rows [][]sheet.Value) error {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	chunkSize := s.pickChunkSize(len(rows), width)

	for offset := 0; offset < len(rows); offset += chunkSize {
		end := offset + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[offset:end]
		row := startRow + offset
		err := s.retry.WithRetry(fmt.Sprintf("write chunk @%d", row), func() error {
			if err := tab.SetRange(row, 1, chunk); err != nil {
				return err
			}
			return store.Flush()
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func cellAt(row []sheet.Value, col int) sheet.Value {
	if col < 1 || col > len(row) {
		return nil
	}
	return row[col-1]
}
