package reorder

import (
	"log"
	"regexp"
	"strings"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/config"
	"reorderflow/internal/sheet"
)

var productKeyPattern = regexp.MustCompile(`^([A-Z]{2}\d{2}[A-Z]{1,3}\d{3})`)

// ExtractProductKey reduces a composite product code to its exclusion
// key. The fixed-shape prefix wins; otherwise underscore segments are
// consulted, with the "D2" passthrough prefix shifting the key to the
// second segment. A code matching neither comes back whole.
func ExtractProductKey(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if m := productKeyPattern.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	parts := strings.Split(code, "_")
	if len(parts) >= 2 {
		if parts[0] == "D2" && len(parts) >= 2 {
			return parts[1]
		}
		return parts[0]
	}
	return code
}

// Resolver builds the per-run exclusion set from the price-down history
// tab. A product key is excluded when any of its records carries an E/F
// rotation grade, or a discounted decision inside the trailing window.
type Resolver struct {
	cfg    config.BrandConfig
	window int
	loc    *time.Location
	now    func() time.Time
}

func NewResolver(cfg config.BrandConfig, windowDays int, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{cfg: cfg, window: windowDays, loc: loc, now: time.Now}
}

// Load reads the history tab and returns excluded keys mapped to the
// most recent record that excluded them. A missing tab or read failure
// degrades to an empty set.
func (r *Resolver) Load(store sheet.Store) map[string]internal.ExclusionRecord {
	tab, err := store.Tab(r.cfg.HistoryTab)
	if err != nil {
		log.Printf("[exclude] history tab %q unavailable, no exclusions applied: %v", r.cfg.HistoryTab, err)
		return map[string]internal.ExclusionRecord{}
	}

	lastRow, err := tab.LastRow()
	if err != nil {
		log.Printf("[exclude] history read failed, no exclusions applied: %v", err)
		return map[string]internal.ExclusionRecord{}
	}
	firstRow := r.cfg.HeaderRows + 1
	if lastRow < firstRow {
		return map[string]internal.ExclusionRecord{}
	}

	width := maxInt(r.cfg.HistoryDateCol, r.cfg.HistoryCodeCol, r.cfg.HistoryGradeCol, r.cfg.HistoryDiscountCol)
	rows, err := tab.GetRange(firstRow, 1, lastRow-firstRow+1, width)
	if err != nil {
		log.Printf("[exclude] history read failed, no exclusions applied: %v", err)
		return map[string]internal.ExclusionRecord{}
	}

	cutoff := r.now().In(r.loc).AddDate(0, 0, -r.window)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, r.loc)

	excluded := map[string]internal.ExclusionRecord{}
	for _, row := range rows {
		code := strings.TrimSpace(sheet.Text(cellAt(row, r.cfg.HistoryCodeCol), r.loc))
		if code == "" {
			continue
		}
		key := ExtractProductKey(code)
		if key == "" {
			continue
		}

		grade := strings.ToUpper(strings.TrimSpace(sheet.Text(cellAt(row, r.cfg.HistoryGradeCol), r.loc)))
		decisionDate, hasDate := sheet.Date(cellAt(row, r.cfg.HistoryDateCol), r.loc)
		discount, hasDiscount := sheet.Number(cellAt(row, r.cfg.HistoryDiscountCol))

		gradeExcluded := r.isExcludedGrade(grade)
		recentDiscount := hasDate && !decisionDate.Before(cutoff) && hasDiscount && discount > 0
		if !gradeExcluded && !recentDiscount {
			continue
		}

		rec := internal.ExclusionRecord{ProductKey: key, Grade: grade}
		if hasDiscount {
			d := discount
			rec.DiscountRate = &d
		}
		if hasDate {
			dt := decisionDate
			rec.DecisionDate = &dt
		}
		if gradeExcluded {
			rec.Reason = internal.ExcludedByGrade
		} else {
			rec.Reason = internal.ExcludedByDiscount
		}

		prev, seen := excluded[key]
		if !seen || newerDecision(rec, prev) {
			excluded[key] = rec
		}
	}
	return excluded
}

func (r *Resolver) isExcludedGrade(grade string) bool {
	for _, g := range r.cfg.ExcludedGrades {
		if grade == g {
			return true
		}
	}
	return false
}

// newerDecision prefers the record with the later decision date for
// reporting; exclusion membership itself is already a union.
func newerDecision(a, b internal.ExclusionRecord) bool {
	if a.DecisionDate == nil {
		return false
	}
	if b.DecisionDate == nil {
		return true
	}
	return a.DecisionDate.After(*b.DecisionDate)
}

func cellAt(row []sheet.Value, col int) sheet.Value {
	if col < 1 || col > len(row) {
		return nil
	}
	return row[col-1]
}

func maxInt(vals ...int) int {
	m := 0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
