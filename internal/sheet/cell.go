package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a single cell as read from a tabular store: string, float64,
// bool, time.Time or nil.
type Value = any

// IsRowEmpty reports whether every cell is nil or the empty string.
func IsRowEmpty(row []Value) bool {
	for _, v := range row {
		if !(v == nil || v == "") {
			return false
		}
	}
	return true
}

// IsBlank reports whether a cell carries no content. Dates and numbers are
// never blank, strings are blank when trimmed-empty.
func IsBlank(v Value) bool {
	switch t := v.(type) {
	case nil:
		return true
	case time.Time:
		return false
	case float64, int, int64, bool:
		return false
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// IsTrueFlag reports whether a cell is the boolean true or the string
// "TRUE" ignoring case and any whitespace inside the string.
func IsTrueFlag(v Value) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		compact := strings.Join(strings.Fields(t), "")
		return strings.EqualFold(compact, "TRUE")
	default:
		return false
	}
}

// Number parses a cell as a finite number. Empty cells and non-numeric
// strings report ok=false.
func Number(v Value) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsInf(t, 0) && !math.IsNaN(t)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Text renders a cell for display. Dates collapse to yyyy-MM-dd in loc.
func Text(v Value, loc *time.Location) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.In(loc).Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Date interprets a cell as a calendar date: either a time.Time or a
// string in "yyyy-MM-dd", "yyyy-MM-dd HH:mm:ss" or RFC3339-ish form.
func Date(v Value, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.In(loc), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		s = strings.Replace(s, " ", "T", 1)
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02", time.RFC3339} {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// SameDay reports whether two instants fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return a.In(loc).Format("2006-01-02") == b.In(loc).Format("2006-01-02")
}

func defaultLocation() *time.Location { return time.UTC }
