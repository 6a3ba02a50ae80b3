package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateCellLayout is how every date cell in the import formats is rendered.
const dateCellLayout = "2006-01-02 15:04:05"

// dateLayouts covers the timestamp shapes the upstream APIs emit: RFC 3339
// with and without a zone, and the bare dates on invoices.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate parses an upstream timestamp string.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// normalizeDate renders an upstream timestamp value as a date cell. Null,
// empty and false values stay null; a non-empty value that does not parse
// is an error.
func normalizeDate(v any) (any, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case string:
		if c == "" {
			return nil, nil
		}
		t, err := parseDate(c)
		if err != nil {
			return nil, err
		}
		return formatDateCell(t), nil
	case float64:
		if c == 0 {
			return nil, nil
		}
	case bool:
		if !c {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("cannot format %v (%T) as a date", v, v)
}

func formatDateCell(t time.Time) string {
	return t.Format(dateCellLayout)
}

// addMonths adds calendar months with end-of-month clamping: one month
// after Jan 31 is Feb 28 (or 29), not Mar 2.
func addMonths(t time.Time, months int) time.Time {
	shifted := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(shifted.Year(), shifted.Month()); day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// toFloat reads an amount field that may arrive as a JSON number or a
// numeric string. Anything else is an error; the amount fields feeding the
// totals are never optional on records that reach them.
func toFloat(v any) (float64, error) {
	switch c := v.(type) {
	case float64:
		return c, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", c)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}
