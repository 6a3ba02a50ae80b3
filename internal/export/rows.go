package export

import (
	"sort"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// headerRow turns column names into a table row.
func headerRow(columns []string) []any {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return row
}

// rowFor lays cells out positionally under columns. Columns without an
// entry stay null, which covers the many always-empty columns in the
// import layouts.
func rowFor(columns []string, cells map[string]any) []any {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = cells[c]
	}
	return row
}

func sortedKeys(rec record.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
