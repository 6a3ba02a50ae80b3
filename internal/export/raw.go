package export

import (
	"fmt"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// buildRawRows flattens records into a reconciliation view of the
// upstream data. The header takes the first record's keys; records are
// assumed homogeneous, and a record with a different key set misaligns
// its own row only. Keys are sorted so identical data always renders
// identically.
func buildRawRows(records []record.Record, name string) ([][]any, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no %s records to export", name)
	}
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, headerRow(sortedKeys(record.Flatten(records[0]))))
	for _, rec := range records {
		flat := record.Flatten(rec)
		keys := sortedKeys(flat)
		row := make([]any, len(keys))
		for i, k := range keys {
			row[i] = flat[k]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
