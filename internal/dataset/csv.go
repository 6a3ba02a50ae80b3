package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
)

// WriteCSV renders the table as CRLF-terminated CSV, quoting only where
// needed.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	fields := make([]string, 0, 16)
	for _, row := range t {
		fields = fields[:0]
		for _, cell := range row {
			fields = append(fields, renderCell(cell))
		}
		if err := cw.Write(fields); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// renderCell renders one cell. Null cells become empty fields, numbers use
// their shortest decimal form so 42.0 and "42" agree, and arrays (which
// survive flattening) are JSON-encoded to keep the cell a single field.
func renderCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case bool:
		return strconv.FormatBool(c)
	default:
		encoded, err := sonic.Marshal(c)
		if err != nil {
			return fmt.Sprintf("%v", c)
		}
		return string(encoded)
	}
}
