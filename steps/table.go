package steps

import (
	"errors"
	"fmt"

	"github.com/cucumber/godog"
)

var errEmptyTable = errors.New("table has no header row")

// tableHash returns one map per data row keyed by the header row.
func tableHash(t *godog.Table) ([]map[string]string, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, errEmptyTable
	}
	header := t.Rows[0].Cells
	out := make([]map[string]string, 0, len(t.Rows)-1)
	for i, row := range t.Rows[1:] {
		if len(row.Cells) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, the header has %d", i+1, len(row.Cells), len(header))
		}
		hash := make(map[string]string, len(header))
		for j, cell := range row.Cells {
			hash[header[j].Value] = cell.Value
		}
		out = append(out, hash)
	}
	return out, nil
}

// rowsHash returns the rows of a two column table as ordered key/value pairs.
func rowsHash(t *godog.Table) ([][2]string, error) {
	if t == nil {
		return nil, errEmptyTable
	}
	out := make([][2]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("row %d has %d cells, expected 2", i, len(row.Cells))
		}
		out = append(out, [2]string{row.Cells[0].Value, row.Cells[1].Value})
	}
	return out, nil
}

// fieldsOf converts a table row into entity field values.
func fieldsOf(hash map[string]string) map[string]any {
	out := make(map[string]any, len(hash))
	for k, v := range hash {
		out[k] = v
	}
	return out
}
