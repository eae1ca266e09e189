package dataset

import (
	"github.com/KaramelBytes/returnlens-cli/internal/schema"
	"github.com/google/uuid"
)

// Dataset is an in-memory table loaded from a single file. It is not mutated
// after construction; derived columns are kept outside of it.
type Dataset struct {
	ID      uuid.UUID
	Name    string
	Path    string
	Sheet   string
	Columns []string
	Rows    [][]string
	// Total counts every data row in the source, including rows beyond MaxRows.
	Total    int
	Schema   schema.Schema
	Warnings []string

	index map[string]int
}

// New normalizes header names, pads short rows, and resolves the schema.
func New(name string, header []string, rows [][]string) *Dataset {
	cols := make([]string, len(header))
	idx := make(map[string]int, len(header))
	for i, h := range header {
		n := schema.NormalizeColumn(h)
		cols[i] = n
		if _, dup := idx[n]; !dup {
			idx[n] = i
		}
	}
	for i, r := range rows {
		if len(r) < len(cols) {
			tmp := make([]string, len(cols))
			copy(tmp, r)
			rows[i] = tmp
		} else if len(r) > len(cols) {
			rows[i] = r[:len(cols)]
		}
	}
	return &Dataset{
		ID:      uuid.New(),
		Name:    name,
		Columns: cols,
		Rows:    rows,
		Total:   len(rows),
		Schema:  schema.Resolve(cols),
		index:   idx,
	}
}

// Len reports the number of loaded rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Has reports whether a normalized column exists.
func (d *Dataset) Has(col string) bool {
	_, ok := d.index[col]
	return ok
}

// Index returns the position of a normalized column.
func (d *Dataset) Index(col string) (int, bool) {
	i, ok := d.index[col]
	return i, ok
}

// Column returns a copy of the values of col.
func (d *Dataset) Column(col string) ([]string, bool) {
	i, ok := d.index[col]
	if !ok {
		return nil, false
	}
	out := make([]string, len(d.Rows))
	for r, row := range d.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Field returns the values of the column bound to a canonical field.
func (d *Dataset) Field(f schema.Field) ([]string, bool) {
	col, ok := d.Schema.Column(f)
	if !ok {
		return nil, false
	}
	return d.Column(col)
}

// Head returns up to n leading rows.
func (d *Dataset) Head(n int) [][]string {
	if n <= 0 || n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}
