// Package tables renders records into rows of display cells. A table is a
// list of columns; each column reads one attribute and may compute a link.
package tables

import "fmt"

// LinkFunc returns the link target for a record, or "" for plain text.
type LinkFunc[T any] func(T) (string, error)

type Column[T any] struct {
	Name        string
	VerboseName string
	Value       func(T) string
	Link        LinkFunc[T]
}

type Header struct {
	Name        string `json:"name"`
	VerboseName string `json:"verbose_name"`
}

type Cell struct {
	Column string `json:"column"`
	Value  string `json:"value"`
	Link   string `json:"link,omitempty"`
}

type Row struct {
	Cells []Cell `json:"cells"`
}

// Schema declares columns and renders records through them.
type Schema[T any] interface {
	Name() string
	VerboseName() string
	Headers() []Header
	Render(records []T) ([]Row, error)
}

type Table[T any] struct {
	name        string
	verboseName string
	columns     []Column[T]
}

var _ Schema[struct{}] = (*Table[struct{}])(nil)

func New[T any](name, verboseName string, columns ...Column[T]) *Table[T] {
	return &Table[T]{name: name, verboseName: verboseName, columns: columns}
}

func (t *Table[T]) Name() string {
	return t.name
}

func (t *Table[T]) VerboseName() string {
	return t.verboseName
}

func (t *Table[T]) Headers() []Header {
	headers := make([]Header, 0, len(t.columns))
	for _, c := range t.columns {
		headers = append(headers, Header{Name: c.Name, VerboseName: c.VerboseName})
	}
	return headers
}

// Render builds one row per record. A failing link aborts the render.
func (t *Table[T]) Render(records []T) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		row := Row{Cells: make([]Cell, 0, len(t.columns))}
		for _, c := range t.columns {
			cell := Cell{Column: c.Name}
			if c.Value != nil {
				cell.Value = c.Value(rec)
			}
			if c.Link != nil {
				link, err := c.Link(rec)
				if err != nil {
					return nil, fmt.Errorf("table %s: row %d column %s: %w", t.name, i, c.Name, err)
				}
				cell.Link = link
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Cell returns the cell for column, if any.
func (r Row) Cell(column string) (Cell, bool) {
	for _, c := range r.Cells {
		if c.Column == column {
			return c, true
		}
	}
	return Cell{}, false
}
