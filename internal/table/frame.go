// Package table holds small rectangular datasets with named, typed columns
// and renders them as plain text the way a dataframe print does.
package table

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies the type of values stored in a column
type Kind int

const (
	String Kind = iota
	Float
	Int
	Time
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float:
		return "float64"
	case Int:
		return "int64"
	case Time:
		return "datetime"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field describes a single column
type Field struct {
	Name string
	Kind Kind
}

// Frame is a rectangular table of named, typed columns.
// Missing cells are stored as nil.
type Frame struct {
	fields []Field
	index  map[string]int
	cells  [][]any // column-major
	rows   int
}

// NewFrame creates an empty frame with the given columns
func NewFrame(fields ...Field) *Frame {
	f := &Frame{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
		cells:  make([][]any, len(fields)),
	}
	copy(f.fields, fields)
	for i, field := range fields {
		f.index[field.Name] = i
	}
	return f
}

// AppendRow adds one row. Values are matched to columns by position;
// nil, NaN floats and zero times are stored as missing.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) != len(f.fields) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.fields))
	}

	row := make([]any, len(values))
	for i, v := range values {
		cell, err := normalize(f.fields[i], v)
		if err != nil {
			return err
		}
		row[i] = cell
	}

	for i, cell := range row {
		f.cells[i] = append(f.cells[i], cell)
	}
	f.rows++
	return nil
}

// Fields returns a copy of the column descriptors
func (f *Frame) Fields() []Field {
	result := make([]Field, len(f.fields))
	copy(result, f.fields)
	return result
}

// Columns returns the column names in order
func (f *Frame) Columns() []string {
	names := make([]string, len(f.fields))
	for i, field := range f.fields {
		names[i] = field.Name
	}
	return names
}

// NumRows returns the number of rows
func (f *Frame) NumRows() int {
	return f.rows
}

// NumColumns returns the number of columns
func (f *Frame) NumColumns() int {
	return len(f.fields)
}

// Cell returns the value at row for the named column. The boolean is false
// when the column does not exist, the row is out of range or the cell is missing.
func (f *Frame) Cell(row int, column string) (any, bool) {
	col, ok := f.index[column]
	if !ok || row < 0 || row >= f.rows {
		return nil, false
	}
	v := f.cells[col][row]
	return v, v != nil
}

// Column returns all cells of the named column
func (f *Frame) Column(column string) ([]any, bool) {
	col, ok := f.index[column]
	if !ok {
		return nil, false
	}
	result := make([]any, f.rows)
	copy(result, f.cells[col])
	return result, true
}

// String renders the frame using the process-wide display options
func (f *Frame) String() string {
	return f.Render(CurrentDisplayOptions())
}

func normalize(field Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch field.Kind {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, kindError(field, v)
		}
		return s, nil
	case Float:
		var fv float64
		switch n := v.(type) {
		case float64:
			fv = n
		case float32:
			fv = float64(n)
		case *float64:
			if n == nil {
				return nil, nil
			}
			fv = *n
		default:
			return nil, kindError(field, v)
		}
		if math.IsNaN(fv) {
			return nil, nil
		}
		return fv, nil
	case Int:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case int32:
			return int64(n), nil
		default:
			return nil, kindError(field, v)
		}
	case Time:
		t, ok := v.(time.Time)
		if !ok {
			return nil, kindError(field, v)
		}
		if t.IsZero() {
			return nil, nil
		}
		return t, nil
	}
	return nil, kindError(field, v)
}

func kindError(field Field, v any) error {
	return fmt.Errorf("column %q expects %s, got %T", field.Name, field.Kind, v)
}
