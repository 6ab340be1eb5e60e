// Package frame provides a small column-oriented table used as the data
// value that checks validate.
//
// Cells hold int64, float64, string, bool or nil. A nil cell is a missing
// value; NaN is a float64 like any other.
package frame

import (
	"fmt"
	"math"
	"reflect"
)

// Dtypes reported by Frame.Dtype.
const (
	Int64   = "int64"
	Float64 = "float64"
	String  = "string"
	Bool    = "bool"
	Object  = "object"
)

// Frame is an immutable table with named columns and a row index.
type Frame struct {
	columns []string
	data    [][]any
	index   []any
}

// New builds a frame from row-major data.
func New(columns []string, rows ...[]any) (*Frame, error) {
	data := make([][]any, len(columns))
	for i := range data {
		data[i] = make([]any, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("frame: row %d has %d values, expected %d", r, len(row), len(columns))
		}
		for c, v := range row {
			cell, err := normalize(v)
			if err != nil {
				return nil, fmt.Errorf("frame: row %d column %q: %w", r, columns[c], err)
			}
			data[c][r] = cell
		}
	}
	return build(columns, data)
}

// FromColumns builds a frame from column-major data.
func FromColumns(columns []string, data ...[]any) (*Frame, error) {
	if len(data) != len(columns) {
		return nil, fmt.Errorf("frame: %d columns named, %d given", len(columns), len(data))
	}
	cols := make([][]any, len(data))
	for c, col := range data {
		cols[c] = make([]any, len(col))
		for r, v := range col {
			cell, err := normalize(v)
			if err != nil {
				return nil, fmt.Errorf("frame: row %d column %q: %w", r, columns[c], err)
			}
			cols[c][r] = cell
		}
	}
	return build(columns, cols)
}

func build(columns []string, data [][]any) (*Frame, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("frame: duplicate column %q", c)
		}
		seen[c] = true
	}
	n := 0
	if len(data) > 0 {
		n = len(data[0])
	}
	for c, col := range data {
		if len(col) != n {
			return nil, fmt.Errorf("frame: column %q has %d rows, expected %d", columns[c], len(col), n)
		}
	}
	index := make([]any, n)
	for i := range index {
		index[i] = int64(i)
	}
	return &Frame{columns: append([]string(nil), columns...), data: data, index: index}, nil
}

// normalize maps Go scalars onto the cell types a frame stores.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, int64, float64, string, bool:
		return x, nil
	case float32:
		return float64(x), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	}
	return nil, fmt.Errorf("unsupported cell type %T", v)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// HasColumn reports whether name is a column.
func (f *Frame) HasColumn(name string) bool {
	return f.col(name) >= 0
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]any, bool) {
	i := f.col(name)
	if i < 0 {
		return nil, false
	}
	return append([]any(nil), f.data[i]...), true
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Shape returns rows and columns.
func (f *Frame) Shape() (int, int) { return len(f.index), len(f.columns) }

// Index returns a copy of the row labels.
func (f *Frame) Index() []any {
	return append([]any(nil), f.index...)
}

// WithIndex returns a copy of f with the given row labels.
func (f *Frame) WithIndex(labels []any) (*Frame, error) {
	if len(labels) != len(f.index) {
		return nil, fmt.Errorf("frame: index has %d labels, expected %d", len(labels), len(f.index))
	}
	idx := make([]any, len(labels))
	for i, l := range labels {
		cell, err := normalize(l)
		if err != nil {
			return nil, fmt.Errorf("frame: index label %d: %w", i, err)
		}
		idx[i] = cell
	}
	c := *f
	c.index = idx
	return &c, nil
}

// Dtype infers the type of the named column from its non-nil cells.
// Mixed int64 and float64 columns are float64; an all-nil column is object.
func (f *Frame) Dtype(name string) string {
	i := f.col(name)
	if i < 0 {
		return ""
	}
	dtype := ""
	for _, v := range f.data[i] {
		var d string
		switch v.(type) {
		case nil:
			continue
		case int64:
			d = Int64
		case float64:
			d = Float64
		case string:
			d = String
		case bool:
			d = Bool
		}
		switch {
		case dtype == "":
			dtype = d
		case dtype == d:
		case (dtype == Int64 && d == Float64) || (dtype == Float64 && d == Int64):
			dtype = Float64
		default:
			return Object
		}
	}
	if dtype == "" {
		return Object
	}
	return dtype
}

// Equal reports whether f and o have the same columns, index and cells.
// NaN cells compare equal to each other.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if len(f.columns) != len(o.columns) || len(f.index) != len(o.index) {
		return false
	}
	for i, c := range f.columns {
		if o.columns[i] != c {
			return false
		}
	}
	if !cellsEqual(f.index, o.index) {
		return false
	}
	for i := range f.data {
		if !cellsEqual(f.data[i], o.data[i]) {
			return false
		}
	}
	return true
}

func cellsEqual(a, b []any) bool {
	for i := range a {
		x, xok := a[i].(float64)
		y, yok := b[i].(float64)
		if xok && yok && math.IsNaN(x) && math.IsNaN(y) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (f *Frame) col(name string) int {
	for i, c := range f.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Float returns v as a float64 when it is numeric.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
