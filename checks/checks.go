// Package checks is a library of assertions over *frame.Frame values.
//
// Every operation takes the data value as its first parameter, named df,
// followed by its own named parameters, and returns a *Error when the
// data does not satisfy it. All returns the catalog the decorators
// registry builds wrappers from.
package checks

import (
	"fmt"
	"strings"

	"github.com/drosengarten/bulwark/frame"
)

// Package is the import path that owns the catalog operations.
const Package = "github.com/drosengarten/bulwark/checks"

// DataParam is the name of the first parameter of every operation.
const DataParam = "df"

// Error is returned by a check whose assertion does not hold.
type Error struct {
	Check string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Check, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Check, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(check, format string, args ...any) error {
	return &Error{Check: check, Msg: fmt.Sprintf(format, args...)}
}

// selectColumns returns the requested columns, or all columns when none
// are requested. Unknown columns are an error.
func selectColumns(check string, df *frame.Frame, columns []string) ([]string, error) {
	if df == nil {
		return nil, fail(check, "no data")
	}
	if len(columns) == 0 {
		return df.Columns(), nil
	}
	var missing []string
	for _, c := range columns {
		if !df.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fail(check, "columns not found: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// countWhere counts cells per column matching pred and reports the
// columns with at least one match.
func countWhere(check, what string, df *frame.Frame, columns []string, pred func(any) bool) error {
	cols, err := selectColumns(check, df, columns)
	if err != nil {
		return err
	}
	var bad []string
	for _, c := range cols {
		vals, _ := df.Column(c)
		n := 0
		for _, v := range vals {
			if pred(v) {
				n++
			}
		}
		if n > 0 {
			bad = append(bad, fmt.Sprintf("%s (%d)", c, n))
		}
	}
	if len(bad) > 0 {
		return fail(check, "%s found in %s", what, strings.Join(bad, ", "))
	}
	return nil
}
