package checks

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/drosengarten/bulwark/callable"
	"github.com/drosengarten/bulwark/frame"
)

func hasColumns(df *frame.Frame, columns []string, exactCols, exactOrder bool) error {
	const name = "has_columns"
	if df == nil {
		return fail(name, "no data")
	}
	have := df.Columns()
	pos := make(map[string]int, len(have))
	for i, c := range have {
		pos[c] = i
	}
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[c] = true
	}

	var msgs []string
	var missing []string
	for _, c := range columns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		msgs = append(msgs, "missing columns: "+strings.Join(missing, ", "))
	}
	if exactCols {
		var extra []string
		for _, c := range have {
			if !want[c] {
				extra = append(extra, c)
			}
		}
		if len(extra) > 0 {
			msgs = append(msgs, "unexpected columns: "+strings.Join(extra, ", "))
		}
	}
	if exactOrder {
		if len(missing) > 0 {
			msgs = append(msgs, "column order cannot match because columns are missing")
		} else {
			order := make([]int, len(columns))
			for i, c := range columns {
				order[i] = pos[c]
			}
			if !sort.IntsAreSorted(order) {
				msgs = append(msgs, fmt.Sprintf("column order %v does not match %v", have, columns))
			}
		}
	}
	if len(msgs) > 0 {
		return fail(name, "%s", strings.Join(msgs, "; "))
	}
	return nil
}

func hasNoNans(df *frame.Frame, columns []string) error {
	return countWhere("has_no_nans", "missing values", df, columns, func(v any) bool {
		if v == nil {
			return true
		}
		f, ok := v.(float64)
		return ok && math.IsNaN(f)
	})
}

func hasNoInfs(df *frame.Frame, columns []string) error {
	return countWhere("has_no_infs", "infinite values", df, columns, func(v any) bool {
		f, ok := v.(float64)
		return ok && math.IsInf(f, 0)
	})
}

func hasNoNones(df *frame.Frame, columns []string) error {
	return countWhere("has_no_nones", "nil values", df, columns, func(v any) bool {
		return v == nil
	})
}

func hasNoX(df *frame.Frame, values []any, columns []string) error {
	return countWhere("has_no_x", fmt.Sprintf("values %v", values), df, columns, func(v any) bool {
		for _, x := range values {
			if sameValue(v, x) {
				return true
			}
		}
		return false
	})
}

func hasSetWithinVals(df *frame.Frame, items map[string][]any) error {
	const name = "has_set_within_vals"
	cols, err := selectColumns(name, df, sortedKeys(items))
	if err != nil {
		return err
	}
	var msgs []string
	for _, c := range cols {
		vals, _ := df.Column(c)
		var outside []string
		seen := make(map[any]bool)
		for _, v := range vals {
			if seen[v] || containsValue(items[c], v) {
				continue
			}
			seen[v] = true
			outside = append(outside, fmt.Sprint(v))
		}
		if len(outside) > 0 {
			msgs = append(msgs, fmt.Sprintf("%s has values outside %v: %s", c, items[c], strings.Join(outside, ", ")))
		}
	}
	if len(msgs) > 0 {
		return fail(name, "%s", strings.Join(msgs, "; "))
	}
	return nil
}

func hasUniqueIndex(df *frame.Frame) error {
	const name = "has_unique_index"
	if df == nil {
		return fail(name, "no data")
	}
	seen := make(map[any]bool, df.Len())
	var dups []string
	for _, label := range df.Index() {
		if seen[label] {
			dups = append(dups, fmt.Sprint(label))
			continue
		}
		seen[label] = true
	}
	if len(dups) > 0 {
		return fail(name, "duplicate index labels: %s", strings.Join(dups, ", "))
	}
	return nil
}

func hasValsWithinRange(df *frame.Frame, items map[string][]float64) error {
	const name = "has_vals_within_range"
	cols, err := selectColumns(name, df, sortedKeys(items))
	if err != nil {
		return err
	}
	var msgs []string
	for _, c := range cols {
		bounds := items[c]
		if len(bounds) != 2 {
			return fail(name, "range for %s must be [lower, upper], got %v", c, bounds)
		}
		vals, _ := df.Column(c)
		n := 0
		for _, v := range vals {
			f, ok := frame.Float(v)
			if !ok || math.IsNaN(f) || f < bounds[0] || f > bounds[1] {
				n++
			}
		}
		if n > 0 {
			msgs = append(msgs, fmt.Sprintf("%s has %d values outside [%v, %v]", c, n, bounds[0], bounds[1]))
		}
	}
	if len(msgs) > 0 {
		return fail(name, "%s", strings.Join(msgs, "; "))
	}
	return nil
}

func hasValsWithinNStd(df *frame.Frame, n float64, columns []string) error {
	const name = "has_vals_within_n_std"
	cols, err := selectColumns(name, df, columns)
	if err != nil {
		return err
	}
	var msgs []string
	for _, c := range cols {
		if len(columns) == 0 && !isNumericDtype(df.Dtype(c)) {
			continue
		}
		vals, _ := df.Column(c)
		xs := numbers(vals)
		if len(xs) < 2 {
			continue
		}
		mean, std := meanStd(xs)
		out := 0
		for _, x := range xs {
			if math.Abs(x-mean) > n*std {
				out++
			}
		}
		if out > 0 {
			msgs = append(msgs, fmt.Sprintf("%s has %d values beyond %v standard deviations", c, out, n))
		}
	}
	if len(msgs) > 0 {
		return fail(name, "%s", strings.Join(msgs, "; "))
	}
	return nil
}

func hasDtypes(df *frame.Frame, items map[string]string) error {
	const name = "has_dtypes"
	cols, err := selectColumns(name, df, sortedKeys(items))
	if err != nil {
		return err
	}
	var msgs []string
	for _, c := range cols {
		if got := df.Dtype(c); got != items[c] {
			msgs = append(msgs, fmt.Sprintf("%s is %s, expected %s", c, got, items[c]))
		}
	}
	if len(msgs) > 0 {
		return fail(name, "%s", strings.Join(msgs, "; "))
	}
	return nil
}

func isMonotonic(df *frame.Frame, columns []string, increasing, strict bool) error {
	const name = "is_monotonic"
	cols, err := selectColumns(name, df, columns)
	if err != nil {
		return err
	}
	var bad []string
	for _, c := range cols {
		vals, _ := df.Column(c)
		for i := 1; i < len(vals); i++ {
			cmp, ok := compare(vals[i-1], vals[i])
			if !increasing {
				cmp = -cmp
			}
			if !ok || cmp > 0 || (strict && cmp == 0) {
				bad = append(bad, fmt.Sprintf("%s at row %d", c, i))
				break
			}
		}
	}
	if len(bad) > 0 {
		dir := "increasing"
		if !increasing {
			dir = "decreasing"
		}
		if strict {
			dir = "strictly " + dir
		}
		return fail(name, "not %s: %s", dir, strings.Join(bad, ", "))
	}
	return nil
}

func isShape(df *frame.Frame, shape []int) error {
	const name = "is_shape"
	if df == nil {
		return fail(name, "no data")
	}
	if len(shape) != 2 {
		return fail(name, "shape must be [rows, columns], got %v", shape)
	}
	rows, cols := df.Shape()
	if (shape[0] >= 0 && shape[0] != rows) || (shape[1] >= 0 && shape[1] != cols) {
		return fail(name, "shape is (%d, %d), expected (%d, %d)", rows, cols, shape[0], shape[1])
	}
	return nil
}

func oneToMany(df *frame.Frame, unitcol, manycol string) error {
	const name = "one_to_many"
	if _, err := selectColumns(name, df, []string{unitcol, manycol}); err != nil {
		return err
	}
	units, _ := df.Column(unitcol)
	many, _ := df.Column(manycol)
	owner := make(map[any]any, len(many))
	for i, m := range many {
		u, seen := owner[m]
		if !seen {
			owner[m] = units[i]
			continue
		}
		if !sameValue(u, units[i]) {
			return fail(name, "%v in %s has multiple values for %s", m, manycol, unitcol)
		}
	}
	return nil
}

func isSameAs(df, dfToCompare *frame.Frame) error {
	if !df.Equal(dfToCompare) {
		return fail("is_same_as", "data differs from the expected frame")
	}
	return nil
}

// customCheck runs a caller-supplied check with df as its first argument.
// The check may report failure with an error or a false bool result.
func customCheck(ctx context.Context, df any, checkFunc *callable.Func, params map[string]any) error {
	const name = "custom_check"
	if checkFunc == nil {
		return fail(name, "no check function")
	}
	res, err := checkFunc.CallArgs(ctx, callable.Args{Positional: []any{df}, Named: params})
	if err != nil {
		return &Error{Check: checkFunc.Name(), Msg: "custom check failed", Err: err}
	}
	if ok, isBool := res.(bool); isBool && !ok {
		return fail(checkFunc.Name(), "custom check returned false")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isNumericDtype(d string) bool {
	return d == frame.Int64 || d == frame.Float64
}

func numbers(vals []any) []float64 {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := frame.Float(v); ok && !math.IsNaN(f) {
			xs = append(xs, f)
		}
	}
	return xs
}

// meanStd returns the mean and the sample standard deviation.
func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

// numeric widens any Go number to float64.
func numeric(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func sameValue(a, b any) bool {
	x, xok := numeric(a)
	y, yok := numeric(b)
	if xok && yok {
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

func containsValue(set []any, v any) bool {
	for _, s := range set {
		if sameValue(s, v) {
			return true
		}
	}
	return false
}

// compare orders two cells of the same kind. ok is false when they
// cannot be ordered.
func compare(a, b any) (int, bool) {
	if x, ok := frame.Float(a); ok {
		y, ok := frame.Float(b)
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	return 0, false
}
