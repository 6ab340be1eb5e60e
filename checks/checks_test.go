package checks

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drosengarten/bulwark/callable"
	"github.com/drosengarten/bulwark/frame"
)

func orders(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New([]string{"id", "customer", "amount", "status"},
		[]any{1, "ann", 10.0, "paid"},
		[]any{2, "bob", 12.5, "open"},
		[]any{3, "ann", 11.0, "paid"},
		[]any{4, "cid", 9.5, "open"},
	)
	require.NoError(t, err)
	return f
}

func run(t *testing.T, name string, args callable.Args) error {
	t.Helper()
	op, ok := Lookup(name)
	require.True(t, ok, "check %s not in catalog", name)
	_, err := op.CallArgs(context.Background(), args)
	return err
}

func requireCheckError(t *testing.T, err error, check string) *Error {
	t.Helper()
	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce), "expected *checks.Error, got %T: %v", err, err)
	assert.Equal(t, check, ce.Check)
	return ce
}

func TestCatalogOwnedAndNamed(t *testing.T) {
	ops := All()
	require.NotEmpty(t, ops)
	seen := map[string]bool{}
	for _, op := range ops {
		assert.Equal(t, Package, op.Package(), "op %s", op.Name())
		assert.False(t, seen[op.Name()], "duplicate op %s", op.Name())
		seen[op.Name()] = true

		params := op.Params()
		require.NotEmpty(t, params, "op %s", op.Name())
		assert.Equal(t, DataParam, params[0].Name, "op %s", op.Name())
		assert.False(t, params[0].HasDefault(), "op %s data param must be required", op.Name())
	}
}

func TestHasColumns(t *testing.T) {
	df := orders(t)
	tests := []struct {
		name    string
		args    callable.Args
		wantErr string
	}{
		{"subset passes", callable.Pos(df, []string{"id", "amount"}), ""},
		{"missing column", callable.Pos(df, []string{"id", "nope"}), "missing columns: nope"},
		{"exact cols extra", callable.Pos(df, []string{"id"}, true), "unexpected columns: customer, amount, status"},
		{"exact order ok", callable.Pos(df, []string{"id", "status"}, false, true), ""},
		{"exact order wrong", callable.Pos(df, []string{"status", "id"}, false, true), "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, "has_columns", tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			ce := requireCheckError(t, err, "has_columns")
			assert.Contains(t, ce.Msg, tt.wantErr)
		})
	}
}

func TestMissingAndSpecialValues(t *testing.T) {
	df, err := frame.New([]string{"a", "b"},
		[]any{1.0, "x"},
		[]any{math.NaN(), nil},
		[]any{math.Inf(1), "y"},
	)
	require.NoError(t, err)

	ce := requireCheckError(t, run(t, "has_no_nans", callable.Pos(df)), "has_no_nans")
	assert.Contains(t, ce.Msg, "a (1)")
	assert.Contains(t, ce.Msg, "b (1)")

	assert.NoError(t, run(t, "has_no_nones", callable.Pos(df, []string{"a"})))
	requireCheckError(t, run(t, "has_no_nones", callable.Pos(df, []string{"b"})), "has_no_nones")

	requireCheckError(t, run(t, "has_no_infs", callable.Pos(df)), "has_no_infs")
	assert.NoError(t, run(t, "has_no_infs", callable.Pos(df, []string{"b"})))

	requireCheckError(t, run(t, "has_no_x", callable.Pos(df, []any{"y"})), "has_no_x")
	assert.NoError(t, run(t, "has_no_x", callable.Pos(df, []any{"z", 7})))

	ce = requireCheckError(t, run(t, "has_no_nans", callable.Pos(df, []string{"zz"})), "has_no_nans")
	assert.Contains(t, ce.Msg, "columns not found: zz")
}

func TestHasSetWithinVals(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "has_set_within_vals",
		callable.Pos(df, map[string][]any{"status": {"paid", "open"}, "id": {1, 2, 3, 4, 5}})))

	ce := requireCheckError(t, run(t, "has_set_within_vals",
		callable.Pos(df, map[string][]any{"status": {"paid"}})), "has_set_within_vals")
	assert.Contains(t, ce.Msg, "open")
}

func TestHasUniqueIndex(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "has_unique_index", callable.Pos(df)))

	dup, err := df.WithIndex([]any{"a", "b", "a", "c"})
	require.NoError(t, err)
	ce := requireCheckError(t, run(t, "has_unique_index", callable.Pos(dup)), "has_unique_index")
	assert.Contains(t, ce.Msg, "a")
}

func TestHasValsWithinRange(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "has_vals_within_range",
		callable.Pos(df, map[string][]float64{"amount": {9, 13}})))

	ce := requireCheckError(t, run(t, "has_vals_within_range",
		callable.Pos(df, map[string][]float64{"amount": {10, 12}})), "has_vals_within_range")
	assert.Contains(t, ce.Msg, "2 values outside")

	requireCheckError(t, run(t, "has_vals_within_range",
		callable.Pos(df, map[string][]float64{"amount": {1}})), "has_vals_within_range")
}

func TestHasValsWithinRangeDecodesLooseParams(t *testing.T) {
	df := orders(t)
	// Shape produced by YAML decoding.
	items := map[string]any{"amount": []any{9, 13}}
	assert.NoError(t, run(t, "has_vals_within_range", callable.Pos(df, items)))
}

func TestHasValsWithinNStd(t *testing.T) {
	vals := []any{}
	for i := 0; i < 20; i++ {
		vals = append(vals, 10.0)
	}
	vals = append(vals, 1000.0)
	df, err := frame.FromColumns([]string{"x", "label"}, vals, make([]any, len(vals)))
	require.NoError(t, err)

	requireCheckError(t, run(t, "has_vals_within_n_std", callable.Pos(df)), "has_vals_within_n_std")
	assert.NoError(t, run(t, "has_vals_within_n_std", callable.Pos(df, 10.0)))
}

func TestHasDtypes(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "has_dtypes",
		callable.Pos(df, map[string]string{"id": frame.Int64, "amount": frame.Float64})))

	ce := requireCheckError(t, run(t, "has_dtypes",
		callable.Pos(df, map[string]string{"id": frame.String})), "has_dtypes")
	assert.Contains(t, ce.Msg, "id is int64, expected string")
}

func TestIsMonotonic(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "is_monotonic", callable.Pos(df, []string{"id"})))
	assert.NoError(t, run(t, "is_monotonic", callable.Pos(df, []string{"id"}, true, true)))
	requireCheckError(t, run(t, "is_monotonic", callable.Pos(df, []string{"id"}, false)), "is_monotonic")
	requireCheckError(t, run(t, "is_monotonic", callable.Pos(df, []string{"amount"})), "is_monotonic")

	flat, _ := frame.New([]string{"x"}, []any{1}, []any{1})
	assert.NoError(t, run(t, "is_monotonic", callable.Pos(flat)))
	requireCheckError(t, run(t, "is_monotonic", callable.Pos(flat).With("strict", true)), "is_monotonic")
}

func TestIsShape(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "is_shape", callable.Pos(df, []int{4, 4})))
	assert.NoError(t, run(t, "is_shape", callable.Pos(df, []int{-1, 4})))
	requireCheckError(t, run(t, "is_shape", callable.Pos(df, []int{3, -1})), "is_shape")
	requireCheckError(t, run(t, "is_shape", callable.Pos(df, []int{4})), "is_shape")
}

func TestOneToMany(t *testing.T) {
	df, err := frame.New([]string{"customer", "order"},
		[]any{"ann", 1},
		[]any{"ann", 2},
		[]any{"bob", 3},
	)
	require.NoError(t, err)
	assert.NoError(t, run(t, "one_to_many", callable.Pos(df, "customer", "order")))

	bad, err := frame.New([]string{"customer", "order"},
		[]any{"ann", 1},
		[]any{"bob", 1},
	)
	require.NoError(t, err)
	ce := requireCheckError(t, run(t, "one_to_many", callable.Pos(bad, "customer", "order")), "one_to_many")
	assert.Contains(t, ce.Msg, "1 in order has multiple values for customer")
}

func TestIsSameAs(t *testing.T) {
	df := orders(t)
	assert.NoError(t, run(t, "is_same_as", callable.Pos(df, orders(t))))

	other, _ := frame.New([]string{"id"}, []any{1})
	requireCheckError(t, run(t, "is_same_as", callable.Pos(df, other)), "is_same_as")
}

func TestCustomCheck(t *testing.T) {
	df := orders(t)
	minRows := callable.MustNew("min_rows", func(df *frame.Frame, n int) bool {
		return df.Len() >= n
	}, callable.Required("df"), callable.Optional("n", 1))

	assert.NoError(t, run(t, CustomCheckName, callable.Pos(df, minRows, map[string]any{"n": 4})))

	ce := requireCheckError(t, run(t, CustomCheckName, callable.Pos(df, minRows, map[string]any{"n": 5})), "min_rows")
	assert.Contains(t, ce.Msg, "returned false")

	boom := errors.New("boom")
	failing := callable.MustNew("failing", func(df *frame.Frame) error { return boom }, callable.Required("df"))
	err := run(t, CustomCheckName, callable.Pos(df, failing))
	ce = requireCheckError(t, err, "failing")
	assert.ErrorIs(t, err, boom)
}
