package checks

import (
	"github.com/drosengarten/bulwark/callable"
)

// CustomCheckName is the catalog name of the generic entry point for
// caller-supplied checks.
const CustomCheckName = "custom_check"

var catalog = []*callable.Func{
	callable.MustNew("has_columns", hasColumns,
		callable.Required(DataParam),
		callable.Required("columns"),
		callable.Optional("exact_cols", false),
		callable.Optional("exact_order", false),
	).WithDoc("Asserts that df has the given columns, optionally exactly and in order."),

	callable.MustNew("has_no_nans", hasNoNans,
		callable.Required(DataParam),
		callable.Optional("columns", nil),
	).WithDoc("Asserts that the columns contain no NaN or missing values."),

	callable.MustNew("has_no_infs", hasNoInfs,
		callable.Required(DataParam),
		callable.Optional("columns", nil),
	).WithDoc("Asserts that the columns contain no infinite values."),

	callable.MustNew("has_no_nones", hasNoNones,
		callable.Required(DataParam),
		callable.Optional("columns", nil),
	).WithDoc("Asserts that the columns contain no nil values."),

	callable.MustNew("has_no_x", hasNoX,
		callable.Required(DataParam),
		callable.Required("values"),
		callable.Optional("columns", nil),
	).WithDoc("Asserts that the columns contain none of the given values."),

	callable.MustNew("has_set_within_vals", hasSetWithinVals,
		callable.Required(DataParam),
		callable.Required("items"),
	).WithDoc("Asserts that each column only holds values from its allowed set."),

	callable.MustNew("has_unique_index", hasUniqueIndex,
		callable.Required(DataParam),
	).WithDoc("Asserts that the row index has no duplicate labels."),

	callable.MustNew("has_vals_within_range", hasValsWithinRange,
		callable.Required(DataParam),
		callable.Required("items"),
	).WithDoc("Asserts that each column's values lie within its [lower, upper] range."),

	callable.MustNew("has_vals_within_n_std", hasValsWithinNStd,
		callable.Required(DataParam),
		callable.Optional("n", 3.0),
		callable.Optional("columns", nil),
	).WithDoc("Asserts that values lie within n standard deviations of their column mean."),

	callable.MustNew("has_dtypes", hasDtypes,
		callable.Required(DataParam),
		callable.Required("items"),
	).WithDoc("Asserts that each column has the given dtype."),

	callable.MustNew("is_monotonic", isMonotonic,
		callable.Required(DataParam),
		callable.Optional("columns", nil),
		callable.Optional("increasing", true),
		callable.Optional("strict", false),
	).WithDoc("Asserts that the columns are monotonic."),

	callable.MustNew("is_shape", isShape,
		callable.Required(DataParam),
		callable.Required("shape"),
	).WithDoc("Asserts that df has the given [rows, columns] shape; -1 matches any size."),

	callable.MustNew("one_to_many", oneToMany,
		callable.Required(DataParam),
		callable.Required("unitcol"),
		callable.Required("manycol"),
	).WithDoc("Asserts that every manycol value maps to a single unitcol value."),

	callable.MustNew("is_same_as", isSameAs,
		callable.Required(DataParam),
		callable.Required("df_to_compare"),
	).WithDoc("Asserts that df equals df_to_compare."),

	callable.MustNew(CustomCheckName, customCheck,
		callable.Required(DataParam),
		callable.Required("check_func"),
		callable.Optional("params", nil),
	).WithDoc("Runs a caller-supplied check against df."),
}

// All returns the catalog of check operations.
func All() []*callable.Func {
	return append([]*callable.Func(nil), catalog...)
}

// Lookup returns the catalog operation with the given snake_case name.
func Lookup(name string) (*callable.Func, bool) {
	for _, op := range catalog {
		if op.Name() == name {
			return op, true
		}
	}
	return nil, false
}
