package decorators

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/drosengarten/bulwark/callable"
	"github.com/drosengarten/bulwark/checks"
	"github.com/drosengarten/bulwark/frame"
	"github.com/drosengarten/bulwark/internal/naming"
)

func TestDefaultRegistryCoversCatalog(t *testing.T) {
	for _, op := range checks.All() {
		name := naming.SnakeToCamel(op.Name())
		b, ok := Lookup(name)
		if !ok {
			t.Errorf("no builder for %s (%s)", op.Name(), name)
			continue
		}
		if b.Name() != name {
			t.Errorf("builder name %q, want %q", b.Name(), name)
		}
		if !reflect.DeepEqual(b.Params(), op.Params()[1:]) {
			t.Errorf("%s: params %v, want %v", name, b.Params(), op.Params()[1:])
		}
	}
	if got, want := len(Names()), len(checks.All()); got != want {
		t.Errorf("registered %d builders, catalog has %d", got, want)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	for _, want := range []string{"HasColumns", "HasNoNans", "HasNoX", "IsShape", "OneToMany", "CustomCheck"} {
		if _, ok := Lookup(want); !ok {
			t.Errorf("missing builder %s", want)
		}
	}
}

func TestCustomCheckBuilder(t *testing.T) {
	b, ok := Lookup("CustomCheck")
	if !ok {
		t.Fatal("CustomCheck not registered")
	}
	if !b.Custom() {
		t.Error("CustomCheck should be the custom variant")
	}
	d, err := b.New(CheckFunc(above(t)))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*CustomWrapper); !ok {
		t.Errorf("CustomCheck built %T, want *CustomWrapper", d)
	}

	d, err = Build("HasNoNans")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*Wrapper); !ok {
		t.Errorf("HasNoNans built %T, want *Wrapper", d)
	}
}

func TestBuildUnknown(t *testing.T) {
	if _, err := Build("HasNothing"); !errors.Is(err, ErrUnknownCheck) {
		t.Errorf("expected ErrUnknownCheck, got %v", err)
	}
}

func TestRegistryOwnerFilter(t *testing.T) {
	local := callable.MustNew("local_check", func(v any) error { return nil }, callable.Required("value"))

	r, err := NewRegistry(checks.Package, append(checks.All(), local)...)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Lookup("LocalCheck"); ok {
		t.Error("operation from another package was registered")
	}

	r, err = NewRegistry(local.Package(), append(checks.All(), local)...)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"LocalCheck"}) {
		t.Errorf("names = %v, want [LocalCheck]", got)
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	a := callable.MustNew("has_x", func(v any) error { return nil }, callable.Required("value"))
	b := callable.MustNew("has__x", func(v any) error { return nil }, callable.Required("value"))

	_, err := NewRegistry(a.Package(), a, b)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func loader(t *testing.T, df *frame.Frame) *callable.Func {
	t.Helper()
	return callable.MustNew("load", func(path string) (*frame.Frame, error) { return df, nil },
		callable.Required("path"))
}

func TestBuiltCheckOnFrame(t *testing.T) {
	df, err := frame.New([]string{"price", "qty"},
		[]any{1.5, 2},
		[]any{math.NaN(), 3},
	)
	if err != nil {
		t.Fatal(err)
	}

	// YAML-shaped configuration is decoded into the check's parameter types.
	d, err := Build("HasNoNans", Param("columns", []any{"price"}))
	if err != nil {
		t.Fatal(err)
	}
	f := mustWrap(t, d, loader(t, df))

	_, err = f.Call(context.Background(), "orders.csv")
	var ce *checks.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *checks.Error, got %T: %v", err, err)
	}

	d, err = Build("HasNoNans", Param("columns", []string{"qty"}))
	if err != nil {
		t.Fatal(err)
	}
	f = mustWrap(t, d, loader(t, df))
	got, err := f.Call(context.Background(), "orders.csv")
	if err != nil {
		t.Fatal(err)
	}
	if got != df {
		t.Error("wrapped loader did not return its frame unchanged")
	}
}

func TestBuiltCheckOnArgument(t *testing.T) {
	df, err := frame.New([]string{"a"}, []any{1}, []any{2})
	if err != nil {
		t.Fatal(err)
	}
	save := callable.MustNew("save", func(df *frame.Frame, path string) error { return nil },
		callable.Required("df"), callable.Required("path"))

	d, err := Build("IsShape", Args([]int{3, -1}), Locate("df"))
	if err != nil {
		t.Fatal(err)
	}
	f := mustWrap(t, d, save)
	if _, err := f.Call(context.Background(), df, "out.csv"); err == nil {
		t.Error("expected shape mismatch for 2 rows")
	}

	d, err = Build("IsShape", Args([]int{2, -1}), Locate("df"))
	if err != nil {
		t.Fatal(err)
	}
	f = mustWrap(t, d, save)
	if _, err := f.Call(context.Background(), df, "out.csv"); err != nil {
		t.Errorf("shape 2x1 should pass: %v", err)
	}
}
