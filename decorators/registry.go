package decorators

import (
	"fmt"
	"sort"

	"github.com/drosengarten/bulwark/callable"
	"github.com/drosengarten/bulwark/checks"
	"github.com/drosengarten/bulwark/internal/naming"
)

// Builder builds decorators for one check operation.
type Builder struct {
	name   string
	check  *callable.Func
	custom bool
}

// Name returns the registered CamelCase name.
func (b *Builder) Name() string { return b.name }

// Check returns the operation the builder wraps.
func (b *Builder) Check() *callable.Func { return b.check }

// Custom reports whether the builder takes a caller-supplied check.
func (b *Builder) Custom() bool { return b.custom }

// Params returns the configuration parameters: every parameter of the
// operation after its data parameter.
func (b *Builder) Params() []callable.Param {
	p := b.check.Params()
	if len(p) == 0 {
		return nil
	}
	return p[1:]
}

// New builds a decorator from opts.
func (b *Builder) New(opts ...Option) (Decorator, error) {
	if b.custom {
		return NewCustomCheck(b.check, opts...)
	}
	return NewWrapper(b.check, opts...)
}

// Registry maps CamelCase names to builders. It is read-only once built.
type Registry struct {
	builders map[string]*Builder
}

// NewRegistry registers a builder for every operation defined in package
// owner. Operations defined elsewhere are skipped. The custom_check
// operation is registered as the custom variant.
func NewRegistry(owner string, ops ...*callable.Func) (*Registry, error) {
	r := &Registry{builders: make(map[string]*Builder, len(ops))}
	for _, op := range ops {
		if op == nil || op.Package() != owner {
			continue
		}
		name := naming.SnakeToCamel(op.Name())
		if prev, dup := r.builders[name]; dup {
			return nil, fmt.Errorf("%w: %s and %s both register as %s",
				ErrDuplicateName, prev.check.Name(), op.Name(), name)
		}
		r.builders[name] = &Builder{
			name:   name,
			check:  op,
			custom: op.Name() == checks.CustomCheckName,
		}
	}
	return r, nil
}

// Lookup returns the builder registered under name.
func (r *Registry) Lookup(name string) (*Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build looks up name and builds a decorator from opts.
func (r *Registry) Build(name string, opts ...Option) (Decorator, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
	}
	return b.New(opts...)
}

var defaultRegistry *Registry

func init() {
	r, err := NewRegistry(checks.Package, checks.All()...)
	if err != nil {
		panic(err)
	}
	defaultRegistry = r
}

// Default returns the registry of the checks package catalog.
func Default() *Registry { return defaultRegistry }

// Lookup returns the builder registered under name in the default registry.
func Lookup(name string) (*Builder, bool) { return defaultRegistry.Lookup(name) }

// Names returns the names in the default registry, sorted.
func Names() []string { return defaultRegistry.Names() }

// Build builds a decorator from the default registry.
func Build(name string, opts ...Option) (Decorator, error) {
	return defaultRegistry.Build(name, opts...)
}
