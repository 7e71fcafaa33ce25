// Package binding ties every object field of a schema to the function that
// produces its value.
//
// Bindings are an explicit table keyed by "Type.field". A field without an
// entry falls back to the property resolver, which reads a same-named entry
// from a map[string]any source or asks a Properties source for it. Nothing
// inspects struct shapes at run time.
package binding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	executor "github.com/hanpama/membergraph/internal/executor"
	schema "github.com/hanpama/membergraph/internal/schema"
)

var (
	ErrUnknownField       = errors.New("resolver bound to unknown field")
	ErrNotScalar          = errors.New("serializer bound to a type that is not a custom scalar")
	ErrMissingSerializer  = errors.New("custom scalar has no serializer")
	ErrUnknownAbstract    = errors.New("type resolver bound to a type that is not an interface or union")
	ErrDuplicateBinding   = errors.New("binding registered twice")
	ErrMalformedFieldName = errors.New(`binding key must look like "Type.field"`)
)

// Params are the inputs of one field resolution.
type Params struct {
	Source any
	Args   map[string]any
	Info   executor.ResolveInfo
}

// ResolveFunc produces the raw value of a field.
type ResolveFunc func(ctx context.Context, p Params) (any, error)

// SerializeFunc converts a custom scalar value into its JSON form.
type SerializeFunc func(value any) (any, error)

// TypeResolveFunc names the concrete object type of an abstract value.
type TypeResolveFunc func(ctx context.Context, value any) (string, error)

// Properties is implemented by sources that expose their fields by name.
type Properties interface {
	Property(name string) (any, bool)
}

// Typed is implemented by values that know their GraphQL object type.
type Typed interface {
	GraphQLType() string
}

type Option func(*Binding)

// WithResolver binds fn to the field named "Type.field".
func WithResolver(key string, fn ResolveFunc) Option {
	return func(b *Binding) {
		b.add(key, fn)
	}
}

// WithResolvers binds every entry of m.
func WithResolvers(m map[string]ResolveFunc) Option {
	return func(b *Binding) {
		for key, fn := range m {
			b.add(key, fn)
		}
	}
}

// WithScalar registers the serializer of a custom scalar.
func WithScalar(name string, fn SerializeFunc) Option {
	return func(b *Binding) {
		if _, dup := b.scalars[name]; dup {
			b.errs = append(b.errs, fmt.Errorf("%w: scalar %s", ErrDuplicateBinding, name))
			return
		}
		b.scalars[name] = fn
	}
}

// WithTypeResolver registers how values of an interface or union are typed.
func WithTypeResolver(abstractType string, fn TypeResolveFunc) Option {
	return func(b *Binding) {
		b.typeResolvers[abstractType] = fn
	}
}

// Binding is the resolver table of one schema. It is read-only after New and
// safe for concurrent use.
type Binding struct {
	schema        *schema.Schema
	resolvers     map[string]ResolveFunc
	scalars       map[string]SerializeFunc
	typeResolvers map[string]TypeResolveFunc

	errs []error
}

var _ executor.Runtime = (*Binding)(nil)

// New validates the bindings against sch. Every resolver key must name an
// existing object field and every custom scalar needs a serializer.
func New(sch *schema.Schema, opts ...Option) (*Binding, error) {
	b := &Binding{
		schema:        sch,
		resolvers:     make(map[string]ResolveFunc),
		scalars:       make(map[string]SerializeFunc),
		typeResolvers: make(map[string]TypeResolveFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.check()
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	b.errs = nil
	return b, nil
}

func (b *Binding) add(key string, fn ResolveFunc) {
	if _, dup := b.resolvers[key]; dup {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateBinding, key))
		return
	}
	b.resolvers[key] = fn
}

func (b *Binding) check() {
	for key := range b.resolvers {
		typeName, fieldName, ok := strings.Cut(key, ".")
		if !ok || typeName == "" || fieldName == "" {
			b.errs = append(b.errs, fmt.Errorf("%w: %q", ErrMalformedFieldName, key))
			continue
		}
		t := b.schema.Types[typeName]
		if t == nil || t.Kind != schema.TypeKindObject || t.Field(fieldName) == nil {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownField, key))
		}
	}
	for name := range b.scalars {
		t := b.schema.Types[name]
		if t == nil || t.Kind != schema.TypeKindScalar || schema.IsBuiltin(t) {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrNotScalar, name))
		}
	}
	for name, t := range b.schema.Types {
		if t.Kind == schema.TypeKindScalar && !schema.IsBuiltin(t) {
			if _, ok := b.scalars[name]; !ok {
				b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrMissingSerializer, name))
			}
		}
	}
	for name := range b.typeResolvers {
		if t := b.schema.Types[name]; t == nil || !t.IsAbstract() {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAbstract, name))
		}
	}
}

// Schema returns the schema the bindings were validated against.
func (b *Binding) Schema() *schema.Schema { return b.schema }

// Bound reports whether an explicit resolver exists for "Type.field".
func (b *Binding) Bound(key string) bool {
	_, ok := b.resolvers[key]
	return ok
}

// Property returns a resolver that reads one value off a typed source.
// Sources of another type resolve to null.
func Property[T any](get func(T) any) ResolveFunc {
	return func(ctx context.Context, p Params) (any, error) {
		src, ok := p.Source.(T)
		if !ok {
			return nil, nil
		}
		return get(src), nil
	}
}
