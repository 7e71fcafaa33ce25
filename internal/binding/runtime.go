package binding

import (
	"context"
	"fmt"

	executor "github.com/hanpama/membergraph/internal/executor"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// ResolveField runs the bound resolver of the field, or reads the property
// of the same name from source. A missing property resolves to null; the
// executor turns that into an error when the field is non-null.
func (b *Binding) ResolveField(ctx context.Context, info executor.ResolveInfo, source any, args map[string]any) (any, error) {
	if fn, ok := b.resolvers[info.Key()]; ok {
		return fn(ctx, Params{Source: source, Args: args, Info: info})
	}
	return property(source, info.FieldName), nil
}

func property(source any, name string) any {
	switch src := source.(type) {
	case map[string]any:
		return src[name]
	case Properties:
		v, _ := src.Property(name)
		return v
	}
	return nil
}

// ResolveType names the object type of an interface or union value. A
// registered type resolver wins; otherwise the value may name itself through
// Typed or a "__typename" map entry.
func (b *Binding) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if fn, ok := b.typeResolvers[abstractType]; ok {
		return fn(ctx, value)
	}
	switch v := value.(type) {
	case Typed:
		return v.GraphQLType(), nil
	case map[string]any:
		if name, ok := v["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot determine the object type of %T for %s", value, abstractType)
}

// SerializeLeafValue converts a scalar or enum value to its JSON form.
func (b *Binding) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	value, isNil := deref(value)
	if isNil {
		return nil, nil
	}
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value)
	case "Boolean":
		return serializeBoolean(value)
	case "ID":
		return serializeID(value)
	}
	t, err := b.schema.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return serializeEnum(t, value)
	case schema.TypeKindScalar:
		if fn, ok := b.scalars[typeName]; ok {
			return fn(value)
		}
	}
	return nil, fmt.Errorf("%s is not a serializable leaf type", typeName)
}
