// Package introspection answers __schema and __type queries from the type
// registry so standard GraphQL tooling can discover the API.
package introspection

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	executor "github.com/hanpama/membergraph/internal/executor"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// Wrapper pairs the decorated runtime with the schema it must run against.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap decorates base with introspection. Fields of the meta types are
// answered here; everything else goes to base.
func Wrap(base executor.Runtime, sch *schema.Schema) *Wrapper {
	extended := extend(sch)
	return &Wrapper{
		Runtime: &runtime{base: base, schema: extended},
		Schema:  extended,
	}
}

type runtime struct {
	base   executor.Runtime
	schema *schema.Schema // registry plus meta types
}

func (r *runtime) ResolveField(ctx context.Context, info executor.ResolveInfo, source any, args map[string]any) (any, error) {
	if info.ObjectType == r.schema.QueryType {
		switch info.FieldName {
		case "__schema":
			return r.schema, nil
		case "__type":
			name, _ := args["name"].(string)
			if t, ok := r.schema.Types[name]; ok {
				return t, nil
			}
			return nil, nil
		}
	}
	if !strings.HasPrefix(info.ObjectType, "__") {
		return r.base.ResolveField(ctx, info, source, args)
	}

	withDeprecated, _ := args["includeDeprecated"].(bool)
	switch src := source.(type) {
	case *schema.Schema:
		return r.schemaField(src, info.FieldName), nil
	case *schema.Type:
		return r.typeField(src, info.FieldName, withDeprecated), nil
	case *schema.TypeRef:
		return r.wrapperField(src, info.FieldName), nil
	case *schema.Field:
		return r.fieldField(src, info.FieldName, withDeprecated), nil
	case *schema.InputValue:
		return r.inputValueField(src, info.FieldName), nil
	case *schema.EnumValue:
		return enumValueField(src, info.FieldName), nil
	case *schema.Directive:
		return r.directiveField(src, info.FieldName, withDeprecated), nil
	}
	return nil, nil
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "__TypeKind", "__DirectiveLocation":
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

// typeOf presents a type reference. Named references become the named type
// itself; list and non-null wrappers stay references.
func (r *runtime) typeOf(ref *schema.TypeRef) any {
	if ref == nil {
		return nil
	}
	if ref.Kind == schema.TypeRefKindNamed {
		if t, ok := r.schema.Types[ref.Named]; ok {
			return t
		}
		return nil
	}
	return ref
}

func (r *runtime) schemaField(sch *schema.Schema, field string) any {
	switch field {
	case "description":
		return optional(sch.Description)
	case "types":
		return byName(lo.Values(sch.Types), func(t *schema.Type) string { return t.Name })
	case "queryType":
		return sch.GetQueryType()
	case "mutationType":
		if t := sch.GetMutationType(); t != nil {
			return t
		}
		return nil
	case "subscriptionType":
		return nil
	case "directives":
		return byName(lo.Values(sch.Directives), func(d *schema.Directive) string { return d.Name })
	}
	return nil
}

func (r *runtime) typeField(t *schema.Type, field string, withDeprecated bool) any {
	switch field {
	case "kind":
		return string(t.Kind)
	case "name":
		return t.Name
	case "description":
		return optional(t.Description)
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		return lo.Filter(t.Fields, func(f *schema.Field, _ int) bool {
			return (withDeprecated || !f.IsDeprecated) && !strings.HasPrefix(f.Name, "__")
		})
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		return r.named(t.Interfaces)
	case "possibleTypes":
		if !t.IsAbstract() {
			return nil
		}
		if t.Kind == schema.TypeKindUnion {
			return r.named(t.PossibleTypes)
		}
		return r.implementations(t.Name)
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil
		}
		return lo.Filter(t.EnumValues, func(v *schema.EnumValue, _ int) bool { return withDeprecated || !v.IsDeprecated })
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil
		}
		return filterInputValues(t.InputFields, withDeprecated)
	case "isOneOf":
		if t.Kind == schema.TypeKindInputObject {
			return false
		}
		return nil
	}
	return nil
}

func (r *runtime) wrapperField(ref *schema.TypeRef, field string) any {
	switch field {
	case "kind":
		return string(ref.Kind)
	case "ofType":
		return r.typeOf(ref.OfType)
	case "fields", "interfaces", "possibleTypes", "enumValues", "inputFields":
		return nil
	}
	return nil
}

func (r *runtime) fieldField(f *schema.Field, field string, withDeprecated bool) any {
	switch field {
	case "name":
		return f.Name
	case "description":
		return optional(f.Description)
	case "args":
		return filterInputValues(f.Arguments, withDeprecated)
	case "type":
		return r.typeOf(f.Type)
	case "isDeprecated":
		return f.IsDeprecated
	case "deprecationReason":
		return deprecation(f.IsDeprecated, f.DeprecationReason)
	}
	return nil
}

func (r *runtime) inputValueField(v *schema.InputValue, field string) any {
	switch field {
	case "name":
		return v.Name
	case "description":
		return optional(v.Description)
	case "type":
		return r.typeOf(v.Type)
	case "defaultValue":
		if !v.HasDefault {
			return nil
		}
		return schema.RenderValue(v.DefaultValue)
	case "isDeprecated":
		return v.IsDeprecated
	case "deprecationReason":
		return deprecation(v.IsDeprecated, v.DeprecationReason)
	}
	return nil
}

func enumValueField(v *schema.EnumValue, field string) any {
	switch field {
	case "name":
		return v.Name
	case "description":
		return optional(v.Description)
	case "isDeprecated":
		return v.IsDeprecated
	case "deprecationReason":
		return deprecation(v.IsDeprecated, v.DeprecationReason)
	}
	return nil
}

func (r *runtime) directiveField(d *schema.Directive, field string, withDeprecated bool) any {
	switch field {
	case "name":
		return d.Name
	case "description":
		return optional(d.Description)
	case "isRepeatable":
		return d.IsRepeatable
	case "locations":
		return d.Locations
	case "args":
		return filterInputValues(d.Arguments, withDeprecated)
	}
	return nil
}

func (r *runtime) named(names []string) []*schema.Type {
	return lo.FilterMap(names, func(name string, _ int) (*schema.Type, bool) {
		t, ok := r.schema.Types[name]
		return t, ok
	})
}

// implementations lists the object types implementing iface.
func (r *runtime) implementations(iface string) []*schema.Type {
	objects := lo.Filter(lo.Values(r.schema.Types), func(t *schema.Type, _ int) bool {
		return t.Kind == schema.TypeKindObject && slices.Contains(t.Interfaces, iface)
	})
	return byName(objects, func(t *schema.Type) string { return t.Name })
}

func byName[T any](items []T, name func(T) string) []T {
	slices.SortFunc(items, func(a, b T) int { return cmp.Compare(name(a), name(b)) })
	return items
}

func filterInputValues(values []*schema.InputValue, withDeprecated bool) []*schema.InputValue {
	return lo.Filter(values, func(v *schema.InputValue, _ int) bool { return withDeprecated || !v.IsDeprecated })
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecation(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}
