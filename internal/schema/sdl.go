package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/membergraph/internal/language"
)

// BuildFromSDL parses SDL and registers the declared types. Root types come
// from a schema block when present, otherwise from the types named Query and
// Mutation.
func BuildFromSDL(sdl string) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	queryType, mutationType := "", ""
	for _, def := range doc.Definitions {
		switch def.Name {
		case "Query":
			queryType = def.Name
		case "Mutation":
			mutationType = def.Name
		}
	}
	for _, sd := range doc.Schema {
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case ast.Query:
				queryType = op.Type
			case ast.Mutation:
				mutationType = op.Type
			}
		}
	}

	types := make([]*Type, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		t, err := typeFromDefinition(def)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	for _, ext := range doc.Extensions {
		base := findType(types, ext.Name)
		if base == nil {
			return nil, &RegistryError{Err: ErrUndeclaredType, Type: ext.Name, Detail: "extension of an undeclared type"}
		}
		extra, err := typeFromDefinition(ext)
		if err != nil {
			return nil, err
		}
		base.Fields = append(base.Fields, extra.Fields...)
		base.InputFields = append(base.InputFields, extra.InputFields...)
		base.EnumValues = append(base.EnumValues, extra.EnumValues...)
		base.PossibleTypes = append(base.PossibleTypes, extra.PossibleTypes...)
		base.Interfaces = append(base.Interfaces, extra.Interfaces...)
	}
	return Build(queryType, mutationType, types...)
}

func findType(types []*Type, name string) *Type {
	for _, t := range types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func typeFromDefinition(def *ast.Definition) (*Type, error) {
	var t *Type
	switch def.Kind {
	case ast.Scalar:
		t = NewType(def.Name, TypeKindScalar, def.Description)
	case ast.Object:
		t = NewType(def.Name, TypeKindObject, def.Description)
	case ast.Interface:
		t = NewType(def.Name, TypeKindInterface, def.Description)
	case ast.Union:
		t = NewType(def.Name, TypeKindUnion, def.Description)
	case ast.Enum:
		t = NewType(def.Name, TypeKindEnum, def.Description)
	case ast.InputObject:
		t = NewType(def.Name, TypeKindInputObject, def.Description)
	default:
		return nil, fmt.Errorf("schema: %s: unsupported definition kind %q", def.Name, def.Kind)
	}

	t.Interfaces = append(t.Interfaces, def.Interfaces...)
	t.PossibleTypes = append(t.PossibleTypes, def.Types...)
	for _, v := range def.EnumValues {
		ev := NewEnumValue(v.Name, v.Description)
		if reason, ok := deprecation(v.Directives); ok {
			ev.Deprecate(reason)
		}
		t.AddEnumValue(ev)
	}
	for _, fd := range def.Fields {
		if t.Kind == TypeKindInputObject {
			in, err := inputValueFromAST(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives)
			if err != nil {
				return nil, err
			}
			t.AddInputField(in)
			continue
		}
		f := NewField(fd.Name, fd.Description, typeRefFromAST(fd.Type))
		if reason, ok := deprecation(fd.Directives); ok {
			f.Deprecate(reason)
		}
		for _, ad := range fd.Arguments {
			in, err := inputValueFromAST(ad.Name, ad.Description, ad.Type, ad.DefaultValue, ad.Directives)
			if err != nil {
				return nil, err
			}
			f.AddArgument(in)
		}
		t.AddField(f)
	}
	return t, nil
}

func inputValueFromAST(name, description string, typ *ast.Type, def *ast.Value, dirs ast.DirectiveList) (*InputValue, error) {
	in := NewInputValue(name, description, typeRefFromAST(typ))
	if def != nil {
		v, err := defaultFromAST(def)
		if err != nil {
			return nil, fmt.Errorf("schema: default value of %s: %w", name, err)
		}
		in.SetDefault(v)
	}
	if reason, ok := deprecation(dirs); ok {
		in.Deprecate(reason)
	}
	return in, nil
}

func defaultFromAST(v *ast.Value) (any, error) {
	switch v.Kind {
	case ast.EnumValue:
		return EnumLiteral(v.Raw), nil
	case ast.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			cv, err := defaultFromAST(c.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	case ast.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			cv, err := defaultFromAST(c.Value)
			if err != nil {
				return nil, err
			}
			out[c.Name] = cv
		}
		return out, nil
	default:
		return v.Value(nil)
	}
}

func typeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(typeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

func deprecation(dirs ast.DirectiveList) (string, bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "", true
}
