package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/hanpama/membergraph/internal/apperr"
	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// coerceVariableValues checks the supplied variables against the operation's
// definitions. Defaults fill in missing entries; a missing or null required
// variable fails the whole request.
func coerceVariableValues(sch *schema.Schema, op *language.OperationDefinition, supplied map[string]any) (map[string]any, error) {
	in := inputCoercer{sch}
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		name, typ := def.Variable, def.Type
		v, ok := supplied[name]
		switch {
		case !ok && def.DefaultValue != nil:
			v, _ = literal(def.DefaultValue, nil)
		case !ok && typ.NonNull:
			return nil, apperr.New(apperr.KindMissingArgument, "variable $%s of required type %s was not provided", name, typ.String())
		case !ok:
			continue
		case v == nil && typ.NonNull:
			return nil, apperr.New(apperr.KindArgumentTypeMismatch, "variable $%s of type %s cannot be null", name, typ.String())
		}
		cv, err := in.coerce(v, typeRefFromAST(typ))
		if err != nil {
			return nil, apperr.New(apperr.KindArgumentTypeMismatch, "variable $%s of type %s has an invalid value: %v", name, typ.String(), err)
		}
		out[name] = cv
	}
	return out, nil
}

// coerceArgumentValues produces the argument map handed to a resolver.
// Arguments bound to unsupplied variables count as absent.
func coerceArgumentValues(sch *schema.Schema, def *schema.Field, args language.ArgumentList, vars map[string]any) (map[string]any, error) {
	in := inputCoercer{sch}
	out := make(map[string]any, len(def.Arguments))
	for _, a := range def.Arguments {
		var (
			v       any
			present bool
		)
		if arg := args.ForName(a.Name); arg != nil {
			v, present = literal(arg.Value, vars)
		}
		if !present {
			switch {
			case a.HasDefault:
				out[a.Name] = plainDefault(a.DefaultValue)
			case schema.IsNonNull(a.Type):
				return nil, apperr.New(apperr.KindMissingArgument, "argument %q of required type %s was not provided", a.Name, a.Type)
			}
			continue
		}
		cv, err := in.coerce(v, a.Type)
		if err != nil {
			return nil, apperr.New(apperr.KindArgumentTypeMismatch, "argument %q of type %s has an invalid value: %v", a.Name, a.Type, err)
		}
		out[a.Name] = cv
	}
	return out, nil
}

// literal converts a document value into plain Go values. The second result
// is false only for a variable missing from vars; such entries are dropped
// from objects and read as null inside lists.
func literal(v *language.Value, vars map[string]any) (any, bool) {
	if v == nil {
		return nil, true
	}
	switch v.Kind {
	case language.Variable:
		x, ok := vars[v.Raw]
		return x, ok
	case language.IntValue:
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return int(n), true
		}
		return v.Raw, true
	case language.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f, true
	case language.BooleanValue:
		return v.Raw == "true", true
	case language.NullValue:
		return nil, true
	case language.ListValue:
		items := make([]any, len(v.Children))
		for i, c := range v.Children {
			items[i], _ = literal(c.Value, vars)
		}
		return items, true
	case language.ObjectValue:
		fields := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			if x, ok := literal(c.Value, vars); ok {
				fields[c.Name] = x
			}
		}
		return fields, true
	default:
		// strings, block strings and enum names
		return v.Raw, true
	}
}

// plainDefault strips schema-only markers from declared default values.
func plainDefault(v any) any {
	switch v := v.(type) {
	case schema.EnumLiteral:
		return string(v)
	case int64:
		return int(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = plainDefault(v[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k := range v {
			out[k] = plainDefault(v[k])
		}
		return out
	}
	return v
}

// inputCoercer converts plain values into the shape an input type demands.
type inputCoercer struct {
	sch *schema.Schema
}

func (c inputCoercer) coerce(v any, ref *schema.TypeRef) (any, error) {
	if schema.IsNonNull(ref) {
		if v == nil {
			return nil, fmt.Errorf("expected non-null %s", ref)
		}
		return c.coerce(v, schema.Unwrap(ref))
	}
	if v == nil {
		return nil, nil
	}
	if ref.Kind == schema.TypeRefKindList {
		return c.list(v, schema.Unwrap(ref))
	}

	name := schema.GetNamedType(ref)
	if scalar, ok := builtinInputs[name]; ok {
		return scalar(v)
	}
	t, err := c.sch.Lookup(name)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return enumInput(t, v)
	case schema.TypeKindInputObject:
		return c.object(t, v)
	}
	// Custom scalars reach resolvers as supplied.
	return plainDefault(v), nil
}

// list applies input list coercion: a lone value is wrapped in a list.
func (c inputCoercer) list(v any, item *schema.TypeRef) (any, error) {
	items, ok := v.([]any)
	if !ok {
		x, err := c.coerce(v, item)
		if err != nil {
			return nil, err
		}
		return []any{x}, nil
	}
	out := make([]any, len(items))
	for i := range items {
		x, err := c.coerce(items[i], item)
		if err != nil {
			return nil, fmt.Errorf("at index %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

func (c inputCoercer) object(t *schema.Type, v any) (any, error) {
	given, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for %s, got %T", t.Name, v)
	}
	for key := range given {
		if t.InputField(key) == nil {
			return nil, fmt.Errorf("field %q is not defined by type %s", key, t.Name)
		}
	}
	out := make(map[string]any, len(t.InputFields))
	for _, f := range t.InputFields {
		x, present := given[f.Name]
		if !present {
			switch {
			case f.HasDefault:
				out[f.Name] = plainDefault(f.DefaultValue)
			case schema.IsNonNull(f.Type):
				return nil, fmt.Errorf("field %s.%s of required type %s was not provided", t.Name, f.Name, f.Type)
			}
			continue
		}
		cx, err := c.coerce(x, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name, f.Name, err)
		}
		out[f.Name] = cx
	}
	return out, nil
}

func enumInput(t *schema.Type, v any) (any, error) {
	var name string
	switch x := v.(type) {
	case string:
		name = x
	case schema.EnumLiteral:
		name = string(x)
	default:
		return nil, fmt.Errorf("enum %s cannot represent %v (%T)", t.Name, v, v)
	}
	if !t.HasEnumValue(name) {
		return nil, fmt.Errorf("value %q does not exist in enum %s", name, t.Name)
	}
	return name, nil
}

var builtinInputs = map[string]func(any) (any, error){
	"Int":     intInput,
	"Float":   floatInput,
	"String":  stringInput,
	"Boolean": booleanInput,
	"ID":      idInput,
}

func cannotRepresent(typ string, v any) error {
	return fmt.Errorf("%s cannot represent %v (%T)", typ, v, v)
}

func intInput(v any) (any, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", x)
		}
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return nil, cannotRepresent("Int", v)
		}
		n = i
	default:
		return nil, cannotRepresent("Int", v)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent 32-bit overflow value %d", n)
	}
	return int(n), nil
}

func floatInput(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, cannotRepresent("Float", v)
}

func stringInput(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, cannotRepresent("String", v)
}

func booleanInput(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, cannotRepresent("Boolean", v)
}

func idInput(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10), nil
		}
	case json.Number:
		return x.String(), nil
	}
	return nil, cannotRepresent("ID", v)
}
