package binding

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	schema "github.com/hanpama/membergraph/internal/schema"
)

// deref follows pointers so *string and friends serialize like their
// targets. Leaf values are the only place reflection is used.
func deref(value any) (any, bool) {
	if value == nil {
		return nil, true
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, true
		}
		rv = rv.Elem()
	}
	return rv.Interface(), false
}

func serializeInt(value any) (any, error) {
	rv := reflect.ValueOf(value)
	var i int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", u)
		}
		i = int64(u)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", f)
		}
		i = int64(f)
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	default:
		return nil, fmt.Errorf("Int cannot represent value of type %T", value)
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", i)
	}
	return int(i), nil
}

func serializeFloat(value any) (any, error) {
	rv := reflect.ValueOf(value)
	var f float64
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(rv.Uint())
	default:
		return nil, fmt.Errorf("Float cannot represent value of type %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("Float cannot represent non numeric value: %v", f)
	}
	return f, nil
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value of type %T", value)
}

func serializeBoolean(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	return nil, fmt.Errorf("Boolean cannot represent value of type %T", value)
}

func serializeID(value any) (any, error) {
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return nil, fmt.Errorf("ID cannot represent value of type %T", value)
}

func serializeEnum(t *schema.Type, value any) (any, error) {
	var name string
	if s, ok := value.(fmt.Stringer); ok {
		name = s.String()
	} else if rv := reflect.ValueOf(value); rv.Kind() == reflect.String {
		name = rv.String()
	} else {
		return nil, fmt.Errorf("enum %s cannot represent value of type %T", t.Name, value)
	}
	if !t.HasEnumValue(name) {
		return nil, fmt.Errorf("enum %s cannot represent value: %q", t.Name, name)
	}
	return name, nil
}
