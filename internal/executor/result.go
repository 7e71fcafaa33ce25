package executor

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Location is a line/column position in the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
	// Aborted is set when the request failed before execution started. Such
	// results carry no data entry at all.
	Aborted bool `json:"-"`
}

func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if !r.Aborted {
		buf.WriteString(`"data":`)
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	if len(r.Errors) > 0 {
		if !r.Aborted {
			buf.WriteByte(',')
		}
		buf.WriteString(`"errors":`)
		errs, err := json.Marshal(r.Errors)
		if err != nil {
			return nil, err
		}
		buf.Write(errs)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Object is a completed object value. Field order follows the selection set.
type Object []ObjectField

type ObjectField struct {
	Key   string
	Value any
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Plain converts completed values into plain maps and slices, dropping key
// order. Useful for comparisons.
func Plain(v any) any {
	switch v := v.(type) {
	case Object:
		m := make(map[string]any, len(v))
		for _, f := range v {
			m[f.Key] = Plain(f.Value)
		}
		return m
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}

type Path []PathElement

// PathElement is a response key (string) or list index (int).
type PathElement any

func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}
