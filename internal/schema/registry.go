package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownType      = errors.New("unknown type")
	ErrDuplicateType    = errors.New("duplicate type")
	ErrDuplicateField   = errors.New("duplicate field")
	ErrUndeclaredType   = errors.New("undeclared type")
	ErrMalformedWrapper = errors.New("malformed type wrapper")
	ErrNonNullCycle     = errors.New("circular non-null reference")
	ErrKindMismatch     = errors.New("type kind mismatch")
	ErrInvalidRoot      = errors.New("invalid root type")
)

// RegistryError locates a registry construction failure.
type RegistryError struct {
	Err    error
	Type   string
	Field  string
	Detail string
}

func (e *RegistryError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	if e.Type != "" {
		b.WriteString(e.Type)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Build registers the given types together with the builtin scalars and
// directives and checks that the result is self-consistent. All problems
// found are reported at once through errors.Join.
//
// Types passed to Build become owned by the returned Schema and must not be
// modified afterwards.
func Build(queryType, mutationType string, types ...*Type) (*Schema, error) {
	s := &Schema{
		QueryType:    queryType,
		MutationType: mutationType,
		Types:        make(map[string]*Type, len(types)+len(builtinScalars)),
		Directives:   make(map[string]*Directive, len(builtinDirectives)),
	}
	for _, t := range builtinScalars {
		s.Types[t.Name] = t
	}
	for _, d := range builtinDirectives {
		s.Directives[d.Name] = d
	}

	var errs []error
	for _, t := range types {
		if t == nil || t.Name == "" {
			errs = append(errs, &RegistryError{Err: ErrMalformedWrapper, Detail: "type without a name"})
			continue
		}
		if _, exists := s.Types[t.Name]; exists {
			errs = append(errs, &RegistryError{Err: ErrDuplicateType, Type: t.Name})
			continue
		}
		s.Types[t.Name] = t
	}

	c := checker{schema: s}
	c.checkRoot(queryType, true)
	c.checkRoot(mutationType, false)
	for _, name := range sortedTypeNames(s) {
		c.checkType(s.Types[name])
	}
	if len(c.errs) == 0 {
		c.checkNonNullCycles()
	}
	errs = append(errs, c.errs...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

type checker struct {
	schema *Schema
	errs   []error
}

func (c *checker) fail(err error, typ, field, detail string) {
	c.errs = append(c.errs, &RegistryError{Err: err, Type: typ, Field: field, Detail: detail})
}

func (c *checker) checkRoot(name string, required bool) {
	if name == "" {
		if required {
			c.fail(ErrInvalidRoot, "", "", "query root type is required")
		}
		return
	}
	t, ok := c.schema.Types[name]
	if !ok {
		c.fail(ErrUndeclaredType, name, "", "root type is not declared")
		return
	}
	if t.Kind != TypeKindObject {
		c.fail(ErrInvalidRoot, name, "", "root type must be an object type")
	}
}

func (c *checker) checkType(t *Type) {
	switch t.Kind {
	case TypeKindScalar:
	case TypeKindEnum:
		if len(t.EnumValues) == 0 {
			c.fail(ErrKindMismatch, t.Name, "", "enum must declare at least one value")
		}
		seen := map[string]bool{}
		for _, v := range t.EnumValues {
			if seen[v.Name] {
				c.fail(ErrDuplicateField, t.Name, v.Name, "")
			}
			seen[v.Name] = true
		}
	case TypeKindObject, TypeKindInterface:
		if len(t.Fields) == 0 {
			c.fail(ErrKindMismatch, t.Name, "", "object types must declare at least one field")
		}
		seen := map[string]bool{}
		for _, f := range t.Fields {
			if seen[f.Name] {
				c.fail(ErrDuplicateField, t.Name, f.Name, "")
				continue
			}
			seen[f.Name] = true
			c.checkRef(t.Name, f.Name, f.Type, true)
			for _, a := range f.Arguments {
				c.checkRef(t.Name, f.Name+"("+a.Name+")", a.Type, false)
			}
		}
		for _, iface := range t.Interfaces {
			if it, ok := c.schema.Types[iface]; !ok {
				c.fail(ErrUndeclaredType, t.Name, "", fmt.Sprintf("interface %q", iface))
			} else if it.Kind != TypeKindInterface {
				c.fail(ErrKindMismatch, t.Name, "", fmt.Sprintf("%q is not an interface", iface))
			}
		}
	case TypeKindUnion:
		for _, member := range t.PossibleTypes {
			if mt, ok := c.schema.Types[member]; !ok {
				c.fail(ErrUndeclaredType, t.Name, "", fmt.Sprintf("union member %q", member))
			} else if mt.Kind != TypeKindObject {
				c.fail(ErrKindMismatch, t.Name, "", fmt.Sprintf("union member %q is not an object type", member))
			}
		}
	case TypeKindInputObject:
		if len(t.InputFields) == 0 {
			c.fail(ErrKindMismatch, t.Name, "", "input types must declare at least one field")
		}
		seen := map[string]bool{}
		for _, f := range t.InputFields {
			if seen[f.Name] {
				c.fail(ErrDuplicateField, t.Name, f.Name, "")
				continue
			}
			seen[f.Name] = true
			c.checkRef(t.Name, f.Name, f.Type, false)
		}
	default:
		c.fail(ErrKindMismatch, t.Name, "", fmt.Sprintf("unknown kind %q", t.Kind))
	}
}

// checkRef validates the wrapper chain of ref and the kind of the named type
// it ends in. Output positions accept anything but input objects; input
// positions accept only scalars, enums and input objects.
func (c *checker) checkRef(typ, field string, ref *TypeRef, output bool) {
	seen := map[*TypeRef]bool{}
	cur := ref
	for {
		if cur == nil {
			c.fail(ErrMalformedWrapper, typ, field, "missing type")
			return
		}
		if seen[cur] {
			c.fail(ErrMalformedWrapper, typ, field, "wrapper contains itself")
			return
		}
		seen[cur] = true
		switch cur.Kind {
		case TypeRefKindNamed:
			if cur.Named == "" || cur.OfType != nil {
				c.fail(ErrMalformedWrapper, typ, field, "named reference must carry only a name")
				return
			}
			target, ok := c.schema.Types[cur.Named]
			if !ok {
				c.fail(ErrUndeclaredType, typ, field, fmt.Sprintf("%q", cur.Named))
				return
			}
			if output && target.Kind == TypeKindInputObject {
				c.fail(ErrKindMismatch, typ, field, fmt.Sprintf("input type %q used as output", cur.Named))
			}
			if !output && target.Kind != TypeKindInputObject && !target.IsLeaf() {
				c.fail(ErrKindMismatch, typ, field, fmt.Sprintf("output type %q used as input", cur.Named))
			}
			return
		case TypeRefKindNonNull:
			if cur.OfType != nil && cur.OfType.Kind == TypeRefKindNonNull {
				c.fail(ErrMalformedWrapper, typ, field, "non-null wrapping non-null")
				return
			}
			cur = cur.OfType
		case TypeRefKindList:
			cur = cur.OfType
		default:
			c.fail(ErrMalformedWrapper, typ, field, fmt.Sprintf("unknown wrapper kind %q", cur.Kind))
			return
		}
	}
}

// checkNonNullCycles reports object or input types that reach themselves
// through fields of the form T! (lists break the chain since an empty list
// is always a valid value).
func (c *checker) checkNonNullCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		state[name] = visiting
		stack = append(stack, name)
		for _, edge := range requiredEdges(c.schema.Types[name]) {
			switch state[edge.target] {
			case visiting:
				start := 0
				for i, n := range stack {
					if n == edge.target {
						start = i
					}
				}
				chain := append(append([]string{}, stack[start:]...), edge.target)
				c.fail(ErrNonNullCycle, name, edge.field, strings.Join(chain, " -> "))
			case unvisited:
				visit(edge.target)
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
	}

	for _, name := range sortedTypeNames(c.schema) {
		t := c.schema.Types[name]
		if t.Kind != TypeKindObject && t.Kind != TypeKindInputObject {
			continue
		}
		if state[name] == unvisited {
			visit(name)
		}
	}
}

type requiredEdge struct {
	field  string
	target string
}

func requiredEdges(t *Type) []requiredEdge {
	var edges []requiredEdge
	add := func(field string, ref *TypeRef) {
		if ref.IsNonNull() && ref.OfType.Kind == TypeRefKindNamed {
			edges = append(edges, requiredEdge{field: field, target: ref.OfType.Named})
		}
	}
	switch t.Kind {
	case TypeKindObject:
		for _, f := range t.Fields {
			add(f.Name, f.Type)
		}
	case TypeKindInputObject:
		for _, f := range t.InputFields {
			add(f.Name, f.Type)
		}
	}
	return edges
}

func sortedTypeNames(s *Schema) []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
