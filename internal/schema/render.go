package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Render prints s as SDL. Types and directives appear in name order and
// built-in scalars and directives are left out, so equal schemas render
// identically. A schema block is printed only for unconventional root names.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	p := &printer{}
	if s.QueryType != "Query" || (s.MutationType != "" && s.MutationType != "Mutation") {
		p.line("schema {")
		p.line("  query: ", s.QueryType)
		if s.MutationType != "" {
			p.line("  mutation: ", s.MutationType)
		}
		p.line("}")
		p.blank()
	}

	names := lo.Filter(lo.Keys(s.Types), func(name string, _ int) bool { return !IsBuiltin(s.Types[name]) })
	slices.Sort(names)
	for _, name := range names {
		p.definition(s.Types[name])
	}

	directives := lo.OmitBy(s.Directives, func(_ string, d *Directive) bool { return IsBuiltinDirective(d) })
	dnames := lo.Keys(directives)
	slices.Sort(dnames)
	for _, name := range dnames {
		p.directive(directives[name])
	}
	return strings.TrimRight(p.b.String(), "\n") + "\n"
}

type printer struct {
	b strings.Builder
}

func (p *printer) line(parts ...string) {
	for _, s := range parts {
		p.b.WriteString(s)
	}
	p.b.WriteByte('\n')
}

func (p *printer) blank() { p.b.WriteByte('\n') }

// description prints desc above a definition, indented like it.
func (p *printer) description(indent, desc string) {
	if desc == "" {
		return
	}
	if !strings.Contains(desc, "\n") {
		p.line(indent, quote(desc))
		return
	}
	p.line(indent, `"""`)
	for _, l := range strings.Split(strings.ReplaceAll(desc, `"""`, `\"""`), "\n") {
		p.line(indent, l)
	}
	p.line(indent, `"""`)
}

func (p *printer) definition(t *Type) {
	p.description("", t.Description)
	switch t.Kind {
	case TypeKindScalar:
		p.line("scalar ", t.Name)
	case TypeKindUnion:
		p.line("union ", t.Name, " = ", strings.Join(t.PossibleTypes, " | "))
	case TypeKindEnum:
		p.line("enum ", t.Name, " {")
		for _, v := range t.EnumValues {
			p.description("  ", v.Description)
			p.line("  ", v.Name, deprecated(v.IsDeprecated, v.DeprecationReason))
		}
		p.line("}")
	case TypeKindInputObject:
		p.line("input ", t.Name, " {")
		for _, f := range t.InputFields {
			p.description("  ", f.Description)
			p.line("  ", inputValue(f), deprecated(f.IsDeprecated, f.DeprecationReason))
		}
		p.line("}")
	case TypeKindObject, TypeKindInterface:
		keyword := "type "
		if t.Kind == TypeKindInterface {
			keyword = "interface "
		}
		p.line(keyword, t.Name, implements(t.Interfaces), " {")
		for _, f := range t.Fields {
			p.description("  ", f.Description)
			p.line("  ", f.Name, arguments(f.Arguments), ": ", renderTypeRef(f.Type), deprecated(f.IsDeprecated, f.DeprecationReason))
		}
		p.line("}")
	default:
		return
	}
	p.blank()
}

func (p *printer) directive(d *Directive) {
	p.description("", d.Description)
	repeatable := ""
	if d.IsRepeatable {
		repeatable = " repeatable"
	}
	p.line("directive @", d.Name, arguments(d.Arguments), repeatable, " on ", strings.Join(d.Locations, " | "))
	p.blank()
}

func implements(ifaces []string) string {
	if len(ifaces) == 0 {
		return ""
	}
	return " implements " + strings.Join(ifaces, " & ")
}

func arguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	return "(" + strings.Join(lo.Map(args, func(a *InputValue, _ int) string { return inputValue(a) }), ", ") + ")"
}

func inputValue(v *InputValue) string {
	s := v.Name + ": " + renderTypeRef(v.Type)
	if v.HasDefault {
		s += " = " + renderValue(v.DefaultValue)
	}
	return s
}

func deprecated(is bool, reason string) string {
	switch {
	case !is:
		return ""
	case reason == "":
		return " @deprecated"
	default:
		return " @deprecated(reason: " + quote(reason) + ")"
	}
}

func renderTypeRef(ref *TypeRef) string {
	if ref == nil {
		return ""
	}
	switch ref.Kind {
	case TypeRefKindNamed:
		return ref.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(ref.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(ref.OfType) + "!"
	}
	return ""
}

// quote renders s as a GraphQL string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// EnumLiteral marks a default value that must render as a bare enum name.
type EnumLiteral string

// RenderValue renders a default value as a GraphQL literal.
func RenderValue(value any) string { return renderValue(value) }

func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case EnumLiteral:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []any:
		return "[" + strings.Join(lo.Map(v, func(item any, _ int) string { return renderValue(item) }), ", ") + "]"
	case map[string]any:
		keys := lo.Keys(v)
		slices.Sort(keys)
		fields := lo.Map(keys, func(k string, _ int) string { return k + ": " + renderValue(v[k]) })
		return "{" + strings.Join(fields, ", ") + "}"
	}
	return fmt.Sprint(value)
}
