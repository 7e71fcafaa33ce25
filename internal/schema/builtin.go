package schema

import "slices"

// The five scalars and three directives every schema starts with.
var (
	builtinScalars = []*Type{
		Scalar("String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences."),
		Scalar("Int", "The `Int` scalar type represents non-fractional signed whole numeric values."),
		Scalar("Float", "The `Float` scalar type represents signed double-precision fractional values."),
		Scalar("Boolean", "The `Boolean` scalar type represents `true` or `false`."),
		Scalar("ID", "The `ID` scalar type represents a unique identifier."),
	}

	builtinDirectives = []*Directive{
		conditionDirective("include", "Directs the executor to include this field or fragment only when the `if` argument is true.", "Included when true."),
		conditionDirective("skip", "Directs the executor to skip this field or fragment when the `if` argument is true.", "Skipped when true."),
		{
			Name:        "deprecated",
			Description: "Marks an element of a GraphQL schema as no longer supported.",
			Arguments: []*InputValue{
				NewInputValue("reason", "Explains why this element was deprecated.", Named("String")).SetDefault("No longer supported"),
			},
			Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
		},
	}
)

func conditionDirective(name, description, argDescription string) *Directive {
	return &Directive{
		Name:        name,
		Description: description,
		Arguments:   []*InputValue{NewInputValue("if", argDescription, NonNull(Named("Boolean")))},
		Locations:   []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	}
}

// IsBuiltin reports whether t is one of the predefined scalars.
func IsBuiltin(t *Type) bool { return slices.Contains(builtinScalars, t) }

// IsBuiltinDirective reports whether d is predefined.
func IsBuiltinDirective(d *Directive) bool { return slices.Contains(builtinDirectives, d) }
