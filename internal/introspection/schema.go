package introspection

import (
	schema "github.com/hanpama/membergraph/internal/schema"
)

// extend returns a copy of sch that also declares the introspection types and
// the __schema and __type fields of the query root. sch itself is not
// modified.
func extend(sch *schema.Schema) *schema.Schema {
	out := &schema.Schema{
		QueryType:    sch.QueryType,
		MutationType: sch.MutationType,
		Types:        make(map[string]*schema.Type, len(sch.Types)+len(metaTypes)),
		Directives:   sch.Directives,
		Description:  sch.Description,
	}
	for name, t := range sch.Types {
		out.Types[name] = t
	}
	for _, build := range metaTypes {
		t := build()
		out.Types[t.Name] = t
	}

	if query := sch.GetQueryType(); query != nil {
		root := *query
		root.Fields = append(append([]*schema.Field(nil), query.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.", schema.Required("__Schema")),
			schema.NewField("__type", "Request the type information of a single type.", schema.Named("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.", schema.Required("String"))),
		)
		out.Types[root.Name] = &root
	}
	return out
}

var metaTypes = []func() *schema.Type{
	schemaType,
	typeType,
	fieldType,
	inputValueType,
	enumValueType,
	directiveType,
	typeKindEnum,
	directiveLocationEnum,
}

func includeDeprecated() *schema.InputValue {
	return schema.Arg("includeDeprecated", schema.Named("Boolean")).SetDefault(false)
}

func schemaType() *schema.Type {
	t := schema.Object("__Schema", "A GraphQL Schema defines the capabilities of a GraphQL server.")
	t.AddField(schema.NewField("description", "", schema.Named("String")))
	t.AddField(schema.NewField("types", "A list of all types supported by this server.", schema.RequiredList("__Type")))
	t.AddField(schema.NewField("queryType", "The type that query operations will be rooted at.", schema.Required("__Type")))
	t.AddField(schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.", schema.Named("__Type")))
	t.AddField(schema.NewField("subscriptionType", "If this server support subscription, the type that subscription operations will be rooted at.", schema.Named("__Type")))
	t.AddField(schema.NewField("directives", "A list of all directives supported by this server.", schema.RequiredList("__Directive")))
	return t
}

func typeType() *schema.Type {
	t := schema.Object("__Type", "The fundamental unit of any GraphQL Schema is the type.")
	t.FieldOf("kind", schema.Required("__TypeKind"))
	t.FieldOf("name", schema.Named("String"))
	t.FieldOf("description", schema.Named("String"))
	t.FieldOf("specifiedByURL", schema.Named("String"))
	t.FieldOf("fields", schema.List(schema.Required("__Field")), includeDeprecated())
	t.FieldOf("interfaces", schema.List(schema.Required("__Type")))
	t.FieldOf("possibleTypes", schema.List(schema.Required("__Type")))
	t.FieldOf("enumValues", schema.List(schema.Required("__EnumValue")), includeDeprecated())
	t.FieldOf("inputFields", schema.List(schema.Required("__InputValue")), includeDeprecated())
	t.FieldOf("ofType", schema.Named("__Type"))
	t.FieldOf("isOneOf", schema.Named("Boolean"))
	return t
}

func fieldType() *schema.Type {
	return schema.Object("__Field", "").
		FieldOf("name", schema.Required("String")).
		FieldOf("description", schema.Named("String")).
		FieldOf("args", schema.RequiredList("__InputValue"), includeDeprecated()).
		FieldOf("type", schema.Required("__Type")).
		FieldOf("isDeprecated", schema.Required("Boolean")).
		FieldOf("deprecationReason", schema.Named("String"))
}

func inputValueType() *schema.Type {
	return schema.Object("__InputValue", "").
		FieldOf("name", schema.Required("String")).
		FieldOf("description", schema.Named("String")).
		FieldOf("type", schema.Required("__Type")).
		FieldOf("defaultValue", schema.Named("String")).
		FieldOf("isDeprecated", schema.Required("Boolean")).
		FieldOf("deprecationReason", schema.Named("String"))
}

func enumValueType() *schema.Type {
	return schema.Object("__EnumValue", "").
		FieldOf("name", schema.Required("String")).
		FieldOf("description", schema.Named("String")).
		FieldOf("isDeprecated", schema.Required("Boolean")).
		FieldOf("deprecationReason", schema.Named("String"))
}

func directiveType() *schema.Type {
	return schema.Object("__Directive", "").
		FieldOf("name", schema.Required("String")).
		FieldOf("description", schema.Named("String")).
		FieldOf("isRepeatable", schema.Required("Boolean")).
		FieldOf("locations", schema.RequiredList("__DirectiveLocation")).
		FieldOf("args", schema.RequiredList("__InputValue"), includeDeprecated())
}

func typeKindEnum() *schema.Type {
	return schema.Enum("__TypeKind", "An enum describing what kind of type a given `__Type` is.",
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL")
}

func directiveLocationEnum() *schema.Type {
	return schema.Enum("__DirectiveLocation", "",
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
		"INPUT_FIELD_DEFINITION")
}
