package schema

// Fluent constructors used to declare types in Go code. Nothing here checks
// consistency; Build does that once every type is known.

// NewType starts a named type of the given kind.
func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

// Object is shorthand for NewType(name, TypeKindObject, description).
func Object(name, description string) *Type {
	return NewType(name, TypeKindObject, description)
}

// Enum declares an enum type with the given values in order.
func Enum(name, description string, values ...string) *Type {
	t := NewType(name, TypeKindEnum, description)
	for _, v := range values {
		t.AddEnumValue(NewEnumValue(v, ""))
	}
	return t
}

// Input is shorthand for NewType(name, TypeKindInputObject, description).
func Input(name, description string) *Type {
	return NewType(name, TypeKindInputObject, description)
}

// Scalar declares a custom scalar.
func Scalar(name, description string) *Type {
	return NewType(name, TypeKindScalar, description)
}

func (t *Type) AddField(f *Field) *Type {
	t.Fields = append(t.Fields, f)
	return t
}

// FieldOf appends a field with the given result type and arguments.
func (t *Type) FieldOf(name string, typ *TypeRef, args ...*InputValue) *Type {
	f := NewField(name, "", typ)
	for _, a := range args {
		f.AddArgument(a)
	}
	return t.AddField(f)
}

func (t *Type) AddInterface(name string) *Type {
	t.Interfaces = append(t.Interfaces, name)
	return t
}

func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}

func (t *Type) AddEnumValue(v *EnumValue) *Type {
	t.EnumValues = append(t.EnumValues, v)
	return t
}

func (t *Type) AddInputField(v *InputValue) *Type {
	t.InputFields = append(t.InputFields, v)
	return t
}

// InputFieldOf appends an input field with the given type.
func (t *Type) InputFieldOf(name string, typ *TypeRef) *Type {
	return t.AddInputField(NewInputValue(name, "", typ))
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) AddArgument(a *InputValue) *Field {
	f.Arguments = append(f.Arguments, a)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	return e
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

// Arg is shorthand for NewInputValue(name, "", typ).
func Arg(name string, typ *TypeRef) *InputValue {
	return NewInputValue(name, "", typ)
}

func (v *InputValue) SetDefault(value any) *InputValue {
	v.DefaultValue = value
	v.HasDefault = true
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) AddArgument(a *InputValue) *Directive {
	d.Arguments = append(d.Arguments, a)
	return d
}

// Named, NonNull and List are terse aliases for building type references.
func Named(name string) *TypeRef  { return NamedType(name) }
func NonNull(t *TypeRef) *TypeRef { return NonNullType(t) }
func List(t *TypeRef) *TypeRef    { return ListType(t) }

// Required is NonNull(Named(name)).
func Required(name string) *TypeRef { return NonNullType(NamedType(name)) }

// RequiredList is [name!]!.
func RequiredList(name string) *TypeRef { return NonNullType(ListType(Required(name))) }
