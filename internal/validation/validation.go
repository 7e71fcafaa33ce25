// Package validation checks query documents before they reach the executor.
//
// Validation runs in two passes. The first applies the standard GraphQL rule
// set. Only a document that passes it is measured by the depth rule, so a
// rejected document carries either structural errors or exactly one depth
// error, never both.
package validation

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
	"github.com/vektah/gqlparser/v2/validator/core"
	"github.com/vektah/gqlparser/v2/validator/rules"

	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

const (
	CodeParseFailed      = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
)

// Validator validates documents against one schema with a fixed depth bound.
// It is safe for concurrent use.
type Validator struct {
	schema        *ast.Schema
	maxDepth      int
	introspection bool
}

type Option func(*Validator)

// WithoutIntrospection rejects documents that select __schema or __type.
func WithoutIntrospection() Option {
	return func(v *Validator) { v.introspection = false }
}

// New loads sch into the validator. A maxDepth of zero or less selects
// DefaultMaxDepth.
func New(sch *schema.Schema, maxDepth int, opts ...Option) (*Validator, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	loaded, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schema.Render(sch)})
	if err != nil {
		return nil, err
	}
	v := &Validator{schema: loaded, maxDepth: maxDepth, introspection: true}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// MaxDepth returns the configured depth bound.
func (v *Validator) MaxDepth() int { return v.maxDepth }

// Parse parses a query document, reporting syntax errors as a list.
func (v *Validator) Parse(query string) (*ast.QueryDocument, gqlerror.List) {
	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, withCode(gqlerror.List{language.SyntaxError(err)}, CodeParseFailed)
	}
	return doc, nil
}

// Validate runs the standard rules and then the depth rule. A non-empty
// result means the document must not be executed.
func (v *Validator) Validate(doc *ast.QueryDocument) gqlerror.List {
	structural := rules.NewDefaultRules()
	if !v.introspection {
		structural.AddRule(noIntrospection.Name, noIntrospection.RuleFunc)
	}
	if errs := validator.ValidateWithRules(v.schema, doc, structural); len(errs) > 0 {
		return withCode(errs, CodeValidationFailed)
	}
	if errs := validator.ValidateWithRules(v.schema, doc, rules.NewRules(MaxDepth(v.maxDepth))); len(errs) > 0 {
		return withCode(errs, CodeValidationFailed)
	}
	return nil
}

// Load parses and validates query in one step.
func (v *Validator) Load(query string) (*ast.QueryDocument, gqlerror.List) {
	doc, errs := v.Parse(query)
	if len(errs) > 0 {
		return nil, errs
	}
	if errs := v.Validate(doc); len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

var noIntrospection = core.Rule{
	Name: "NoIntrospection",
	RuleFunc: func(observers *core.Events, addError core.AddErrFunc) {
		observers.OnField(func(walker *core.Walker, field *ast.Field) {
			if field.Name == "__schema" || field.Name == "__type" {
				addError(core.Message("GraphQL introspection is not allowed"), core.At(field.Position))
			}
		})
	},
}

func withCode(errs gqlerror.List, code string) gqlerror.List {
	for _, err := range errs {
		if err.Extensions == nil {
			err.Extensions = map[string]any{}
		}
		if _, ok := err.Extensions["code"]; !ok {
			err.Extensions["code"] = code
		}
	}
	return errs
}
