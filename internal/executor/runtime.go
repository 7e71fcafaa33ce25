package executor

import (
	"context"

	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// Runtime defines the host integration surface for field resolution,
// abstract type resolution, and leaf-value serialization used by the Executor.
//
// General contract
//   - ResolveField is called once per field instance. Sibling fields of a
//     query and elements of a list are resolved from separate goroutines, so
//     implementations must be safe for concurrent use. Root fields of a
//     mutation are resolved one at a time, each after the previous field's
//     whole subtree has completed.
//   - Errors returned from any method are converted into located GraphQL
//     errors. If the field's return type is Non-Null, the Executor propagates
//     the null up to the nearest nullable ancestor.
//   - Implementations must not mutate source or args values.
//
// Cancellation
//   - ctx is the request context. Once it is done the Executor stops starting
//     new resolvers; in-flight resolvers should return promptly.
type Runtime interface {
	// ResolveField produces the raw value of a field. The Executor completes
	// it against the field's declared type, including nested selection sets.
	// Return (nil, nil) to produce a GraphQL null.
	ResolveField(ctx context.Context, info ResolveInfo, source any, args map[string]any) (any, error)

	// ResolveType determines the concrete runtime type name for a value of an
	// abstract GraphQL type (interface or union).
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value. For enums, return the symbolic name as string.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// ResolveInfo describes the field instance being resolved.
type ResolveInfo struct {
	// ObjectType is the parent GraphQL object type name (e.g. "User").
	ObjectType string
	// FieldName is the GraphQL field name on that type (e.g. "posts").
	FieldName string
	// Field is the schema definition of the field.
	Field *schema.Field
	// Nodes are the query AST fields merged under this response name.
	Nodes []*language.Field
	// Path is the response path of the field.
	Path Path
	// Operation is the kind of operation being executed.
	Operation language.Operation
	// Schema is the schema the operation runs against.
	Schema *schema.Schema
}

// Key returns the "ObjectType.field" identity of the field.
func (i ResolveInfo) Key() string { return i.ObjectType + "." + i.FieldName }
