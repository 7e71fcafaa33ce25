package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/membergraph/internal/apperr"
	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

type Executor struct {
	runtime     Runtime
	schema      *schema.Schema
	parallelism int
	presenter   ErrorPresenter
	logger      *zerolog.Logger
}

type Option func(*Executor)

// WithParallelism bounds how many sibling fields or list elements of one
// selection are resolved at once. Zero means unbounded.
func WithParallelism(n int) Option {
	return func(e *Executor) { e.parallelism = n }
}

func WithErrorPresenter(p ErrorPresenter) Option {
	return func(e *Executor) { e.presenter = p }
}

// WithLogger sets the logger for unexpected resolver failures. Without it the
// logger attached to the request context is used.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = &l }
}

func NewExecutor(runtime Runtime, schema *schema.Schema, opts ...Option) *Executor {
	e := &Executor{runtime: runtime, schema: schema, presenter: DefaultErrorPresenter}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// executionState holds the per-request state. It is read-only once execution
// starts, so goroutines share it freely.
type executionState struct {
	*Executor
	document       *language.QueryDocument
	operation      *language.OperationDefinition
	variableValues map[string]any
}

// fieldResult is the outcome of one response key. ok is false when a
// non-null position could not be filled and the enclosing object must become
// null; omit drops the key from the response.
type fieldResult struct {
	value  any
	errors []GraphQLError
	ok     bool
	omit   bool
}

// ExecuteRequest executes the selected operation of a validated document.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, err := getOperation(document, operationName)
	if err != nil {
		return requestError(err)
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return requestError(err)
	}

	var rootType *schema.Type
	serial := false
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
		serial = true
	default:
		return requestError(fmt.Errorf("unsupported operation type: %s", operation.Operation))
	}
	if rootType == nil {
		return requestError(fmt.Errorf("schema does not support %s operations", operation.Operation))
	}

	state := &executionState{
		Executor:       e,
		document:       document,
		operation:      operation,
		variableValues: coercedVariableValues,
	}

	data, errs, ok := state.executeSelectionSet(ctx, rootType, operation.SelectionSet, initialValue, nil, serial)
	result := &ExecutionResult{Errors: errs}
	if ok {
		result.Data = data
	}
	return result
}

func requestError(err error) *ExecutionResult {
	gqlErr := GraphQLError{Message: err.Error()}
	var e *apperr.Error
	if errors.As(err, &e) {
		gqlErr = GraphQLError{Message: e.Message, Extensions: map[string]any{"code": string(e.Kind)}}
	}
	return &ExecutionResult{Errors: []GraphQLError{gqlErr}, Aborted: true}
}

// executeSelectionSet resolves every response key of the selection set.
// Keys run concurrently unless serial is set; results and errors are merged
// in document order either way.
func (s *executionState) executeSelectionSet(
	ctx context.Context,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	objectValue any,
	path Path,
	serial bool,
) (Object, []GraphQLError, bool) {
	grouped := collectFields(s, objectType, selectionSet)
	results := make([]fieldResult, len(grouped))

	s.forEach(len(grouped), !serial, func(i int) {
		g := grouped[i]
		results[i] = s.executeFieldGroup(ctx, objectType, objectValue, g.nodes, appendPath(path, g.key))
	})

	obj := make(Object, 0, len(grouped))
	var errs []GraphQLError
	ok := true
	for i, r := range results {
		errs = append(errs, r.errors...)
		if !r.ok {
			ok = false
			continue
		}
		if r.omit {
			continue
		}
		obj = append(obj, ObjectField{Key: grouped[i].key, Value: r.value})
	}
	if !ok {
		return nil, errs, false
	}
	return obj, errs, true
}

// forEach runs fn for 0..n-1, on separate goroutines when parallel is set.
func (s *executionState) forEach(n int, parallel bool, fn func(i int)) {
	if !parallel || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	if s.parallelism > 0 {
		g.SetLimit(s.parallelism)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	// Failures travel in the per-item results; errgroup is only the limiter.
	_ = g.Wait()
}

func (s *executionState) executeFieldGroup(ctx context.Context, objectType *schema.Type, objectValue any, fields []*language.Field, path Path) fieldResult {
	field := fields[0]

	if field.Name == "__typename" {
		return fieldResult{value: objectType.Name, ok: true}
	}

	fieldDef := objectType.Field(field.Name)
	if fieldDef == nil {
		err := &GraphQLError{Message: fmt.Sprintf("Cannot query field %q on type %q.", field.Name, objectType.Name)}
		return fieldResult{errors: []GraphQLError{s.fieldError(ctx, err, field, path)}, ok: true, omit: true}
	}

	args, err := coerceArgumentValues(s.schema, fieldDef, field.Arguments, s.variableValues)
	if err != nil {
		return s.fieldFailure(ctx, fieldDef, err, field, path)
	}

	info := ResolveInfo{
		ObjectType: objectType.Name,
		FieldName:  field.Name,
		Field:      fieldDef,
		Nodes:      fields,
		Path:       path,
		Operation:  s.operation.Operation,
		Schema:     s.schema,
	}
	resolved, err := s.resolveField(ctx, info, objectValue, args)
	if err != nil {
		return s.fieldFailure(ctx, fieldDef, err, field, path)
	}

	value, errs, ok := s.completeValue(ctx, objectType.Name, fieldDef.Type, fields, resolved, path)
	return fieldResult{value: value, errors: errs, ok: ok}
}

func (s *executionState) resolveField(ctx context.Context, info ResolveInfo, source any, args map[string]any) (value any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer recoverAs(&err, "resolver "+info.Key())
	return s.runtime.ResolveField(ctx, info, source, args)
}

func (s *executionState) serializeLeaf(ctx context.Context, typeName string, value any) (out any, err error) {
	defer recoverAs(&err, "serializer of "+typeName)
	return s.runtime.SerializeLeafValue(ctx, typeName, value)
}

func (s *executionState) resolveType(ctx context.Context, abstractType string, value any) (name string, err error) {
	defer recoverAs(&err, "type resolver of "+abstractType)
	return s.runtime.ResolveType(ctx, abstractType, value)
}

// recoverAs turns a panic in a runtime hook into an error stored in err.
// Must be deferred directly.
func recoverAs(err *error, hook string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", hook, r)
	}
}

func (s *executionState) fieldFailure(ctx context.Context, fieldDef *schema.Field, err error, field *language.Field, path Path) fieldResult {
	return fieldResult{
		errors: []GraphQLError{s.fieldError(ctx, err, field, path)},
		ok:     !schema.IsNonNull(fieldDef.Type),
	}
}

// fieldError presents err and locates it at the field.
func (s *executionState) fieldError(ctx context.Context, err error, field *language.Field, path Path) GraphQLError {
	if !expected(err) {
		s.log(ctx).Error().Err(err).Str("path", path.String()).Msg("field resolution failed")
	}
	out := s.presenter(ctx, err)
	out.Path = path
	if field != nil && field.Position != nil {
		out.Locations = []Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	return out
}

func (s *executionState) log(ctx context.Context) *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return zerolog.Ctx(ctx)
}

// completeValue completes a resolved value against its declared type. A
// nullable position absorbs failures below it and reports ok; a non-null
// position that ends up null reports !ok so the caller propagates.
func (s *executionState) completeValue(ctx context.Context, parentType string, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, []GraphQLError, bool) {
	if schema.IsNonNull(fieldType) {
		completed, errs, _ := s.completeValue(ctx, parentType, schema.Unwrap(fieldType), fields, result, path)
		if isNullish(completed) {
			if len(errs) == 0 {
				errs = append(errs, s.locate(GraphQLError{
					Message: fmt.Sprintf("Cannot return null for non-nullable field %s.%s.", parentType, fields[0].Name),
				}, fields[0], path))
			}
			return nil, errs, false
		}
		return completed, errs, true
	}

	if isNullish(result) {
		return nil, nil, true
	}

	var (
		completed any
		errs      []GraphQLError
		ok        bool
	)
	if schema.IsList(fieldType) {
		completed, errs, ok = s.completeListValue(ctx, parentType, fieldType, fields, result, path)
	} else {
		completed, errs, ok = s.completeNamedValue(ctx, fieldType, fields, result, path)
	}
	if !ok {
		return nil, errs, true
	}
	return completed, errs, true
}

func (s *executionState) completeNamedValue(ctx context.Context, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, []GraphQLError, bool) {
	namedType := schema.GetNamedType(fieldType)
	typeObj, err := s.schema.Lookup(namedType)
	if err != nil {
		return nil, []GraphQLError{s.fieldError(ctx, err, fields[0], path)}, false
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := s.serializeLeaf(ctx, namedType, result)
		if err != nil {
			return nil, []GraphQLError{s.fieldError(ctx, err, fields[0], path)}, false
		}
		return serialized, nil, true
	case schema.TypeKindObject:
		return s.completeObjectValue(ctx, typeObj, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return s.completeAbstractValue(ctx, namedType, fields, result, path)
	default:
		err := fmt.Errorf("cannot complete value of unexpected type kind %s", typeObj.Kind)
		return nil, []GraphQLError{s.fieldError(ctx, err, fields[0], path)}, false
	}
}

// completeListValue completes every element, concurrently when elements are
// objects. Output order always matches input order. A failed non-null element
// fails the whole list.
func (s *executionState) completeListValue(ctx context.Context, parentType string, listType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, []GraphQLError, bool) {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			err := fmt.Errorf("expected list value for %s, got %T", path, result)
			return nil, []GraphQLError{s.fieldError(ctx, err, fields[0], path)}, false
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	leaf := false
	if t, ok := s.schema.Types[schema.GetNamedType(inner)]; ok {
		leaf = t.IsLeaf()
	}

	completed := make([]any, len(items))
	itemErrs := make([][]GraphQLError, len(items))
	itemOK := make([]bool, len(items))
	s.forEach(len(items), !leaf, func(i int) {
		completed[i], itemErrs[i], itemOK[i] = s.completeValue(ctx, parentType, inner, fields, items[i], appendPath(path, i))
	})

	var errs []GraphQLError
	ok := true
	for i := range items {
		errs = append(errs, itemErrs[i]...)
		ok = ok && itemOK[i]
	}
	if !ok {
		return nil, errs, false
	}
	return completed, errs, true
}

func (s *executionState) completeObjectValue(ctx context.Context, objectType *schema.Type, fields []*language.Field, result any, path Path) (any, []GraphQLError, bool) {
	sub := mergeSelectionSets(fields)
	obj, errs, ok := s.executeSelectionSet(ctx, objectType, sub, result, path, false)
	if !ok {
		return nil, errs, false
	}
	return obj, errs, true
}

func (s *executionState) completeAbstractValue(ctx context.Context, abstractTypeName string, fields []*language.Field, result any, path Path) (any, []GraphQLError, bool) {
	typeName, err := s.resolveType(ctx, abstractTypeName, result)
	if err != nil {
		return nil, []GraphQLError{s.fieldError(ctx, err, fields[0], path)}, false
	}
	objectType := s.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		err := fmt.Errorf("abstract type %s must resolve to an object type at runtime, got %q", abstractTypeName, typeName)
		return nil, []GraphQLError{s.fieldError(ctx, err, fields[0], path)}, false
	}
	return s.completeObjectValue(ctx, objectType, fields, result, path)
}

func (s *executionState) locate(e GraphQLError, field *language.Field, path Path) GraphQLError {
	e.Path = path
	if field != nil && field.Position != nil {
		e.Locations = []Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	return e
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0], nil
		}
		return nil, fmt.Errorf("must provide operation name if query contains multiple operations")
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("unknown operation named %q", operationName)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
