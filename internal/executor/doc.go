// Package executor implements a concurrent GraphQL executor with explicit
// runtime hooks for field resolution, abstract-type resolution, and leaf
// serialization.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation (by name or by uniqueness when unnamed). The
//     document is assumed to have passed validation.
//  2. Coerces variables against the operation's variable definitions. Errors
//     here stop execution and the result carries no data (Aborted).
//  3. Determines the root object type from the operation (Query/Mutation).
//
// # Execution Model
//
// Execution is a depth-first recursion over the selection tree:
//   - Response keys of a query selection set are resolved concurrently, one
//     goroutine per key (bounded by WithParallelism). Mutation root fields run
//     one at a time in document order; each finishes its whole subtree before
//     the next starts.
//   - Elements of a list of objects are completed concurrently. Lists of
//     leaves are completed inline.
//   - Whatever the scheduling, values and errors are merged in document
//     order, so identical inputs produce identical results.
//
// # Value Completion
//
//   - Non-Null: complete the inner type. A null result (or a failure below a
//     nullable-free chain) is reported upward so the nearest nullable ancestor
//     becomes null. Sibling branches outside that ancestor are unaffected.
//   - Null: nil results produce GraphQL null.
//   - List: complete each element with an index-aware path. A failed non-null
//     element fails the list; a nullable element absorbs its own failure.
//   - Leaf (Scalar/Enum): Runtime.SerializeLeafValue produces the JSON value.
//   - Abstract (Interface/Union): Runtime.ResolveType picks the object type.
//   - Object: collect subfields (fragments, @skip/@include) and recurse.
//
// Completed objects are Object values, which keep selection order when
// encoded to JSON.
//
// # Errors
//
// Every failure becomes a located GraphQL error with message, locations and
// path. The ErrorPresenter decides the message: classified business errors
// (apperr) keep their message and expose their kind as extensions.code;
// anything unclassified is logged and replaced with a generic message.
package executor
