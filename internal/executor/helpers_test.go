package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func mustBuild(t *testing.T, mutationType string, types ...*schema.Type) *schema.Schema {
	t.Helper()
	sch, err := schema.Build("Query", mutationType, types...)
	require.NoError(t, err)
	return sch
}

var ignoreLocations = cmpopts.IgnoreFields(GraphQLError{}, "Locations")

func requireResult(t *testing.T, want, got *ExecutionResult) {
	t.Helper()
	if diff := cmp.Diff(want, got, ignoreLocations); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func code(c string) map[string]any { return map[string]any{"code": c} }
