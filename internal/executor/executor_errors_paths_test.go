package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hanpama/membergraph/internal/apperr"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// Pattern: Result comparison
func TestErrors_LocatedPaths_Result(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		sch := mustBuild(t, "", schema.Object("Query", "").FieldOf("a", schema.Named("String")))
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(apperr.NotFound("a is gone")),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data: Object{{"a", nil}},
			Errors: []GraphQLError{{
				Message:    "a is gone",
				Locations:  []Location{{Line: 1, Column: 3}},
				Path:       Path{"a"},
				Extensions: code("NOT_FOUND"),
			}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Internal error is masked", func(t *testing.T) {
		sch := mustBuild(t, "", schema.Object("Query", "").FieldOf("a", schema.Named("String")))
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(fmt.Errorf("dial tcp 10.0.0.7:5432: connection refused")),
		})
		exec := NewExecutor(rt, sch)

		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data:   Object{{"a", nil}},
			Errors: []GraphQLError{{Message: "internal server error", Path: Path{"a"}, Extensions: code(CodeInternal)}},
		}, gotRes)
	})

	t.Run("Transport error is masked", func(t *testing.T) {
		sch := mustBuild(t, "", schema.Object("Query", "").FieldOf("a", schema.Named("String")))
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(apperr.Transport(fmt.Errorf("i/o timeout"), "database unavailable")),
		})
		exec := NewExecutor(rt, sch)

		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data:   Object{{"a", nil}},
			Errors: []GraphQLError{{Message: "internal server error", Path: Path{"a"}, Extensions: code(CodeInternal)}},
		}, gotRes)
	})

	t.Run("Panicking resolver", func(t *testing.T) {
		sch := mustBuild(t, "", schema.Object("Query", "").
			FieldOf("a", schema.Named("String")).
			FieldOf("b", schema.Named("String")))
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": func(ctx context.Context, source any, args map[string]any) (any, error) {
				panic("nil map write")
			},
			"Query.b": NewMockValueResolver("B"),
		})
		exec := NewExecutor(rt, sch)

		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a b }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data:   Object{{"a", nil}, {"b", "B"}},
			Errors: []GraphQLError{{Message: "internal server error", Path: Path{"a"}, Extensions: code(CodeInternal)}},
		}, gotRes)
	})

	t.Run("Nested", func(t *testing.T) {
		sch := mustBuild(t, "",
			schema.Object("Query", "").FieldOf("obj", schema.Named("Obj")),
			schema.Object("Obj", "").FieldOf("a", schema.Named("String")),
		)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockErrorResolver(apperr.NotFound("boom")),
		})
		exec := NewExecutor(rt, sch)

		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ obj { a } }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data:   Object{{"obj", Object{{"a", nil}}}},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"obj", "a"}, Extensions: code("NOT_FOUND")}},
		}, gotRes)
	})

	t.Run("List index in path", func(t *testing.T) {
		sch := mustBuild(t, "",
			schema.Object("Query", "").FieldOf("objs", schema.List(schema.Named("Obj"))),
			schema.Object("Obj", "").FieldOf("a", schema.Named("String")),
		)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.objs": NewMockValueResolver([]any{map[string]any{"idx": 0}, map[string]any{"idx": 1}}),
			"Obj.a": func(ctx context.Context, src any, args map[string]any) (any, error) {
				if src.(map[string]any)["idx"].(int) == 1 {
					return nil, apperr.NotFound("boom")
				}
				return "A", nil
			},
		})
		exec := NewExecutor(rt, sch)

		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ objs { a } }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data:   Object{{"objs", []any{Object{{"a", "A"}}, Object{{"a", nil}}}}},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"objs", 1, "a"}, Extensions: code("NOT_FOUND")}},
		}, gotRes)
	})

	t.Run("Errors follow document order", func(t *testing.T) {
		sch := mustBuild(t, "", schema.Object("Query", "").
			FieldOf("a", schema.Named("String")).
			FieldOf("b", schema.Named("String")).
			FieldOf("c", schema.Named("String")))
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(apperr.NotFound("a")),
			"Query.b": NewMockErrorResolver(apperr.NotFound("b")),
			"Query.c": NewMockErrorResolver(apperr.NotFound("c")),
		})
		exec := NewExecutor(rt, sch)

		for i := 0; i < 20; i++ {
			gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ c a b }"), "", nil, nil)
			requireResult(t, &ExecutionResult{
				Data: Object{{"c", nil}, {"a", nil}, {"b", nil}},
				Errors: []GraphQLError{
					{Message: "c", Path: Path{"c"}, Extensions: code("NOT_FOUND")},
					{Message: "a", Path: Path{"a"}, Extensions: code("NOT_FOUND")},
					{Message: "b", Path: Path{"b"}, Extensions: code("NOT_FOUND")},
				},
			}, gotRes)
		}
	})
}

func TestErrors_CustomPresenter(t *testing.T) {
	sch := mustBuild(t, "", schema.Object("Query", "").FieldOf("a", schema.Named("String")))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockErrorResolver(fmt.Errorf("raw detail")),
	})
	exec := NewExecutor(rt, sch, WithErrorPresenter(func(ctx context.Context, err error) GraphQLError {
		return GraphQLError{Message: "debug: " + err.Error()}
	}))

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

	requireResult(t, &ExecutionResult{
		Data:   Object{{"a", nil}},
		Errors: []GraphQLError{{Message: "debug: raw detail", Path: Path{"a"}}},
	}, gotRes)
}

func TestErrors_RuntimeHookPanics(t *testing.T) {
	sch := mustBuild(t, "",
		schema.Object("Query", "").
			FieldOf("xs", schema.List(schema.Named("Item"))).
			FieldOf("feed", schema.List(schema.Named("Entry"))),
		schema.Object("Item", "").FieldOf("v", schema.Named("Odd")),
		schema.NewType("Entry", schema.TypeKindUnion, "").AddPossibleType("Item"),
		schema.Scalar("Odd", ""),
	)
	items := []any{map[string]any{"v": 1}, map[string]any{"v": 2}}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.xs":   NewMockValueResolver(items),
		"Query.feed": NewMockValueResolver(items[:1]),
	})
	rt.SetSerializer(func(any, string) (any, error) { panic("bad scalar") })
	rt.SetTypeResolver(func(any) (string, error) { panic("bad type") })
	exec := NewExecutor(rt, sch)

	t.Run("Serializer", func(t *testing.T) {
		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ xs { v } }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data: Object{{"xs", []any{Object{{"v", nil}}, Object{{"v", nil}}}}},
			Errors: []GraphQLError{
				{Message: "internal server error", Path: Path{"xs", 0, "v"}, Extensions: code(CodeInternal)},
				{Message: "internal server error", Path: Path{"xs", 1, "v"}, Extensions: code(CodeInternal)},
			},
		}, gotRes)
	})

	t.Run("Type resolver", func(t *testing.T) {
		gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ feed { ... on Item { v } } }"), "", nil, nil)

		requireResult(t, &ExecutionResult{
			Data:   Object{{"feed", []any{nil}}},
			Errors: []GraphQLError{{Message: "internal server error", Path: Path{"feed", 0}, Extensions: code(CodeInternal)}},
		}, gotRes)
	})
}
