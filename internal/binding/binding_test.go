package binding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/membergraph/internal/executor"
	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

type plan string

type account struct {
	ID    uuid.UUID
	Name  string
	Plan  plan
	Score *int
}

type props map[string]any

func (p props) Property(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(`
		scalar Stamp
		enum Plan { basic business }
		type Query { account: Account  accounts: [Account!]!  owner: Owner  stamp: Stamp }
		type Account { id: ID!  name: String!  plan: Plan  score: Int  label: String }
		type Owner { name: String }
	`)
	require.NoError(t, err)
	return sch
}

func stampSerializer(v any) (any, error) {
	if s, ok := v.(string); ok {
		return "@" + s, nil
	}
	return nil, errors.New("bad stamp")
}

func execute(t *testing.T, b *Binding, query string) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return executor.NewExecutor(b, b.Schema()).ExecuteRequest(context.Background(), doc, "", nil, nil)
}

func TestNew_RejectsBadBindings(t *testing.T) {
	noop := func(ctx context.Context, p Params) (any, error) { return nil, nil }

	cases := []struct {
		name string
		opts []Option
		want error
	}{
		{"unknown type", []Option{WithResolver("Nope.field", noop)}, ErrUnknownField},
		{"unknown field", []Option{WithResolver("Account.missing", noop)}, ErrUnknownField},
		{"malformed key", []Option{WithResolver("Account", noop)}, ErrMalformedFieldName},
		{"serializer on builtin", []Option{WithScalar("String", stampSerializer)}, ErrNotScalar},
		{"serializer on enum", []Option{WithScalar("Plan", stampSerializer)}, ErrNotScalar},
		{"missing serializer", nil, ErrMissingSerializer},
		{"type resolver on object", []Option{WithTypeResolver("Account", nil)}, ErrUnknownAbstract},
		{"duplicate resolver", []Option{WithResolver("Query.account", noop), WithResolver("Query.account", noop)}, ErrDuplicateBinding},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.opts
			if !errors.Is(tc.want, ErrMissingSerializer) && !errors.Is(tc.want, ErrNotScalar) {
				opts = append(opts, WithScalar("Stamp", stampSerializer))
			}
			_, err := New(testSchema(t), opts...)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolveField_ExplicitAndDefault(t *testing.T) {
	id := uuid.MustParse("6f2c4b7e-93a5-4b5e-9a0f-2d1c3b4a5e6f")
	score := 7
	acc := &account{ID: id, Name: "Ann", Plan: "business", Score: &score}

	b, err := New(testSchema(t),
		WithScalar("Stamp", stampSerializer),
		WithResolvers(map[string]ResolveFunc{
			"Query.account":  func(ctx context.Context, p Params) (any, error) { return acc, nil },
			"Query.accounts": func(ctx context.Context, p Params) (any, error) { return []*account{acc}, nil },
			"Query.owner":    func(ctx context.Context, p Params) (any, error) { return props{"name": "Olga"}, nil },
			"Query.stamp":    func(ctx context.Context, p Params) (any, error) { return "now", nil },
			"Account.id":     Property(func(a *account) any { return a.ID }),
			"Account.name":   Property(func(a *account) any { return a.Name }),
			"Account.plan":   Property(func(a *account) any { return a.Plan }),
			"Account.score":  Property(func(a *account) any { return a.Score }),
		}),
	)
	require.NoError(t, err)
	require.True(t, b.Bound("Account.name"))
	require.False(t, b.Bound("Account.label"))

	res := execute(t, b, `{ account { id name plan score label } accounts { name } owner { name } stamp }`)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"account": map[string]any{
			"id":    id.String(),
			"name":  "Ann",
			"plan":  "business",
			"score": 7,
			"label": nil,
		},
		"accounts": []any{map[string]any{"name": "Ann"}},
		"owner":    map[string]any{"name": "Olga"},
		"stamp":    "@now",
	}, executor.Plain(res.Data))
}

func TestResolveField_MissingNonNullProperty(t *testing.T) {
	b, err := New(testSchema(t),
		WithScalar("Stamp", stampSerializer),
		WithResolver("Query.account", func(ctx context.Context, p Params) (any, error) {
			return map[string]any{"id": "a1"}, nil
		}),
	)
	require.NoError(t, err)

	res := execute(t, b, `{ account { id name } }`)

	require.Equal(t, map[string]any{"account": nil}, executor.Plain(res.Data))
	require.Len(t, res.Errors, 1)
	require.Equal(t, "Cannot return null for non-nullable field Account.name.", res.Errors[0].Message)
	require.Equal(t, executor.Path{"account", "name"}, res.Errors[0].Path)
}

func TestResolveField_ParamsCarryInfo(t *testing.T) {
	var got Params
	b, err := New(testSchema(t),
		WithScalar("Stamp", stampSerializer),
		WithResolver("Query.account", func(ctx context.Context, p Params) (any, error) {
			got = p
			return nil, nil
		}),
	)
	require.NoError(t, err)

	execute(t, b, `{ acc: account { id } }`)

	require.Equal(t, "Query", got.Info.ObjectType)
	require.Equal(t, "account", got.Info.FieldName)
	require.Equal(t, executor.Path{"acc"}, got.Info.Path)
	require.Equal(t, language.Query, got.Info.Operation)
	require.Empty(t, got.Args)
}

func TestSerializeLeafValue(t *testing.T) {
	b, err := New(testSchema(t), WithScalar("Stamp", stampSerializer))
	require.NoError(t, err)
	ctx := context.Background()
	s := "text"
	var nilStr *string

	ok := []struct {
		typ  string
		in   any
		want any
	}{
		{"Int", int64(42), 42},
		{"Int", uint8(3), 3},
		{"Int", 2.0, 2},
		{"Int", true, 1},
		{"Float", 3, 3.0},
		{"Float", float32(0.5), 0.5},
		{"String", "x", "x"},
		{"String", &s, "text"},
		{"String", nilStr, nil},
		{"String", plan("basic"), "basic"},
		{"Boolean", false, false},
		{"ID", 12, "12"},
		{"ID", "abc", "abc"},
		{"ID", uuid.Nil, "00000000-0000-0000-0000-000000000000"},
		{"Plan", plan("basic"), "basic"},
		{"Plan", "business", "business"},
		{"Stamp", "t", "@t"},
		{"Int", nil, nil},
	}
	for _, tc := range ok {
		got, err := b.SerializeLeafValue(ctx, tc.typ, tc.in)
		require.NoError(t, err, "%s %v", tc.typ, tc.in)
		require.Equal(t, tc.want, got, "%s %v", tc.typ, tc.in)
	}

	bad := []struct {
		typ string
		in  any
	}{
		{"Int", int64(math.MaxInt32) + 1},
		{"Int", 1.5},
		{"Int", "1"},
		{"Float", math.NaN()},
		{"Float", "1.0"},
		{"Boolean", 1},
		{"ID", 1.5},
		{"Plan", "premium"},
		{"Plan", 3},
		{"Stamp", 3},
		{"Account", "x"},
		{"Missing", "x"},
	}
	for _, tc := range bad {
		_, err := b.SerializeLeafValue(ctx, tc.typ, tc.in)
		require.Error(t, err, "%s %v", tc.typ, tc.in)
	}
}

type dog struct{}

func (dog) GraphQLType() string { return "Dog" }

func TestResolveType(t *testing.T) {
	sch, err := schema.BuildFromSDL(`
		union Pet = Dog | Cat
		type Dog { name: String }
		type Cat { name: String }
		type Query { pet: Pet }
	`)
	require.NoError(t, err)
	ctx := context.Background()

	plain, err := New(sch)
	require.NoError(t, err)

	name, err := plain.ResolveType(ctx, "Pet", dog{})
	require.NoError(t, err)
	require.Equal(t, "Dog", name)

	name, err = plain.ResolveType(ctx, "Pet", map[string]any{"__typename": "Cat"})
	require.NoError(t, err)
	require.Equal(t, "Cat", name)

	_, err = plain.ResolveType(ctx, "Pet", 42)
	require.Error(t, err)

	custom, err := New(sch, WithTypeResolver("Pet", func(ctx context.Context, value any) (string, error) {
		return "Cat", nil
	}))
	require.NoError(t, err)
	name, err = custom.ResolveType(ctx, "Pet", dog{})
	require.NoError(t, err)
	require.Equal(t, "Cat", name)
}
