package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func peerSchemaTypes() []*Type {
	user := Object("User", "").
		FieldOf("id", Required("ID")).
		FieldOf("name", Required("String")).
		FieldOf("following", RequiredList("User")).
		FieldOf("bestFriend", Named("User"))
	query := Object("Query", "").
		FieldOf("users", RequiredList("User")).
		FieldOf("user", Named("User"), Arg("id", Required("ID")))
	return []*Type{user, query}
}

func TestBuild_AllowsCyclesThroughNullableAndListFields(t *testing.T) {
	s, err := Build("Query", "", peerSchemaTypes()...)
	require.NoError(t, err)

	user, err := s.Lookup("User")
	require.NoError(t, err)
	require.Equal(t, TypeKindObject, user.Kind)
	require.Equal(t, "User", user.Field("following").Type.GetNamedType())
	require.Equal(t, "[User!]!", user.Field("following").Type.String())
}

func TestBuild_OrderIndependent(t *testing.T) {
	types := peerSchemaTypes()
	reversed := []*Type{types[1], types[0]}
	_, err := Build("Query", "", reversed...)
	require.NoError(t, err)
}

func TestLookup_UnknownType(t *testing.T) {
	s, err := Build("Query", "", peerSchemaTypes()...)
	require.NoError(t, err)

	_, err = s.Lookup("Nope")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestBuild_Failures(t *testing.T) {
	selfWrap := &TypeRef{Kind: TypeRefKindList}
	selfWrap.OfType = selfWrap

	cases := []struct {
		name  string
		types func() []*Type
		want  error
	}{
		{
			name: "duplicate type",
			types: func() []*Type {
				return append(peerSchemaTypes(), Object("User", "").FieldOf("id", Required("ID")))
			},
			want: ErrDuplicateType,
		},
		{
			name: "duplicate builtin",
			types: func() []*Type {
				return append(peerSchemaTypes(), Scalar("String", ""))
			},
			want: ErrDuplicateType,
		},
		{
			name: "undeclared field type",
			types: func() []*Type {
				return []*Type{Object("Query", "").FieldOf("post", Named("Post"))}
			},
			want: ErrUndeclaredType,
		},
		{
			name: "undeclared argument type",
			types: func() []*Type {
				return []*Type{Object("Query", "").FieldOf("ok", Named("Boolean"), Arg("filter", Named("Filter")))}
			},
			want: ErrUndeclaredType,
		},
		{
			name: "wrapper around itself",
			types: func() []*Type {
				return []*Type{Object("Query", "").FieldOf("loop", selfWrap)}
			},
			want: ErrMalformedWrapper,
		},
		{
			name: "wrapper without inner type",
			types: func() []*Type {
				return []*Type{Object("Query", "").FieldOf("empty", &TypeRef{Kind: TypeRefKindNonNull})}
			},
			want: ErrMalformedWrapper,
		},
		{
			name: "non-null of non-null",
			types: func() []*Type {
				return []*Type{Object("Query", "").FieldOf("twice", NonNull(Required("Int")))}
			},
			want: ErrMalformedWrapper,
		},
		{
			name: "required object cycle",
			types: func() []*Type {
				a := Object("A", "").FieldOf("b", Required("B"))
				b := Object("B", "").FieldOf("a", Required("A"))
				q := Object("Query", "").FieldOf("a", Named("A"))
				return []*Type{a, b, q}
			},
			want: ErrNonNullCycle,
		},
		{
			name: "required input cycle",
			types: func() []*Type {
				in := Input("Node", "").InputFieldOf("next", Required("Node"))
				q := Object("Query", "").FieldOf("ok", Named("Boolean"), Arg("node", Named("Node")))
				return []*Type{in, q}
			},
			want: ErrNonNullCycle,
		},
		{
			name: "input type as output",
			types: func() []*Type {
				in := Input("UserInput", "").InputFieldOf("name", Named("String"))
				q := Object("Query", "").FieldOf("user", Named("UserInput"))
				return []*Type{in, q}
			},
			want: ErrKindMismatch,
		},
		{
			name: "object type as argument",
			types: func() []*Type {
				return append(peerSchemaTypes()[:1], Object("Query", "").FieldOf("x", Named("Int"), Arg("u", Named("User"))))
			},
			want: ErrKindMismatch,
		},
		{
			name: "missing query root",
			types: func() []*Type {
				return peerSchemaTypes()[:1]
			},
			want: ErrUndeclaredType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build("Query", "", tc.types()...)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)

			var regErr *RegistryError
			require.ErrorAs(t, err, &regErr)
		})
	}
}

func TestBuildFromSDL_RenderRoundTrip(t *testing.T) {
	const sdl = `
enum Plan {
  basic
  business
}

input NewUser {
  name: String!
  plan: Plan = basic
}

type Mutation {
  createUser(dto: NewUser!): User!
}

type Query {
  user(id: ID!): User
  users(limit: Int = 10): [User!]!
}

type User {
  id: ID!
  name: String!
  plan: Plan!
  friends: [User!]!
  mentor: User @deprecated(reason: "use friends")
}
`
	s, err := BuildFromSDL(sdl)
	require.NoError(t, err)
	require.Equal(t, "Query", s.QueryType)
	require.Equal(t, "Mutation", s.MutationType)

	users := s.GetQueryType().Field("users")
	require.True(t, users.Arguments[0].HasDefault)
	require.Equal(t, int64(10), users.Arguments[0].DefaultValue)

	want := `type Mutation {
  createUser(dto: NewUser!): User!
}

input NewUser {
  name: String!
  plan: Plan = basic
}

enum Plan {
  basic
  business
}

type Query {
  user(id: ID!): User
  users(limit: Int = 10): [User!]!
}

type User {
  id: ID!
  name: String!
  plan: Plan!
  friends: [User!]!
  mentor: User @deprecated(reason: "use friends")
}
`
	if diff := cmp.Diff(want, Render(s)); diff != "" {
		t.Errorf("Rendered schema mismatch (-want +got):\n%s", diff)
	}

	again, err := BuildFromSDL(Render(s))
	require.NoError(t, err)
	require.Equal(t, Render(s), Render(again))
}

func TestRender_CustomRootNames(t *testing.T) {
	root := Object("Root", "").FieldOf("ping", Named("String"))
	s, err := Build("Root", "", root)
	require.NoError(t, err)

	want := "schema {\n  query: Root\n}\n\ntype Root {\n  ping: String\n}\n"
	require.Equal(t, want, Render(s))
}
