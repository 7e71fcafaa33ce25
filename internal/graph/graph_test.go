package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/membergraph/internal/executor"
	graph "github.com/hanpama/membergraph/internal/graph"
	loader "github.com/hanpama/membergraph/internal/loader"
	store "github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/store/storetest"
	validation "github.com/hanpama/membergraph/internal/validation"
)

type harness struct {
	store *store.Store
	exec  *executor.Executor
	valid *validation.Validator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := storetest.New(t)
	b, err := graph.New(s)
	require.NoError(t, err)
	v, err := validation.New(b.Schema(), validation.DefaultMaxDepth)
	require.NoError(t, err)
	return &harness{store: s, exec: executor.NewExecutor(b, b.Schema()), valid: v}
}

// do runs one request the way the HTTP handler does: validate, then execute
// with a fresh loader.
func (h *harness) do(t *testing.T, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, errs := h.valid.Load(query)
	require.Empty(t, errs, "validation")
	ctx := loader.NewContext(context.Background(), loader.New(h.store))
	return h.exec.ExecuteRequest(ctx, doc, "", vars, nil)
}

func (h *harness) data(t *testing.T, query string, vars map[string]any) map[string]any {
	t.Helper()
	res := h.do(t, query, vars)
	require.Empty(t, res.Errors)
	return executor.Plain(res.Data).(map[string]any)
}

func (h *harness) user(t *testing.T, name string) *store.User {
	t.Helper()
	u, err := h.store.Users.Create(context.Background(), &store.User{Name: name, Balance: 1})
	require.NoError(t, err)
	return u
}

func requireData(t *testing.T, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaBinds(t *testing.T) {
	sch, err := graph.Schema()
	require.NoError(t, err)
	require.Equal(t, "Query", sch.QueryType)
	require.Equal(t, "Mutation", sch.MutationType)
	require.Contains(t, graph.SDL(), "subscribeTo(userId: UUID!, authorId: UUID!): User!")
}

func TestUsersWithPosts(t *testing.T) {
	h := newHarness(t)
	ann, bob := h.user(t, "ann"), h.user(t, "bob")
	_, err := h.store.Posts.Create(context.Background(), &store.Post{Title: "hello", Content: "world", AuthorID: ann.ID})
	require.NoError(t, err)

	got := h.data(t, `{ users { id name posts { title } } }`, nil)
	requireData(t, map[string]any{
		"users": []any{
			map[string]any{"id": ann.ID.String(), "name": "ann", "posts": []any{map[string]any{"title": "hello"}}},
			map[string]any{"id": bob.ID.String(), "name": "bob", "posts": []any{}},
		},
	}, got)
}

func TestCreateThenRead(t *testing.T) {
	h := newHarness(t)

	created := h.data(t, `mutation { createUser(dto: { name: "A", balance: 0 }) { id name balance } }`, nil)
	user := created["createUser"].(map[string]any)
	require.Equal(t, "A", user["name"])
	require.Equal(t, 0.0, user["balance"])

	got := h.data(t, `query($id: UUID!) { user(id: $id) { name } }`, map[string]any{"id": user["id"]})
	requireData(t, map[string]any{"user": map[string]any{"name": "A"}}, got)
}

func TestMissingEntityIsNull(t *testing.T) {
	h := newHarness(t)

	got := h.data(t, `{
		user(id: "6f1c4b4e-8a4f-4c8e-9b7a-2f1d3c4b5a69") { id }
		post(id: "6f1c4b4e-8a4f-4c8e-9b7a-2f1d3c4b5a69") { id }
		profile(id: "6f1c4b4e-8a4f-4c8e-9b7a-2f1d3c4b5a69") { id }
	}`, nil)
	requireData(t, map[string]any{"user": nil, "post": nil, "profile": nil}, got)
}

func TestMalformedUUID(t *testing.T) {
	h := newHarness(t)
	h.user(t, "ann")

	res := h.do(t, `{ user(id: "nope") { id } users { name } }`, nil)
	require.Len(t, res.Errors, 1)
	require.Equal(t, executor.Path{"user"}, res.Errors[0].Path)
	require.Equal(t, "INVALID_ARGUMENT", res.Errors[0].Extensions["code"])
	requireData(t, map[string]any{
		"user":  nil,
		"users": []any{map[string]any{"name": "ann"}},
	}, executor.Plain(res.Data))
}

func TestMemberTypes(t *testing.T) {
	h := newHarness(t)
	ann := h.user(t, "ann")

	got := h.data(t, `mutation($uid: UUID!) {
		createProfile(dto: { isMale: false, yearOfBirth: 1990, userId: $uid, memberTypeId: business }) {
			yearOfBirth memberTypeId memberType { discount postsLimitPerMonth } user { name }
		}
	}`, map[string]any{"uid": ann.ID.String()})
	requireData(t, map[string]any{"createProfile": map[string]any{
		"yearOfBirth":  1990,
		"memberTypeId": "business",
		"memberType":   map[string]any{"discount": 7.7, "postsLimitPerMonth": 100},
		"user":         map[string]any{"name": "ann"},
	}}, got)

	got = h.data(t, `{ memberTypes { id profiles { isMale } } memberType(id: basic) { discount } }`, nil)
	requireData(t, map[string]any{
		"memberTypes": []any{
			map[string]any{"id": "basic", "profiles": []any{}},
			map[string]any{"id": "business", "profiles": []any{map[string]any{"isMale": false}}},
		},
		"memberType": map[string]any{"discount": 2.3},
	}, got)

	got = h.data(t, `query($id: UUID!) { user(id: $id) { profile { memberType { id } } } }`, map[string]any{"id": ann.ID.String()})
	requireData(t, map[string]any{"user": map[string]any{"profile": map[string]any{"memberType": map[string]any{"id": "business"}}}}, got)
}

func TestSubscriptions(t *testing.T) {
	h := newHarness(t)
	ann, bob := h.user(t, "ann"), h.user(t, "bob")
	vars := map[string]any{"ann": ann.ID.String(), "bob": bob.ID.String()}

	got := h.data(t, `mutation($ann: UUID!, $bob: UUID!) {
		subscribeTo(userId: $ann, authorId: $bob) { name userSubscribedTo { name } }
	}`, vars)
	requireData(t, map[string]any{"subscribeTo": map[string]any{
		"name":             "ann",
		"userSubscribedTo": []any{map[string]any{"name": "bob"}},
	}}, got)

	got = h.data(t, `query($bob: UUID!) { user(id: $bob) { subscribedToUser { name } userSubscribedTo { name } } }`,
		map[string]any{"bob": bob.ID.String()})
	requireData(t, map[string]any{"user": map[string]any{
		"subscribedToUser": []any{map[string]any{"name": "ann"}},
		"userSubscribedTo": []any{},
	}}, got)

	got = h.data(t, `mutation($ann: UUID!, $bob: UUID!) { unsubscribeFrom(userId: $ann, authorId: $bob) }`, vars)
	requireData(t, map[string]any{"unsubscribeFrom": true}, got)

	res := h.do(t, `mutation($ann: UUID!, $bob: UUID!) { unsubscribeFrom(userId: $ann, authorId: $bob) }`, vars)
	require.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "subscription not found", res.Errors[0].Message)
	require.Equal(t, "NOT_FOUND", res.Errors[0].Extensions["code"])
}

func TestMutationsRunInDocumentOrder(t *testing.T) {
	h := newHarness(t)

	got := h.data(t, `mutation {
		first: createUser(dto: { name: "first", balance: 1 }) { name }
		second: createUser(dto: { name: "second", balance: 2 }) { name }
		third: createUser(dto: { name: "third", balance: 3 }) { name }
	}`, nil)
	require.Len(t, got, 3)

	got = h.data(t, `{ users { name } }`, nil)
	requireData(t, map[string]any{"users": []any{
		map[string]any{"name": "first"},
		map[string]any{"name": "second"},
		map[string]any{"name": "third"},
	}}, got)
}

func TestChangeAndDelete(t *testing.T) {
	h := newHarness(t)
	ann := h.user(t, "ann")
	post, err := h.store.Posts.Create(context.Background(), &store.Post{Title: "t", Content: "c", AuthorID: ann.ID})
	require.NoError(t, err)
	vars := map[string]any{"id": ann.ID.String(), "post": post.ID.String()}

	got := h.data(t, `mutation($id: UUID!, $post: UUID!) {
		changeUser(id: $id, dto: { balance: 99.5 }) { name balance }
		changePost(id: $post, dto: { title: "new" }) { title content author { name } }
	}`, vars)
	requireData(t, map[string]any{
		"changeUser": map[string]any{"name": "ann", "balance": 99.5},
		"changePost": map[string]any{"title": "new", "content": "c", "author": map[string]any{"name": "ann"}},
	}, got)

	got = h.data(t, `mutation($id: UUID!) { deleteUser(id: $id) }`, vars)
	requireData(t, map[string]any{"deleteUser": true}, got)

	got = h.data(t, `query($post: UUID!) { post(id: $post) { id } posts { id } }`, map[string]any{"post": post.ID.String()})
	requireData(t, map[string]any{"post": nil, "posts": []any{}}, got)
}

func TestRepositoryFailuresAreFieldErrors(t *testing.T) {
	h := newHarness(t)
	ann := h.user(t, "ann")

	res := h.do(t, `mutation {
		createPost(dto: { title: "t", content: "c", authorId: "6f1c4b4e-8a4f-4c8e-9b7a-2f1d3c4b5a69" }) { id }
	}`, nil)
	require.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, executor.Path{"createPost"}, res.Errors[0].Path)
	require.Equal(t, "CONSTRAINT_VIOLATION", res.Errors[0].Extensions["code"])
	require.True(t, strings.HasPrefix(res.Errors[0].Message, "post "), res.Errors[0].Message)

	res = h.do(t, `mutation($id: UUID!) {
		a: changeUser(id: $id, dto: { name: "x" }) { name }
	}`, map[string]any{"id": "6f1c4b4e-8a4f-4c8e-9b7a-2f1d3c4b5a69"})
	require.Nil(t, res.Data)
	require.Equal(t, "user not found", res.Errors[0].Message)

	got := h.data(t, `query($id: UUID!) { user(id: $id) { name } }`, map[string]any{"id": ann.ID.String()})
	requireData(t, map[string]any{"user": map[string]any{"name": "ann"}}, got)
}

func TestDepthBound(t *testing.T) {
	h := newHarness(t)

	ok := `{ users { userSubscribedTo { userSubscribedTo { userSubscribedTo { userSubscribedTo { id } } } } } }`
	_, errs := h.valid.Load(ok)
	require.Empty(t, errs)

	deep := `{ users { userSubscribedTo { userSubscribedTo { userSubscribedTo { userSubscribedTo { posts { id } } } } } } }`
	_, errs = h.valid.Load(deep)
	require.Len(t, errs, 1)
	require.Equal(t, validation.MaxDepthRuleName, errs[0].Rule)
}
