package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperr "github.com/hanpama/membergraph/internal/apperr"
	eventbus "github.com/hanpama/membergraph/internal/eventbus"
	events "github.com/hanpama/membergraph/internal/events"
	store "github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/store/storetest"
)

func requireKind(t *testing.T, kind apperr.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "%v", err)
}

func createUser(t *testing.T, s *store.Store, name string) *store.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), &store.User{Name: name, Balance: 10})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, u.ID)
	return u
}

// recorder collects repository events published during a test.
type recorder struct {
	mu       sync.Mutex
	starts   []events.RepositoryStart
	finishes []events.RepositoryFinish
}

func record(t *testing.T) *recorder {
	t.Helper()
	rec := &recorder{}
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	eventbus.Subscribe(func(_ context.Context, e events.RepositoryStart) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.starts = append(rec.starts, e)
	})
	eventbus.Subscribe(func(_ context.Context, e events.RepositoryFinish) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.finishes = append(rec.finishes, e)
	})
	return rec
}

func TestMigrateSeedsMemberTypes(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	// Migrating again must not duplicate the seed rows.
	require.NoError(t, s.Migrate(ctx))

	all, err := s.MemberTypes.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, store.MemberType{ID: store.MemberTypeBasic, Discount: 2.3, PostsLimitPerMonth: 20}, *all[0])
	require.Equal(t, store.MemberType{ID: store.MemberTypeBusiness, Discount: 7.7, PostsLimitPerMonth: 100}, *all[1])

	_, err = s.MemberTypes.FindByID(ctx, "gold")
	requireKind(t, apperr.KindNotFound, err)
}

func TestMemberTypesAreCached(t *testing.T) {
	s := storetest.New(t)
	rec := record(t)
	ctx := context.Background()

	for range 3 {
		mt, err := s.MemberTypes.FindByID(ctx, store.MemberTypeBusiness)
		require.NoError(t, err)
		require.Equal(t, 100, mt.PostsLimitPerMonth)
	}
	require.Len(t, rec.starts, 1)

	s.MemberTypes.Flush()
	_, err := s.MemberTypes.FindByID(ctx, store.MemberTypeBusiness)
	require.NoError(t, err)
	require.Len(t, rec.starts, 2)
}

func TestUserLifecycle(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	u := createUser(t, s, "Ann")
	got, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann", got.Name)

	got, err = s.Users.Update(ctx, u.ID, map[string]any{"name": "Anna", "balance": 42.5})
	require.NoError(t, err)
	require.Equal(t, "Anna", got.Name)
	require.Equal(t, 42.5, got.Balance)

	got, err = s.Users.Update(ctx, u.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "Anna", got.Name)

	require.NoError(t, s.Users.Delete(ctx, u.ID))

	_, err = s.Users.FindByID(ctx, u.ID)
	requireKind(t, apperr.KindNotFound, err)
	_, err = s.Users.Update(ctx, u.ID, map[string]any{"name": "ghost"})
	requireKind(t, apperr.KindNotFound, err)
	requireKind(t, apperr.KindNotFound, s.Users.Delete(ctx, u.ID))
	require.Equal(t, "user not found", err.(*apperr.Error).Message)
}

func TestFindAllKeepsCreationOrder(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	var want []string
	for _, name := range []string{"c", "a", "b"} {
		createUser(t, s, name)
		want = append(want, name)
	}
	all, err := s.Users.FindAll(ctx)
	require.NoError(t, err)
	var names []string
	for _, u := range all {
		names = append(names, u.Name)
	}
	require.Equal(t, want, names)
}

func TestFindManyByAndIn(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	ann, bob, cid := createUser(t, s, "ann"), createUser(t, s, "bob"), createUser(t, s, "cid")
	for _, p := range []store.Post{
		{Title: "a1", Content: "x", AuthorID: ann.ID},
		{Title: "b1", Content: "x", AuthorID: bob.ID},
		{Title: "a2", Content: "x", AuthorID: ann.ID},
	} {
		_, err := s.Posts.Create(ctx, &p)
		require.NoError(t, err)
	}

	posts, err := s.Posts.FindManyBy(ctx, "author_id", ann.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "a1", posts[0].Title)
	require.Equal(t, "a2", posts[1].Title)

	posts, err = s.Posts.FindManyBy(ctx, "author_id", cid.ID)
	require.NoError(t, err)
	require.Empty(t, posts)

	posts, err = s.Posts.FindManyIn(ctx, "author_id", []any{ann.ID, bob.ID})
	require.NoError(t, err)
	require.Len(t, posts, 3)

	posts, err = s.Posts.FindManyIn(ctx, "author_id", nil)
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestConstraintViolations(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	u := createUser(t, s, "ann")

	_, err := s.Posts.Create(ctx, &store.Post{Title: "t", Content: "c", AuthorID: uuid.New()})
	requireKind(t, apperr.KindConstraint, err)

	_, err = s.Profiles.Create(ctx, &store.Profile{UserID: u.ID, MemberTypeID: store.MemberTypeBasic, YearOfBirth: 1990})
	require.NoError(t, err)

	_, err = s.Profiles.Create(ctx, &store.Profile{UserID: u.ID, MemberTypeID: store.MemberTypeBasic, YearOfBirth: 1991})
	requireKind(t, apperr.KindConstraint, err)

	other := createUser(t, s, "bob")
	_, err = s.Profiles.Create(ctx, &store.Profile{UserID: other.ID, MemberTypeID: "gold", YearOfBirth: 1991})
	requireKind(t, apperr.KindConstraint, err)
}

func TestSubscriptions(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	ann, bob, cid := createUser(t, s, "ann"), createUser(t, s, "bob"), createUser(t, s, "cid")

	require.NoError(t, s.Subscriptions.Subscribe(ctx, ann.ID, bob.ID))
	require.NoError(t, s.Subscriptions.Subscribe(ctx, ann.ID, bob.ID))
	require.NoError(t, s.Subscriptions.Subscribe(ctx, cid.ID, bob.ID))

	ids, err := s.Subscriptions.SubscribedTo(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{bob.ID}, ids)

	ids, err = s.Subscriptions.Subscribers(ctx, bob.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{ann.ID, cid.ID}, ids)

	ids, err = s.Subscriptions.SubscribedTo(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, s.Subscriptions.Unsubscribe(ctx, ann.ID, bob.ID))
	requireKind(t, apperr.KindNotFound, s.Subscriptions.Unsubscribe(ctx, ann.ID, bob.ID))

	requireKind(t, apperr.KindConstraint, s.Subscriptions.Subscribe(ctx, ann.ID, uuid.New()))
}

func TestDeleteUserCascades(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	ann, bob := createUser(t, s, "ann"), createUser(t, s, "bob")

	_, err := s.Profiles.Create(ctx, &store.Profile{UserID: ann.ID, MemberTypeID: store.MemberTypeBusiness, YearOfBirth: 1980})
	require.NoError(t, err)
	_, err = s.Posts.Create(ctx, &store.Post{Title: "t", Content: "c", AuthorID: ann.ID})
	require.NoError(t, err)
	require.NoError(t, s.Subscriptions.Subscribe(ctx, ann.ID, bob.ID))
	require.NoError(t, s.Subscriptions.Subscribe(ctx, bob.ID, ann.ID))

	require.NoError(t, s.Users.Delete(ctx, ann.ID))

	profiles, err := s.Profiles.FindManyBy(ctx, "user_id", ann.ID)
	require.NoError(t, err)
	require.Empty(t, profiles)
	posts, err := s.Posts.FindManyBy(ctx, "author_id", ann.ID)
	require.NoError(t, err)
	require.Empty(t, posts)
	ids, err := s.Subscriptions.Subscribers(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
	ids, err = s.Subscriptions.SubscribedTo(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = s.Users.FindByID(ctx, bob.ID)
	require.NoError(t, err)
}

func TestRepositoryEvents(t *testing.T) {
	s := storetest.New(t)
	rec := record(t)
	ctx := context.Background()

	u := createUser(t, s, "ann")
	_, err := s.Users.FindByID(ctx, uuid.New())
	requireKind(t, apperr.KindNotFound, err)
	_, err = s.Users.FindManyBy(ctx, "name", u.Name)
	require.NoError(t, err)

	require.Len(t, rec.starts, 3)
	require.Len(t, rec.finishes, 3)
	ops := make([]string, len(rec.finishes))
	for i, f := range rec.finishes {
		require.Equal(t, rec.starts[i].CallID, f.CallID)
		require.Equal(t, "user", f.Entity)
		ops[i] = f.Op
	}
	require.Equal(t, []string{"create", "findById", "findManyBy"}, ops)
	require.Equal(t, 0, rec.finishes[1].Rows)
	requireKind(t, apperr.KindNotFound, rec.finishes[1].Err)
	require.Equal(t, 1, rec.finishes[2].Rows)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  store.Config
		ok   bool
	}{
		{"sqlite", store.Config{Dialect: "sqlite", DSN: "file:x.db"}, true},
		{"postgres", store.Config{Dialect: "postgres", DSN: "host=localhost", MaxOpenConns: 10}, true},
		{"unknown dialect", store.Config{Dialect: "oracle", DSN: "x"}, false},
		{"empty dsn", store.Config{Dialect: "sqlite"}, false},
		{"negative pool", store.Config{Dialect: "sqlite", DSN: "x", MaxOpenConns: -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
