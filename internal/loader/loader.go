// Package loader memoizes repository reads for the lifetime of one request.
//
// Sibling fields and list elements resolve concurrently, so the same user or
// post is often asked for many times at once. A Loader collapses concurrent
// identical reads into one repository call and remembers the outcome until
// Clear is called.
package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	store "github.com/hanpama/membergraph/internal/store"
)

type Loader struct {
	store *store.Store
	group singleflight.Group

	mu   sync.Mutex
	memo map[string]result
}

type result struct {
	value any
	err   error
}

func New(s *store.Store) *Loader {
	return &Loader{store: s, memo: make(map[string]result)}
}

type ctxKey struct{}

func NewContext(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request's loader, or nil when there is none.
func FromContext(ctx context.Context) *Loader {
	l, _ := ctx.Value(ctxKey{}).(*Loader)
	return l
}

// Clear forgets every remembered read. Mutations call it so later reads in
// the same request observe their writes.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.memo = make(map[string]result)
	l.mu.Unlock()
}

func load[T any](ctx context.Context, l *Loader, key string, fetch func(context.Context) (T, error)) (T, error) {
	l.mu.Lock()
	r, ok := l.memo[key]
	l.mu.Unlock()
	if !ok {
		v, err, _ := l.group.Do(key, func() (any, error) {
			l.mu.Lock()
			r, ok := l.memo[key]
			l.mu.Unlock()
			if ok {
				return r.value, r.err
			}
			v, err := fetch(ctx)
			// A cancelled caller must not poison the memo for the others.
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				l.mu.Lock()
				l.memo[key] = result{value: v, err: err}
				l.mu.Unlock()
			}
			return v, err
		})
		r = result{value: v, err: err}
	}
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value.(T), nil
}

func (l *Loader) MemberTypes(ctx context.Context) ([]*store.MemberType, error) {
	return load(ctx, l, "memberTypes", l.store.MemberTypes.FindAll)
}

func (l *Loader) MemberType(ctx context.Context, id store.MemberTypeID) (*store.MemberType, error) {
	return load(ctx, l, "memberType:"+string(id), func(ctx context.Context) (*store.MemberType, error) {
		return l.store.MemberTypes.FindByID(ctx, id)
	})
}

func (l *Loader) Users(ctx context.Context) ([]*store.User, error) {
	return load(ctx, l, "users", l.store.Users.FindAll)
}

func (l *Loader) User(ctx context.Context, id uuid.UUID) (*store.User, error) {
	return load(ctx, l, "user:"+id.String(), func(ctx context.Context) (*store.User, error) {
		return l.store.Users.FindByID(ctx, id)
	})
}

func (l *Loader) Posts(ctx context.Context) ([]*store.Post, error) {
	return load(ctx, l, "posts", l.store.Posts.FindAll)
}

func (l *Loader) Post(ctx context.Context, id uuid.UUID) (*store.Post, error) {
	return load(ctx, l, "post:"+id.String(), func(ctx context.Context) (*store.Post, error) {
		return l.store.Posts.FindByID(ctx, id)
	})
}

func (l *Loader) PostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]*store.Post, error) {
	return load(ctx, l, "postsByAuthor:"+authorID.String(), func(ctx context.Context) ([]*store.Post, error) {
		return l.store.Posts.FindManyBy(ctx, "author_id", authorID)
	})
}

func (l *Loader) Profiles(ctx context.Context) ([]*store.Profile, error) {
	return load(ctx, l, "profiles", l.store.Profiles.FindAll)
}

func (l *Loader) Profile(ctx context.Context, id uuid.UUID) (*store.Profile, error) {
	return load(ctx, l, "profile:"+id.String(), func(ctx context.Context) (*store.Profile, error) {
		return l.store.Profiles.FindByID(ctx, id)
	})
}

// ProfileByUser returns the user's profile, or nil when the user has none.
func (l *Loader) ProfileByUser(ctx context.Context, userID uuid.UUID) (*store.Profile, error) {
	return load(ctx, l, "profileByUser:"+userID.String(), func(ctx context.Context) (*store.Profile, error) {
		rows, err := l.store.Profiles.FindManyBy(ctx, "user_id", userID)
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		return rows[0], nil
	})
}

func (l *Loader) ProfilesByMemberType(ctx context.Context, id store.MemberTypeID) ([]*store.Profile, error) {
	return load(ctx, l, "profilesByMemberType:"+string(id), func(ctx context.Context) ([]*store.Profile, error) {
		return l.store.Profiles.FindManyBy(ctx, "member_type_id", id)
	})
}

// SubscribedTo returns the authors userID subscribes to.
func (l *Loader) SubscribedTo(ctx context.Context, userID uuid.UUID) ([]*store.User, error) {
	return load(ctx, l, "subscribedTo:"+userID.String(), func(ctx context.Context) ([]*store.User, error) {
		ids, err := l.store.Subscriptions.SubscribedTo(ctx, userID)
		if err != nil {
			return nil, err
		}
		return l.store.Users.FindManyIn(ctx, "id", lo.Map(ids, toAny))
	})
}

// Subscribers returns the users subscribed to authorID.
func (l *Loader) Subscribers(ctx context.Context, authorID uuid.UUID) ([]*store.User, error) {
	return load(ctx, l, "subscribers:"+authorID.String(), func(ctx context.Context) ([]*store.User, error) {
		ids, err := l.store.Subscriptions.Subscribers(ctx, authorID)
		if err != nil {
			return nil, err
		}
		return l.store.Users.FindManyIn(ctx, "id", lo.Map(ids, toAny))
	})
}

func toAny(id uuid.UUID, _ int) any { return id }
