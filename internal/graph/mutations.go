package graph

import (
	"context"

	binding "github.com/hanpama/membergraph/internal/binding"
)

// mutation returns the write resolvers. Each one clears the request loader
// once its write has happened so the selection under it reads fresh rows.
func (r *resolver) mutation() resolvers {
	return resolvers{
		"Mutation.createUser": func(ctx context.Context, p binding.Params) (any, error) {
			defer r.loader(ctx).Clear()
			return r.store.Users.Create(ctx, newUser(dtoArg(p.Args)))
		},
		"Mutation.changeUser": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return r.store.Users.Update(ctx, id, columns(dtoArg(p.Args), userColumns))
		},
		"Mutation.deleteUser": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return deleted(r.store.Users.Delete(ctx, id))
		},

		"Mutation.createPost": func(ctx context.Context, p binding.Params) (any, error) {
			post, err := newPost(dtoArg(p.Args))
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return r.store.Posts.Create(ctx, post)
		},
		"Mutation.changePost": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return r.store.Posts.Update(ctx, id, columns(dtoArg(p.Args), postColumns))
		},
		"Mutation.deletePost": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return deleted(r.store.Posts.Delete(ctx, id))
		},

		"Mutation.createProfile": func(ctx context.Context, p binding.Params) (any, error) {
			profile, err := newProfile(dtoArg(p.Args))
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return r.store.Profiles.Create(ctx, profile)
		},
		"Mutation.changeProfile": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return r.store.Profiles.Update(ctx, id, columns(dtoArg(p.Args), profileColumns))
		},
		"Mutation.deleteProfile": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return deleted(r.store.Profiles.Delete(ctx, id))
		},

		"Mutation.subscribeTo": func(ctx context.Context, p binding.Params) (any, error) {
			userID, err := uuidArg(p.Args, "userId")
			if err != nil {
				return nil, err
			}
			authorID, err := uuidArg(p.Args, "authorId")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			if err := r.store.Subscriptions.Subscribe(ctx, userID, authorID); err != nil {
				return nil, err
			}
			return r.store.Users.FindByID(ctx, userID)
		},
		"Mutation.unsubscribeFrom": func(ctx context.Context, p binding.Params) (any, error) {
			userID, err := uuidArg(p.Args, "userId")
			if err != nil {
				return nil, err
			}
			authorID, err := uuidArg(p.Args, "authorId")
			if err != nil {
				return nil, err
			}
			defer r.loader(ctx).Clear()
			return deleted(r.store.Subscriptions.Unsubscribe(ctx, userID, authorID))
		},
	}
}

func deleted(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return true, nil
}
