package graph

import (
	"context"

	binding "github.com/hanpama/membergraph/internal/binding"
	store "github.com/hanpama/membergraph/internal/store"
)

type resolvers = map[string]binding.ResolveFunc

func (r *resolver) query() resolvers {
	return resolvers{
		"Query.memberTypes": func(ctx context.Context, p binding.Params) (any, error) {
			return r.loader(ctx).MemberTypes(ctx)
		},
		"Query.memberType": func(ctx context.Context, p binding.Params) (any, error) {
			id, _ := p.Args["id"].(string)
			return optional(r.loader(ctx).MemberType(ctx, store.MemberTypeID(id)))
		},
		"Query.users": func(ctx context.Context, p binding.Params) (any, error) {
			return r.loader(ctx).Users(ctx)
		},
		"Query.user": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			return optional(r.loader(ctx).User(ctx, id))
		},
		"Query.posts": func(ctx context.Context, p binding.Params) (any, error) {
			return r.loader(ctx).Posts(ctx)
		},
		"Query.post": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			return optional(r.loader(ctx).Post(ctx, id))
		},
		"Query.profiles": func(ctx context.Context, p binding.Params) (any, error) {
			return r.loader(ctx).Profiles(ctx)
		},
		"Query.profile": func(ctx context.Context, p binding.Params) (any, error) {
			id, err := uuidArg(p.Args, "id")
			if err != nil {
				return nil, err
			}
			return optional(r.loader(ctx).Profile(ctx, id))
		},
	}
}

func (r *resolver) memberType() resolvers {
	return resolvers{
		"MemberType.id":                 binding.Property(func(m *store.MemberType) any { return m.ID }),
		"MemberType.discount":           binding.Property(func(m *store.MemberType) any { return m.Discount }),
		"MemberType.postsLimitPerMonth": binding.Property(func(m *store.MemberType) any { return m.PostsLimitPerMonth }),
		"MemberType.profiles": func(ctx context.Context, p binding.Params) (any, error) {
			m := p.Source.(*store.MemberType)
			return r.loader(ctx).ProfilesByMemberType(ctx, m.ID)
		},
	}
}

func (r *resolver) post() resolvers {
	return resolvers{
		"Post.id":       binding.Property(func(p *store.Post) any { return p.ID }),
		"Post.title":    binding.Property(func(p *store.Post) any { return p.Title }),
		"Post.content":  binding.Property(func(p *store.Post) any { return p.Content }),
		"Post.authorId": binding.Property(func(p *store.Post) any { return p.AuthorID }),
		"Post.author": func(ctx context.Context, p binding.Params) (any, error) {
			post := p.Source.(*store.Post)
			return optional(r.loader(ctx).User(ctx, post.AuthorID))
		},
	}
}

func (r *resolver) profile() resolvers {
	return resolvers{
		"Profile.id":           binding.Property(func(p *store.Profile) any { return p.ID }),
		"Profile.isMale":       binding.Property(func(p *store.Profile) any { return p.IsMale }),
		"Profile.yearOfBirth":  binding.Property(func(p *store.Profile) any { return p.YearOfBirth }),
		"Profile.userId":       binding.Property(func(p *store.Profile) any { return p.UserID }),
		"Profile.memberTypeId": binding.Property(func(p *store.Profile) any { return p.MemberTypeID }),
		"Profile.user": func(ctx context.Context, p binding.Params) (any, error) {
			profile := p.Source.(*store.Profile)
			return optional(r.loader(ctx).User(ctx, profile.UserID))
		},
		"Profile.memberType": func(ctx context.Context, p binding.Params) (any, error) {
			profile := p.Source.(*store.Profile)
			return r.loader(ctx).MemberType(ctx, profile.MemberTypeID)
		},
	}
}

func (r *resolver) user() resolvers {
	return resolvers{
		"User.id":      binding.Property(func(u *store.User) any { return u.ID }),
		"User.name":    binding.Property(func(u *store.User) any { return u.Name }),
		"User.balance": binding.Property(func(u *store.User) any { return u.Balance }),
		"User.profile": func(ctx context.Context, p binding.Params) (any, error) {
			u := p.Source.(*store.User)
			return optional(r.loader(ctx).ProfileByUser(ctx, u.ID))
		},
		"User.posts": func(ctx context.Context, p binding.Params) (any, error) {
			u := p.Source.(*store.User)
			return r.loader(ctx).PostsByAuthor(ctx, u.ID)
		},
		"User.userSubscribedTo": func(ctx context.Context, p binding.Params) (any, error) {
			u := p.Source.(*store.User)
			return r.loader(ctx).SubscribedTo(ctx, u.ID)
		},
		"User.subscribedToUser": func(ctx context.Context, p binding.Params) (any, error) {
			u := p.Source.(*store.User)
			return r.loader(ctx).Subscribers(ctx, u.ID)
		},
	}
}
