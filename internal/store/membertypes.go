package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultCacheTTL = 10 * time.Minute
	allMemberTypes  = "*"
)

// MemberTypes serves the seeded member types. They never change at run time,
// so reads are cached.
type MemberTypes struct {
	repo  *Repository[MemberType, MemberTypeID]
	cache *gocache.Cache
}

func newMemberTypes(repo *Repository[MemberType, MemberTypeID], ttl time.Duration) *MemberTypes {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemberTypes{repo: repo, cache: gocache.New(ttl, 2*ttl)}
}

func (m *MemberTypes) FindAll(ctx context.Context) ([]*MemberType, error) {
	if v, ok := m.cache.Get(allMemberTypes); ok {
		return v.([]*MemberType), nil
	}
	rows, err := m.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.SetDefault(allMemberTypes, rows)
	return rows, nil
}

func (m *MemberTypes) FindByID(ctx context.Context, id MemberTypeID) (*MemberType, error) {
	if v, ok := m.cache.Get(string(id)); ok {
		return v.(*MemberType), nil
	}
	row, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.SetDefault(string(id), row)
	return row, nil
}

// Flush drops every cached entry.
func (m *MemberTypes) Flush() { m.cache.Flush() }
