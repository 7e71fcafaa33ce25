// Package graph declares the member/user/post/profile API and binds every
// field to the repository layer.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"

	apperr "github.com/hanpama/membergraph/internal/apperr"
	binding "github.com/hanpama/membergraph/internal/binding"
	loader "github.com/hanpama/membergraph/internal/loader"
	schema "github.com/hanpama/membergraph/internal/schema"
	store "github.com/hanpama/membergraph/internal/store"
)

//go:embed schema.graphql
var sdl string

// SDL returns the schema source.
func SDL() string { return sdl }

// Schema builds the type registry of the API.
func Schema() (*schema.Schema, error) {
	sch, err := schema.BuildFromSDL(sdl)
	if err != nil {
		return nil, fmt.Errorf("graph schema: %w", err)
	}
	return sch, nil
}

// New binds the API to s.
func New(s *store.Store) (*binding.Binding, error) {
	sch, err := Schema()
	if err != nil {
		return nil, err
	}
	r := &resolver{store: s}
	return binding.New(sch,
		binding.WithScalar("UUID", serializeUUID),
		binding.WithResolvers(r.query()),
		binding.WithResolvers(r.mutation()),
		binding.WithResolvers(r.memberType()),
		binding.WithResolvers(r.post()),
		binding.WithResolvers(r.profile()),
		binding.WithResolvers(r.user()),
	)
}

type resolver struct {
	store *store.Store
}

// loader returns the request's loader. Callers outside an HTTP request get
// a fresh one.
func (r *resolver) loader(ctx context.Context) *loader.Loader {
	if l := loader.FromContext(ctx); l != nil {
		return l
	}
	return loader.New(r.store)
}

func serializeUUID(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("UUID cannot represent %q", v)
		}
		return id.String(), nil
	}
	return nil, fmt.Errorf("UUID cannot represent value of type %T", value)
}

// optional turns a NOT_FOUND failure into a null result.
func optional[T any](v *T, err error) (any, error) {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, nil
	}
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}
