// Package reqid carries the request id through a request's context.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header a request id is read from and echoed in.
const Header = "X-Request-ID"

const maxLen = 128

type key struct{}

// NewContext stores id in parent, generating a random one when id is empty
// or implausibly long. It returns the id actually stored.
func NewContext(parent context.Context, id string) (context.Context, string) {
	if id == "" || len(id) > maxLen {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request id from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
