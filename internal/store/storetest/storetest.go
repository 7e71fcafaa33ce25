// Package storetest opens throwaway stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	store "github.com/hanpama/membergraph/internal/store"
)

// MemoryDSN is a private in-memory sqlite database with foreign keys on.
const MemoryDSN = "file::memory:?_foreign_keys=on"

// New returns a migrated, seeded in-memory store that is closed when the
// test ends.
func New(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{Dialect: store.DialectSQLite, DSN: MemoryDSN}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}
