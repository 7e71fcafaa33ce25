package reqid

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background(), "abc-123")
	require.Equal(t, "abc-123", id)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestGeneratedWhenMissingOrTooLong(t *testing.T) {
	for _, in := range []string{"", strings.Repeat("x", maxLen+1)} {
		_, id := NewContext(context.Background(), in)
		_, err := uuid.Parse(id)
		require.NoError(t, err, id)
	}
}
