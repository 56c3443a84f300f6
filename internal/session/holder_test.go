package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
	"github.com/MrSnakeDoc/bookmarker/internal/store/memory"
)

func TestHolderLifecycle(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewStore()

	h, err := session.Open(ctx, slots, "", time.Hour)
	require.NoError(t, err)
	require.False(t, h.IsLoggedIn())
	require.False(t, h.IsAdmin())
	anonID := h.ID()
	require.NotEmpty(t, anonID)

	ident := domain.Identity{UserID: "u1", Name: "alice", IsAdmin: true}
	require.NoError(t, h.Login(ctx, ident))
	require.NotEqual(t, anonID, h.ID(), "login must issue a fresh slot id")
	require.True(t, h.IsAdmin())

	got, ok := h.CurrentUser()
	require.True(t, ok)
	require.Equal(t, ident, got)

	// A second request with the new id sees the same user
	reopened, err := session.Open(ctx, slots, h.ID(), time.Hour)
	require.NoError(t, err)
	require.True(t, reopened.IsLoggedIn())

	require.NoError(t, reopened.Logout(ctx))
	require.False(t, reopened.IsLoggedIn())

	again, err := session.Open(ctx, slots, h.ID(), time.Hour)
	require.NoError(t, err)
	require.False(t, again.IsLoggedIn())
}

func TestHolderLoginDropsPreviousSlot(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewStore()

	h, err := session.Open(ctx, slots, "", time.Hour)
	require.NoError(t, err)
	require.NoError(t, h.Login(ctx, domain.Identity{UserID: "u1"}))
	first := h.ID()

	require.NoError(t, h.Login(ctx, domain.Identity{UserID: "u2"}))
	old, err := slots.LoadSlot(ctx, first)
	require.NoError(t, err)
	require.Nil(t, old)
}

func TestFromContext(t *testing.T) {
	_, ok := session.FromContext(context.Background())
	require.False(t, ok)

	h, err := session.Open(context.Background(), memory.NewStore(), "", time.Hour)
	require.NoError(t, err)

	got, ok := session.FromContext(session.WithHolder(context.Background(), h))
	require.True(t, ok)
	require.Same(t, h, got)
}
