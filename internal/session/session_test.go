package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
)

func TestLogoutClearsTabFlagsOnly(t *testing.T) {
	ctx := context.Background()
	device := kv.NewMemory()
	s := New(kv.NewMemory(), device)

	require.NoError(t, s.SetLoggedStore(ctx, 4))
	require.NoError(t, s.SetAdminLoggedIn(ctx, true))
	require.NoError(t, s.SetCurrentStore(ctx, 2))
	require.NoError(t, s.SetLoggedUser(ctx, 1700000000000))

	require.NoError(t, s.Logout(ctx))

	_, ok, err := s.LoggedStore(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	admin, err := s.AdminLoggedIn(ctx)
	require.NoError(t, err)
	require.False(t, admin)
	_, ok, err = s.CurrentStore(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	id, ok, err := s.LoggedUser(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1700000000000), id)

	require.NoError(t, s.LogoutUser(ctx))
	_, ok, err = s.LoggedUser(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGuestFlags(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), kv.NewMemory())

	on, err := s.GuestMode(ctx)
	require.NoError(t, err)
	require.False(t, on)

	require.NoError(t, s.SetGuestMode(ctx, true))
	require.NoError(t, s.SetGuestPhone(ctx, "9876543210"))

	on, err = s.GuestMode(ctx)
	require.NoError(t, err)
	require.True(t, on)
	phone, ok, err := s.GuestPhone(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "9876543210", phone)
}

func TestRegistryScopesTabsAndSharesDevice(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(kv.NewMemory())

	idA, a := reg.Resolve("tab-a")
	idB, b := reg.Resolve("tab-b")
	require.Equal(t, "tab-a", idA)
	require.Equal(t, "tab-b", idB)

	require.NoError(t, a.SetAdminLoggedIn(ctx, true))
	require.NoError(t, a.SetLoggedUser(ctx, 7))

	adminB, err := b.AdminLoggedIn(ctx)
	require.NoError(t, err)
	require.False(t, adminB)

	userB, ok, err := b.LoggedUser(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), userB)

	_, again := reg.Resolve("tab-a")
	require.Same(t, a, again)

	fresh, _ := reg.Resolve("")
	require.NotEmpty(t, fresh)
	require.Equal(t, 3, reg.Len())

	reg.Drop("tab-a")
	require.Equal(t, 2, reg.Len())
}

func TestContextRoundTrip(t *testing.T) {
	s := New(kv.NewMemory(), kv.NewMemory())
	ctx := WithSession(context.Background(), s)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Same(t, s, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}
