package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/docstore/docstoretest"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// steppingClock returns a distinct millisecond on every call so user ids do
// not collide.
func steppingClock() func() time.Time {
	next := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		next = next.Add(time.Millisecond)
		return next
	}
}

func newTestService(t *testing.T, remote docstore.Store) (*service, docstoretest.Fixture) {
	t.Helper()
	fx := docstoretest.New(t, remote)
	repo, err := NewRepository(fx.Syncing, fx.Local, nil)
	require.NoError(t, err)
	svc, err := NewService(repo)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = steppingClock()
	return impl, fx
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, docstoretest.Unavailable{})

	user, err := svc.Register(ctx, RegisterInput{Name: "Asha", Phone: " 9876543210 ", Password: "pw1", Address: "Market Street"})
	require.NoError(t, err)
	require.Empty(t, user.Password)
	require.Equal(t, "9876543210", user.Phone)

	logged, err := svc.ValidateLogin(ctx, "9876543210", "pw1")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)
	require.Empty(t, logged.Password)

	_, err = svc.ValidateLogin(ctx, "9876543210", "wrong")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRegisterConflictsOnPhone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Phone: "900", Password: "x"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "B", Phone: "900", Password: "y"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterValidates(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Phone: "900"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidateLoginFallsBackToDeviceCache(t *testing.T) {
	ctx := context.Background()
	remote, err := docstore.NewLocalStore(kv.NewMemory(), nil)
	require.NoError(t, err)
	svc, fx := newTestService(t, remote)

	// present only on this device, as if the remote write had failed
	doc, err := docstore.Encode(models.User{ID: 1, Name: "Ravi", Phone: "911", Password: "secret"})
	require.NoError(t, err)
	_, err = fx.Local.Create(ctx, docstore.CollectionUsers, doc)
	require.NoError(t, err)

	user, err := svc.ValidateLogin(ctx, "911", "secret")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
}

func TestGuestCannotLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.FindOrCreateByPhone(ctx, "955", "")
	require.NoError(t, err)

	_, err = svc.ValidateLogin(ctx, "955", "anything")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestFindOrCreateByPhone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, docstoretest.Unavailable{})

	guest, err := svc.FindOrCreateByPhone(ctx, "9123", "Old Address")
	require.NoError(t, err)
	require.Equal(t, models.GuestName, guest.Name)
	require.Equal(t, "Old Address", guest.Address)

	same, err := svc.FindOrCreateByPhone(ctx, "9123", "")
	require.NoError(t, err)
	require.Equal(t, guest.ID, same.ID)
	require.Equal(t, "Old Address", same.Address)

	moved, err := svc.FindOrCreateByPhone(ctx, "9123", "New Address")
	require.NoError(t, err)
	require.Equal(t, guest.ID, moved.ID)
	require.Equal(t, "New Address", moved.Address)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestGetByPhoneAndID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	user, err := svc.Register(ctx, RegisterInput{Name: "Meena", Phone: "933", Password: "pw"})
	require.NoError(t, err)

	byPhone, err := svc.GetByPhone(ctx, "933")
	require.NoError(t, err)
	require.Equal(t, user.ID, byPhone.ID)

	byID, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Meena", byID.Name)
	require.Empty(t, byID.Password)

	_, err = svc.GetByPhone(ctx, "000")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetByID(ctx, 42)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRegisterIDCollisionNeverReachesRemote(t *testing.T) {
	ctx := context.Background()
	remote := docstoretest.NewLagging(t)
	remote.RejectWrites(false)
	svc, fx := newTestService(t, remote)

	// the id the first clock tick will produce is already held on this device
	taken := time.Date(2026, 3, 1, 9, 0, 0, int(time.Millisecond), time.UTC).UnixMilli()
	doc, err := docstore.Encode(models.User{ID: taken, Name: "Ravi", Phone: "800", Password: "pw"})
	require.NoError(t, err)
	_, err = fx.Local.Create(ctx, docstore.CollectionUsers, doc)
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Meena", Phone: "801", Password: "pw"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	remoteDocs, err := remote.All(ctx, docstore.CollectionUsers)
	require.NoError(t, err)
	require.Empty(t, remoteDocs)
}
