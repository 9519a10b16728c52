// Package session tracks login and browsing flags. Tab-scoped flags live in
// an ephemeral store per session id; the customer login lives in the device
// store shared by every session.
package session

import (
	"context"
	"strconv"

	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
)

// Tab-scoped keys.
const (
	KeyCurrentStore = "medicare_current_store"
	KeyLoggedStore  = "medicare_logged_store"
	KeyAdminLogged  = "medicare_admin_logged"
	KeyGuestMode    = "medicare_guest_mode"
	KeyGuestPhone   = "medicare_guest_phone"
)

// KeyLoggedUser is device-scoped and survives Logout.
const KeyLoggedUser = "medicare_logged_user"

// Session reads and writes the flags of one tab.
type Session struct {
	tab    kv.Store
	device kv.Store
}

// New binds a session to its tab store and the shared device store.
func New(tab, device kv.Store) *Session {
	return &Session{tab: tab, device: device}
}

func (s *Session) SetCurrentStore(ctx context.Context, storeID int) error {
	return s.tab.Set(ctx, KeyCurrentStore, strconv.Itoa(storeID))
}

func (s *Session) CurrentStore(ctx context.Context) (int, bool, error) {
	return getInt(ctx, s.tab, KeyCurrentStore)
}

func (s *Session) ClearCurrentStore(ctx context.Context) error {
	return s.tab.Delete(ctx, KeyCurrentStore)
}

func (s *Session) SetLoggedStore(ctx context.Context, storeID int) error {
	return s.tab.Set(ctx, KeyLoggedStore, strconv.Itoa(storeID))
}

func (s *Session) LoggedStore(ctx context.Context) (int, bool, error) {
	return getInt(ctx, s.tab, KeyLoggedStore)
}

func (s *Session) SetAdminLoggedIn(ctx context.Context, in bool) error {
	return s.tab.Set(ctx, KeyAdminLogged, strconv.FormatBool(in))
}

// AdminLoggedIn is true only for the literal "true" flag.
func (s *Session) AdminLoggedIn(ctx context.Context) (bool, error) {
	return getFlag(ctx, s.tab, KeyAdminLogged)
}

func (s *Session) SetGuestMode(ctx context.Context, on bool) error {
	return s.tab.Set(ctx, KeyGuestMode, strconv.FormatBool(on))
}

func (s *Session) GuestMode(ctx context.Context) (bool, error) {
	return getFlag(ctx, s.tab, KeyGuestMode)
}

func (s *Session) SetGuestPhone(ctx context.Context, phone string) error {
	return s.tab.Set(ctx, KeyGuestPhone, phone)
}

func (s *Session) GuestPhone(ctx context.Context) (string, bool, error) {
	return s.tab.Get(ctx, KeyGuestPhone)
}

func (s *Session) SetLoggedUser(ctx context.Context, userID int64) error {
	return s.device.Set(ctx, KeyLoggedUser, strconv.FormatInt(userID, 10))
}

func (s *Session) LoggedUser(ctx context.Context) (int64, bool, error) {
	raw, ok, err := s.device.Get(ctx, KeyLoggedUser)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// Logout clears the store, admin and browsing flags of this tab.
func (s *Session) Logout(ctx context.Context) error {
	for _, key := range []string{KeyLoggedStore, KeyAdminLogged, KeyCurrentStore} {
		if err := s.tab.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// LogoutUser forgets the customer login on this device.
func (s *Session) LogoutUser(ctx context.Context) error {
	return s.device.Delete(ctx, KeyLoggedUser)
}

func getInt(ctx context.Context, store kv.Store, key string) (int, bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// unparsable flags read as unset
		return 0, false, nil
	}
	return v, true, nil
}

func getFlag(ctx context.Context, store kv.Store, key string) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return raw == "true", nil
}
