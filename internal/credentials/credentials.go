// Package credentials keeps the admin and store login tables in the device
// cache, seeding defaults on first read.
package credentials

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

const (
	KeyAdmin  = "medicare_admin"
	KeyStores = "medicare_store_credentials"

	DefaultStorePassword = "store123"
)

// DefaultStoreCredentials pairs each sample store with its login.
func DefaultStoreCredentials() []models.StoreCredential {
	usernames := []string{
		"rajamedicals", "royalpharmacy", "alaghupharma", "bharathmed",
		"zakirmed", "nobelmed", "shifahealth", "vaseemmed",
	}
	out := make([]models.StoreCredential, 0, len(usernames))
	for i, username := range usernames {
		out = append(out, models.StoreCredential{StoreID: i + 1, Username: username, Password: DefaultStorePassword})
	}
	return out
}

// Service reads, rotates and checks login credentials.
type Service interface {
	Admin(ctx context.Context) (models.AdminCredential, error)
	UpdateAdmin(ctx context.Context, cred models.AdminCredential) error
	ValidateAdmin(ctx context.Context, username, password string) error
	Stores(ctx context.Context) ([]models.StoreCredential, error)
	ForStore(ctx context.Context, storeID int) (*models.StoreCredential, error)
	UpdateStore(ctx context.Context, storeID int, username, password string) (models.StoreCredential, error)
	ValidateStore(ctx context.Context, username, password string) (*models.StoreCredential, error)
}

type service struct {
	mu           sync.Mutex
	store        kv.Store
	defaultAdmin models.AdminCredential
}

// NewService binds the credential tables to store. defaultAdmin seeds the
// admin entry when the device has none.
func NewService(store kv.Store, defaultAdmin models.AdminCredential) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "credential store required")
	}
	if defaultAdmin.Username == "" || defaultAdmin.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default admin credential required")
	}
	return &service{store: store, defaultAdmin: defaultAdmin}, nil
}

func (s *service) Admin(ctx context.Context) (models.AdminCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin(ctx)
}

func (s *service) UpdateAdmin(ctx context.Context, cred models.AdminCredential) error {
	cred.Username = strings.TrimSpace(cred.Username)
	if cred.Username == "" || cred.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return kv.SetJSON(ctx, s.store, KeyAdmin, cred)
}

func (s *service) ValidateAdmin(ctx context.Context, username, password string) error {
	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if !matches(admin.Username, admin.Password, username, password) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin credentials")
	}
	return nil
}

func (s *service) Stores(ctx context.Context) ([]models.StoreCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores(ctx)
}

func (s *service) ForStore(ctx context.Context, storeID int) (*models.StoreCredential, error) {
	creds, err := s.Stores(ctx)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		if creds[i].StoreID == storeID {
			return &creds[i], nil
		}
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "no credentials for store %d", storeID)
}

// UpdateStore replaces the login of storeID, adding one when missing.
// Usernames stay unique across stores.
func (s *service) UpdateStore(ctx context.Context, storeID int, username, password string) (models.StoreCredential, error) {
	username = strings.TrimSpace(username)
	if storeID <= 0 {
		return models.StoreCredential{}, pkgerrors.New(pkgerrors.CodeValidation, "store id must be positive")
	}
	if username == "" || password == "" {
		return models.StoreCredential{}, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.stores(ctx)
	if err != nil {
		return models.StoreCredential{}, err
	}
	cred := models.StoreCredential{StoreID: storeID, Username: username, Password: password}
	replaced := false
	for i := range creds {
		if creds[i].StoreID != storeID && creds[i].Username == username {
			return models.StoreCredential{}, pkgerrors.New(pkgerrors.CodeConflict, "username already used by another store")
		}
		if creds[i].StoreID == storeID {
			creds[i] = cred
			replaced = true
		}
	}
	if !replaced {
		creds = append(creds, cred)
	}
	if err := kv.SetJSON(ctx, s.store, KeyStores, creds); err != nil {
		return models.StoreCredential{}, err
	}
	return cred, nil
}

func (s *service) ValidateStore(ctx context.Context, username, password string) (*models.StoreCredential, error) {
	creds, err := s.Stores(ctx)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		if matches(creds[i].Username, creds[i].Password, username, password) {
			return &creds[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid store credentials")
}

func (s *service) admin(ctx context.Context) (models.AdminCredential, error) {
	var admin models.AdminCredential
	ok, err := kv.GetJSON(ctx, s.store, KeyAdmin, &admin)
	if err != nil {
		return models.AdminCredential{}, err
	}
	if ok {
		return admin, nil
	}
	if err := kv.SetJSON(ctx, s.store, KeyAdmin, s.defaultAdmin); err != nil {
		return models.AdminCredential{}, err
	}
	return s.defaultAdmin, nil
}

func (s *service) stores(ctx context.Context) ([]models.StoreCredential, error) {
	var creds []models.StoreCredential
	ok, err := kv.GetJSON(ctx, s.store, KeyStores, &creds)
	if err != nil {
		return nil, err
	}
	if ok {
		return creds, nil
	}
	creds = DefaultStoreCredentials()
	if err := kv.SetJSON(ctx, s.store, KeyStores, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func matches(wantUser, wantPass, gotUser, gotPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(wantUser), []byte(gotUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(wantPass), []byte(gotPass)) == 1
	return userOK && passOK && wantUser != ""
}
