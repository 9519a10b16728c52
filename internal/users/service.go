package users

import (
	"context"
	"crypto/subtle"
	"time"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Service manages customer accounts. Returned users never carry passwords.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	ValidateLogin(ctx context.Context, phone, password string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	FindOrCreateByPhone(ctx context.Context, phone, address string) (*models.User, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the customer account service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	in := input.normalized()
	if in.Name == "" || in.Phone == "" || in.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, phone and password are required")
	}
	existing, err := s.findByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
	}

	now := s.now().UTC()
	user := models.User{
		ID:        now.UnixMilli(),
		Name:      in.Name,
		Phone:     in.Phone,
		Password:  in.Password,
		Address:   in.Address,
		CreatedAt: now,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ValidateLogin matches phone and password exactly. Guest accounts have no
// password and cannot log in.
func (s *service) ValidateLogin(ctx context.Context, phone, password string) (*models.User, error) {
	phone = normalizePhone(phone)
	if phone == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone and password are required")
	}
	user, err := s.repo.Find(ctx, func(u models.User) bool {
		return u.Phone == phone && !u.IsGuest() &&
			subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid phone or password")
	}
	public := user.Public()
	return &public, nil
}

func (s *service) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.findByPhone(ctx, normalizePhone(phone))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	public := user.Public()
	return &public, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	public := user.Public()
	return &public, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	for i := range items {
		items[i] = items[i].Public()
	}
	return items, nil
}

// FindOrCreateByPhone returns the account for phone, creating a guest when
// none exists. A differing non-empty address replaces the stored one.
func (s *service) FindOrCreateByPhone(ctx context.Context, phone, address string) (*models.User, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	existing, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if address == "" || existing.Address == address {
			public := existing.Public()
			return &public, nil
		}
		updated, err := s.repo.UpdateAddress(ctx, existing.ID, address)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user address")
		}
		if updated == nil {
			// listed but not addressable by id; report the requested address
			existing.Address = address
			updated = existing
		}
		public := updated.Public()
		return &public, nil
	}

	now := s.now().UTC()
	guest := models.User{
		ID:        now.UnixMilli(),
		Name:      models.GuestName,
		Phone:     phone,
		Address:   address,
		CreatedAt: now,
	}
	if err := s.create(ctx, guest); err != nil {
		return nil, err
	}
	return &guest, nil
}

func (s *service) findByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.repo.Find(ctx, func(u models.User) bool { return u.Phone == phone })
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return user, nil
}

func (s *service) create(ctx context.Context, user models.User) error {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	if !created {
		return pkgerrors.New(pkgerrors.CodeConflict, "user id already taken, retry")
	}
	return nil
}
