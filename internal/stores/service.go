package stores

import (
	"context"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Service exposes store catalog operations.
type Service interface {
	List(ctx context.Context) ([]models.Store, error)
	GetByID(ctx context.Context, id int) (*models.Store, error)
	Search(ctx context.Context, query string) ([]models.Store, error)
	Open(ctx context.Context) ([]models.Store, error)
	UpdateStatus(ctx context.Context, id int, patch models.StorePatch) (*models.Store, error)
	Add(ctx context.Context, input AddStoreInput) (*models.Store, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

// NewService builds a store service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Store, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*models.Store, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id must be positive")
	}
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get store")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return store, nil
}

// Search matches query case-insensitively against name, area and city. A
// blank query returns every store.
func (s *service) Search(ctx context.Context, query string) ([]models.Store, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(items, query), nil
}

// Filter keeps the stores matching query, preserving order.
func Filter(items []models.Store, query string) []models.Store {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]models.Store, 0, len(items))
	for _, store := range items {
		if matches(store, q) {
			out = append(out, store)
		}
	}
	return out
}

func (s *service) Open(ctx context.Context) ([]models.Store, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Store, 0, len(items))
	for _, store := range items {
		if store.IsOpen {
			out = append(out, store)
		}
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, id int, patch models.StorePatch) (*models.Store, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id must be positive")
	}
	if patch.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no store fields to update")
	}
	updated, err := s.repo.Patch(ctx, id, patch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	if updated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return updated, nil
}

// Add assigns the next integer id after the highest id either backend holds.
// Two processes adding at once can pick the same id; the loser gets a conflict.
func (s *service) Add(ctx context.Context, input AddStoreInput) (*models.Store, error) {
	in := input.normalized()
	if in.Name == "" || in.Area == "" || in.WhatsApp == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, area and whatsapp are required")
	}

	ids, err := s.repo.KnownIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	nextID := 1
	for _, id := range ids {
		if id >= nextID {
			nextID = id + 1
		}
	}

	store := newStore(nextID, in)
	created, err := s.repo.Create(ctx, store)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	if !created {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "store id %d already taken, retry", nextID)
	}
	return &store, nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id must be positive")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}
