package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Repository persists customers in the users collection.
type Repository interface {
	List(ctx context.Context) ([]models.User, error)
	// Find returns the first user matching pred, consulting the primary
	// store first and the device cache second.
	Find(ctx context.Context, pred func(models.User) bool) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user models.User) (bool, error)
	UpdateAddress(ctx context.Context, id int64, address string) (*models.User, error)
}

type repository struct {
	store docstore.Store
	cache docstore.Store
	logg  *logger.Logger
}

// NewRepository binds user persistence to the syncing store. cache is the
// device-local store consulted when the primary read has no match; it may be
// nil.
func NewRepository(store, cache docstore.Store, logg *logger.Logger) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &repository{store: store, cache: cache, logg: logg}, nil
}

func (r *repository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, r.store)
}

func (r *repository) Find(ctx context.Context, pred func(models.User) bool) (*models.User, error) {
	sources := []docstore.Store{r.store}
	if r.cache != nil {
		sources = append(sources, r.cache)
	}
	for _, src := range sources {
		items, err := r.list(ctx, src)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if pred(items[i]) {
				return &items[i], nil
			}
		}
	}
	return nil, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionUsers, strconv.FormatInt(id, 10))
	if err != nil || doc == nil {
		return nil, err
	}
	var u models.User
	if err := docstore.Decode(*doc, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, user models.User) (bool, error) {
	doc, err := docstore.Encode(user)
	if err != nil {
		return false, err
	}
	return r.store.Create(ctx, docstore.CollectionUsers, doc)
}

func (r *repository) UpdateAddress(ctx context.Context, id int64, address string) (*models.User, error) {
	raw, err := docstore.Patch(map[string]any{"address": address})
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Merge(ctx, docstore.CollectionUsers, strconv.FormatInt(id, 10), raw)
	if err != nil || doc == nil {
		return nil, err
	}
	var u models.User
	if err := docstore.Decode(*doc, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) list(ctx context.Context, src docstore.Store) ([]models.User, error) {
	docs, err := src.All(ctx, docstore.CollectionUsers)
	if err != nil {
		return nil, err
	}
	items, skipped := docstore.DecodeAll[models.User](docs)
	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "skipped", skipped), "malformed users ignored")
	}
	return items, nil
}
