package stores

import (
	"context"
	"fmt"
	"strconv"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Repository reads and writes the stores collection.
type Repository interface {
	List(ctx context.Context) ([]models.Store, error)
	FindByID(ctx context.Context, id int) (*models.Store, error)
	// KnownIDs lists every store id held by any backend, including ones the
	// remote has not caught up on.
	KnownIDs(ctx context.Context) ([]int, error)
	Create(ctx context.Context, store models.Store) (bool, error)
	Patch(ctx context.Context, id int, patch models.StorePatch) (*models.Store, error)
	Delete(ctx context.Context, id int) error
}

type repository struct {
	store docstore.Store
	logg  *logger.Logger
}

// NewRepository binds the repository to a document store.
func NewRepository(store docstore.Store, logg *logger.Logger) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &repository{store: store, logg: logg}, nil
}

func (r *repository) List(ctx context.Context) ([]models.Store, error) {
	docs, err := r.store.All(ctx, docstore.CollectionStores)
	if err != nil {
		return nil, err
	}
	items, skipped := docstore.DecodeAll[models.Store](docs)
	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "skipped", skipped), "malformed stores ignored")
	}
	return items, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*models.Store, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionStores, strconv.Itoa(id))
	if err != nil || doc == nil {
		return nil, err
	}
	var s models.Store
	if err := docstore.Decode(*doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) KnownIDs(ctx context.Context) ([]int, error) {
	docs, err := docstore.Union(ctx, r.store, docstore.CollectionStores)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(docs))
	for _, doc := range docs {
		id, err := strconv.Atoi(doc.ID)
		if err != nil {
			r.logg.Warn(r.logg.WithField(r.logg.WithCollection(ctx, docstore.CollectionStores), "id", doc.ID), "non-numeric store id ignored")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *repository) Create(ctx context.Context, s models.Store) (bool, error) {
	doc, err := docstore.Encode(s)
	if err != nil {
		return false, err
	}
	return r.store.Create(ctx, docstore.CollectionStores, doc)
}

func (r *repository) Patch(ctx context.Context, id int, patch models.StorePatch) (*models.Store, error) {
	raw, err := docstore.Patch(patch)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Merge(ctx, docstore.CollectionStores, strconv.Itoa(id), raw)
	if err != nil || doc == nil {
		return nil, err
	}
	var s models.Store
	if err := docstore.Decode(*doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	return r.store.Delete(ctx, docstore.CollectionStores, strconv.Itoa(id))
}
