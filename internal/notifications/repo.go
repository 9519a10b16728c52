package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Repository persists notifications in the notifications collection.
type Repository interface {
	List(ctx context.Context) ([]models.Notification, error)
	Create(ctx context.Context, n models.Notification) error
	MarkRead(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
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

func (r *repository) List(ctx context.Context) ([]models.Notification, error) {
	docs, err := r.store.All(ctx, docstore.CollectionNotifications)
	if err != nil {
		return nil, err
	}
	items, skipped := docstore.DecodeAll[models.Notification](docs)
	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "skipped", skipped), "malformed notifications ignored")
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, n models.Notification) error {
	doc, err := docstore.Encode(n)
	if err != nil {
		return err
	}
	_, err = r.store.Create(ctx, docstore.CollectionNotifications, doc)
	return err
}

func (r *repository) MarkRead(ctx context.Context, id string) (bool, error) {
	patch, err := docstore.Patch(map[string]any{"read": true})
	if err != nil {
		return false, err
	}
	doc, err := r.store.Merge(ctx, docstore.CollectionNotifications, id, patch)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, docstore.CollectionNotifications, id)
}
