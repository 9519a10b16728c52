package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

type repository struct {
	store docstore.Store
	logg  *logger.Logger
}

// NewRepository binds order persistence to a document store.
func NewRepository(store docstore.Store, logg *logger.Logger) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &repository{store: store, logg: logg}, nil
}

func (r *repository) List(ctx context.Context) ([]models.Order, error) {
	docs, err := r.store.All(ctx, docstore.CollectionOrders)
	if err != nil {
		return nil, err
	}
	items, skipped := docstore.DecodeAll[models.Order](docs)
	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "skipped", skipped), "malformed orders ignored")
	}
	return items, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionOrders, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return decodeOrder(*doc)
}

func (r *repository) FindCurrent(ctx context.Context, id string) (*models.Order, error) {
	doc, err := docstore.Current(ctx, r.store, docstore.CollectionOrders, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return decodeOrder(*doc)
}

func (r *repository) Save(ctx context.Context, order models.Order) (bool, error) {
	doc, err := docstore.Encode(order)
	if err != nil {
		return false, err
	}
	return r.store.Create(ctx, docstore.CollectionOrders, doc)
}

func (r *repository) Patch(ctx context.Context, id string, fields map[string]any) (*models.Order, error) {
	raw, err := docstore.Patch(fields)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Merge(ctx, docstore.CollectionOrders, id, raw)
	if err != nil || doc == nil {
		return nil, err
	}
	return decodeOrder(*doc)
}

func decodeOrder(doc docstore.Document) (*models.Order, error) {
	var o models.Order
	if err := docstore.Decode(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
