package orders

import (
	"context"

	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Repository persists orders in the orders collection.
type Repository interface {
	List(ctx context.Context) ([]models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	// FindCurrent returns the copy Patch will update.
	FindCurrent(ctx context.Context, id string) (*models.Order, error)
	// Save inserts order unless the id already exists and reports whether it
	// was new.
	Save(ctx context.Context, order models.Order) (bool, error)
	Patch(ctx context.Context, id string, fields map[string]any) (*models.Order, error)
}

// StoreDirectory resolves the store an order is placed against.
type StoreDirectory interface {
	FindByID(ctx context.Context, id int) (*models.Store, error)
}

// NotificationSender records notifications raised by order events.
type NotificationSender interface {
	Add(ctx context.Context, input notifications.AddInput) (*models.Notification, error)
}
