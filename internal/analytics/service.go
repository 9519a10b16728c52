package analytics

import (
	"context"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// OrderLister lists every order.
type OrderLister interface {
	List(ctx context.Context) ([]models.Order, error)
}

// StoreLister lists every store.
type StoreLister interface {
	List(ctx context.Context) ([]models.Store, error)
}

// Service provides the admin analytics report.
type Service interface {
	Report(ctx context.Context) (Report, error)
}

type service struct {
	orders OrderLister
	stores StoreLister
}

// NewService builds an analytics service over the order and store listings.
func NewService(orders OrderLister, stores StoreLister) (Service, error) {
	if orders == nil || stores == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order and store listers required")
	}
	return &service{orders: orders, stores: stores}, nil
}

func (s *service) Report(ctx context.Context) (Report, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return Report{}, err
	}
	stores, err := s.stores.List(ctx)
	if err != nil {
		return Report{}, err
	}
	return Compute(orders, stores), nil
}
