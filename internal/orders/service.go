package orders

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// Service exposes order placement and the store-side order lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Save(ctx context.Context, order models.Order) (bool, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ByStore(ctx context.Context, storeID int) ([]models.Order, error)
	ByPhone(ctx context.Context, phone string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status enums.OrderStatus, reason *string) (*models.Order, error)
	Accept(ctx context.Context, id string) (*models.Order, error)
	AcceptWithBilling(ctx context.Context, id string, input BillingInput) (*models.Order, error)
	Reject(ctx context.Context, id string, reason string) (*models.Order, error)
	Deliver(ctx context.Context, id string) (*models.Order, error)
	UpdateAIVerification(ctx context.Context, id string, verification models.AIVerification) (*models.Order, error)
}

// ServiceParams wires order dependencies. Notifier may be nil.
type ServiceParams struct {
	Repo     Repository
	Stores   StoreDirectory
	Notifier NotificationSender
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	stores   StoreDirectory
	notifier NotificationSender
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order repository required")
	}
	if params.Stores == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store directory required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		stores:   params.Stores,
		notifier: params.Notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	in := input.normalized()
	if in.StoreID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id must be positive")
	}
	orderType, err := enums.ParseOrderType(string(in.OrderType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type")
	}

	now := s.now().UTC()
	order := models.Order{
		ID:               NewOrderID(now),
		StoreID:          in.StoreID,
		ImageData:        in.ImageData,
		PrescriptionText: in.PrescriptionText,
		Note:             in.Note,
		Address:          in.Address,
		Phone:            in.Phone,
		OrderType:        orderType,
		Status:           enums.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	store, err := s.stores.FindByID(ctx, in.StoreID)
	switch {
	case err != nil:
		s.logg.Warn(s.logg.WithError(ctx, err), "store lookup failed, order saved without store details")
	case store == nil:
		s.logg.Warn(s.logg.WithStoreID(ctx, in.StoreID), "order placed against unknown store")
	default:
		order.StoreName = store.Name
		order.StoreWhatsApp = store.WhatsApp
	}

	if _, err := s.Save(ctx, order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Save is idempotent on order id. Store and admin notifications are raised
// only when the order is new.
func (s *service) Save(ctx context.Context, order models.Order) (bool, error) {
	if strings.TrimSpace(order.ID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	created, err := s.repo.Save(ctx, order)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	if !created {
		return false, nil
	}

	customer := order.Phone
	if customer == "" {
		customer = "Customer"
	}
	storeName := order.StoreName
	if storeName == "" {
		storeName = "Store"
	}
	s.notify(ctx, notifications.AddInput{
		Role:     enums.NotificationRoleStore,
		TargetID: strconv.Itoa(order.StoreID),
		Title:    "New Order Received!",
		Message:  fmt.Sprintf("Order #%s from %s", order.ID, customer),
		Type:     enums.NotificationTypeSuccess,
	})
	s.notify(ctx, notifications.AddInput{
		Role:    enums.NotificationRoleAdmin,
		Title:   "New Order Placed",
		Message: fmt.Sprintf("Order #%s for %s", order.ID, storeName),
		Type:    enums.NotificationTypeInfo,
	})
	return true, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// List returns orders newest first.
func (s *service) List(ctx context.Context) ([]models.Order, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (s *service) ByStore(ctx context.Context, storeID int) ([]models.Order, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(items))
	for _, o := range items {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

// ByPhone lists a customer's orders by the phone they ordered with.
func (s *service) ByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0)
	for _, o := range items {
		if o.Phone == phone {
			out = append(out, o)
		}
	}
	return out, nil
}

// UpdateStatus moves an order along its lifecycle. The reason pointer is
// stored as given when non-nil; callers that reject on behalf of a person go
// through Reject, which requires one.
func (s *service) UpdateStatus(ctx context.Context, id string, status enums.OrderStatus, reason *string) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	current, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"order cannot move from %s to %s", current.Status, status)
	}

	fields := map[string]any{
		"status":    status,
		"updatedAt": s.now().UTC(),
	}
	if reason != nil {
		fields["rejectionReason"] = *reason
	}
	updated, err := s.patch(ctx, current.ID, fields)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, *updated, reason)
	return updated, nil
}

func (s *service) Accept(ctx context.Context, id string) (*models.Order, error) {
	return s.UpdateStatus(ctx, id, enums.OrderStatusAccepted, nil)
}

func (s *service) Deliver(ctx context.Context, id string) (*models.Order, error) {
	return s.UpdateStatus(ctx, id, enums.OrderStatusDelivered, nil)
}

// Reject accepts a reply code (R1..R5) or free text as the reason.
func (s *service) Reject(ctx context.Context, id string, reason string) (*models.Order, error) {
	label := enums.ResolveRejectionReason(reason)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	return s.UpdateStatus(ctx, id, enums.OrderStatusRejected, &label)
}

// AcceptWithBilling attaches a bill and accepts a pending order. Billing is
// validated before anything is written and can be attached once.
func (s *service) AcceptWithBilling(ctx context.Context, id string, input BillingInput) (*models.Order, error) {
	now := s.now().UTC()
	billing, err := ComputeBilling(input, now)
	if err != nil {
		return nil, err
	}
	current, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Billing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already billed")
	}
	if current.Status != enums.OrderStatusPending {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"only pending orders can be billed, order is %s", current.Status)
	}

	updated, err := s.patch(ctx, current.ID, map[string]any{
		"status":    enums.OrderStatusAccepted,
		"billing":   billing,
		"updatedAt": now,
	})
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, *updated, nil)
	return updated, nil
}

func (s *service) UpdateAIVerification(ctx context.Context, id string, verification models.AIVerification) (*models.Order, error) {
	if verification.Confidence < 0 || verification.Confidence > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "confidence must be between 0 and 1")
	}
	if verification.CheckedAt.IsZero() {
		verification.CheckedAt = s.now().UTC()
	}
	return s.patch(ctx, strings.TrimSpace(id), map[string]any{"aiVerification": verification})
}

// current loads the order a following patch will apply to.
func (s *service) current(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.FindCurrent(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) patch(ctx context.Context, id string, fields map[string]any) (*models.Order, error) {
	updated, err := s.repo.Patch(ctx, id, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	if updated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return updated, nil
}

func (s *service) notifyCustomer(ctx context.Context, order models.Order, reason *string) {
	if order.Phone == "" {
		return
	}
	message := fmt.Sprintf("Your order #%s has been %s.", order.ID, order.Status)
	if reason != nil && *reason != "" {
		message += " Reason: " + *reason
	}
	kind := enums.NotificationTypeSuccess
	if order.Status == enums.OrderStatusRejected {
		kind = enums.NotificationTypeError
	}
	s.notify(ctx, notifications.AddInput{
		Role:     enums.NotificationRoleUser,
		TargetID: order.Phone,
		Title:    "Order " + order.Status.Title(),
		Message:  message,
		Type:     kind,
	})
}

func (s *service) notify(ctx context.Context, input notifications.AddInput) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Add(ctx, input); err != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "order notification not recorded")
	}
}
