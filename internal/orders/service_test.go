package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/internal/seed"
	"github.com/angelmondragon/medicarehub-backend/internal/stores"
	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/docstore/docstoretest"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	inputs []notifications.AddInput
	err    error
}

func (r *recordingNotifier) Add(_ context.Context, input notifications.AddInput) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Notification{Title: input.Title}, nil
}

func (r *recordingNotifier) recorded() []notifications.AddInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifications.AddInput, len(r.inputs))
	copy(out, r.inputs)
	return out
}

type harness struct {
	svc      Service
	fx       docstoretest.Fixture
	notifier *recordingNotifier
}

// newHarness wires the service over a seeded local cache and a remote that
// fails every call.
func newHarness(t *testing.T) harness {
	t.Helper()
	return newHarnessWith(t, docstoretest.Unavailable{})
}

func newHarnessWith(t *testing.T, remote docstore.Store) harness {
	t.Helper()
	ctx := context.Background()
	fx := docstoretest.New(t, remote)
	require.NoError(t, seed.Stores(ctx, seed.Params{Local: fx.Local}))

	storeRepo, err := stores.NewRepository(fx.Local, nil)
	require.NoError(t, err)
	repo, err := NewRepository(fx.Syncing, nil)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{Repo: repo, Stores: storeRepo, Notifier: notifier})
	require.NoError(t, err)
	return harness{svc: svc, fx: fx, notifier: notifier}
}

func (h harness) place(t *testing.T, phone string) *models.Order {
	t.Helper()
	order, err := h.svc.Create(context.Background(), CreateOrderInput{
		StoreID:   1,
		ImageData: "data:image/png;base64,AAAA",
		Note:      "paracetamol",
		Address:   "12 High Road",
		Phone:     phone,
		OrderType: enums.OrderTypeUrgent,
	})
	require.NoError(t, err)
	return order
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateReturnsPendingOrderRetrievableByID(t *testing.T) {
	h := newHarness(t)
	order := h.place(t, "9876543210")

	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Nil(t, order.RejectionReason)
	require.Nil(t, order.AIVerification)
	require.Equal(t, "Raja Medicals", order.StoreName)
	require.Equal(t, "918148993165", order.StoreWhatsApp)
	require.True(t, strings.HasPrefix(order.ID, "ORD"))

	got, err := h.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
	require.Equal(t, enums.OrderStatusPending, got.Status)
}

func TestCreateRaisesStoreAndAdminNotifications(t *testing.T) {
	h := newHarness(t)
	order := h.place(t, "")

	recorded := h.notifier.recorded()
	require.Len(t, recorded, 2)
	require.Equal(t, enums.NotificationRoleStore, recorded[0].Role)
	require.Equal(t, "1", recorded[0].TargetID)
	require.Equal(t, "Order #"+order.ID+" from Customer", recorded[0].Message)
	require.Equal(t, enums.NotificationRoleAdmin, recorded[1].Role)
	require.Equal(t, enums.NotificationTypeInfo, recorded[1].Type)
}

func TestSaveTwiceKeepsOneEntryAndNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := models.Order{ID: "ORD1700000000000ABCDE", StoreID: 2, Status: enums.OrderStatusPending}

	created, err := h.svc.Save(ctx, order)
	require.NoError(t, err)
	require.True(t, created)
	created, err = h.svc.Save(ctx, order)
	require.NoError(t, err)
	require.False(t, created)

	docs, err := h.fx.Local.All(ctx, docstore.CollectionOrders)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, h.notifier.recorded(), 2)
}

func TestCreateValidatesInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Create(context.Background(), CreateOrderInput{StoreID: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.Create(context.Background(), CreateOrderInput{StoreID: 1, OrderType: "later"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateToleratesNotifierFailure(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("notifications offline")

	order := h.place(t, "9000000000")
	require.NotEmpty(t, order.ID)
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.place(t, "9876543210")

	_, err := h.svc.Deliver(ctx, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	accepted, err := h.svc.Accept(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAccepted, accepted.Status)

	delivered, err := h.svc.Deliver(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusDelivered, delivered.Status)

	_, err = h.svc.Reject(ctx, order.ID, "R1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	recorded := h.notifier.recorded()
	last := recorded[len(recorded)-1]
	require.Equal(t, enums.NotificationRoleUser, last.Role)
	require.Equal(t, "9876543210", last.TargetID)
	require.Equal(t, "Order Delivered", last.Title)
	require.Equal(t, enums.NotificationTypeSuccess, last.Type)
}

func TestRejectRequiresReason(t *testing.T) {
	h := newHarness(t)
	order := h.place(t, "9876543210")

	_, err := h.svc.Reject(context.Background(), order.ID, "  ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRejectResolvesReasonCodeAndNotifies(t *testing.T) {
	h := newHarness(t)
	order := h.place(t, "9876543210")

	rejected, err := h.svc.Reject(context.Background(), order.ID, "r2")
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	require.Equal(t, "Prescription Unclear", *rejected.RejectionReason)

	recorded := h.notifier.recorded()
	last := recorded[len(recorded)-1]
	require.Equal(t, "Order Rejected", last.Title)
	require.Equal(t, enums.NotificationTypeError, last.Type)
	require.True(t, strings.HasSuffix(last.Message, "Reason: Prescription Unclear"))
}

func TestUpdateStatusStoresNilReason(t *testing.T) {
	h := newHarness(t)
	order := h.place(t, "")

	rejected, err := h.svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusRejected, nil)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRejected, rejected.Status)
	require.Nil(t, rejected.RejectionReason)
}

func TestAcceptWithBilling(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.place(t, "9876543210")

	billed, err := h.svc.AcceptWithBilling(ctx, order.ID, BillingInput{
		TotalAmount:        decimal.NewFromInt(500),
		DiscountPercentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAccepted, billed.Status)
	require.NotNil(t, billed.Billing)
	require.True(t, billed.Billing.FinalAmount.Equal(decimal.RequireFromString("450.00")))
	require.Equal(t, "450.00", billed.Billing.FinalAmount.StringFixed(2))

	_, err = h.svc.AcceptWithBilling(ctx, order.ID, BillingInput{TotalAmount: decimal.NewFromInt(10)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestLifecycleFollowsLocalCopyWhenRemoteLags(t *testing.T) {
	ctx := context.Background()
	remote := docstoretest.NewLagging(t)
	remote.RejectWrites(false)
	h := newHarnessWith(t, remote)
	order := h.place(t, "9876543210")
	remote.RejectWrites(true)

	_, err := h.svc.AcceptWithBilling(ctx, order.ID, BillingInput{TotalAmount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	// the remote still serves the pending copy
	stale, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, stale.Status)

	_, err = h.svc.AcceptWithBilling(ctx, order.ID, BillingInput{TotalAmount: decimal.NewFromInt(999)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	delivered, err := h.svc.Deliver(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	require.Equal(t, "200.00", delivered.Billing.FinalAmount.StringFixed(2))
}

func TestStatusUpdateHydratesRemoteOnlyOrder(t *testing.T) {
	ctx := context.Background()
	remote := docstoretest.NewLagging(t)
	remote.Seed(t, docstore.CollectionOrders, models.Order{ID: "ORD42", StoreID: 1, Status: enums.OrderStatusPending})
	h := newHarnessWith(t, remote)

	accepted, err := h.svc.Accept(ctx, "ORD42")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAccepted, accepted.Status)

	doc, err := h.fx.Local.Get(ctx, docstore.CollectionOrders, "ORD42")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestAcceptWithBillingValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.place(t, "")

	_, err := h.svc.AcceptWithBilling(ctx, order.ID, BillingInput{
		TotalAmount:        decimal.NewFromInt(100),
		DiscountPercentage: decimal.NewFromInt(101),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, got.Status)
	require.Nil(t, got.Billing)
}

func TestComputeBilling(t *testing.T) {
	billedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		total    string
		discount string
		final    string
		code     pkgerrors.Code
	}{
		{name: "ten percent", total: "500", discount: "10", final: "450.00"},
		{name: "no discount", total: "123.45", discount: "0", final: "123.45"},
		{name: "full discount", total: "80", discount: "100", final: "0.00"},
		{name: "rounds half up", total: "10.01", discount: "50", final: "5.01"},
		{name: "zero total", total: "0", discount: "5", code: pkgerrors.CodeValidation},
		{name: "negative discount", total: "10", discount: "-1", code: pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			billing, err := ComputeBilling(BillingInput{
				TotalAmount:        decimal.RequireFromString(tc.total),
				DiscountPercentage: decimal.RequireFromString(tc.discount),
			}, billedAt)
			if tc.code != "" {
				require.True(t, pkgerrors.IsCode(err, tc.code))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.final, billing.FinalAmount.StringFixed(2))
			require.Equal(t, billedAt, billing.BilledAt)
		})
	}
}

func TestUpdateAIVerification(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.place(t, "")

	updated, err := h.svc.UpdateAIVerification(ctx, order.ID, models.AIVerification{Verified: true, Confidence: 0.92, Findings: []string{"signature present"}})
	require.NoError(t, err)
	require.NotNil(t, updated.AIVerification)
	require.True(t, updated.AIVerification.Verified)
	require.False(t, updated.AIVerification.CheckedAt.IsZero())

	_, err = h.svc.UpdateAIVerification(ctx, "ORD-missing", models.AIVerification{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestByStoreFilters(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.place(t, "")
	_, err := h.svc.Save(ctx, models.Order{ID: "ORD2", StoreID: 5, Status: enums.OrderStatusPending})
	require.NoError(t, err)

	mine, err := h.svc.ByStore(ctx, 5)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "ORD2", mine[0].ID)

	all, err := h.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestByPhone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.place(t, "9000000001")
	h.place(t, "9000000002")

	mine, err := h.svc.ByPhone(ctx, " 9000000002 ")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "9000000002", mine[0].Phone)

	_, err = h.svc.ByPhone(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewOrderIDShape(t *testing.T) {
	now := time.UnixMilli(1767225600000)
	id := NewOrderID(now)
	require.True(t, strings.HasPrefix(id, "ORD1767225600000"))
	suffix := strings.TrimPrefix(id, "ORD1767225600000")
	require.Len(t, suffix, 5)
	require.Equal(t, strings.ToUpper(suffix), suffix)
}
