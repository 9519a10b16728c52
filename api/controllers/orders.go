package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/api/validators"
	"github.com/angelmondragon/medicarehub-backend/internal/orders"
	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/internal/users"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

type createOrderRequest struct {
	StoreID          int             `json:"storeId" validate:"omitempty,gt=0"`
	ImageData        string          `json:"imageData"`
	PrescriptionText string          `json:"prescriptionText" validate:"max=4000"`
	Note             string          `json:"note" validate:"max=1000"`
	Address          string          `json:"address" validate:"max=500"`
	Phone            string          `json:"phone" validate:"omitempty,phone"`
	OrderType        enums.OrderType `json:"orderType" validate:"required"`
}

// OrderCreate places an order. The store defaults to the one the tab is
// browsing. A logged-in customer's phone and address fill blanks; without
// a login the phone becomes a guest account for this tab.
func OrderCreate(svc orders.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || userSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sess, err := currentSession(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := orders.CreateOrderInput{
			StoreID:          body.StoreID,
			ImageData:        body.ImageData,
			PrescriptionText: body.PrescriptionText,
			Note:             body.Note,
			Address:          body.Address,
			Phone:            body.Phone,
			OrderType:        body.OrderType,
		}

		if input.StoreID == 0 {
			current, ok, err := sess.CurrentStore(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
				return
			}
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "storeId is required when no store is selected"))
				return
			}
			input.StoreID = current
		}

		if err := fillCustomer(ctx, sess, userSvc, &input, logg); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func fillCustomer(ctx context.Context, sess *session.Session, userSvc users.Service, input *orders.CreateOrderInput, logg *logger.Logger) error {
	userID, loggedIn, err := sess.LoggedUser(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	if loggedIn {
		user, err := userSvc.GetByID(ctx, userID)
		switch {
		case err == nil:
			if strings.TrimSpace(input.Phone) == "" {
				input.Phone = user.Phone
			}
			if strings.TrimSpace(input.Address) == "" {
				input.Address = user.Address
			}
			return nil
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			// device login points at a user that no longer exists
			if err := sess.LogoutUser(ctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
			}
		default:
			return err
		}
	}

	if strings.TrimSpace(input.Phone) == "" {
		phone, ok, err := sess.GuestPhone(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
		}
		if !ok {
			return nil
		}
		input.Phone = phone
	}

	if _, err := userSvc.FindOrCreateByPhone(ctx, input.Phone, strings.TrimSpace(input.Address)); err != nil {
		if logg != nil {
			logg.Warn(logg.WithError(ctx, err), "guest account not recorded")
		}
	}
	if err := sess.SetGuestMode(ctx, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write session")
	}
	if err := sess.SetGuestPhone(ctx, strings.TrimSpace(input.Phone)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write session")
	}
	return nil
}

// OrderGet is public; order ids are the customer's tracking handle.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := validators.ParsePathString(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderList returns every order, optionally filtered by ?status=.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		var status enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = parsed
		}
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if status != "" {
			filtered := make([]models.Order, 0, len(items))
			for _, o := range items {
				if o.Status == status {
					filtered = append(filtered, o)
				}
			}
			items = filtered
		}
		responses.WriteSuccess(w, items)
	}
}

// managedOrder loads the addressed order and checks the caller may act on it.
func managedOrder(r *http.Request, svc orders.Service) (string, error) {
	id, err := validators.ParsePathString(r, "orderId")
	if err != nil {
		return "", err
	}
	a, err := currentActor(r.Context())
	if err != nil {
		return "", err
	}
	order, err := svc.Get(r.Context(), id)
	if err != nil {
		return "", err
	}
	if err := a.canManageOrder(order); err != nil {
		return "", err
	}
	return id, nil
}

type orderTransition func(ctx context.Context, svc orders.Service, id string) (*models.Order, error)

func transitionHandler(svc orders.Service, logg *logger.Logger, apply orderTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := managedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := apply(r.Context(), svc, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderAccept(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(ctx context.Context, svc orders.Service, id string) (*models.Order, error) {
		return svc.Accept(ctx, id)
	})
}

func OrderDeliver(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(ctx context.Context, svc orders.Service, id string) (*models.Order, error) {
		return svc.Deliver(ctx, id)
	})
}

type rejectOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// OrderReject takes a catalog code (R1..R5) or free text.
func OrderReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := managedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Reject(r.Context(), id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type billingRequest struct {
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

func OrderAcceptWithBilling(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := managedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body billingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.AcceptWithBilling(r.Context(), id, orders.BillingInput{
			TotalAmount:        body.TotalAmount,
			DiscountPercentage: body.DiscountPercentage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type aiVerificationRequest struct {
	Verified   bool     `json:"verified"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Findings   []string `json:"findings"`
}

// OrderAIVerification attaches an externally produced prescription check.
func OrderAIVerification(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := managedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body aiVerificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateAIVerification(r.Context(), id, models.AIVerification{
			Verified:   body.Verified,
			Confidence: body.Confidence,
			Findings:   body.Findings,
			CheckedAt:  time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func RejectionReasons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, enums.RejectionReasons())
	}
}
