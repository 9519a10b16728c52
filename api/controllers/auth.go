package controllers

import (
	"net/http"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/api/validators"
	"github.com/angelmondragon/medicarehub-backend/internal/credentials"
	"github.com/angelmondragon/medicarehub-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

type credentialLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin marks the current tab as admin when the credential matches.
func AdminLogin(creds credentials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creds == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credentials service unavailable"))
			return
		}
		sess, err := currentSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body credentialLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := creds.ValidateAdmin(r.Context(), body.Username, body.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := sess.SetAdminLoggedIn(r.Context(), true); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write session"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"admin": true})
	}
}

// StoreLogin binds the current tab to the store the credential belongs to.
func StoreLogin(creds credentials.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creds == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store login unavailable"))
			return
		}
		sess, err := currentSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body credentialLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cred, err := creds.ValidateStore(r.Context(), body.Username, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := storeSvc.GetByID(r.Context(), cred.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := sess.SetLoggedStore(r.Context(), store.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write session"))
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// Logout clears the store and admin login of the current tab. The customer
// login is device-wide and has its own endpoint.
func Logout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := sess.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session"))
			return
		}
		responses.WriteStatus(w, http.StatusNoContent)
	}
}

// SessionState reports every flag of the current tab.
func SessionState(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := currentSession(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		a, err := currentActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		guest, err := sess.GuestMode(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
			return
		}
		guestPhone, _, err := sess.GuestPhone(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
			return
		}
		current, hasCurrent, err := sess.CurrentStore(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
			return
		}

		payload := map[string]any{
			"admin":      a.Admin,
			"guest":      guest,
			"guestPhone": guestPhone,
		}
		if a.HasStore {
			payload["storeId"] = a.StoreID
		}
		if a.HasUser {
			payload["userId"] = a.UserID
		}
		if hasCurrent {
			payload["currentStoreId"] = current
		}
		responses.WriteSuccess(w, payload)
	}
}
