package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/api/validators"
	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/internal/users"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

// inbox resolves the role and target the caller reads notifications as.
// ?role= picks one inbox when a tab holds several logins.
func inbox(r *http.Request, userSvc users.Service) (enums.NotificationRole, string, error) {
	ctx := r.Context()
	a, err := currentActor(ctx)
	if err != nil {
		return "", "", err
	}
	role, err := a.audience(enums.NotificationRole(strings.TrimSpace(r.URL.Query().Get("role"))))
	if err != nil {
		return "", "", err
	}
	switch role {
	case enums.NotificationRoleAdmin:
		return role, enums.AdminTarget, nil
	case enums.NotificationRoleStore:
		return role, storeTarget(a.StoreID), nil
	}
	phone, err := userPhone(ctx, userSvc, a.UserID)
	if err != nil {
		return "", "", err
	}
	return role, phone, nil
}

func userPhone(ctx context.Context, userSvc users.Service, id int64) (string, error) {
	if userSvc == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable")
	}
	user, err := userSvc.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Phone, nil
}

func NotificationList(svc notifications.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		role, target, err := inbox(r, userSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultInboxLimit, 1, maxInboxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListFor(r.Context(), role, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// items are newest first
		if len(items) > limit {
			items = items[:limit]
		}
		responses.WriteSuccess(w, items)
	}
}

func NotificationUnreadCount(svc notifications.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		role, target, err := inbox(r, userSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.UnreadCount(r.Context(), role, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"unread": count})
	}
}

// ownedNotification checks that the addressed notification is in the
// caller's inbox, so one store cannot clear another's.
func ownedNotification(r *http.Request, svc notifications.Service, userSvc users.Service) (string, error) {
	id, err := validators.ParsePathString(r, "notificationId")
	if err != nil {
		return "", err
	}
	role, target, err := inbox(r, userSvc)
	if err != nil {
		return "", err
	}
	items, err := svc.ListFor(r.Context(), role, target)
	if err != nil {
		return "", err
	}
	for _, n := range items {
		if n.ID == id {
			return id, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
}

func NotificationMarkRead(svc notifications.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		id, err := ownedNotification(r, svc, userSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteStatus(w, http.StatusNoContent)
	}
}

func NotificationDelete(svc notifications.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		id, err := ownedNotification(r, svc, userSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteStatus(w, http.StatusNoContent)
	}
}
