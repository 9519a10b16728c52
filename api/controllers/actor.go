package controllers

import (
	"context"
	"strconv"

	"github.com/angelmondragon/medicarehub-backend/api/middleware"
	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// actor is what the current tab is logged in as.
type actor struct {
	Admin    bool
	StoreID  int
	HasStore bool
	UserID   int64
	HasUser  bool
}

func currentSession(ctx context.Context) (*session.Session, error) {
	sess, ok := middleware.SessionFromContext(ctx)
	if !ok || sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return sess, nil
}

func currentActor(ctx context.Context) (actor, error) {
	sess, err := currentSession(ctx)
	if err != nil {
		return actor{}, err
	}
	var a actor
	if a.Admin, err = sess.AdminLoggedIn(ctx); err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	if a.StoreID, a.HasStore, err = sess.LoggedStore(ctx); err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	if a.UserID, a.HasUser, err = sess.LoggedUser(ctx); err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	return a, nil
}

// canManageOrder admits admins and the store the order was placed with.
func (a actor) canManageOrder(order *models.Order) error {
	if a.Admin {
		return nil
	}
	if a.HasStore && order != nil && order.StoreID == a.StoreID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
}

// canManageStore admits admins and the logged-in store itself.
func (a actor) canManageStore(storeID int) error {
	if a.Admin || (a.HasStore && a.StoreID == storeID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "store login required")
}

func storeTarget(storeID int) string {
	return strconv.Itoa(storeID)
}

// audience picks the inbox a tab reads. A store login wins over admin so a
// tab logged in as both sees the store's own notifications.
func (a actor) audience(requested enums.NotificationRole) (enums.NotificationRole, error) {
	switch requested {
	case enums.NotificationRoleAdmin:
		if a.Admin {
			return requested, nil
		}
	case enums.NotificationRoleStore:
		if a.HasStore {
			return requested, nil
		}
	case enums.NotificationRoleUser:
		if a.HasUser {
			return requested, nil
		}
	case "":
		switch {
		case a.HasStore:
			return enums.NotificationRoleStore, nil
		case a.Admin:
			return enums.NotificationRoleAdmin, nil
		case a.HasUser:
			return enums.NotificationRoleUser, nil
		}
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return "", pkgerrors.New(pkgerrors.CodeForbidden, "not logged in for that inbox")
}
