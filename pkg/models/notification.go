package models

import (
	"time"

	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
)

// Notification is a persisted message for an admin, a store, or a customer.
// TargetID is "admin", a store id, or a phone number depending on Role.
type Notification struct {
	ID        string                 `json:"id"`
	Role      enums.NotificationRole `json:"role"`
	TargetID  string                 `json:"userId"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      enums.NotificationType `json:"type"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Targets reports whether the notification belongs to role/target. Admin
// notifications are shared by every admin session.
func (n Notification) Targets(role enums.NotificationRole, target string) bool {
	if n.Role != role {
		return false
	}
	return role == enums.NotificationRoleAdmin || n.TargetID == target
}
