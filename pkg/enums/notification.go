package enums

import "fmt"

// NotificationType is the severity tag rendered on a notification.
type NotificationType string

const (
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSuccess,
	NotificationTypeInfo,
	NotificationTypeWarning,
	NotificationTypeError,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType. Blank input maps to info.
func ParseNotificationType(value string) (NotificationType, error) {
	if value == "" {
		return NotificationTypeInfo, nil
	}
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationRole scopes who a notification targets.
type NotificationRole string

const (
	NotificationRoleAdmin NotificationRole = "admin"
	NotificationRoleStore NotificationRole = "store"
	NotificationRoleUser  NotificationRole = "user"
)

// AdminTarget is the constant target identifier for admin notifications.
const AdminTarget = "admin"

// IsValid reports whether the role is known.
func (r NotificationRole) IsValid() bool {
	switch r {
	case NotificationRoleAdmin, NotificationRoleStore, NotificationRoleUser:
		return true
	}
	return false
}

// ParseNotificationRole converts raw input into a NotificationRole.
func ParseNotificationRole(value string) (NotificationRole, error) {
	role := NotificationRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid notification role %q", value)
	}
	return role, nil
}
