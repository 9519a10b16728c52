package notifications

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
	"github.com/google/uuid"
)

// Service defines notification create/list/read operations.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.Notification, error)
	ListFor(ctx context.Context, role enums.NotificationRole, target string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, role enums.NotificationRole, target string) (int, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// AddInput describes a new notification. Admin notifications ignore TargetID.
type AddInput struct {
	Role     enums.NotificationRole
	TargetID string
	Title    string
	Message  string
	Type     enums.NotificationType
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.Notification, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification role")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}
	kind, err := enums.ParseNotificationType(string(input.Type))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification type")
	}
	target := strings.TrimSpace(input.TargetID)
	if input.Role == enums.NotificationRoleAdmin {
		target = enums.AdminTarget
	}
	if target == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification target required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate notification id")
	}

	n := models.Notification{
		ID:        id.String(),
		Role:      input.Role,
		TargetID:  target,
		Title:     title,
		Message:   input.Message,
		Type:      kind,
		Read:      false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}
	return &n, nil
}

func (s *service) ListFor(ctx context.Context, role enums.NotificationRole, target string) ([]models.Notification, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification role")
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	out := make([]models.Notification, 0, len(all))
	for _, n := range all {
		if n.Targets(role, target) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *service) UnreadCount(ctx context.Context, role enums.NotificationRole, target string) (int, error) {
	items, err := s.ListFor(ctx, role, target)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	return nil
}
