package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/google/uuid"
)

type NotificationRepository interface {
	ListNotifications(ctx context.Context, recipientID uint, unreadOnly bool, req pagination.Request) (*pagination.Page[models.Notification], error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, recipientID uint, at time.Time) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID uint, at time.Time) (int64, error)
	CountUnreadNotifications(ctx context.Context, recipientID uint) (int64, error)
}

// NotificationService exposes a user's stored notifications.
type NotificationService struct {
	repo NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

func (s *NotificationService) List(ctx context.Context, user *models.User, unreadOnly bool, req pagination.Request) (*pagination.Page[models.Notification], error) {
	page, err := s.repo.ListNotifications(ctx, user.ID, unreadOnly, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return page, nil
}

// MarkRead marks one of the user's notifications read. Notifications of
// other users yield ErrForbidden.
func (s *NotificationService) MarkRead(ctx context.Context, user *models.User, id uuid.UUID) (*models.Notification, error) {
	return s.repo.MarkNotificationRead(ctx, id, user.ID, s.now().UTC())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, user *models.User) (int64, error) {
	n, err := s.repo.MarkAllNotificationsRead(ctx, user.ID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, user *models.User) (int64, error) {
	return s.repo.CountUnreadNotifications(ctx, user.ID)
}
