package db

import (
	"context"
	"time"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const notificationResource = "Notification"

func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repository) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	result := r.db.WithContext(ctx).First(&n, "id = ?", id)
	if result.Error != nil {
		return nil, notFound(result.Error, notificationResource)
	}
	return &n, nil
}

// ListNotifications returns the recipient's notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, recipientID uint, unreadOnly bool, req pagination.Request) (*pagination.Page[models.Notification], error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
		if unreadOnly {
			query = query.Where("read_at IS NULL")
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]models.Notification, 0, req.PerPage)
	query := scoped().Order("created_at DESC").Order("id")
	if err := pagination.Apply(query, req).Find(&items).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[models.Notification]{Items: items, Total: total, Request: req}, nil
}

// MarkNotificationRead sets read_at on an unread notification owned by
// recipientID and returns the stored record. A notification that is already
// read is returned unchanged.
func (r *Repository) MarkNotificationRead(ctx context.Context, id uuid.UUID, recipientID uint, at time.Time) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, "id = ?", id).Error; err != nil {
			return notFound(err, notificationResource)
		}
		if n.RecipientID != recipientID {
			return e.ErrForbidden
		}
		if n.IsRead() {
			return nil
		}
		readAt := at.UTC()
		result := tx.Model(&models.Notification{}).
			Where("id = ? AND read_at IS NULL", id).
			Update("read_at", readAt)
		if result.Error != nil {
			return result.Error
		}
		return tx.First(&n, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllNotificationsRead marks every unread notification of the recipient
// read and returns how many changed.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, recipientID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", at.UTC())
	return result.RowsAffected, result.Error
}

func (r *Repository) CountUnreadNotifications(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}
