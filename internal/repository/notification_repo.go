package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hualang_api/internal/model"
)

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	UpdateStatus(ctx context.Context, id int64, status model.NotificationStatus) error
	Delete(ctx context.Context, id int64) error
	// ListUnread 接收者的待处理通知，按时间倒序
	ListUnread(ctx context.Context, receiverID int64) ([]model.Notification, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &n, err
}

func (r *notificationRepo) UpdateStatus(ctx context.Context, id int64, status model.NotificationStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *notificationRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Notification{}, id).Error
}

func (r *notificationRepo) ListUnread(ctx context.Context, receiverID int64) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, model.NotificationPending).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}
