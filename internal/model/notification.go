package model

import "gorm.io/datatypes"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationInvitation NotificationType = "invitation" // 签约邀请
	NotificationMessage    NotificationType = "message"    // 普通消息
	NotificationAlert      NotificationType = "alert"      // 系统提醒
	NotificationExhibition NotificationType = "exhibition" // 展览通知
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationInvitation, NotificationMessage, NotificationAlert, NotificationExhibition:
		return true
	}
	return false
}

// NotificationStatus 通知状态
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationRead     NotificationStatus = "read"
	NotificationAccepted NotificationStatus = "accepted"
	NotificationDeclined NotificationStatus = "declined"
)

func (s NotificationStatus) IsValid() bool {
	switch s {
	case NotificationPending, NotificationRead, NotificationAccepted, NotificationDeclined:
		return true
	}
	return false
}

// Notification 用户间通知，只按用户 ID 引用收发双方
type Notification struct {
	LedgerModel
	SenderID   int64              `gorm:"not null;index" json:"sender_id"`
	ReceiverID int64              `gorm:"not null;index:idx_notifications_receiver_status,priority:1" json:"receiver_id"`
	Type       NotificationType   `gorm:"size:16;not null" json:"type"`
	Status     NotificationStatus `gorm:"size:16;not null;default:pending;index:idx_notifications_receiver_status,priority:2" json:"status"`
	Content    string             `gorm:"type:text;not null" json:"content"`
	Payload    datatypes.JSONMap  `json:"payload,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
