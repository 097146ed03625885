package service

import (
	"context"
	"log"
	"strings"

	"hualang_api/internal/model"
	"hualang_api/internal/notify"
	"hualang_api/internal/repository"
)

// EventNotification 推送事件名
const EventNotification = "notification"

// CreateNotificationInput 创建通知参数
type CreateNotificationInput struct {
	ReceiverID int64                  `json:"receiverId" binding:"required"`
	Type       model.NotificationType `json:"type" binding:"required"`
	Content    string                 `json:"content"`
	Payload    map[string]interface{} `json:"payload"`
}

// NotificationService 通知服务
type NotificationService struct {
	uow    *repository.LedgerUnitOfWork
	broker notify.Broker
}

func NewNotificationService(uow *repository.LedgerUnitOfWork, broker notify.Broker) *NotificationService {
	return &NotificationService{uow: uow, broker: broker}
}

// Create 创建普通通知（invitation 走 AffiliationService.Invite）
func (s *NotificationService) Create(ctx context.Context, senderID int64, in *CreateNotificationInput) (*model.Notification, error) {
	if !in.Type.IsValid() {
		return nil, ErrValidation("无效的通知类型")
	}
	if in.Type == model.NotificationInvitation {
		return nil, ErrValidation("签约邀请请使用邀请接口")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrValidation("通知内容不能为空")
	}

	receiver, err := s.uow.Users.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, ErrInternal("查询接收者失败", err)
	}
	if receiver == nil {
		return nil, ErrNotFound("接收者不存在")
	}

	n := &model.Notification{
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Type:       in.Type,
		Status:     model.NotificationPending,
		Content:    content,
		Payload:    in.Payload,
	}
	if err := s.uow.Notifications.Create(ctx, n); err != nil {
		return nil, ErrInternal("创建通知失败", err)
	}
	s.Publish(ctx, n)
	return n, nil
}

// ListUnread 接收者的待处理通知
func (s *NotificationService) ListUnread(ctx context.Context, receiverID int64) ([]model.Notification, error) {
	list, err := s.uow.Notifications.ListUnread(ctx, receiverID)
	if err != nil {
		return nil, ErrInternal("查询通知失败", err)
	}
	return list, nil
}

// UpdateStatus 非邀请类通知的状态更新，仅接收者可操作
func (s *NotificationService) UpdateStatus(ctx context.Context, callerID, id int64, status model.NotificationStatus) (*model.Notification, error) {
	n, err := s.uow.Notifications.GetByID(ctx, id)
	if err != nil {
		return nil, ErrInternal("查询通知失败", err)
	}
	if n == nil {
		return nil, ErrNotFound("通知不存在")
	}
	if n.ReceiverID != callerID {
		return nil, ErrForbidden("只有接收者可以处理该通知")
	}
	if status != model.NotificationPending && status != model.NotificationRead {
		return nil, ErrValidation("该通知只能标记为 pending 或 read")
	}

	if err := s.uow.Notifications.UpdateStatus(ctx, id, status); err != nil {
		return nil, ErrInternal("更新通知失败", err)
	}
	n.Status = status
	return n, nil
}

// Delete 删除通知，收发双方均可
func (s *NotificationService) Delete(ctx context.Context, callerID, id int64) error {
	n, err := s.uow.Notifications.GetByID(ctx, id)
	if err != nil {
		return ErrInternal("查询通知失败", err)
	}
	if n == nil {
		return ErrNotFound("通知不存在")
	}
	if n.ReceiverID != callerID && n.SenderID != callerID {
		return ErrForbidden("无权删除该通知")
	}
	if err := s.uow.Notifications.Delete(ctx, id); err != nil {
		return ErrInternal("删除通知失败", err)
	}
	return nil
}

// Subscribe 订阅用户的实时通知
func (s *NotificationService) Subscribe(userID int64) (<-chan notify.Event, func()) {
	return s.broker.Subscribe(userID)
}

// Publish 推送给接收者，失败只记日志
func (s *NotificationService) Publish(ctx context.Context, n *model.Notification) {
	if s.broker == nil || n == nil {
		return
	}
	ev, err := notify.NewEvent(EventNotification, n)
	if err != nil {
		log.Printf("[Notification] 序列化通知 %d 失败: %v", n.ID, err)
		return
	}
	if err := s.broker.Publish(ctx, n.ReceiverID, ev); err != nil {
		log.Printf("[Notification] 推送通知 %d 给用户 %d 失败: %v", n.ID, n.ReceiverID, err)
	}
}
