package controller

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/model"
	"hualang_api/internal/service"
)

// ==================== NotificationController 通知 ====================

const defaultHeartbeat = 30 * time.Second

type NotificationController struct {
	notificationSvc *service.NotificationService
	affiliationSvc  *service.AffiliationService
	heartbeat       time.Duration
}

func NewNotificationController(notificationSvc *service.NotificationService, affiliationSvc *service.AffiliationService) *NotificationController {
	return &NotificationController{
		notificationSvc: notificationSvc,
		affiliationSvc:  affiliationSvc,
		heartbeat:       defaultHeartbeat,
	}
}

// Create 发送通知；invitation 类型走签约邀请流程
// @Summary 发送通知或签约邀请
// @Description 发送方为当前用户；邀请只能在公司与画家之间发出
// @Tags Notification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateNotificationRequest true "通知内容"
// @Success 201 {object} dto.Response{data=model.Notification}
// @Failure 409 {object} dto.ErrorResponse "已签约"
// @Router /api/notifications [post]
func (c *NotificationController) Create(ctx *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	senderID := currentCaller(ctx).userID
	notifType := model.NotificationType(strings.ToLower(strings.TrimSpace(req.Type)))

	var (
		notification *model.Notification
		err          error
	)
	if notifType == model.NotificationInvitation {
		notification, err = c.affiliationSvc.Invite(ctx.Request.Context(), senderID, req.ReceiverID, req.Content)
	} else {
		notification, err = c.notificationSvc.Create(ctx.Request.Context(), senderID, &service.CreateNotificationInput{
			ReceiverID: req.ReceiverID,
			Type:       notifType,
			Content:    req.Content,
			Payload:    req.Payload,
		})
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, "发送成功", notification)
}

// ListUnread 未读通知
// @Summary 未读通知
// @Tags Notification
// @Produce json
// @Security BearerAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} dto.Response{data=[]model.Notification}
// @Router /api/notifications/user/{userId}/unread [get]
func (c *NotificationController) ListUnread(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userId")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, userID) {
		return
	}
	list, err := c.notificationSvc.ListUnread(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// Update 更新通知状态
// @Summary 更新通知状态
// @Description 邀请 accepted / declined(rejected) 时完成签约流程并返回给邀请方的回执
// @Tags Notification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "通知ID"
// @Param request body dto.UpdateNotificationRequest true "状态"
// @Success 200 {object} dto.Response{data=model.Notification}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "画家已签约其它公司"
// @Router /api/notifications/{id} [put]
func (c *NotificationController) Update(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	notification, err := c.affiliationSvc.Respond(ctx.Request.Context(), currentCaller(ctx).userID, id, req.Status)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "更新成功", notification)
}

// Delete 删除通知
// @Summary 删除通知
// @Tags Notification
// @Produce json
// @Security BearerAuth
// @Param id path int true "通知ID"
// @Success 200 {object} dto.Response
// @Router /api/notifications/{id} [delete]
func (c *NotificationController) Delete(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := c.notificationSvc.Delete(ctx.Request.Context(), currentCaller(ctx).userID, id); err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "通知已删除", nil)
}

// Stream SSE 实时推送当前用户的通知
// @Summary SSE 实时通知
// @Description 浏览器 EventSource 无法带请求头，可用 ?token= 传 Access Token
// @Tags Notification
// @Produce text/event-stream
// @Param token query string false "Access Token"
// @Router /api/notifications/stream [get]
func (c *NotificationController) Stream(ctx *gin.Context) {
	userID := currentCaller(ctx).userID

	// 设置 SSE 响应头
	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	events, cancel := c.notificationSvc.Subscribe(userID)
	defer cancel()

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	ctx.SSEvent("connected", gin.H{"userId": userID})
	ctx.Writer.Flush()

	clientGone := ctx.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			ctx.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			ctx.Writer.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			ctx.SSEvent(ev.Name, string(ev.Data))
			ctx.Writer.Flush()
		}
	}
}
