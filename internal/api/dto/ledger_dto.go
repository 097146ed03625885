package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== 画家 ====================

// SettledAmountRequest 追加结算金额，可为负（冲正）
type SettledAmountRequest struct {
	SettledAmount *decimal.Decimal `json:"settledAmount" binding:"required"`
}

// SettledAmountResponse 结算后的累计金额
type SettledAmountResponse struct {
	SettledAmount decimal.Decimal `json:"settledAmount"`
}

// ==================== 作品 ====================

// ArtworkSearchQuery 作品搜索
type ArtworkSearchQuery struct {
	Query     string `form:"query"`
	CompanyID int64  `form:"companyId"` // 公司用户 ID
}

// SettleArtworkRequest 售出 / 撤销售出
type SettleArtworkRequest struct {
	IsSold    *bool            `json:"isSold" binding:"required"`
	SalePrice *decimal.Decimal `json:"salePrice"`
}

// ==================== 公司 ====================

// SubscribeRequest 订阅会员
type SubscribeRequest struct {
	Type string `json:"type" binding:"required"`
}

// ==================== 展览 ====================

// CreateExhibitionRequest 手动创建展览
type CreateExhibitionRequest struct {
	ArtistUserID int64      `json:"artistUserId" binding:"required"`
	ArtworkCount int        `json:"artworkCount"`
	Date         *time.Time `json:"date"`
	CompanyID    int64      `json:"companyId"` // 公司用户 ID
}

// ==================== 通知 ====================

// CreateNotificationRequest 发送通知或邀请，发送方取当前登录用户
type CreateNotificationRequest struct {
	ReceiverID int64                  `json:"receiverId" binding:"required"`
	Type       string                 `json:"type" binding:"required"`
	Content    string                 `json:"content"`
	Payload    map[string]interface{} `json:"payload"`
}

// UpdateNotificationRequest 更新通知状态
type UpdateNotificationRequest struct {
	Status string `json:"status" binding:"required"`
}
