package model

import "time"

// 展览状态
const (
	ExhibitionStatusOpen   = "open"   // 筹备中，作品数随上传更新
	ExhibitionStatusClosed = "closed" // 已结束
)

// Exhibition 办展记录：画家作品数达到办展数时生成
type Exhibition struct {
	LedgerModel
	ArtistID     int64  `gorm:"not null;index" json:"artist_id"`
	ArtistUserID int64  `gorm:"not null;index" json:"artist_user_id"`
	ArtistName   string `gorm:"size:100;not null" json:"artist_name"`
	CompanyID    *int64 `gorm:"index" json:"company_id"`

	ArtworkCount int       `gorm:"not null" json:"artwork_count"`
	Date         time.Time `json:"date"`
	Status       string    `gorm:"size:16;not null;default:open;index" json:"status"`
}

func (Exhibition) TableName() string {
	return "exhibitions"
}
