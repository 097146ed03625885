package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale 成交记录，与已售作品一对一
// 作品被定时清理后 ArtworkID 置空，成交台账保留
type Sale struct {
	LedgerModel
	ArtworkID *int64 `gorm:"uniqueIndex" json:"artwork_id"`
	ArtistID  int64  `gorm:"not null;index" json:"artist_id"`
	CompanyID *int64 `gorm:"index" json:"company_id"`

	// 作品快照，供统计使用
	ArtworkTitle string `gorm:"size:255" json:"artwork_title"`
	ArtworkSize  string `gorm:"size:64" json:"artwork_size"`
	ArtworkTheme string `gorm:"size:64" json:"artwork_theme"`

	SalePrice     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"sale_price"`
	ArtistPayment decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"artist_payment"`
	Profit        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"profit"`
	SaleDate      time.Time       `gorm:"not null;index" json:"sale_date"`
}

func (Sale) TableName() string {
	return "sales"
}
