package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Artwork 作品
// (artist_id, serial_number) 唯一，序号取画家名下最小未使用的正整数
type Artwork struct {
	LedgerModel
	ArtistID   int64  `gorm:"not null;uniqueIndex:idx_artworks_artist_serial,priority:1" json:"artist_id"`
	ArtistName string `gorm:"size:100;index" json:"artist_name"`

	Title          string          `gorm:"size:255;not null;index" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	Theme          string          `gorm:"size:64;index" json:"theme"`
	EstimatedPrice decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"estimated_price"`
	CreationDate   time.Time       `json:"creation_date"`

	// 原始尺寸文本，如 "3平方尺"；SizeValue/SizeUnit 为入库时解析出的面积
	Size      string          `gorm:"size:64;not null" json:"size"`
	SizeValue decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"size_value"`
	SizeUnit  SizeUnit        `gorm:"size:16;not null" json:"size_unit"`

	ImageURL     string `gorm:"size:512;not null" json:"image_url"`
	SerialNumber int    `gorm:"not null;uniqueIndex:idx_artworks_artist_serial,priority:2" json:"serial_number"`

	// 售出信息
	IsSold    bool                `gorm:"not null;default:false;index" json:"is_sold"`
	SalePrice decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"sale_price"`
	SaleDate  *time.Time          `gorm:"index" json:"sale_date"`
}

func (Artwork) TableName() string {
	return "artworks"
}

// ParsedSize 入库时解析好的尺寸
func (a *Artwork) ParsedSize() Size {
	return Size{Value: a.SizeValue, Unit: a.SizeUnit}
}

// MarkSold 标记售出
func (a *Artwork) MarkSold(price decimal.Decimal, at time.Time) {
	a.IsSold = true
	a.SalePrice = decimal.NullDecimal{Decimal: price, Valid: true}
	a.SaleDate = &at
}

// MarkUnsold 撤销售出
func (a *Artwork) MarkUnsold() {
	a.IsSold = false
	a.SalePrice = decimal.NullDecimal{}
	a.SaleDate = nil
}
