package model

import "github.com/shopspring/decimal"

// DefaultExhibitionQuota 画家默认办展作品数
const DefaultExhibitionQuota = 100

// Artist 画家档案
type Artist struct {
	BaseModel
	UserID int64 `gorm:"uniqueIndex;not null" json:"user_id"`

	Name         string `gorm:"size:100;not null;index" json:"name"`
	Email        string `gorm:"size:100" json:"email"`
	Phone        string `gorm:"size:32" json:"phone"`
	Address      string `gorm:"size:255" json:"address"`
	WeChat       string `gorm:"size:64" json:"we_chat"`
	QQ           string `gorm:"size:32" json:"qq"`
	Avatar       string `gorm:"size:512" json:"avatar"`
	Bio          string `gorm:"type:text" json:"bio"`
	Achievements string `gorm:"type:text" json:"achievements"`

	// 签约价：每平方尺支付给画家的金额
	SignPrice decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"sign_price"`
	// 已结算金额，不可为负
	SettledAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"settled_amount"`
	// 办展数：作品数达到该值即触发办展
	ExhibitionsHeld int `gorm:"not null;default:100" json:"exhibitions_held"`

	// 签约公司，为空表示自由画家
	CompanyID *int64 `gorm:"index" json:"company_id"`
}

func (Artist) TableName() string {
	return "artists"
}

// IsAffiliated 是否已签约公司
func (a *Artist) IsAffiliated() bool {
	return a.CompanyID != nil && *a.CompanyID > 0
}

// AffiliatedWith 是否签约于指定公司
func (a *Artist) AffiliatedWith(companyID int64) bool {
	return a.IsAffiliated() && *a.CompanyID == companyID
}
