package model

import (
	"errors"
	"time"
)

// MembershipType 会员类型
type MembershipType string

const (
	MembershipTrial   MembershipType = "trial"   // 试用 7 天
	MembershipMonthly MembershipType = "monthly" // 月度
	MembershipYearly  MembershipType = "yearly"  // 年度
)

var ErrInvalidMembership = errors.New("无效的会员类型")

// EndDate 从 start 开始计算会员到期时间
func (m MembershipType) EndDate(start time.Time) (time.Time, error) {
	switch m {
	case MembershipTrial:
		return start.AddDate(0, 0, 7), nil
	case MembershipMonthly:
		return start.AddDate(0, 1, 0), nil
	case MembershipYearly:
		return start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, ErrInvalidMembership
	}
}

// Company 画廊公司档案
// 旗下画家由 artists.company_id 反查，不单独存储
type Company struct {
	BaseModel
	UserID int64 `gorm:"uniqueIndex;not null" json:"user_id"`

	Name    string `gorm:"size:100;not null" json:"name"`
	Email   string `gorm:"size:100" json:"email"`
	Phone   string `gorm:"size:32" json:"phone"`
	Address string `gorm:"size:255" json:"address"`

	Membership          MembershipType `gorm:"size:16;not null;default:trial" json:"membership"`
	MembershipStartDate *time.Time     `json:"membership_start_date"`
	MembershipEndDate   *time.Time     `json:"membership_end_date"`
}

func (Company) TableName() string {
	return "companies"
}

// MembershipActive 会员是否在有效期内
func (c *Company) MembershipActive(now time.Time) bool {
	return c.MembershipEndDate != nil && now.Before(*c.MembershipEndDate)
}
