package model

import "time"

// UserRole 系统角色
type UserRole string

const (
	RoleArtist  UserRole = "artist"  // 画家
	RoleCompany UserRole = "company" // 画廊公司
	RoleAdmin   UserRole = "admin"   // 平台管理员
)

// IsValid 是否为可注册的角色
func (r UserRole) IsValid() bool {
	return r == RoleArtist || r == RoleCompany || r == RoleAdmin
}

// 用户状态
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

// User 登录账号，画家/公司档案都通过 UserID 关联到这里
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:255;not null" json:"-"` // bcrypt 哈希
	Role     UserRole `gorm:"size:20;not null;index" json:"role"`
	Status   int      `gorm:"default:1" json:"status"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}
