package models

import (
	"time"

	"github.com/tohfa-market/internal/constants"

	"gorm.io/gorm"
)

// User 用户表（买家与卖家共用，user_type 区分角色）
type User struct {
	ID                 uint            `gorm:"primarykey" json:"id"`                                  // 主键
	Email              string          `gorm:"uniqueIndex;not null" json:"email"`                     // 邮箱
	PasswordHash       string          `gorm:"not null" json:"-"`                                     // 密码哈希（不返回给前端）
	DisplayName        string          `gorm:"default:''" json:"display_name"`                        // 昵称/店铺名
	UserType           string          `gorm:"type:varchar(20);not null;default:'customer';index" json:"user_type"` // 用户类型（customer/artist/store）
	Phone              string          `gorm:"type:varchar(32)" json:"phone"`                         // 联系电话
	Bio                string          `gorm:"type:varchar(1000)" json:"bio"`                         // 卖家简介
	ShippingCosts      ShippingCostMap `gorm:"type:json" json:"shipping_costs"`                       // 卖家各省份运费设置
	Locale             string          `gorm:"default:'en'" json:"locale"`                            // 语言偏好
	Status             string          `gorm:"default:'active'" json:"status"`                        // 账号状态
	TokenVersion       uint64          `gorm:"not null;default:0" json:"-"`                           // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time      `gorm:"index" json:"-"`                                        // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time      `json:"last_login_at"`                                         // 最后登录时间
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt          time.Time       `gorm:"index" json:"updated_at"`                               // 更新时间
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsSeller 判断是否卖家角色（可创建商品）
func (u *User) IsSeller() bool {
	return u.UserType == constants.UserTypeArtist || u.UserType == constants.UserTypeStore
}
