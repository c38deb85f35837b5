package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem 购物车项
//
// 同一商品的不同规格组合是不同的购物车行，行身份由 (user_id, product_id,
// variant_key) 唯一确定；variant_key 为规范化组合键，无规格时为空串。
type CartItem struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                                 // 主键
	UserID          uint           `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"user_id"`    // 用户ID
	ProductID       uint           `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"product_id"` // 商品ID
	VariantKey      string         `gorm:"type:varchar(200);not null;default:'';uniqueIndex:idx_cart_user_product_variant" json:"variant_key"` // 规格组合键
	SelectedJSON    JSON           `gorm:"type:json" json:"selected_variants"`                                   // 所选规格快照（类型名 -> 选项值）
	Quantity        int            `gorm:"not null" json:"quantity"`                                             // 数量
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                              // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                       // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
