package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
//
// 单价、卖家与佣金在下单时冻结成快照，之后商品改价或换卖家不影响历史订单。
type OrderItem struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                              // 主键
	OrderID          uint           `gorm:"index;not null" json:"order_id"`                                    // 订单ID
	ProductID        uint           `gorm:"index;not null" json:"product_id"`                                  // 商品ID
	SellerID         uint           `gorm:"index;not null" json:"seller_id"`                                   // 卖家ID快照
	TitleJSON        JSON           `gorm:"type:json;not null" json:"title"`                                   // 商品标题快照
	VariantKey       string         `gorm:"type:varchar(200);not null;default:''" json:"variant_key"`          // 规格组合键快照
	SelectedJSON     JSON           `gorm:"type:json" json:"selected_variants"`                                // 所选规格快照（类型名 -> 选项值）
	UnitPrice        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`           // 单价快照
	Quantity         int            `gorm:"not null" json:"quantity"`                                          // 数量
	TotalPrice       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`          // 小计
	CommissionRate   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_rate"`      // 平台佣金率快照（百分比）
	CommissionAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`    // 平台佣金额
	SellerEarning    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"seller_earning"`       // 卖家应得金额
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                           // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
