package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                                 // 买家ID
	Status          string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                                      // 币种
	ItemsAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"items_amount"`     // 商品金额小计
	ShippingCost    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`    // 运费
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 订单总额
	GovernorateID   string         `gorm:"type:varchar(8)" json:"governorate_id"`                         // 收货省份编号（"1".."27"）
	ShippingAddress string         `gorm:"type:varchar(500)" json:"shipping_address"`                     // 收货地址
	ClientIP        string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                   // 下单客户端IP
	CancelledAt     *time.Time     `gorm:"index" json:"cancelled_at"`                                     // 取消时间
	DeliveredAt     *time.Time     `gorm:"index" json:"delivered_at"`                                     // 送达时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`   // 买家信息
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
