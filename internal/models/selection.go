package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductSelection 商品规格选择表（商品与规格选项的连接，携带商品级加价与库存）
type ProductSelection struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                                           // 主键
	ProductID       uint           `gorm:"not null;index;uniqueIndex:idx_selection_product_option" json:"product_id"`     // 商品ID
	VariantOptionID uint           `gorm:"not null;index;uniqueIndex:idx_selection_product_option" json:"variant_option_id"` // 规格选项ID
	StockCount      int            `gorm:"not null;default:0" json:"stock_count"`                                          // 选择级库存
	PriceAdjustment Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_adjustment"`                  // 商品级加价（可为负）
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`                                            // 是否启用
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                                        // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                                     // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                                 // 软删除时间

	// 关联
	Product       *Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`              // 所属商品
	VariantOption *VariantOption `gorm:"foreignKey:VariantOptionID" json:"variant_option,omitempty"` // 规格选项
}

// TableName 指定表名
func (ProductSelection) TableName() string {
	return "product_selections"
}

// FinalPrice 选择项的最终单价：基础价 + 类型级附加价 + 商品级加价
//
// 组合结果为负时按 0 计，调用方负责记录告警日志。
func (s *ProductSelection) FinalPrice(basePrice Money) Money {
	total := basePrice.Decimal
	if s.VariantOption != nil {
		total = total.Add(s.VariantOption.ExtraPrice.Decimal)
	}
	total = total.Add(s.PriceAdjustment.Decimal)
	if total.IsNegative() {
		return NewMoneyFromDecimal(decimal.Zero)
	}
	return NewMoneyFromDecimal(total)
}

// IsNegativeComposition 判断组合价格是否为负（用于告警）
func (s *ProductSelection) IsNegativeComposition(basePrice Money) bool {
	total := basePrice.Decimal
	if s.VariantOption != nil {
		total = total.Add(s.VariantOption.ExtraPrice.Decimal)
	}
	return total.Add(s.PriceAdjustment.Decimal).IsNegative()
}
