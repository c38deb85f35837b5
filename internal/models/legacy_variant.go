package models

import (
	"time"

	"gorm.io/gorm"
)

// LegacyProductVariant 历史商品规格表（迁移来源，只读）
//
// 旧版把规格名、选项值、价格直接挂在商品上，没有分类级规格类型。
// 迁移操作将其转换为 VariantType + VariantOption + ProductSelection。
type LegacyProductVariant struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	ProductID   uint           `gorm:"not null;index" json:"product_id"`                         // 商品ID
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`                   // 规格名称（如 Size）
	Value       string         `gorm:"type:varchar(100);not null" json:"value"`                  // 选项值（如 Large）
	Price       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`       // 旧版绝对价格
	StockCount  int            `gorm:"not null;default:0" json:"stock_count"`                    // 库存
	MigratedAt  *time.Time     `gorm:"index" json:"migrated_at,omitempty"`                       // 迁移完成时间（空表示未迁移）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (LegacyProductVariant) TableName() string {
	return "legacy_product_variants"
}
