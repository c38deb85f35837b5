package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID                uint                `gorm:"primarykey" json:"id"`                                             // 主键
	SellerID          uint                `gorm:"not null;index" json:"seller_id"`                                  // 卖家ID
	CategoryID        uint                `gorm:"not null;index" json:"category_id"`                                // 分类ID
	Slug              string              `gorm:"uniqueIndex;not null" json:"slug"`                                 // 唯一标识
	TitleJSON         JSON                `gorm:"type:json;not null" json:"title"`                                  // 多语言标题
	DescriptionJSON   JSON                `gorm:"type:json" json:"description"`                                     // 多语言描述
	BasePrice         Money               `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`          // 基础价格
	StockQuantity     int                 `gorm:"not null;default:0" json:"stock_quantity"`                         // 商品级库存（无规格选择时生效）
	CombinationStocks CombinationStockMap `gorm:"type:json" json:"combination_stocks"`                              // 组合库存映射
	Images            StringArray         `gorm:"type:json" json:"images"`                                          // 图片数组
	Tags              StringArray         `gorm:"type:json" json:"tags"`                                            // 标签数组
	ApprovalStatus    string              `gorm:"type:varchar(20);not null;default:'pending';index" json:"approval_status"` // 审核状态
	IsActive          bool                `gorm:"default:true;index" json:"is_active"`                              // 是否上架
	SortOrder         int                 `gorm:"default:0;index" json:"sort_order"`                                // 排序权重
	CreatedAt         time.Time           `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt         time.Time           `json:"updated_at"`                                                       // 更新时间
	DeletedAt         gorm.DeletedAt      `gorm:"index" json:"-"`                                                   // 软删除时间

	// 关联
	Seller     *User              `gorm:"foreignKey:SellerID" json:"seller,omitempty"`      // 卖家信息
	Category   Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`  // 分类信息
	Selections []ProductSelection `gorm:"foreignKey:ProductID" json:"selections,omitempty"` // 规格选择列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
