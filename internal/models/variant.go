package models

import (
	"time"

	"gorm.io/gorm"
)

// VariantType 规格类型表（注册在分类上，沿父链向子分类继承）
type VariantType struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                             // 主键
	CategoryID uint           `gorm:"not null;index;uniqueIndex:idx_variant_type_name" json:"category_id"` // 所属分类ID
	Name       string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_type_name" json:"name"` // 规格名称（同分类内唯一）
	IsRequired bool           `gorm:"default:false" json:"is_required"`                                 // 下单是否必选
	Priority   int            `gorm:"default:0;index" json:"priority"`                                  // 展示优先级（小者在前）
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                                       // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间

	// 关联
	Category Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 所属分类
	Options  []VariantOption `gorm:"foreignKey:VariantTypeID" json:"options,omitempty"` // 选项列表
}

// TableName 指定表名
func (VariantType) TableName() string {
	return "variant_types"
}

// VariantOption 规格选项表
type VariantOption struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                                      // 主键
	VariantTypeID uint           `gorm:"not null;index;uniqueIndex:idx_variant_option_value" json:"variant_type_id"` // 规格类型ID
	Value         string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_option_value" json:"value"` // 选项值（同类型内唯一）
	ExtraPrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"extra_price"`                  // 类型级附加价
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                                         // 排序权重
	IsActive      bool           `gorm:"default:true" json:"is_active"`                                             // 是否启用
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                                // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                            // 软删除时间

	// 关联
	VariantType *VariantType `gorm:"foreignKey:VariantTypeID" json:"variant_type,omitempty"` // 所属规格类型
}

// TableName 指定表名
func (VariantOption) TableName() string {
	return "variant_options"
}
