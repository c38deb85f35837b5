package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 分类表（支持父子层级，规格类型沿父链继承）
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`  // 唯一标识
	NameJSON  JSON           `gorm:"type:json;not null" json:"name"`    // 多语言名称
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`  // 父分类ID（顶级分类为空）
	Icon      string         `gorm:"type:varchar(500)" json:"icon"`     // 分类图标（图片路径）
	SortOrder int            `gorm:"default:0;index" json:"sort_order"` // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间

	// 关联
	Parent       *Category     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`         // 父分类
	Children     []Category    `gorm:"foreignKey:ParentID" json:"children,omitempty"`       // 子分类
	VariantTypes []VariantType `gorm:"foreignKey:CategoryID" json:"variant_types,omitempty"` // 本级注册的规格类型
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
