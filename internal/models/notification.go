package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification 站内通知表（由队列任务异步写入）
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // 主键
	UserID    uint           `gorm:"not null;index" json:"user_id"`               // 接收用户ID
	Type      string         `gorm:"type:varchar(32);not null;index" json:"type"` // 通知类型
	TitleJSON JSON           `gorm:"type:json;not null" json:"title"`             // 多语言标题
	BodyJSON  JSON           `gorm:"type:json" json:"body"`                       // 多语言正文
	DataJSON  JSON           `gorm:"type:json" json:"data"`                      // 业务载荷（订单号、商品ID等）
	ReadAt    *time.Time     `gorm:"index" json:"read_at"`                        // 阅读时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
