package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletAccount 钱包账户表（卖家收益账户）
type WalletAccount struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                  // 主键
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`                   // 用户ID
	Balance   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`  // 当前余额
	Currency  string         `gorm:"type:varchar(10);not null;default:'EGP'" json:"currency"` // 币种
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                               // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水表
//
// reference 唯一索引保证同一业务事件（如同一订单项入账）只记账一次。
type WalletTransaction struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // 主键
	AccountID    uint           `gorm:"not null;index" json:"account_id"`                           // 钱包账户ID
	UserID       uint           `gorm:"not null;index" json:"user_id"`                              // 用户ID
	Type         string         `gorm:"type:varchar(32);not null;index" json:"type"`                // 流水类型
	Direction    string         `gorm:"type:varchar(8);not null" json:"direction"`                  // 资金方向（in/out）
	Amount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`        // 变动金额
	BalanceAfter Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"` // 变动后余额
	Reference    string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"`    // 业务引用（幂等键）
	Remark       string         `gorm:"type:varchar(500)" json:"remark"`                            // 备注
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
