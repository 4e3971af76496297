package model

import (
	"time"
)

// ============================================================================
// 积分流水
// ============================================================================

const (
	PointTransactionTypeCredit = "CREDIT" // 入账（捐赠确认）
	PointTransactionTypeDebit  = "DEBIT"  // 扣减（兑换权益）
)

// PointTransaction 积分流水表
// 每一次积分变动对应一条流水，是对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水必须关联因果单号（CauseID）—— 捐赠单号或兑换单号
// 3. CauseID 上有唯一索引 —— 同一个因果事件重放只会落一条流水，
//    这就是 credit/debit 幂等性的数据库层保证
// 4. 记录变动前后余额 —— 便于校验余额一致性
type PointTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	AccountID     int64     `gorm:"index;not null" json:"account_id"`
	CauseID       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"cause_id"` // 因果单号（幂等键）
	Amount        int64     `gorm:"not null" json:"amount"`                                // 正数入账，负数扣减
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PointTransaction) TableName() string {
	return "point_transaction"
}
