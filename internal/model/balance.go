package model

import (
	"time"
)

// PointsBalance 积分余额表
// 每个账号一条记录，余额只能通过入账/扣减两条路径变动
type PointsBalance struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // 当前积分，恒 >= 0
	Version   int       `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PointsBalance) TableName() string {
	return "points_balance"
}
