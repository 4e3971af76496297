package model

import (
	"time"
)

const (
	RedemptionStatusActive  = "ACTIVE"
	RedemptionStatusUsed    = "USED"
	RedemptionStatusExpired = "EXPIRED"
)

// ValidRedemptionTransitions 兑换券状态机
// ACTIVE 是唯一可变状态，USED / EXPIRED 为终态
var ValidRedemptionTransitions = map[string][]string{
	RedemptionStatusActive: {RedemptionStatusUsed, RedemptionStatusExpired},
}

func CanRedemptionTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidRedemptionTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Redemption 兑换记录表
// PointsSpent 在创建时按当时单价固定，之后权益调价不影响历史兑换
type Redemption struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RedemptionNo string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"redemption_no"` // 兑换单号（同时作为积分扣减的幂等键）
	UserID       int64      `gorm:"index;not null" json:"user_id"`
	BenefitID    int64      `gorm:"index;not null" json:"benefit_id"`
	Quantity     int64      `gorm:"not null" json:"quantity"`
	PointsSpent  int64      `gorm:"not null" json:"points_spent"` // = 兑换时单价 × 数量
	Status       string     `gorm:"type:varchar(20);index;not null" json:"status"`
	UsedAt       *time.Time `json:"used_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Redemption) TableName() string {
	return "redemption"
}
