package model

import (
	"time"
)

const (
	DonationStatusPending   = "PENDING"
	DonationStatusConfirmed = "CONFIRMED"
	DonationStatusRejected  = "REJECTED"
	DonationStatusDelivered = "DELIVERED"
)

// ValidDonationTransitions 捐赠状态机
//
// PENDING -> CONFIRMED / REJECTED
// CONFIRMED -> DELIVERED
// REJECTED / DELIVERED 为终态
//
// 【重要】所有状态变更只能通过本状态机前进，不存在回退路径。
// 一笔捐赠一旦审核过就不可能回到 PENDING，这是防止重复加积分的根基。
var ValidDonationTransitions = map[string][]string{
	DonationStatusPending:   {DonationStatusConfirmed, DonationStatusRejected},
	DonationStatusConfirmed: {DonationStatusDelivered},
}

func CanDonationTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidDonationTransitions[currentStatus]
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

const (
	DonationTypeFood     = "FOOD"
	DonationTypeClothing = "CLOTHING"
	DonationTypeMoney    = "MONEY"
	DonationTypeSupplies = "SUPPLIES"
)

var ValidDonationTypes = map[string]bool{
	DonationTypeFood:     true,
	DonationTypeClothing: true,
	DonationTypeMoney:    true,
	DonationTypeSupplies: true,
}

// Donation 捐赠记录表
// PointsAwarded 在 PENDING -> CONFIRMED 这一次转换中写入，之后不再变化
type Donation struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	DonationNo    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"donation_no"` // 捐赠单号（全局唯一，同时作为积分入账的幂等键）
	DonorID       int64      `gorm:"index;not null" json:"donor_id"`
	CampaignID    int64      `gorm:"index;not null" json:"campaign_id"`
	Type          string     `gorm:"type:varchar(20);not null" json:"type"`
	Quantity      int64      `gorm:"not null" json:"quantity"`
	Detail        string     `gorm:"type:varchar(512)" json:"detail"`
	Status        string     `gorm:"type:varchar(20);index;not null" json:"status"`
	PointsAwarded *int64     `json:"points_awarded"`                          // 确认前为 NULL
	RejectReason  string     `gorm:"type:varchar(256)" json:"reject_reason"`  // 驳回原因，仅 REJECTED 有值
	ReviewerID    *int64     `json:"reviewer_id"`                             // 审核人
	ReviewedAt    *time.Time `json:"reviewed_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Donation) TableName() string {
	return "donation"
}
