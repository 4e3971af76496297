package model

import (
	"time"
)

const (
	CampaignStatusOpen   = "OPEN"
	CampaignStatusClosed = "CLOSED"
)

// Campaign 募捐活动表
// PointMultiplier 是默认计分策略的输入：积分 = 数量 × 系数
type Campaign struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID  int64     `gorm:"index;not null" json:"organization_id"` // 发起组织的账号ID
	Title           string    `gorm:"type:varchar(128);not null" json:"title"`
	Detail          string    `gorm:"type:varchar(512)" json:"detail"`
	GoalQuantity    int64     `gorm:"not null" json:"goal_quantity"`
	PointMultiplier int64     `gorm:"not null;default:1" json:"point_multiplier"`
	Status          string    `gorm:"type:varchar(20);index;not null" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaign"
}
