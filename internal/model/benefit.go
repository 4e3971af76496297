package model

import (
	"time"
)

// Benefit 权益表
// Stock 恒 >= 0，扣减只走条件 UPDATE，永远不会被扣成负数
type Benefit struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(128);not null" json:"title"`
	Detail    string    `gorm:"type:varchar(512)" json:"detail"`
	Price     int64     `gorm:"not null" json:"price"` // 单价（积分）
	Stock     int64     `gorm:"not null;default:0" json:"stock"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	Version   int       `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Benefit) TableName() string {
	return "benefit"
}
