package service

import (
	"donationsystem/internal/model"
)

// ScoringPolicy 捐赠确认时的计分策略
//
// 审核方可以直接指定积分值；没指定时由策略算出。
// 具体公式是可插拔的，默认实现用活动上配置的系数。
type ScoringPolicy interface {
	Score(donation *model.Donation, campaign *model.Campaign) int64
}

// MultiplierPolicy 默认策略：积分 = 数量 × 活动计分系数
type MultiplierPolicy struct {
	DefaultMultiplier int64 // 活动系数未配置时的兜底值
}

func (p MultiplierPolicy) Score(donation *model.Donation, campaign *model.Campaign) int64 {
	multiplier := campaign.PointMultiplier
	if multiplier <= 0 {
		multiplier = p.DefaultMultiplier
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return donation.Quantity * multiplier
}
