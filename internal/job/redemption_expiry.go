package job

import (
	"context"
	"log"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/model"
	"donationsystem/internal/repository"

	"gorm.io/gorm"
)

// RedemptionExpiryJob 兑换券过期任务
// 核心兑换逻辑只校验状态机，过期由这个外部调度任务驱动：
// 超过有效期仍为 ACTIVE 的兑换券转为 EXPIRED
type RedemptionExpiryJob struct {
	db             *gorm.DB
	redemptionRepo *repository.RedemptionRepository
	cfg            *config.Config
	stopCh         chan struct{}
	interval       time.Duration
	batchSize      int
}

func NewRedemptionExpiryJob(db *gorm.DB, cfg *config.Config) *RedemptionExpiryJob {
	return &RedemptionExpiryJob{
		db:             db,
		redemptionRepo: repository.NewRedemptionRepository(db),
		cfg:            cfg,
		stopCh:         make(chan struct{}),
		interval:       time.Minute,
		batchSize:      100,
	}
}

func (j *RedemptionExpiryJob) Start(ctx context.Context) {
	log.Println("[RedemptionExpiryJob] 兑换券过期任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[RedemptionExpiryJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[RedemptionExpiryJob] 任务停止")
			return
		case <-ticker.C:
			j.expireRedemptions(ctx)
		}
	}
}

func (j *RedemptionExpiryJob) Stop() {
	close(j.stopCh)
}

func (j *RedemptionExpiryJob) expireRedemptions(ctx context.Context) {
	validDays := j.cfg.Business.RedemptionValidDays
	if validDays <= 0 {
		return
	}

	beforeTime := time.Now().AddDate(0, 0, -validDays)
	redemptions, err := j.redemptionRepo.GetActiveCreatedBefore(ctx, beforeTime, j.batchSize)
	if err != nil {
		log.Printf("[RedemptionExpiryJob] 查询过期兑换券失败: %v", err)
		return
	}

	if len(redemptions) == 0 {
		return
	}

	log.Printf("[RedemptionExpiryJob] 发现 %d 张过期兑换券", len(redemptions))

	expiredCount := 0
	for _, redemption := range redemptions {
		// 条件更新：期间被核销的券不会被误标
		err := j.redemptionRepo.UpdateStatus(ctx, nil, redemption.ID,
			model.RedemptionStatusActive, model.RedemptionStatusExpired)
		if err != nil {
			log.Printf("[RedemptionExpiryJob] 过期处理失败: redemptionNo=%s, err=%v", redemption.RedemptionNo, err)
			continue
		}
		expiredCount++
	}

	log.Printf("[RedemptionExpiryJob] 本次过期 %d 张兑换券", expiredCount)
}
