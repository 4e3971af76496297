package job

import (
	"context"
	"log"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/repository"

	"gorm.io/gorm"
)

// BalanceAuditJob 余额对账任务
//
// 正常路径下余额只通过入账/扣减两条路径调整，不做全量重算。
// 这个任务是审计工具：按流水重算每个账户的余额并与当前值比对，
// 发现不一致只告警，不自动修复（修复需要人工介入定位原因）。
type BalanceAuditJob struct {
	db              *gorm.DB
	balanceRepo     *repository.BalanceRepository
	transactionRepo *repository.PointTransactionRepository
	cfg             *config.Config
	stopCh          chan struct{}
	interval        time.Duration
	batchSize       int
}

func NewBalanceAuditJob(db *gorm.DB, cfg *config.Config) *BalanceAuditJob {
	return &BalanceAuditJob{
		db:              db,
		balanceRepo:     repository.NewBalanceRepository(db),
		transactionRepo: repository.NewPointTransactionRepository(db),
		cfg:             cfg,
		stopCh:          make(chan struct{}),
		interval:        10 * time.Minute,
		batchSize:       1000,
	}
}

func (j *BalanceAuditJob) Start(ctx context.Context) {
	log.Println("[BalanceAuditJob] 余额对账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[BalanceAuditJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[BalanceAuditJob] 任务停止")
			return
		case <-ticker.C:
			j.auditBalances(ctx)
		}
	}
}

func (j *BalanceAuditJob) Stop() {
	close(j.stopCh)
}

func (j *BalanceAuditJob) auditBalances(ctx context.Context) {
	balances, err := j.balanceRepo.ListAll(ctx, j.batchSize)
	if err != nil {
		log.Printf("[BalanceAuditJob] 查询余额失败: %v", err)
		return
	}

	mismatch := 0
	for _, balance := range balances {
		sum, err := j.transactionRepo.SumByAccountID(ctx, balance.AccountID)
		if err != nil {
			log.Printf("[BalanceAuditJob] 重算流水失败: accountID=%d, err=%v", balance.AccountID, err)
			continue
		}

		if sum != balance.Balance {
			mismatch++
			log.Printf("[BalanceAuditJob] 余额不一致: accountID=%d, balance=%d, 流水合计=%d",
				balance.AccountID, balance.Balance, sum)
		}
	}

	if mismatch > 0 {
		log.Printf("[BalanceAuditJob] 本轮发现 %d 个不一致账户", mismatch)
	}
}
