package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/infrastructure/cache"
	"donationsystem/internal/model"
	"donationsystem/internal/repository"
	"donationsystem/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// PointsService 积分账户
//
// 余额只有两条变动路径：捐赠确认入账（Credit）和兑换扣减（Debit），
// 两条路径都以因果单号为幂等键，调用方超时重试不会重复记账。
type PointsService struct {
	db              *gorm.DB
	balanceRepo     *repository.BalanceRepository
	transactionRepo *repository.PointTransactionRepository
	rankingCache    *cache.RankingCache
}

func NewPointsService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PointsService {
	ttl := time.Duration(cfg.Business.RankingCacheSeconds) * time.Second
	return &PointsService{
		db:              db,
		balanceRepo:     repository.NewBalanceRepository(db),
		transactionRepo: repository.NewPointTransactionRepository(db),
		rankingCache:    cache.NewRankingCache(redisClient, ttl),
	}
}

// Credit 积分入账（幂等）
//
// causeID 是捐赠单号。同一个 causeID 第二次调用直接返回成功，
// 不再动余额 —— 这是捐赠确认重试后的安全网。
// tx 非空时加入调用方事务，与捐赠状态变更同生共死。
func (s *PointsService) Credit(ctx context.Context, tx *gorm.DB, accountID int64, amount int64, causeID, remark string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	// 幂等校验：该因果事件已记过账则直接返回
	existing, err := s.transactionRepo.GetByCauseID(ctx, tx, causeID)
	if err != nil {
		return fmt.Errorf("查询流水失败: %w", err)
	}
	if existing != nil {
		return nil
	}

	balance, err := s.balanceRepo.GetOrCreate(ctx, tx, accountID)
	if err != nil {
		return fmt.Errorf("获取积分账户失败: %w", err)
	}

	if err := s.balanceRepo.Increase(ctx, tx, accountID, amount); err != nil {
		return fmt.Errorf("积分入账失败: %w", err)
	}

	trans := &model.PointTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		AccountID:     accountID,
		CauseID:       causeID,
		Amount:        amount,
		Type:          model.PointTransactionTypeCredit,
		BalanceBefore: balance.Balance,
		BalanceAfter:  balance.Balance + amount,
		Remark:        remark,
	}
	if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
		// 唯一索引兜住并发重放：另一个请求已经记账，整个事务回滚
		return fmt.Errorf("记录流水失败: %w", err)
	}

	s.rankingCache.Invalidate(ctx)
	return nil
}

// Debit 积分扣减（幂等）
//
// causeID 是兑换单号。余额不足时返回 repository.ErrInsufficientPoints，
// 条件 UPDATE 保证余额不会被扣成负数。
func (s *PointsService) Debit(ctx context.Context, tx *gorm.DB, accountID int64, amount int64, causeID, remark string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	existing, err := s.transactionRepo.GetByCauseID(ctx, tx, causeID)
	if err != nil {
		return fmt.Errorf("查询流水失败: %w", err)
	}
	if existing != nil {
		return nil
	}

	balance, err := s.balanceRepo.GetByAccountID(ctx, tx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return repository.ErrInsufficientPoints
		}
		return fmt.Errorf("获取积分账户失败: %w", err)
	}

	if err := s.balanceRepo.Deduct(ctx, tx, accountID, amount, balance.Version); err != nil {
		return err
	}

	trans := &model.PointTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		AccountID:     accountID,
		CauseID:       causeID,
		Amount:        -amount,
		Type:          model.PointTransactionTypeDebit,
		BalanceBefore: balance.Balance,
		BalanceAfter:  balance.Balance - amount,
		Remark:        remark,
	}
	if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
		return fmt.Errorf("记录流水失败: %w", err)
	}

	s.rankingCache.Invalidate(ctx)
	return nil
}

// GetBalance 查询当前积分，没有账户视为 0
func (s *PointsService) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	balance, err := s.balanceRepo.GetByAccountID(ctx, nil, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return balance.Balance, nil
}

// ListTransactions 积分流水（审计视图）
func (s *PointsService) ListTransactions(ctx context.Context, accountID int64, page, pageSize int) ([]*model.PointTransaction, int64, error) {
	return s.transactionRepo.ListByAccountID(ctx, accountID, page, pageSize)
}
