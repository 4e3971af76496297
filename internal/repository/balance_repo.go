package repository

import (
	"context"
	"errors"

	"donationsystem/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBalanceNotFound    = errors.New("积分账户不存在")
	ErrInsufficientPoints = errors.New("积分不足")
	ErrOptimisticLock     = errors.New("乐观锁冲突，请重试")
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) GetByAccountID(ctx context.Context, tx *gorm.DB, accountID int64) (*model.PointsBalance, error) {
	if tx == nil {
		tx = r.db
	}
	var balance model.PointsBalance
	err := tx.WithContext(ctx).Where("account_id = ?", accountID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

func (r *BalanceRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, accountID int64) (*model.PointsBalance, error) {
	if tx == nil {
		tx = r.db
	}

	balance, err := r.GetByAccountID(ctx, tx, accountID)
	if err == nil {
		return balance, nil
	}

	if !errors.Is(err, ErrBalanceNotFound) {
		return nil, err
	}

	newBalance := &model.PointsBalance{
		AccountID: accountID,
		Balance:   0,
	}

	err = tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoNothing: true,
		}).
		Create(newBalance).Error

	if err != nil {
		return nil, err
	}

	return r.GetByAccountID(ctx, tx, accountID)
}

// Increase 积分入账
func (r *BalanceRepository) Increase(ctx context.Context, tx *gorm.DB, accountID int64, amount int64) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.PointsBalance{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrBalanceNotFound
	}

	return nil
}

// Deduct 积分扣减
//
// WHERE balance >= ? 保证余额永远不会被扣成负数；
// version 条件是乐观锁，避免并发下基于过期余额写流水
func (r *BalanceRepository) Deduct(ctx context.Context, tx *gorm.DB, accountID int64, amount int64, version int) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.PointsBalance{}).
		Where("account_id = ? AND balance >= ? AND version = ?", accountID, amount, version).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance - ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		balance, err := r.GetByAccountID(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if balance.Balance < amount {
			return ErrInsufficientPoints
		}
		return ErrOptimisticLock
	}

	return nil
}

// RankEntry 排行榜条目
type RankEntry struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Points    int64  `json:"points"`
}

// TopN 按积分取前 N 名
// 排序：积分降序，积分相同按账号ID升序（保证结果确定）
func (r *BalanceRepository) TopN(ctx context.Context, n int) ([]RankEntry, error) {
	var entries []RankEntry
	err := r.db.WithContext(ctx).
		Table("points_balance").
		Select("points_balance.account_id AS account_id, account.name AS name, points_balance.balance AS points").
		Joins("JOIN account ON account.id = points_balance.account_id").
		Where("account.disabled = ?", false).
		Order("points_balance.balance DESC, points_balance.account_id ASC").
		Limit(n).
		Scan(&entries).Error
	return entries, err
}

// ListAll 全量余额（对账任务使用）
func (r *BalanceRepository) ListAll(ctx context.Context, limit int) ([]*model.PointsBalance, error) {
	var balances []*model.PointsBalance
	err := r.db.WithContext(ctx).
		Order("account_id ASC").
		Limit(limit).
		Find(&balances).Error
	return balances, err
}
