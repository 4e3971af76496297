package repository

import (
	"context"
	"errors"

	"donationsystem/internal/model"

	"gorm.io/gorm"
)

var ErrDuplicateCause = errors.New("该因果事件已记账")

type PointTransactionRepository struct {
	db *gorm.DB
}

func NewPointTransactionRepository(db *gorm.DB) *PointTransactionRepository {
	return &PointTransactionRepository{db: db}
}

// Create 追加一条积分流水
// cause_id 唯一索引兜底：同一因果事件并发重放时只会有一条插入成功
func (r *PointTransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.PointTransaction) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).Create(trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCause
		}
		return err
	}
	return nil
}

func (r *PointTransactionRepository) GetByCauseID(ctx context.Context, tx *gorm.DB, causeID string) (*model.PointTransaction, error) {
	if tx == nil {
		tx = r.db
	}
	var trans model.PointTransaction
	err := tx.WithContext(ctx).Where("cause_id = ?", causeID).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

func (r *PointTransactionRepository) ListByAccountID(ctx context.Context, accountID int64, page, pageSize int) ([]*model.PointTransaction, int64, error) {
	var transactions []*model.PointTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointTransaction{}).Where("account_id = ?", accountID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// SumByAccountID 按流水重算余额（对账任务使用，正常路径不走这里）
func (r *PointTransactionRepository) SumByAccountID(ctx context.Context, accountID int64) (int64, error) {
	var sum *int64
	err := r.db.WithContext(ctx).
		Model(&model.PointTransaction{}).
		Where("account_id = ?", accountID).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
