package repository

import (
	"context"
	"errors"
	"time"

	"donationsystem/internal/model"

	"gorm.io/gorm"
)

var (
	ErrRedemptionNotFound     = errors.New("兑换记录不存在")
	ErrRedemptionStateInvalid = errors.New("兑换券状态不允许该操作")
)

type RedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Create(ctx context.Context, tx *gorm.DB, redemption *model.Redemption) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(redemption).Error
}

func (r *RedemptionRepository) GetByID(ctx context.Context, id int64) (*model.Redemption, error) {
	var redemption model.Redemption
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRedemptionNotFound
		}
		return nil, err
	}
	return &redemption, nil
}

func (r *RedemptionRepository) GetByRedemptionNo(ctx context.Context, redemptionNo string) (*model.Redemption, error) {
	var redemption model.Redemption
	err := r.db.WithContext(ctx).Where("redemption_no = ?", redemptionNo).First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRedemptionNotFound
		}
		return nil, err
	}
	return &redemption, nil
}

// UpdateStatus 状态转换（条件更新，ACTIVE 是唯一可变状态）
func (r *RedemptionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, redemptionID int64, fromStatus, toStatus string) error {
	if !model.CanRedemptionTransitionTo(fromStatus, toStatus) {
		return ErrRedemptionStateInvalid
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status": toStatus,
	}

	if toStatus == model.RedemptionStatusUsed {
		now := time.Now()
		updates["used_at"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.Redemption{}).
		Where("id = ? AND status = ?", redemptionID, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRedemptionStateInvalid
	}

	return nil
}

func (r *RedemptionRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.Redemption, int64, error) {
	var redemptions []*model.Redemption
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Redemption{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&redemptions).Error

	return redemptions, total, err
}

// GetActiveCreatedBefore 过期任务使用：取出超过有效期仍为 ACTIVE 的兑换券
func (r *RedemptionRepository) GetActiveCreatedBefore(ctx context.Context, beforeTime time.Time, limit int) ([]*model.Redemption, error) {
	var redemptions []*model.Redemption
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.RedemptionStatusActive, beforeTime).
		Limit(limit).
		Find(&redemptions).Error
	return redemptions, err
}
