package repository

import (
	"context"
	"errors"

	"donationsystem/internal/model"

	"gorm.io/gorm"
)

var (
	ErrBenefitNotFound = errors.New("权益不存在")
	ErrOutOfStock      = errors.New("库存不足")
	ErrBenefitDisabled = errors.New("权益已下架")
)

type BenefitRepository struct {
	db *gorm.DB
}

func NewBenefitRepository(db *gorm.DB) *BenefitRepository {
	return &BenefitRepository{db: db}
}

func (r *BenefitRepository) Create(ctx context.Context, benefit *model.Benefit) error {
	return r.db.WithContext(ctx).Create(benefit).Error
}

func (r *BenefitRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Benefit, error) {
	if tx == nil {
		tx = r.db
	}
	var benefit model.Benefit
	err := tx.WithContext(ctx).Where("id = ?", id).First(&benefit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBenefitNotFound
		}
		return nil, err
	}
	return &benefit, nil
}

// DecrementStock 扣减库存
//
// 【关键点】WHERE stock >= ? AND enabled = true 的条件更新就是库存的
// "检查+扣减"原子操作。两个请求并发抢最后一件时，数据库只让一个
// UPDATE 生效，另一个 RowsAffected == 0，回头区分是下架还是没货。
func (r *BenefitRepository) DecrementStock(ctx context.Context, tx *gorm.DB, benefitID int64, quantity int64) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Benefit{}).
		Where("id = ? AND enabled = ? AND stock >= ?", benefitID, true, quantity).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock - ?", quantity),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		benefit, err := r.GetByID(ctx, tx, benefitID)
		if err != nil {
			return err
		}
		if !benefit.Enabled {
			return ErrBenefitDisabled
		}
		return ErrOutOfStock
	}

	return nil
}

// IncrementStock 补货
func (r *BenefitRepository) IncrementStock(ctx context.Context, benefitID int64, quantity int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Benefit{}).
		Where("id = ?", benefitID).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock + ?", quantity),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrBenefitNotFound
	}

	return nil
}

func (r *BenefitRepository) SetEnabled(ctx context.Context, benefitID int64, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Benefit{}).
		Where("id = ?", benefitID).
		Update("enabled", enabled)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrBenefitNotFound
	}

	return nil
}

func (r *BenefitRepository) List(ctx context.Context, onlyEnabled bool, page, pageSize int) ([]*model.Benefit, int64, error) {
	var benefits []*model.Benefit
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Benefit{})
	if onlyEnabled {
		query = query.Where("enabled = ?", true)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&benefits).Error

	return benefits, total, err
}
