package repository

import (
	"context"
	"errors"

	"donationsystem/internal/model"

	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound = errors.New("募捐活动不存在")
	ErrCampaignClosed   = errors.New("募捐活动已结束")
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// Close 关闭活动（OPEN -> CLOSED 的条件更新）
func (r *CampaignRepository) Close(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Campaign{}).
		Where("id = ? AND status = ?", id, model.CampaignStatusOpen).
		Update("status", model.CampaignStatusClosed)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCampaignClosed
	}

	return nil
}

func (r *CampaignRepository) List(ctx context.Context, page, pageSize int) ([]*model.Campaign, int64, error) {
	var campaigns []*model.Campaign
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Campaign{})

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error

	return campaigns, total, err
}
