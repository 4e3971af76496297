package repository

import (
	"context"
	"errors"
	"time"

	"donationsystem/internal/model"

	"gorm.io/gorm"
)

var (
	ErrDonationNotFound     = errors.New("捐赠记录不存在")
	ErrDonationStateInvalid = errors.New("捐赠状态不允许该操作")
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, tx *gorm.DB, donation *model.Donation) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(donation).Error
}

func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	var donation model.Donation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (r *DonationRepository) GetByDonationNo(ctx context.Context, donationNo string) (*model.Donation, error) {
	var donation model.Donation
	err := r.db.WithContext(ctx).Where("donation_no = ?", donationNo).First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

// Confirm 确认捐赠：PENDING -> CONFIRMED，同时写入积分值和审核信息
//
// 【关键点】WHERE status = PENDING 的条件更新是"积分只发一次"的执行层保证：
// 两个审核请求并发到达时，只有第一个 UPDATE 生效，第二个 RowsAffected == 0。
// 积分值在这次更新中写入，之后没有任何路径再改它。
func (r *DonationRepository) Confirm(ctx context.Context, tx *gorm.DB, donationID int64, reviewerID, points int64) error {
	if !model.CanDonationTransitionTo(model.DonationStatusPending, model.DonationStatusConfirmed) {
		return ErrDonationStateInvalid
	}

	if tx == nil {
		tx = r.db
	}

	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.Donation{}).
		Where("id = ? AND status = ?", donationID, model.DonationStatusPending).
		Updates(map[string]interface{}{
			"status":         model.DonationStatusConfirmed,
			"points_awarded": points,
			"reviewer_id":    reviewerID,
			"reviewed_at":    &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDonationStateInvalid
	}

	return nil
}

// Reject 驳回捐赠：PENDING -> REJECTED，不产生积分
func (r *DonationRepository) Reject(ctx context.Context, tx *gorm.DB, donationID int64, reviewerID int64, reason string) error {
	if tx == nil {
		tx = r.db
	}

	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.Donation{}).
		Where("id = ? AND status = ?", donationID, model.DonationStatusPending).
		Updates(map[string]interface{}{
			"status":        model.DonationStatusRejected,
			"reject_reason": reason,
			"reviewer_id":   reviewerID,
			"reviewed_at":   &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDonationStateInvalid
	}

	return nil
}

// MarkDelivered 送达：CONFIRMED -> DELIVERED，纯信息性，不动积分
func (r *DonationRepository) MarkDelivered(ctx context.Context, donationID int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Donation{}).
		Where("id = ? AND status = ?", donationID, model.DonationStatusConfirmed).
		Updates(map[string]interface{}{
			"status":       model.DonationStatusDelivered,
			"delivered_at": &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDonationStateInvalid
	}

	return nil
}

func (r *DonationRepository) ListByDonorID(ctx context.Context, donorID int64, page, pageSize int) ([]*model.Donation, int64, error) {
	var donations []*model.Donation
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Donation{}).Where("donor_id = ?", donorID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&donations).Error

	return donations, total, err
}

func (r *DonationRepository) ListByCampaignID(ctx context.Context, campaignID int64, page, pageSize int) ([]*model.Donation, int64, error) {
	var donations []*model.Donation
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Donation{}).Where("campaign_id = ?", campaignID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&donations).Error

	return donations, total, err
}
