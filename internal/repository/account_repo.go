package repository

import (
	"context"
	"errors"

	"donationsystem/internal/model"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("账号不存在")
	ErrEmailExists     = errors.New("邮箱已注册")
	ErrProfileNotFound = errors.New("账号档案不存在")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).Create(account).Error
	if err != nil {
		// 邮箱唯一索引冲突
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateProfile 创建角色档案
// account 的角色和档案类型必须一致，由 service 层保证
func (r *AccountRepository) CreateProfile(ctx context.Context, tx *gorm.DB, profile model.Profile) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(profile).Error
}

// GetProfile 按角色取出对应档案
func (r *AccountRepository) GetProfile(ctx context.Context, account *model.Account) (model.Profile, error) {
	switch account.Role {
	case model.RoleDonor:
		var p model.DonorProfile
		if err := r.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, err
		}
		return &p, nil
	case model.RoleCompany:
		var p model.CompanyProfile
		if err := r.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, err
		}
		return &p, nil
	case model.RoleOrganization:
		var p model.OrganizationProfile
		if err := r.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, err
		}
		return &p, nil
	default:
		// ADMIN 没有单独档案
		return nil, ErrProfileNotFound
	}
}
