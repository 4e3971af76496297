package service

import (
	"context"
	"fmt"

	"donationsystem/internal/model"
	"donationsystem/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService 账号注册与查询
// 认证/会话不在本系统内，这里只负责账号、角色档案和初始积分账户的创建
type AccountService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		db:          db,
		accountRepo: repository.NewAccountRepository(db),
	}
}

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
	Role     string
	// 档案字段，按角色取用
	Nickname    string
	Address     string
	CompanyName string
	BusinessNo  string
	OrgName     string
	Description string
}

// Register 创建账号 + 角色档案 + 零余额积分账户，单事务
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*model.Account, error) {
	if !model.ValidRoles[req.Role] {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成凭证哈希失败: %w", err)
	}

	account := &model.Account{
		Email:          req.Email,
		Name:           req.Name,
		CredentialHash: string(hash),
		Role:           req.Role,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}

		// 角色档案：一条账号记录 + 按角色的档案记录
		switch req.Role {
		case model.RoleDonor:
			if err := s.accountRepo.CreateProfile(ctx, tx, &model.DonorProfile{
				AccountID: account.ID,
				Nickname:  req.Nickname,
				Address:   req.Address,
			}); err != nil {
				return fmt.Errorf("创建档案失败: %w", err)
			}
		case model.RoleCompany:
			if err := s.accountRepo.CreateProfile(ctx, tx, &model.CompanyProfile{
				AccountID:   account.ID,
				CompanyName: req.CompanyName,
				BusinessNo:  req.BusinessNo,
			}); err != nil {
				return fmt.Errorf("创建档案失败: %w", err)
			}
		case model.RoleOrganization:
			if err := s.accountRepo.CreateProfile(ctx, tx, &model.OrganizationProfile{
				AccountID:   account.ID,
				OrgName:     req.OrgName,
				Description: req.Description,
			}); err != nil {
				return fmt.Errorf("创建档案失败: %w", err)
			}
		case model.RoleAdmin:
			// 管理员没有单独档案
		}

		// 初始积分账户
		if err := tx.WithContext(ctx).Create(&model.PointsBalance{
			AccountID: account.ID,
			Balance:   0,
		}).Error; err != nil {
			return fmt.Errorf("创建积分账户失败: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	return s.accountRepo.GetByID(ctx, accountID)
}

// GetProfile 取账号的角色档案
func (s *AccountService) GetProfile(ctx context.Context, accountID int64) (model.Profile, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.accountRepo.GetProfile(ctx, account)
}
