package service

import (
	"context"
	"fmt"

	"donationsystem/internal/model"
	"donationsystem/internal/repository"

	"gorm.io/gorm"
)

// CampaignService 募捐活动管理
type CampaignService struct {
	db           *gorm.DB
	campaignRepo *repository.CampaignRepository
	accountRepo  *repository.AccountRepository
}

func NewCampaignService(db *gorm.DB) *CampaignService {
	return &CampaignService{
		db:           db,
		campaignRepo: repository.NewCampaignRepository(db),
		accountRepo:  repository.NewAccountRepository(db),
	}
}

type CreateCampaignRequest struct {
	OrganizationID  int64
	Title           string
	Detail          string
	GoalQuantity    int64
	PointMultiplier int64
}

// Create 发起募捐活动，仅公益组织角色可操作
func (s *CampaignService) Create(ctx context.Context, req *CreateCampaignRequest) (*model.Campaign, error) {
	if req.GoalQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	org, err := s.accountRepo.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org.Role != model.RoleOrganization {
		return nil, ErrRoleNotAllowed
	}
	if org.Disabled {
		return nil, ErrAccountDisabled
	}

	campaign := &model.Campaign{
		OrganizationID:  req.OrganizationID,
		Title:           req.Title,
		Detail:          req.Detail,
		GoalQuantity:    req.GoalQuantity,
		PointMultiplier: req.PointMultiplier,
		Status:          model.CampaignStatusOpen,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("创建活动失败: %w", err)
	}

	return campaign, nil
}

// Close 关闭活动，发起组织或管理员可操作
func (s *CampaignService) Close(ctx context.Context, campaignID, actorID int64) error {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	actor, err := s.accountRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	if actor.Role != model.RoleAdmin && campaign.OrganizationID != actor.ID {
		return ErrNotAuthorized
	}

	return s.campaignRepo.Close(ctx, campaignID)
}

func (s *CampaignService) Get(ctx context.Context, campaignID int64) (*model.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, campaignID)
}

func (s *CampaignService) List(ctx context.Context, page, pageSize int) ([]*model.Campaign, int64, error) {
	return s.campaignRepo.List(ctx, page, pageSize)
}
