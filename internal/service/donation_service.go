package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/model"
	"donationsystem/internal/repository"
	"donationsystem/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	ReviewDecisionConfirm = "CONFIRMED"
	ReviewDecisionReject  = "REJECTED"
)

// DonationService 捐赠台账
// 捐赠状态机的唯一写入口，也是积分入账事件的唯一来源
type DonationService struct {
	db           *gorm.DB
	cfg          *config.Config
	donationRepo *repository.DonationRepository
	campaignRepo *repository.CampaignRepository
	accountRepo  *repository.AccountRepository
	outboxRepo   *repository.OutboxRepository
	points       *PointsService
	scoring      ScoringPolicy
}

func NewDonationService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *DonationService {
	return &DonationService{
		db:           db,
		cfg:          cfg,
		donationRepo: repository.NewDonationRepository(db),
		campaignRepo: repository.NewCampaignRepository(db),
		accountRepo:  repository.NewAccountRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
		points:       NewPointsService(db, redisClient, cfg),
		scoring:      MultiplierPolicy{DefaultMultiplier: int64(cfg.Business.DefaultMultiplier)},
	}
}

// SetScoringPolicy 替换计分策略（默认为数量×活动系数）
func (s *DonationService) SetScoringPolicy(policy ScoringPolicy) {
	s.scoring = policy
}

type SubmitDonationRequest struct {
	DonorID    int64
	CampaignID int64
	Type       string
	Quantity   int64
	Detail     string
}

// Submit 提交捐赠，落库为 PENDING，等待活动组织方审核
func (s *DonationService) Submit(ctx context.Context, req *SubmitDonationRequest) (*model.Donation, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !model.ValidDonationTypes[req.Type] {
		return nil, ErrInvalidDonationType
	}

	donor, err := s.accountRepo.GetByID(ctx, req.DonorID)
	if err != nil {
		return nil, err
	}
	if donor.Disabled {
		return nil, ErrAccountDisabled
	}

	campaign, err := s.campaignRepo.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusOpen {
		return nil, repository.ErrCampaignClosed
	}

	donation := &model.Donation{
		DonationNo: idgen.GenerateDonationNo(),
		DonorID:    req.DonorID,
		CampaignID: req.CampaignID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Detail:     req.Detail,
		Status:     model.DonationStatusPending,
	}

	if err := s.donationRepo.Create(ctx, nil, donation); err != nil {
		return nil, fmt.Errorf("创建捐赠记录失败: %w", err)
	}

	return donation, nil
}

type ReviewDonationRequest struct {
	DonationID int64
	ReviewerID int64
	Decision   string // CONFIRMED / REJECTED
	Points     *int64 // 为空时走计分策略
	Reason     string // 驳回原因
}

// Review 审核捐赠
//
// 【关键点】确认路径是整个系统积分的唯一来源，需要保证：
// 1. 只能从 PENDING 审核（条件 UPDATE 兜底并发的重复审核）
// 2. 积分写入、余额入账、流水、outbox 消息同一事务，要么全成要么全无
// 3. 入账以捐赠单号为幂等键，事务提交后补偿重试不会重复加积分
func (s *DonationService) Review(ctx context.Context, req *ReviewDonationRequest) (*model.Donation, error) {
	if req.Decision != ReviewDecisionConfirm && req.Decision != ReviewDecisionReject {
		return nil, ErrInvalidDecision
	}

	donation, err := s.donationRepo.GetByID(ctx, req.DonationID)
	if err != nil {
		return nil, err
	}

	// 先做快速失败，最终一致还是靠条件 UPDATE
	if donation.Status != model.DonationStatusPending {
		return nil, repository.ErrDonationStateInvalid
	}

	campaign, err := s.campaignRepo.GetByID(ctx, donation.CampaignID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeReviewer(ctx, req.ReviewerID, campaign); err != nil {
		return nil, err
	}

	if req.Decision == ReviewDecisionReject {
		if req.Reason == "" {
			return nil, ErrRejectReasonRequired
		}
		if err := s.donationRepo.Reject(ctx, nil, donation.ID, req.ReviewerID, req.Reason); err != nil {
			return nil, err
		}
		return s.donationRepo.GetByID(ctx, donation.ID)
	}

	// 确认：积分值取审核方给定值，否则由计分策略算出
	points := s.scoring.Score(donation, campaign)
	if req.Points != nil {
		if *req.Points <= 0 {
			return nil, ErrInvalidAmount
		}
		points = *req.Points
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.donationRepo.Confirm(ctx, tx, donation.ID, req.ReviewerID, points); err != nil {
			return err
		}

		remark := fmt.Sprintf("捐赠确认-%s-%s", donation.Type, donation.DonationNo)
		if err := s.points.Credit(ctx, tx, donation.DonorID, points, donation.DonationNo, remark); err != nil {
			return err
		}

		msgPayload := map[string]interface{}{
			"donation_no": donation.DonationNo,
			"donor_id":    donation.DonorID,
			"campaign_id": donation.CampaignID,
			"status":      model.DonationStatusConfirmed,
			"points":      points,
			"reviewed_at": time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: donation.DonationNo,
			Topic:      s.cfg.Kafka.Topic.DonationEvent,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("捐赠确认: donationNo=%s, donorID=%d, points=%d", donation.DonationNo, donation.DonorID, points)

	return s.donationRepo.GetByID(ctx, donation.ID)
}

// MarkDelivered 标记送达（CONFIRMED -> DELIVERED），不影响积分
func (s *DonationService) MarkDelivered(ctx context.Context, donationID, reviewerID int64) (*model.Donation, error) {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}

	campaign, err := s.campaignRepo.GetByID(ctx, donation.CampaignID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeReviewer(ctx, reviewerID, campaign); err != nil {
		return nil, err
	}

	if err := s.donationRepo.MarkDelivered(ctx, donation.ID); err != nil {
		return nil, err
	}

	return s.donationRepo.GetByID(ctx, donation.ID)
}

func (s *DonationService) GetDonation(ctx context.Context, donationID int64) (*model.Donation, error) {
	return s.donationRepo.GetByID(ctx, donationID)
}

func (s *DonationService) ListByDonor(ctx context.Context, donorID int64, page, pageSize int) ([]*model.Donation, int64, error) {
	return s.donationRepo.ListByDonorID(ctx, donorID, page, pageSize)
}

// authorizeReviewer 审核授权：活动所属组织或管理员
func (s *DonationService) authorizeReviewer(ctx context.Context, reviewerID int64, campaign *model.Campaign) error {
	reviewer, err := s.accountRepo.GetByID(ctx, reviewerID)
	if err != nil {
		return err
	}
	if reviewer.Disabled {
		return ErrAccountDisabled
	}

	switch reviewer.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleOrganization:
		if campaign.OrganizationID == reviewer.ID {
			return nil
		}
		return ErrNotAuthorized
	default:
		return ErrNotAuthorized
	}
}
