package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/infrastructure/lock"
	"donationsystem/internal/model"
	"donationsystem/internal/repository"
	"donationsystem/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// RedemptionService 权益兑换
//
// 【关键点】兑换是整个系统最尖锐的正确性要求所在：
// 1. 库存扣减和积分扣减在同一事务里，要么都成要么都不成
// 2. 先查库存再查积分，并发争抢时错误是确定的（先报没货）
// 3. 两个请求抢最后一件库存，必须恰好一个成功、一个 OutOfStock
type RedemptionService struct {
	db             *gorm.DB
	redisClient    *redis.Client
	cfg            *config.Config
	benefitRepo    *repository.BenefitRepository
	redemptionRepo *repository.RedemptionRepository
	accountRepo    *repository.AccountRepository
	outboxRepo     *repository.OutboxRepository
	points         *PointsService
}

func NewRedemptionService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RedemptionService {
	return &RedemptionService{
		db:             db,
		redisClient:    redisClient,
		cfg:            cfg,
		benefitRepo:    repository.NewBenefitRepository(db),
		redemptionRepo: repository.NewRedemptionRepository(db),
		accountRepo:    repository.NewAccountRepository(db),
		outboxRepo:     repository.NewOutboxRepository(db),
		points:         NewPointsService(db, redisClient, cfg),
	}
}

type RedeemRequest struct {
	UserID    int64
	BenefitID int64
	Quantity  int64
}

type RedeemResponse struct {
	RedemptionNo string `json:"redemption_no"`
	BenefitID    int64  `json:"benefit_id"`
	Quantity     int64  `json:"quantity"`
	PointsSpent  int64  `json:"points_spent"`
	Balance      int64  `json:"balance"` // 兑换后余额
	Status       string `json:"status"`
}

// Redeem 用积分兑换权益
func (s *RedemptionService) Redeem(ctx context.Context, req *RedeemRequest) (*RedeemResponse, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	benefit, err := s.benefitRepo.GetByID(ctx, nil, req.BenefitID)
	if err != nil {
		return nil, err
	}
	if !benefit.Enabled {
		return nil, repository.ErrBenefitDisabled
	}

	cost := benefit.Price * req.Quantity
	redemptionNo := idgen.GenerateRedemptionNo()

	// 按用户维度加分布式锁，挡住同一用户的并发兑换；
	// 库存维度的竞争交给事务里的条件 UPDATE
	redeemLock := lock.NewRedeemLock(s.redisClient, req.UserID, redemptionNo)
	err = redeemLock.Lock(ctx, 100*time.Millisecond, 30)
	if err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer redeemLock.Unlock(ctx)

	redemption := &model.Redemption{
		RedemptionNo: redemptionNo,
		UserID:       req.UserID,
		BenefitID:    req.BenefitID,
		Quantity:     req.Quantity,
		PointsSpent:  cost, // 按兑换时单价固定，后续调价不影响
		Status:       model.RedemptionStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 库存先扣：争抢时先给确定的 OutOfStock
		if err := s.benefitRepo.DecrementStock(ctx, tx, req.BenefitID, req.Quantity); err != nil {
			return err
		}

		remark := fmt.Sprintf("兑换-%s-%s", benefit.Title, redemptionNo)
		if err := s.points.Debit(ctx, tx, req.UserID, cost, redemptionNo, remark); err != nil {
			return err
		}

		if err := s.redemptionRepo.Create(ctx, tx, redemption); err != nil {
			return fmt.Errorf("创建兑换记录失败: %w", err)
		}

		msgPayload := map[string]interface{}{
			"redemption_no": redemptionNo,
			"user_id":       req.UserID,
			"benefit_id":    req.BenefitID,
			"quantity":      req.Quantity,
			"points_spent":  cost,
			"status":        model.RedemptionStatusActive,
			"redeemed_at":   time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: redemptionNo,
			Topic:      s.cfg.Kafka.Topic.RedemptionEvent,
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

	balance, err := s.points.GetBalance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	log.Printf("兑换成功: redemptionNo=%s, userID=%d, benefitID=%d, cost=%d",
		redemptionNo, req.UserID, req.BenefitID, cost)

	return &RedeemResponse{
		RedemptionNo: redemptionNo,
		BenefitID:    req.BenefitID,
		Quantity:     req.Quantity,
		PointsSpent:  cost,
		Balance:      balance,
		Status:       model.RedemptionStatusActive,
	}, nil
}

// UseCoupon 核销兑换券（ACTIVE -> USED，仅持有人可操作）
func (s *RedemptionService) UseCoupon(ctx context.Context, redemptionID, userID int64) (*model.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByID(ctx, redemptionID)
	if err != nil {
		return nil, err
	}

	if redemption.UserID != userID {
		return nil, ErrNotOwner
	}

	err = s.redemptionRepo.UpdateStatus(ctx, nil, redemption.ID,
		model.RedemptionStatusActive, model.RedemptionStatusUsed)
	if err != nil {
		return nil, err
	}

	return s.redemptionRepo.GetByID(ctx, redemption.ID)
}

func (s *RedemptionService) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.Redemption, int64, error) {
	return s.redemptionRepo.ListByUserID(ctx, userID, page, pageSize)
}

// ============================================================
// 权益目录管理（管理员）
// ============================================================

type CreateBenefitRequest struct {
	ActorID int64
	Title   string
	Detail  string
	Price   int64
	Stock   int64
}

func (s *RedemptionService) CreateBenefit(ctx context.Context, req *CreateBenefitRequest) (*model.Benefit, error) {
	if req.Price <= 0 || req.Stock < 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.requireAdmin(ctx, req.ActorID); err != nil {
		return nil, err
	}

	benefit := &model.Benefit{
		Title:   req.Title,
		Detail:  req.Detail,
		Price:   req.Price,
		Stock:   req.Stock,
		Enabled: true,
	}
	if err := s.benefitRepo.Create(ctx, benefit); err != nil {
		return nil, fmt.Errorf("创建权益失败: %w", err)
	}
	return benefit, nil
}

func (s *RedemptionService) SetBenefitEnabled(ctx context.Context, actorID, benefitID int64, enabled bool) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.benefitRepo.SetEnabled(ctx, benefitID, enabled)
}

func (s *RedemptionService) RestockBenefit(ctx context.Context, actorID, benefitID, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.benefitRepo.IncrementStock(ctx, benefitID, quantity)
}

func (s *RedemptionService) ListBenefits(ctx context.Context, onlyEnabled bool, page, pageSize int) ([]*model.Benefit, int64, error) {
	return s.benefitRepo.List(ctx, onlyEnabled, page, pageSize)
}

func (s *RedemptionService) requireAdmin(ctx context.Context, actorID int64) error {
	actor, err := s.accountRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin {
		return ErrRoleNotAllowed
	}
	return nil
}
