package handler

import (
	"errors"
	"strconv"

	"donationsystem/internal/config"
	"donationsystem/internal/repository"
	"donationsystem/internal/service"
	"donationsystem/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	accountService    *service.AccountService
	campaignService   *service.CampaignService
	donationService   *service.DonationService
	pointsService     *service.PointsService
	redemptionService *service.RedemptionService
	rankingService    *service.RankingService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		accountService:    service.NewAccountService(db),
		campaignService:   service.NewCampaignService(db),
		donationService:   service.NewDonationService(db, rdb, cfg),
		pointsService:     service.NewPointsService(db, rdb, cfg),
		redemptionService: service.NewRedemptionService(db, rdb, cfg),
		rankingService:    service.NewRankingService(db, rdb, cfg),
	}
}

// handleError 把领域错误映射成业务码
// 每类错误一个码，前端据此给出具体提示
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrProfileNotFound),
		errors.Is(err, repository.ErrCampaignNotFound),
		errors.Is(err, repository.ErrDonationNotFound),
		errors.Is(err, repository.ErrBenefitNotFound),
		errors.Is(err, repository.ErrRedemptionNotFound),
		errors.Is(err, repository.ErrBalanceNotFound):
		response.BusinessError(c, response.CodeResourceNotFound, err.Error())
	case errors.Is(err, repository.ErrDonationStateInvalid),
		errors.Is(err, repository.ErrRedemptionStateInvalid):
		response.BusinessError(c, response.CodeInvalidStateTransition, err.Error())
	case errors.Is(err, repository.ErrInsufficientPoints):
		response.BusinessError(c, response.CodeInsufficientPoints, err.Error())
	case errors.Is(err, repository.ErrOutOfStock):
		response.BusinessError(c, response.CodeOutOfStock, err.Error())
	case errors.Is(err, repository.ErrBenefitDisabled):
		response.BusinessError(c, response.CodeBenefitDisabled, err.Error())
	case errors.Is(err, repository.ErrEmailExists):
		response.BusinessError(c, response.CodeDuplicateEmail, err.Error())
	case errors.Is(err, repository.ErrCampaignClosed):
		response.BusinessError(c, response.CodeCampaignClosed, err.Error())
	case errors.Is(err, service.ErrNotAuthorized),
		errors.Is(err, service.ErrRoleNotAllowed),
		errors.Is(err, service.ErrAccountDisabled):
		response.BusinessError(c, response.CodeNotAuthorized, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		response.BusinessError(c, response.CodeNotOwner, err.Error())
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidDonationType),
		errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrRejectReasonRequired),
		errors.Is(err, service.ErrInvalidRole):
		response.BusinessError(c, response.CodeValidationError, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 账号相关接口
// ============================================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        string `json:"role" binding:"required"`
	Nickname    string `json:"nickname"`
	Address     string `json:"address"`
	CompanyName string `json:"company_name"`
	BusinessNo  string `json:"business_no"`
	OrgName     string `json:"org_name"`
	Description string `json:"description"`
}

// Register 注册账号
// POST /api/v1/account/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), &service.RegisterRequest{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Role:        req.Role,
		Nickname:    req.Nickname,
		Address:     req.Address,
		CompanyName: req.CompanyName,
		BusinessNo:  req.BusinessNo,
		OrgName:     req.OrgName,
		Description: req.Description,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":    account.ID,
		"email": account.Email,
		"role":  account.Role,
	})
}

// GetMe 查询当前账号及档案
// GET /api/v1/account/me
func (h *Handler) GetMe(c *gin.Context) {
	userID := CurrentUserID(c)

	account, err := h.accountService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	profile, err := h.accountService.GetProfile(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"account": account,
		"profile": profile,
	})
}

// GetBalance 查询当前积分
// GET /api/v1/account/balance
func (h *Handler) GetBalance(c *gin.Context) {
	userID := CurrentUserID(c)

	balance, err := h.pointsService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"account_id": userID,
		"balance":    balance,
	})
}

// ListTransactions 查询积分流水
// GET /api/v1/account/transactions?page=1&page_size=10
func (h *Handler) ListTransactions(c *gin.Context) {
	userID := CurrentUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	transactions, total, err := h.pointsService.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      transactions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 募捐活动接口
// ============================================================

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Title           string `json:"title" binding:"required"`
	Detail          string `json:"detail"`
	GoalQuantity    int64  `json:"goal_quantity" binding:"required,gt=0"`
	PointMultiplier int64  `json:"point_multiplier"`
}

// CreateCampaign 发起募捐活动
// POST /api/v1/campaign/create
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), &service.CreateCampaignRequest{
		OrganizationID:  CurrentUserID(c),
		Title:           req.Title,
		Detail:          req.Detail,
		GoalQuantity:    req.GoalQuantity,
		PointMultiplier: req.PointMultiplier,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, campaign)
}

// CloseCampaign 关闭活动
// POST /api/v1/campaign/close
func (h *Handler) CloseCampaign(c *gin.Context) {
	var req struct {
		CampaignID int64 `json:"campaign_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.campaignService.Close(c.Request.Context(), req.CampaignID, CurrentUserID(c)); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message": "活动已关闭",
	})
}

// GetCampaign 查询活动详情
// GET /api/v1/campaign/detail?campaign_id=xxx
func (h *Handler) GetCampaign(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Query("campaign_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "campaign_id 参数错误")
		return
	}

	campaign, err := h.campaignService.Get(c.Request.Context(), campaignID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, campaign)
}

// ListCampaigns 查询活动列表
// GET /api/v1/campaign/list?page=1&page_size=10
func (h *Handler) ListCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaignService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      campaigns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 捐赠接口
// ============================================================

// SubmitDonationRequest 提交捐赠请求
type SubmitDonationRequest struct {
	CampaignID int64  `json:"campaign_id" binding:"required"`
	Type       string `json:"type" binding:"required"` // FOOD / CLOTHING / MONEY / SUPPLIES
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
	Detail     string `json:"detail"`
}

// SubmitDonation 提交捐赠
// POST /api/v1/donation/submit
func (h *Handler) SubmitDonation(c *gin.Context) {
	var req SubmitDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	donation, err := h.donationService.Submit(c.Request.Context(), &service.SubmitDonationRequest{
		DonorID:    CurrentUserID(c),
		CampaignID: req.CampaignID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Detail:     req.Detail,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":          donation.ID,
		"donation_no": donation.DonationNo,
		"status":      donation.Status,
	})
}

// ReviewDonationRequest 审核捐赠请求
type ReviewDonationRequest struct {
	DonationID int64  `json:"donation_id" binding:"required"`
	Decision   string `json:"decision" binding:"required"` // CONFIRMED / REJECTED
	Points     *int64 `json:"points"`                      // 为空时按计分策略
	Reason     string `json:"reason"`
}

// ReviewDonation 审核捐赠
// POST /api/v1/donation/review
//
// 【关键点】确认是积分的唯一来源，需要保证：
// 1. 只能从 PENDING 审核，重复审核报状态错误
// 2. 状态变更、积分入账、流水、事件消息同一事务
// 3. 审核人必须是活动所属组织或管理员
func (h *Handler) ReviewDonation(c *gin.Context) {
	var req ReviewDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	donation, err := h.donationService.Review(c.Request.Context(), &service.ReviewDonationRequest{
		DonationID: req.DonationID,
		ReviewerID: CurrentUserID(c),
		Decision:   req.Decision,
		Points:     req.Points,
		Reason:     req.Reason,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":             donation.ID,
		"donation_no":    donation.DonationNo,
		"status":         donation.Status,
		"points_awarded": donation.PointsAwarded,
	})
}

// DeliverDonation 标记送达
// POST /api/v1/donation/deliver
func (h *Handler) DeliverDonation(c *gin.Context) {
	var req struct {
		DonationID int64 `json:"donation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	donation, err := h.donationService.MarkDelivered(c.Request.Context(), req.DonationID, CurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":     donation.ID,
		"status": donation.Status,
	})
}

// GetDonation 查询捐赠详情
// GET /api/v1/donation/detail?donation_id=xxx
func (h *Handler) GetDonation(c *gin.Context) {
	donationID, err := strconv.ParseInt(c.Query("donation_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "donation_id 参数错误")
		return
	}

	donation, err := h.donationService.GetDonation(c.Request.Context(), donationID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, donation)
}

// ListDonations 查询本人捐赠列表
// GET /api/v1/donation/list?page=1&page_size=10
func (h *Handler) ListDonations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	donations, total, err := h.donationService.ListByDonor(c.Request.Context(), CurrentUserID(c), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      donations,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 权益与兑换接口
// ============================================================

// CreateBenefitRequest 创建权益请求
type CreateBenefitRequest struct {
	Title  string `json:"title" binding:"required"`
	Detail string `json:"detail"`
	Price  int64  `json:"price" binding:"required,gt=0"`
	Stock  int64  `json:"stock" binding:"gte=0"`
}

// CreateBenefit 创建权益（管理员）
// POST /api/v1/benefit/create
func (h *Handler) CreateBenefit(c *gin.Context) {
	var req CreateBenefitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	benefit, err := h.redemptionService.CreateBenefit(c.Request.Context(), &service.CreateBenefitRequest{
		ActorID: CurrentUserID(c),
		Title:   req.Title,
		Detail:  req.Detail,
		Price:   req.Price,
		Stock:   req.Stock,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, benefit)
}

// EnableBenefit 上架/下架权益（管理员）
// POST /api/v1/benefit/enable
func (h *Handler) EnableBenefit(c *gin.Context) {
	var req struct {
		BenefitID int64 `json:"benefit_id" binding:"required"`
		Enabled   *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.redemptionService.SetBenefitEnabled(c.Request.Context(), CurrentUserID(c), req.BenefitID, *req.Enabled); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message": "操作成功",
	})
}

// RestockBenefit 补货（管理员）
// POST /api/v1/benefit/restock
func (h *Handler) RestockBenefit(c *gin.Context) {
	var req struct {
		BenefitID int64 `json:"benefit_id" binding:"required"`
		Quantity  int64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.redemptionService.RestockBenefit(c.Request.Context(), CurrentUserID(c), req.BenefitID, req.Quantity); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message": "补货成功",
	})
}

// ListBenefits 查询权益列表
// GET /api/v1/benefit/list?page=1&page_size=10
func (h *Handler) ListBenefits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	benefits, total, err := h.redemptionService.ListBenefits(c.Request.Context(), true, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      benefits,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// RedeemRequest 兑换请求
type RedeemRequest struct {
	BenefitID int64 `json:"benefit_id" binding:"required"`
	Quantity  int64 `json:"quantity" binding:"required,gte=1"`
}

// Redeem 兑换权益
// POST /api/v1/redemption/redeem
//
// 【关键点】兑换是整个系统最核心的写操作，需要保证：
// 1. 库存扣减和积分扣减同一事务，不存在只扣一边的中间态
// 2. 并发抢最后一件库存时，恰好一个成功、其余 OutOfStock
// 3. 按用户加分布式锁，同一用户不能并发兑换
func (h *Handler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), &service.RedeemRequest{
		UserID:    CurrentUserID(c),
		BenefitID: req.BenefitID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, result)
}

// UseCoupon 核销兑换券
// POST /api/v1/redemption/use
func (h *Handler) UseCoupon(c *gin.Context) {
	var req struct {
		RedemptionID int64 `json:"redemption_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	redemption, err := h.redemptionService.UseCoupon(c.Request.Context(), req.RedemptionID, CurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":            redemption.ID,
		"redemption_no": redemption.RedemptionNo,
		"status":        redemption.Status,
	})
}

// ListRedemptions 查询本人兑换列表
// GET /api/v1/redemption/list?page=1&page_size=10
func (h *Handler) ListRedemptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	redemptions, total, err := h.redemptionService.ListByUser(c.Request.Context(), CurrentUserID(c), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      redemptions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 排行榜接口
// ============================================================

// GetRanking 查询积分排行榜
// GET /api/v1/ranking/top?limit=10
func (h *Handler) GetRanking(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		response.ParamError(c, "limit 参数错误")
		return
	}

	entries, err := h.rankingService.TopN(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list": entries,
	})
}
