package handler

import (
	"donationsystem/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 注册不需要身份
		api.POST("/account/register", h.Register)

		// 其余接口都要求认证层注入的 X-User-ID
		authed := api.Group("", IdentityMiddleware())
		{
			// 账号相关
			account := authed.Group("/account")
			{
				account.GET("/me", h.GetMe)
				account.GET("/balance", h.GetBalance)
				account.GET("/transactions", h.ListTransactions)
			}

			// 募捐活动
			campaign := authed.Group("/campaign")
			{
				campaign.POST("/create", h.CreateCampaign)
				campaign.POST("/close", h.CloseCampaign)
				campaign.GET("/detail", h.GetCampaign)
				campaign.GET("/list", h.ListCampaigns)
			}

			// 捐赠
			donation := authed.Group("/donation")
			{
				donation.POST("/submit", h.SubmitDonation)
				donation.POST("/review", h.ReviewDonation)
				donation.POST("/deliver", h.DeliverDonation)
				donation.GET("/detail", h.GetDonation)
				donation.GET("/list", h.ListDonations)
			}

			// 权益
			benefit := authed.Group("/benefit")
			{
				benefit.POST("/create", h.CreateBenefit)
				benefit.POST("/enable", h.EnableBenefit)
				benefit.POST("/restock", h.RestockBenefit)
				benefit.GET("/list", h.ListBenefits)
			}

			// 兑换
			redemption := authed.Group("/redemption")
			{
				redemption.POST("/redeem", h.Redeem)
				redemption.POST("/use", h.UseCoupon)
				redemption.GET("/list", h.ListRedemptions)
			}

			// 排行榜
			ranking := authed.Group("/ranking")
			{
				ranking.GET("/top", h.GetRanking)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
