package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"donationsystem/internal/config"
	"donationsystem/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testDBSeq  int64
	testAccSeq int64
)

type testEnv struct {
	db  *gorm.DB
	rdb *redis.Client
	cfg *config.Config

	accounts    *AccountService
	campaigns   *CampaignService
	donations   *DonationService
	points      *PointsService
	redemptions *RedemptionService
	ranking     *RankingService
}

// newTestEnv 内存 SQLite + miniredis 的测试环境
// 连接池限制为 1，公共操作之间天然串行，事务内部全部走同一连接
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Account{},
		&model.DonorProfile{},
		&model.CompanyProfile{},
		&model.OrganizationProfile{},
		&model.Campaign{},
		&model.Donation{},
		&model.PointsBalance{},
		&model.PointTransaction{},
		&model.Benefit{},
		&model.Redemption{},
		&model.OutboxMessage{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Kafka.Topic.DonationEvent = "donation-event"
	cfg.Kafka.Topic.RedemptionEvent = "redemption-event"
	cfg.Business.RankingCacheSeconds = 30
	cfg.Business.RedemptionValidDays = 90
	cfg.Business.MaxRetryCount = 3
	cfg.Business.DefaultMultiplier = 1

	return &testEnv{
		db:          db,
		rdb:         rdb,
		cfg:         cfg,
		accounts:    NewAccountService(db),
		campaigns:   NewCampaignService(db),
		donations:   NewDonationService(db, rdb, cfg),
		points:      NewPointsService(db, rdb, cfg),
		redemptions: NewRedemptionService(db, rdb, cfg),
		ranking:     NewRankingService(db, rdb, cfg),
	}
}

func (e *testEnv) mustRegister(t *testing.T, role, name string) *model.Account {
	t.Helper()
	seq := atomic.AddInt64(&testAccSeq, 1)
	account, err := e.accounts.Register(context.Background(), &RegisterRequest{
		Email:    fmt.Sprintf("%s%d@example.com", name, seq),
		Name:     name,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) mustCreateCampaign(t *testing.T, orgID int64, multiplier int64) *model.Campaign {
	t.Helper()
	campaign, err := e.campaigns.Create(context.Background(), &CreateCampaignRequest{
		OrganizationID:  orgID,
		Title:           "冬季衣物募集",
		GoalQuantity:    1000,
		PointMultiplier: multiplier,
	})
	require.NoError(t, err)
	return campaign
}

func (e *testEnv) mustCreateBenefit(t *testing.T, adminID, price, stock int64) *model.Benefit {
	t.Helper()
	benefit, err := e.redemptions.CreateBenefit(context.Background(), &CreateBenefitRequest{
		ActorID: adminID,
		Title:   "咖啡券",
		Price:   price,
		Stock:   stock,
	})
	require.NoError(t, err)
	return benefit
}

// mustCredit 直接入账，给测试准备积分
func (e *testEnv) mustCredit(t *testing.T, accountID, amount int64) {
	t.Helper()
	causeID := fmt.Sprintf("TESTCAUSE%d", atomic.AddInt64(&testAccSeq, 1))
	require.NoError(t, e.points.Credit(context.Background(), nil, accountID, amount, causeID, "测试入账"))
}

func int64Ptr(v int64) *int64 {
	return &v
}
