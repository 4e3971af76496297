package job

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var jobTestDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:jobtestdb%d?mode=memory&cache=shared", atomic.AddInt64(&jobTestDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.PointsBalance{},
		&model.PointTransaction{},
		&model.Redemption{},
	))
	return db
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Business.RedemptionValidDays = 90
	cfg.Business.MaxRetryCount = 3
	return cfg
}

func TestExpireRedemptions(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	j := NewRedemptionExpiryJob(db, cfg)

	old := time.Now().AddDate(0, 0, -91)
	usedAt := time.Now().AddDate(0, 0, -30)
	redemptions := []*model.Redemption{
		{RedemptionNo: "RDM001", UserID: 1, BenefitID: 1, Quantity: 1,
			PointsSpent: 10, Status: model.RedemptionStatusActive, CreatedAt: old},
		// 已核销的不受过期影响
		{RedemptionNo: "RDM002", UserID: 1, BenefitID: 1, Quantity: 1,
			PointsSpent: 10, Status: model.RedemptionStatusUsed, UsedAt: &usedAt, CreatedAt: old},
		// 有效期内的不动
		{RedemptionNo: "RDM003", UserID: 2, BenefitID: 1, Quantity: 1,
			PointsSpent: 10, Status: model.RedemptionStatusActive},
	}
	for _, r := range redemptions {
		require.NoError(t, db.Create(r).Error)
	}

	j.expireRedemptions(context.Background())

	var fresh model.Redemption
	require.NoError(t, db.Where("redemption_no = ?", "RDM001").First(&fresh).Error)
	assert.Equal(t, model.RedemptionStatusExpired, fresh.Status)

	fresh = model.Redemption{}
	require.NoError(t, db.Where("redemption_no = ?", "RDM002").First(&fresh).Error)
	assert.Equal(t, model.RedemptionStatusUsed, fresh.Status)

	fresh = model.Redemption{}
	require.NoError(t, db.Where("redemption_no = ?", "RDM003").First(&fresh).Error)
	assert.Equal(t, model.RedemptionStatusActive, fresh.Status)
}

func TestAuditBalancesReportsMismatch(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	j := NewBalanceAuditJob(db, cfg)

	// 账户1：余额与流水一致
	require.NoError(t, db.Create(&model.PointsBalance{AccountID: 1, Balance: 70}).Error)
	require.NoError(t, db.Create(&model.PointTransaction{
		TransactionNo: "TXN001", AccountID: 1, CauseID: "DON001", Amount: 100,
		Type: model.PointTransactionTypeCredit, BalanceBefore: 0, BalanceAfter: 100,
	}).Error)
	require.NoError(t, db.Create(&model.PointTransaction{
		TransactionNo: "TXN002", AccountID: 1, CauseID: "RDM001", Amount: -30,
		Type: model.PointTransactionTypeDebit, BalanceBefore: 100, BalanceAfter: 70,
	}).Error)

	// 账户2：余额被人为改错
	require.NoError(t, db.Create(&model.PointsBalance{AccountID: 2, Balance: 999}).Error)
	require.NoError(t, db.Create(&model.PointTransaction{
		TransactionNo: "TXN003", AccountID: 2, CauseID: "DON002", Amount: 50,
		Type: model.PointTransactionTypeCredit, BalanceBefore: 0, BalanceAfter: 50,
	}).Error)

	var buf bytes.Buffer
	original := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(original) })

	j.auditBalances(context.Background())

	output := buf.String()
	assert.Contains(t, output, "accountID=2")
	assert.NotContains(t, output, "accountID=1,")
	assert.Contains(t, output, "1 个不一致账户")
}
