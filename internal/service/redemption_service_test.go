package service

import (
	"context"
	"sync"
	"testing"

	"donationsystem/internal/model"
	"donationsystem/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 捐赠确认 -> 积分入账 -> 兑换扣减的完整链路
func TestRedeemEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	org := env.mustRegister(t, model.RoleOrganization, "org")
	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	donor := env.mustRegister(t, model.RoleDonor, "donor")
	campaign := env.mustCreateCampaign(t, org.ID, 1)
	benefit := env.mustCreateBenefit(t, admin.ID, 50, 3)

	donation, err := env.donations.Submit(ctx, &SubmitDonationRequest{
		DonorID: donor.ID, CampaignID: campaign.ID, Type: model.DonationTypeSupplies, Quantity: 10,
	})
	require.NoError(t, err)

	_, err = env.donations.Review(ctx, &ReviewDonationRequest{
		DonationID: donation.ID, ReviewerID: org.ID,
		Decision: ReviewDecisionConfirm, Points: int64Ptr(50),
	})
	require.NoError(t, err)

	resp, err := env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.PointsSpent)
	assert.Equal(t, int64(0), resp.Balance)
	assert.Equal(t, model.RedemptionStatusActive, resp.Status)

	var fresh model.Benefit
	require.NoError(t, env.db.First(&fresh, benefit.ID).Error)
	assert.Equal(t, int64(2), fresh.Stock)

	// 余额为 0，再兑换报积分不足，库存不动
	_, err = env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientPoints)

	require.NoError(t, env.db.First(&fresh, benefit.ID).Error)
	assert.Equal(t, int64(2), fresh.Stock)
}

func TestRedeemOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	donor := env.mustRegister(t, model.RoleDonor, "donor")
	benefit := env.mustCreateBenefit(t, admin.ID, 10, 1)
	env.mustCredit(t, donor.ID, 1000)

	_, err := env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 2,
	})
	assert.ErrorIs(t, err, repository.ErrOutOfStock)

	// 失败不扣积分
	balance, err := env.points.GetBalance(ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestRedeemDisabledBenefit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	donor := env.mustRegister(t, model.RoleDonor, "donor")
	benefit := env.mustCreateBenefit(t, admin.ID, 10, 5)
	env.mustCredit(t, donor.ID, 100)

	require.NoError(t, env.redemptions.SetBenefitEnabled(ctx, admin.ID, benefit.ID, false))

	_, err := env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, repository.ErrBenefitDisabled)

	// 重新上架后可兑换
	require.NoError(t, env.redemptions.SetBenefitEnabled(ctx, admin.ID, benefit.ID, true))
	_, err = env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 1,
	})
	assert.NoError(t, err)
}

// 两个用户抢最后一件库存，恰好一个成功
func TestRedeemConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	benefit := env.mustCreateBenefit(t, admin.ID, 10, 1)

	users := make([]*model.Account, 3)
	for i := range users {
		users[i] = env.mustRegister(t, model.RoleDonor, "racer")
		env.mustCredit(t, users[i].ID, 100)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, user := range users {
		wg.Add(1)
		go func(idx int, userID int64) {
			defer wg.Done()
			_, errs[idx] = env.redemptions.Redeem(ctx, &RedeemRequest{
				UserID: userID, BenefitID: benefit.ID, Quantity: 1,
			})
		}(i, user.ID)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, repository.ErrOutOfStock):
			outOfStock++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, len(users)-1, outOfStock)

	var fresh model.Benefit
	require.NoError(t, env.db.First(&fresh, benefit.ID).Error)
	assert.Equal(t, int64(0), fresh.Stock)
}

// 兑换记录的消耗积分按兑换时单价固定，后续调价不影响
func TestPointsSpentFixedAtRedemption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	donor := env.mustRegister(t, model.RoleDonor, "donor")
	benefit := env.mustCreateBenefit(t, admin.ID, 30, 10)
	env.mustCredit(t, donor.ID, 100)

	resp, err := env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 1,
	})
	require.NoError(t, err)

	// 调价
	require.NoError(t, env.db.Model(&model.Benefit{}).
		Where("id = ?", benefit.ID).Update("price", 99).Error)

	redemptions, _, err := env.redemptions.ListByUser(ctx, donor.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	assert.Equal(t, resp.RedemptionNo, redemptions[0].RedemptionNo)
	assert.Equal(t, int64(30), redemptions[0].PointsSpent)
}

func TestUseCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	donor := env.mustRegister(t, model.RoleDonor, "donor")
	other := env.mustRegister(t, model.RoleDonor, "other")
	benefit := env.mustCreateBenefit(t, admin.ID, 10, 5)
	env.mustCredit(t, donor.ID, 100)

	_, err := env.redemptions.Redeem(ctx, &RedeemRequest{
		UserID: donor.ID, BenefitID: benefit.ID, Quantity: 1,
	})
	require.NoError(t, err)

	redemptions, _, err := env.redemptions.ListByUser(ctx, donor.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	redemptionID := redemptions[0].ID

	// 非持有人不能核销
	_, err = env.redemptions.UseCoupon(ctx, redemptionID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	used, err := env.redemptions.UseCoupon(ctx, redemptionID, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionStatusUsed, used.Status)
	require.NotNil(t, used.UsedAt)

	// 已核销不能再核销
	_, err = env.redemptions.UseCoupon(ctx, redemptionID, donor.ID)
	assert.ErrorIs(t, err, repository.ErrRedemptionStateInvalid)
}

func TestBenefitAdminGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	donor := env.mustRegister(t, model.RoleDonor, "donor")

	_, err := env.redemptions.CreateBenefit(ctx, &CreateBenefitRequest{
		ActorID: donor.ID, Title: "咖啡券", Price: 10, Stock: 5,
	})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	assert.ErrorIs(t, env.redemptions.SetBenefitEnabled(ctx, donor.ID, 1, false), ErrRoleNotAllowed)
	assert.ErrorIs(t, env.redemptions.RestockBenefit(ctx, donor.ID, 1, 5), ErrRoleNotAllowed)
}

func TestRestockBenefit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustRegister(t, model.RoleAdmin, "admin")
	benefit := env.mustCreateBenefit(t, admin.ID, 10, 0)

	require.NoError(t, env.redemptions.RestockBenefit(ctx, admin.ID, benefit.ID, 7))

	var fresh model.Benefit
	require.NoError(t, env.db.First(&fresh, benefit.ID).Error)
	assert.Equal(t, int64(7), fresh.Stock)
}
