package service

import (
	"context"
	"testing"

	"donationsystem/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplierPolicy(t *testing.T) {
	donation := &model.Donation{Quantity: 10}

	// 活动系数优先
	policy := MultiplierPolicy{DefaultMultiplier: 2}
	assert.Equal(t, int64(30), policy.Score(donation, &model.Campaign{PointMultiplier: 3}))

	// 活动没配系数用兜底值
	assert.Equal(t, int64(20), policy.Score(donation, &model.Campaign{}))

	// 全都没配时按 1 记
	assert.Equal(t, int64(10), MultiplierPolicy{}.Score(donation, &model.Campaign{}))
}

// 策略可插拔：换一个策略后确认走新公式
type flatPolicy struct {
	points int64
}

func (p flatPolicy) Score(*model.Donation, *model.Campaign) int64 {
	return p.points
}

func TestScoringPolicyPluggable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.donations.SetScoringPolicy(flatPolicy{points: 7})

	org := env.mustRegister(t, model.RoleOrganization, "org")
	donor := env.mustRegister(t, model.RoleDonor, "donor")
	campaign := env.mustCreateCampaign(t, org.ID, 5)

	donation, err := env.donations.Submit(ctx, &SubmitDonationRequest{
		DonorID: donor.ID, CampaignID: campaign.ID, Type: model.DonationTypeSupplies, Quantity: 10,
	})
	require.NoError(t, err)

	reviewed, err := env.donations.Review(ctx, &ReviewDonationRequest{
		DonationID: donation.ID, ReviewerID: org.ID, Decision: ReviewDecisionConfirm,
	})
	require.NoError(t, err)
	require.NotNil(t, reviewed.PointsAwarded)
	assert.Equal(t, int64(7), *reviewed.PointsAwarded)
}
