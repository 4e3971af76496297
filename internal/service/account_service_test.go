package service

import (
	"context"
	"testing"

	"donationsystem/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesProfileAndBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accounts.Register(ctx, &RegisterRequest{
		Email:    "donor@example.com",
		Name:     "张三",
		Password: "secret123",
		Role:     model.RoleDonor,
		Nickname: "老张",
	})
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, model.RoleDonor, account.Role)

	profile, err := env.accounts.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDonor, profile.ProfileRole())
	donorProfile, ok := profile.(*model.DonorProfile)
	require.True(t, ok)
	assert.Equal(t, "老张", donorProfile.Nickname)

	// 积分账户随注册创建，初始为 0
	balance, err := env.points.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestRegisterRoleProfiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	company, err := env.accounts.Register(ctx, &RegisterRequest{
		Email: "co@example.com", Name: "某公司", Password: "secret123",
		Role: model.RoleCompany, CompanyName: "某公司", BusinessNo: "91110000X",
	})
	require.NoError(t, err)
	profile, err := env.accounts.GetProfile(ctx, company.ID)
	require.NoError(t, err)
	companyProfile, ok := profile.(*model.CompanyProfile)
	require.True(t, ok)
	assert.Equal(t, "91110000X", companyProfile.BusinessNo)

	org, err := env.accounts.Register(ctx, &RegisterRequest{
		Email: "org@example.com", Name: "某基金会", Password: "secret123",
		Role: model.RoleOrganization, OrgName: "某基金会",
	})
	require.NoError(t, err)
	profile, err = env.accounts.GetProfile(ctx, org.ID)
	require.NoError(t, err)
	_, ok = profile.(*model.OrganizationProfile)
	require.True(t, ok)
}

func TestRegisterInvalidRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.Register(context.Background(), &RegisterRequest{
		Email: "x@example.com", Name: "x", Password: "secret123", Role: "SUPERUSER",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.Register(ctx, &RegisterRequest{
		Email: "dup@example.com", Name: "a", Password: "secret123", Role: model.RoleDonor,
	})
	require.NoError(t, err)

	_, err = env.accounts.Register(ctx, &RegisterRequest{
		Email: "dup@example.com", Name: "b", Password: "secret123", Role: model.RoleDonor,
	})
	require.Error(t, err)

	// 失败的注册整体回滚，只留一条账号
	var count int64
	require.NoError(t, env.db.Model(&model.Account{}).
		Where("email = ?", "dup@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCampaignLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	org := env.mustRegister(t, model.RoleOrganization, "org")
	donor := env.mustRegister(t, model.RoleDonor, "donor")

	// 只有公益组织能发起活动
	_, err := env.campaigns.Create(ctx, &CreateCampaignRequest{
		OrganizationID: donor.ID, Title: "x", GoalQuantity: 10,
	})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	campaign := env.mustCreateCampaign(t, org.ID, 1)
	assert.Equal(t, model.CampaignStatusOpen, campaign.Status)

	// 非发起组织、非管理员不能关闭
	assert.ErrorIs(t, env.campaigns.Close(ctx, campaign.ID, donor.ID), ErrNotAuthorized)

	require.NoError(t, env.campaigns.Close(ctx, campaign.ID, org.ID))

	fresh, err := env.campaigns.Get(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusClosed, fresh.Status)
}
