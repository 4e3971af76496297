package service

import (
	"context"
	"testing"

	"donationsystem/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 排序确定性：积分降序，同分按账号ID升序
func TestRankingTopN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accountA := env.mustRegister(t, model.RoleDonor, "alice")
	accountB := env.mustRegister(t, model.RoleDonor, "bob")
	accountC := env.mustRegister(t, model.RoleDonor, "carol")

	env.mustCredit(t, accountA.ID, 300)
	env.mustCredit(t, accountB.ID, 300)
	env.mustCredit(t, accountC.ID, 150)

	top, err := env.ranking.TopN(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, accountA.ID, top[0].AccountID)
	assert.Equal(t, accountB.ID, top[1].AccountID)
	assert.Equal(t, int64(300), top[0].Points)

	// 同样的输入再查一次结果一致
	again, err := env.ranking.TopN(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, top, again)

	full, err := env.ranking.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, full, 3)
	assert.Equal(t, accountC.ID, full[2].AccountID)
}

// 积分变动后缓存失效，榜单反映新余额
func TestRankingInvalidatedOnCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accountA := env.mustRegister(t, model.RoleDonor, "alice")
	accountB := env.mustRegister(t, model.RoleDonor, "bob")

	env.mustCredit(t, accountA.ID, 100)
	env.mustCredit(t, accountB.ID, 50)

	top, err := env.ranking.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, accountA.ID, top[0].AccountID)

	// B 反超
	env.mustCredit(t, accountB.ID, 200)

	top, err = env.ranking.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, accountB.ID, top[0].AccountID)
	assert.Equal(t, int64(250), top[0].Points)
}

func TestRankingValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ranking.TopN(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

// 停用账号不进榜
func TestRankingExcludesDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accountA := env.mustRegister(t, model.RoleDonor, "alice")
	accountB := env.mustRegister(t, model.RoleDonor, "bob")
	env.mustCredit(t, accountA.ID, 100)
	env.mustCredit(t, accountB.ID, 200)

	require.NoError(t, env.db.Model(&model.Account{}).
		Where("id = ?", accountB.ID).Update("disabled", true).Error)
	// 直接改库绕过了失效逻辑，再记一笔让快照失效
	_, err := env.ranking.TopN(ctx, 1)
	require.NoError(t, err)
	env.mustCredit(t, accountA.ID, 1)

	top, err := env.ranking.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, accountA.ID, top[0].AccountID)
}
