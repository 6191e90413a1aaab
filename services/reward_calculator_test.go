package services

import (
	"context"
	"testing"
	"time"

	"micro-missions/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarnedCoins(t *testing.T) {
	tests := []struct {
		base       int
		multiplier float64
		want       int64
	}{
		{10, 1.0, 10},
		{10, 1.5, 15},
		{15, 1.5, 22},
		{25, 1.5, 37},
		{40, 2.5, 100},
		{35, 2.0, 70},
		{5, 2.5, 12},
		{100, 2.5, 250},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EarnedCoins(tt.base, tt.multiplier), "%d x %.1f", tt.base, tt.multiplier)
	}
}

func TestCompute_UsesStreakBeforeToday(t *testing.T) {
	f := newFixture(t)
	seedStreak(t, f.db, "user-1", 7, testNoon.Add(-24*time.Hour))

	walk := f.mission(models.RequirementSteps)
	b, err := f.gw.Rewards.Compute(context.Background(), "user-1", &walk)
	require.NoError(t, err)
	assert.Equal(t, 10, b.BaseReward)
	assert.Equal(t, 1.5, b.Multiplier)
	assert.EqualValues(t, 15, b.EarnedCoins)
	assert.Zero(t, b.BonusCoins)
	assert.EqualValues(t, 15, b.TotalCoins)
	assert.False(t, b.AllMissionsCompleted)
}

func TestCompute_BonusOnLastMission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, rt := range []models.RequirementType{
		models.RequirementSteps,
		models.RequirementPhoneFree,
		models.RequirementQuiz,
		models.RequirementExpenseTrack,
	} {
		a, err := f.gw.Attempts.CreateAttempt(ctx, "user-1", f.mission(rt).ID, validProof(rt))
		require.NoError(t, err)
		_, err = f.gw.Attempts.MarkResult(ctx, a.ID, Resolution{Status: models.VerificationApproved})
		require.NoError(t, err)
	}

	last := f.mission(models.RequirementProductivity)
	b, err := f.gw.Rewards.Compute(ctx, "user-1", &last)
	require.NoError(t, err)
	assert.True(t, b.AllMissionsCompleted)
	assert.EqualValues(t, 40, b.EarnedCoins)
	assert.EqualValues(t, 50, b.BonusCoins)
	assert.EqualValues(t, 90, b.TotalCoins)

	// once the bonus row exists for the day it is not offered again
	rewards := f.gw.Rewards.rewardsFor("user-1", "attempt-x", "2025-03-10", b)
	require.Len(t, rewards, 2)
	require.NoError(t, f.db.Create(&rewards).Error)

	b, err = f.gw.Rewards.Compute(ctx, "user-1", &last)
	require.NoError(t, err)
	assert.True(t, b.AllMissionsCompleted)
	assert.Zero(t, b.BonusCoins)
}

func TestRewardsFor(t *testing.T) {
	f := newFixture(t)

	only := f.gw.Rewards.rewardsFor("user-1", "a-1", "2025-03-10", RewardBreakdown{EarnedCoins: 15, Multiplier: 1.5})
	require.Len(t, only, 1)
	assert.Equal(t, models.RewardSourceMissionCompletion, only[0].Source)
	assert.Equal(t, models.RewardTypeCoins, only[0].Type)
	assert.True(t, only[0].IsCredited)
	assert.Nil(t, only[0].BonusKey)
	assert.Equal(t, "Mission completion: 15 coins (1.5x multiplier)", only[0].Reason)

	both := f.gw.Rewards.rewardsFor("user-1", "a-1", "2025-03-10", RewardBreakdown{EarnedCoins: 40, BonusCoins: 50, Multiplier: 1.0})
	require.Len(t, both, 2)
	assert.Equal(t, models.RewardSourceAllMissionsBonus, both[1].Source)
	assert.EqualValues(t, 50, both[1].Amount)
	require.NotNil(t, both[1].BonusKey)
	assert.Equal(t, "user-1:2025-03-10", *both[1].BonusKey)
}

func TestCompute_DoesNotCreateStreak(t *testing.T) {
	f := newFixture(t)
	walk := f.mission(models.RequirementSteps)

	b, err := f.gw.Rewards.Compute(context.Background(), "newcomer", &walk)
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.Multiplier)
	assert.EqualValues(t, 10, b.EarnedCoins)

	var streaks int64
	require.NoError(t, f.db.Model(&models.Streak{}).Where("user_id = ?", "newcomer").Count(&streaks).Error)
	assert.Zero(t, streaks)
}
