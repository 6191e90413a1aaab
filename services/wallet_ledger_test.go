package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallets(t *testing.T) *WalletLedger {
	t.Helper()
	w := NewWalletLedger(newTestDB(t))
	w.Now = newTestClock(testNoon).Now
	return w
}

func TestCredit_Accumulates(t *testing.T) {
	ctx := context.Background()
	w := newTestWallets(t)

	_, err := w.Credit(ctx, "user-1", 10, "r-1")
	require.NoError(t, err)
	wallet, err := w.Credit(ctx, "user-1", 25, "r-2")
	require.NoError(t, err)
	assert.EqualValues(t, 35, wallet.TotalBalance)
	assert.Equal(t, []string{"r-1", "r-2"}, wallet.TransactionRefs)

	stored, err := w.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 35, stored.TotalBalance)
	assert.Equal(t, models.DefaultCurrency, stored.Currency)
	assert.Equal(t, []string{"r-1", "r-2"}, stored.TransactionRefs)
}

func TestCredit_RejectsNegative(t *testing.T) {
	ctx := context.Background()
	w := newTestWallets(t)

	_, err := w.Credit(ctx, "user-1", -5, "r-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	wallet, err := w.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, wallet.TotalBalance)
	assert.Empty(t, wallet.TransactionRefs)
}

func TestGetWallet_LazyCreate(t *testing.T) {
	ctx := context.Background()
	w := newTestWallets(t)

	first, err := w.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	second, err := w.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	require.NoError(t, w.DB.Model(&models.Wallet{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRewardHistory_NewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	w := newTestWallets(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.DB.Create(&models.Reward{
			ID:         uuid.NewString(),
			UserID:     "user-1",
			AttemptID:  fmt.Sprintf("a-%d", i),
			Amount:     int64(i + 1),
			Type:       models.RewardTypeCoins,
			Source:     models.RewardSourceMissionCompletion,
			IsCredited: true,
			CreatedAt:  testNoon.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	history, err := w.RewardHistory(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.EqualValues(t, 5, history[0].Amount)
	assert.EqualValues(t, 3, history[2].Amount)

	other, err := w.RewardHistory(ctx, "user-2", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
