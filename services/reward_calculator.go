package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

const DefaultBonusCoins int64 = 50

// RewardBreakdown is the payout for one approved completion.
type RewardBreakdown struct {
	BaseReward           int     `json:"base_reward"`
	EarnedCoins          int64   `json:"earned_coins"`
	BonusCoins           int64   `json:"bonus_coins"`
	TotalCoins           int64   `json:"total_coins"`
	Multiplier           float64 `json:"multiplier"`
	AllMissionsCompleted bool    `json:"-"`
}

// RewardCalculator turns a mission, the user's streak tier and the day's
// progress into a RewardBreakdown. It only reads.
type RewardCalculator struct {
	DB         *gorm.DB
	Catalog    *MissionCatalog
	BonusCoins int64
	Now        func() time.Time
}

func NewRewardCalculator(db *gorm.DB, catalog *MissionCatalog, bonusCoins int64) *RewardCalculator {
	return &RewardCalculator{
		DB:         db,
		Catalog:    catalog,
		BonusCoins: bonusCoins,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// EarnedCoins is floor(base × multiplier).
func EarnedCoins(base int, multiplier float64) int64 {
	return int64(math.Floor(float64(base) * multiplier))
}

// Compute previews the payout for userID completing mission now, counting
// mission as approved. A user without a streak row is treated as count 0.
func (r *RewardCalculator) Compute(ctx context.Context, userID string, mission *models.Mission) (RewardBreakdown, error) {
	db := r.DB.WithContext(ctx)

	var s models.Streak
	count := 0
	err := db.Select("current_streak_count").Where("user_id = ?", userID).First(&s).Error
	switch {
	case err == nil:
		count = s.CurrentStreakCount
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return RewardBreakdown{}, fmt.Errorf("failed to load streak for %s: %w", userID, err)
	}
	return r.compute(db, userID, mission, count, DayKey(r.Now()))
}

// compute reads through db so it can run inside the approval transaction.
// streakCount is the count before the completion; dayKey is the day the
// completion counts for.
func (r *RewardCalculator) compute(db *gorm.DB, userID string, mission *models.Mission, streakCount int, dayKey string) (RewardBreakdown, error) {
	multiplier := MultiplierFor(streakCount)
	b := RewardBreakdown{
		BaseReward:  mission.BaseReward,
		EarnedCoins: EarnedCoins(mission.BaseReward, multiplier),
		Multiplier:  multiplier,
	}

	all, err := r.allMissionsApproved(db, userID, mission.ID, dayKey)
	if err != nil {
		return RewardBreakdown{}, err
	}
	b.AllMissionsCompleted = all

	if all {
		granted, err := bonusGranted(db, userID, dayKey)
		if err != nil {
			return RewardBreakdown{}, err
		}
		if !granted {
			b.BonusCoins = r.BonusCoins
		}
	}
	b.TotalCoins = b.EarnedCoins + b.BonusCoins
	return b, nil
}

func (r *RewardCalculator) allMissionsApproved(db *gorm.DB, userID, completingID, dayKey string) (bool, error) {
	missions, err := r.Catalog.activeMissionsForDay(db, dayKey)
	if err != nil {
		return false, err
	}
	if len(missions) == 0 {
		return false, nil
	}
	approved, err := approvedMissionIDs(db, userID, dayKey)
	if err != nil {
		return false, err
	}
	approved[completingID] = true
	for _, m := range missions {
		if !approved[m.ID] {
			return false, nil
		}
	}
	return true, nil
}

func bonusKey(userID, dayKey string) string {
	return userID + ":" + dayKey
}

func bonusGranted(db *gorm.DB, userID, dayKey string) (bool, error) {
	var r models.Reward
	err := db.Select("id").Where("bonus_key = ?", bonusKey(userID, dayKey)).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check daily bonus: %w", err)
	}
	return true, nil
}

var reasonPrinter = message.NewPrinter(language.English)

// rewardsFor builds the immutable reward rows for an approved attempt: the
// completion itself and, when earned, the once-a-day bonus.
func (r *RewardCalculator) rewardsFor(userID, attemptID, dayKey string, b RewardBreakdown) []models.Reward {
	rewards := []models.Reward{{
		ID:         uuid.NewString(),
		UserID:     userID,
		AttemptID:  attemptID,
		Amount:     b.EarnedCoins,
		Type:       models.RewardTypeCoins,
		Source:     models.RewardSourceMissionCompletion,
		IsCredited: true,
		Reason:     reasonPrinter.Sprintf("Mission completion: %d coins (%.1fx multiplier)", b.EarnedCoins, b.Multiplier),
	}}

	if b.BonusCoins > 0 {
		key := bonusKey(userID, dayKey)
		rewards = append(rewards, models.Reward{
			ID:         uuid.NewString(),
			UserID:     userID,
			AttemptID:  attemptID,
			Amount:     b.BonusCoins,
			Type:       models.RewardTypeCoins,
			Source:     models.RewardSourceAllMissionsBonus,
			IsCredited: true,
			Reason:     reasonPrinter.Sprintf("All daily missions completed: %d bonus coins", b.BonusCoins),
			BonusKey:   &key,
		})
	}
	return rewards
}
