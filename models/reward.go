package models

import (
	"time"
)

// RewardType is the unit a reward is paid in.
type RewardType string

const (
	RewardTypeCoins RewardType = "COINS"
)

// RewardSource records why a reward was granted.
type RewardSource string

const (
	RewardSourceMissionCompletion RewardSource = "MISSION_COMPLETION"
	RewardSourceAllMissionsBonus  RewardSource = "ALL_MISSIONS_BONUS"
	RewardSourceStreakBonus       RewardSource = "STREAK_BONUS"
	RewardSourceReferral          RewardSource = "REFERRAL"
)

// Reward is an immutable credit record. At most one reward exists per
// (attempt, source); BonusKey is only set on ALL_MISSIONS_BONUS rows and caps
// that bonus at one per user per day.
type Reward struct {
	ID         string       `json:"reward_id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string       `json:"user_id" gorm:"not null;index"`
	AttemptID  string       `json:"attempt_id" gorm:"not null;uniqueIndex:idx_reward_attempt_source"`
	Amount     int64        `json:"amount" gorm:"not null;check:amount >= 0"`
	Type       RewardType   `json:"type" gorm:"type:varchar(8);not null"`
	Source     RewardSource `json:"source" gorm:"type:varchar(24);not null;uniqueIndex:idx_reward_attempt_source"`
	IsCredited bool         `json:"is_credited" gorm:"not null;index"`
	Reason     string       `json:"reason" gorm:"type:text"`
	BonusKey   *string      `json:"-" gorm:"uniqueIndex"`
	CreatedAt  time.Time    `json:"created_at" gorm:"index"`
}
