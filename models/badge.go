package models

import (
	"time"
)

const (
	BadgeWeekWarrior      = "WEEK_WARRIOR"
	BadgeFortnightFighter = "FORTNIGHT_FIGHTER"
	BadgeMonthlyMaster    = "MONTHLY_MASTER"
)

// BadgeType: static config, seeded from BadgeTriggers
type BadgeType struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code        string    `json:"code" gorm:"uniqueIndex;not null"` // e.g., "WEEK_WARRIOR"
	Name        string    `json:"name" gorm:"not null"`             // "Week Warrior"
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url" gorm:"type:text"`
	Rarity      string    `json:"rarity" gorm:"type:varchar(16);not null"` // common, rare, epic, legendary
	StreakDays  int       `json:"streak_days" gorm:"not null"`             // unlocks the first time the streak reaches this count
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UserBadge: awarded instance, at most one per user per badge code
type UserBadge struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_badge"`
	BadgeCode   string    `json:"badge_code" gorm:"not null;uniqueIndex:idx_user_badge"`
	StreakCount int       `json:"streak_count"`
	AwardedAt   time.Time `json:"awarded_at" gorm:"autoCreateTime"`
}

// BadgeTriggers are the streak milestones, ordered by threshold.
var BadgeTriggers = []BadgeType{
	{
		Code:        BadgeWeekWarrior,
		Name:        "Week Warrior",
		Description: "Completed missions 7 days in a row",
		Rarity:      "rare",
		StreakDays:  7,
	},
	{
		Code:        BadgeFortnightFighter,
		Name:        "Fortnight Fighter",
		Description: "Completed missions 14 days in a row",
		Rarity:      "epic",
		StreakDays:  14,
	},
	{
		Code:        BadgeMonthlyMaster,
		Name:        "Monthly Master",
		Description: "Completed missions 30 days in a row",
		Rarity:      "legendary",
		StreakDays:  30,
	},
}
