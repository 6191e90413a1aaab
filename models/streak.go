package models

import "time"

// Streak is a user's consecutive-day completion state. Multiplier is always
// derived from CurrentStreakCount.
type Streak struct {
	ID                 string     `json:"streak_id" gorm:"primaryKey;type:varchar(36)"`
	UserID             string     `json:"user_id" gorm:"not null;uniqueIndex"`
	CurrentStreakCount int        `json:"current_streak_count" gorm:"not null;check:current_streak_count >= 0"`
	MaxStreakEver      int        `json:"max_streak_ever" gorm:"not null;index"`
	LastCompletionDate *time.Time `json:"last_completion_date" gorm:"index"`
	StreakStartedAt    *time.Time `json:"streak_started_at"`
	Multiplier         float64    `json:"multiplier" gorm:"not null"`
	BadgesEarned       []string   `json:"badges_earned" gorm:"type:text;serializer:json"`

	Timestamps
}

// HasBadge reports whether code is already in the earned set.
func (s *Streak) HasBadge(code string) bool {
	for _, b := range s.BadgesEarned {
		if b == code {
			return true
		}
	}
	return false
}
