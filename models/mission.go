// models/mission.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// RequirementType selects the proof verifier for a mission.
type RequirementType string

const (
	RequirementSteps        RequirementType = "STEPS"
	RequirementPhoneFree    RequirementType = "PHONE_FREE"
	RequirementQuiz         RequirementType = "QUIZ"
	RequirementExpenseTrack RequirementType = "EXPENSE_TRACK"
	RequirementProductivity RequirementType = "PRODUCTIVITY"
)

type ProofRequirement string

const (
	ProofAPIVerification    ProofRequirement = "API_VERIFICATION"
	ProofManualConfirmation ProofRequirement = "MANUAL_CONFIRMATION"
	ProofScreenshot         ProofRequirement = "SCREENSHOT"
)

const (
	MinBaseReward = 10
	MaxBaseReward = 50
)

// DayLayout is the UTC calendar-day key used for per-day uniqueness.
const DayLayout = "2006-01-02"

// Mission is a time-boxed task created once per slot per UTC day.
// Only IsActive changes after creation.
type Mission struct {
	ID               string           `json:"mission_id" gorm:"primaryKey;type:varchar(36)"`
	Slot             string           `json:"slot" gorm:"not null;uniqueIndex:idx_mission_slot_day"`
	MissionDay       string           `json:"-" gorm:"type:varchar(10);not null;uniqueIndex:idx_mission_slot_day;index"`
	Title            string           `json:"title" gorm:"not null"`
	Description      string           `json:"description" gorm:"type:text"`
	Difficulty       Difficulty       `json:"difficulty" gorm:"type:varchar(8);not null"`
	BaseReward       int              `json:"base_reward" gorm:"not null;check:base_reward >= 10 AND base_reward <= 50"`
	RequirementType  RequirementType  `json:"requirement_type" gorm:"type:varchar(16);not null"`
	RequirementValue int              `json:"requirement_value" gorm:"not null"`
	ProofRequirement ProofRequirement `json:"proof_requirement" gorm:"type:varchar(24);not null"`

	// Display metadata
	Category string   `json:"category,omitempty"`
	IconURL  string   `json:"icon_url,omitempty"`
	Tags     []string `json:"tags,omitempty" gorm:"type:text;serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	IsActive  bool      `json:"is_active" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate pins the mission to the UTC day of its creation time.
func (m *Mission) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.MissionDay = m.CreatedAt.UTC().Format(DayLayout)
	return nil
}
